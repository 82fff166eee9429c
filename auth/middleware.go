package auth

import (
	"net/http"
	"strings"

	"github.com/user/accounts-go/apperror"
	"github.com/user/accounts-go/logging"
)

// JWTMiddleware verifies the bearer token from the Authorization header and
// stores the resulting Identity in the request context. Every failure is a
// 401 with a WWW-Authenticate challenge; the reason only goes to the log.
func JWTMiddleware(tokens *TokenManager, logger logging.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				w.Header().Set("WWW-Authenticate", "Bearer")
				WriteError(w, r, apperror.NewAuthError("authorization header is missing", nil))
				return
			}

			// The Authorization header should be in the format "Bearer {token}".
			scheme, tokenString, ok := strings.Cut(strings.TrimSpace(authHeader), " ")
			tokenString = strings.TrimSpace(tokenString)
			if !ok || !strings.EqualFold(scheme, "bearer") || tokenString == "" {
				w.Header().Set("WWW-Authenticate", "Bearer")
				WriteError(w, r, apperror.NewAuthError("authorization header format must be Bearer {token}", nil))
				return
			}

			identity, err := tokens.Validate(tokenString)
			if err != nil {
				logger.Debug(r.Context(), "bearer token rejected", "error", err)
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				WriteError(w, r, apperror.NewAuthError("invalid or expired token", err))
				return
			}

			next.ServeHTTP(w, r.WithContext(NewContextWithIdentity(r.Context(), identity)))
		})
	}
}

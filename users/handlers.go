package users

import (
	"net/http"

	"github.com/user/accounts-go/apperror"
	"github.com/user/accounts-go/auth"
)

// Handlers provides HTTP handlers for profile lookups.
type Handlers struct {
	service *Service
}

// NewHandlers creates new Handlers.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// HandleGetProfile godoc
// @Summary Get current user's profile
// @Description Returns the account record of the bearer token's subject.
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} users.ProfileResponse "Profile of the authenticated user"
// @Failure 401 {object} apperror.ErrorResponse "Missing, invalid or expired token"
// @Failure 404 {object} apperror.ErrorResponse "User no longer exists"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /auth/profile [get]
func (h *Handlers) HandleGetProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.IdentityFromContext(r.Context())
		if !ok {
			// Only reachable if the route is mounted without JWTMiddleware.
			auth.WriteError(w, r, apperror.NewAuthError("missing identity", nil))
			return
		}

		profile, err := h.service.GetProfile(r.Context(), *id)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		auth.WriteJSON(w, http.StatusOK, profile)
	}
}

package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/user/accounts-go/config"
)

// ErrInvalidToken wraps every token validation failure. Callers only need to
// know the token was rejected; the wrapped cause is for logs.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the JWT payload: `sub` carries the user id as a decimal string
// and `name` the username, next to the registered claims.
type Claims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// Identity is what a validated token says about its bearer.
type Identity struct {
	Subject string // user id, as issued
	Name    string // username at issuance time
}

// TokenManager issues and validates HS256 bearer tokens. It holds no
// per-token state: any instance configured with the same secret, issuer and
// audience accepts the same tokens, and nothing can revoke one before `exp`.
type TokenManager struct {
	key      []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

// TokenOption customizes a TokenManager.
type TokenOption func(*TokenManager)

// WithClock replaces time.Now, for both issuing and validating.
func WithClock(now func() time.Time) TokenOption {
	return func(m *TokenManager) {
		m.now = now
	}
}

// NewTokenManager builds a TokenManager from the immutable auth configuration.
func NewTokenManager(cfg config.AuthConfig, opts ...TokenOption) *TokenManager {
	m := &TokenManager{
		key:      []byte(cfg.SigningSecret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      cfg.TokenTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Issue signs a token for the given user and returns it with its expiry.
func (m *TokenManager) Issue(userID int64, username string) (string, time.Time, error) {
	now := m.now().UTC()
	expiresAt := jwt.NewNumericDate(now.Add(m.ttl))

	claims := &Claims{
		Name: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    m.issuer,
			Audience:  jwt.ClaimStrings{m.audience},
			ExpiresAt: expiresAt,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt.Time, nil
}

// Validate checks signature, algorithm, issuer, audience and expiry, and
// returns the identity claims. There is no clock skew allowance.
func (m *TokenManager) Validate(tokenString string) (*Identity, error) {
	claims := &Claims{}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithAudience(m.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)

	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return &Identity{Subject: claims.Subject, Name: claims.Name}, nil
}

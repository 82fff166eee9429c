// Package users serves the authenticated caller's profile. Identity comes
// from the bearer token verified by auth.JWTMiddleware; the record itself is
// read fresh from the credential store on every request.
package users

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/user/accounts-go/apperror"
	"github.com/user/accounts-go/auth"
	"github.com/user/accounts-go/logging"
	"github.com/user/accounts-go/store"
)

// Service provides profile lookups.
type Service struct {
	repo   store.Repository
	logger logging.Logger
}

// NewService creates a new Service.
func NewService(repo store.Repository, logger logging.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// GetProfile resolves the token subject to a stored user.
//
// A subject that is not a user id means the token was not one we issued
// for a user, so it is an AuthError. A well-formed subject with no row
// (the account was removed after issuance) is a NotFoundError.
func (s *Service) GetProfile(ctx context.Context, id auth.Identity) (*ProfileResponse, error) {
	if id.Subject == "" {
		return nil, apperror.NewAuthError("token has no subject", nil)
	}
	userID, err := strconv.ParseInt(id.Subject, 10, 64)
	if err != nil {
		return nil, apperror.NewAuthError("token subject is not a user id", err)
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("user with ID %d not found", userID), nil)
		}
		s.logger.Error(ctx, "profile lookup failed", "user_id", userID, "error", err)
		return nil, apperror.NewDatabaseError("failed to get user profile", err)
	}

	return &ProfileResponse{
		UserID:    user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
		IsActive:  user.IsActive,
	}, nil
}

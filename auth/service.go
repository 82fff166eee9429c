// Package auth handles account registration, login, and bearer token
// issuance and validation. Profile lookup for an authenticated caller lives
// in the users package; the credential store lives in store.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/user/accounts-go/apperror"
	"github.com/user/accounts-go/logging"
	"github.com/user/accounts-go/store"
)

// MaxUsernameLength matches the users.username column limit, in characters.
const MaxUsernameLength = 100

// errInvalidCredentials is the single answer for every login failure, so a
// caller cannot tell a missing user from a wrong password.
const errInvalidCredentials = "invalid credentials"

// Service orchestrates registration and login over the credential store.
type Service struct {
	repo   store.Repository
	hasher PasswordHasher
	tokens *TokenManager
	logger logging.Logger
	now    func() time.Time

	// dummyHash is compared against when the username is unknown, so that
	// path costs one hash verification like a real wrong password does.
	dummyHash func() (string, error)
}

// NewService creates a new Service.
func NewService(repo store.Repository, hasher PasswordHasher, tokens *TokenManager, logger logging.Logger) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
		now:    time.Now,
		dummyHash: sync.OnceValues(func() (string, error) {
			return hasher.Hash("not-a-real-password")
		}),
	}
}

// Register validates input, hashes the password and creates the user.
//
// The existence check is only a fast path for a friendly 409. Two concurrent
// registrations can both pass it; the unique constraint then rejects the
// second insert and that is reported as the same ConflictError.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	if err := validateRegistration(req); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		s.logger.Error(ctx, "username lookup failed", "error", err)
		return nil, apperror.NewDatabaseError("failed to create user", err)
	}
	if exists {
		return nil, apperror.NewConflictError("username already exists", nil)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperror.NewInternalError("failed to hash password", err)
	}

	user, err := s.repo.Create(ctx, &store.User{
		Username:     req.Username,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
		IsActive:     true,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateUsername) {
			return nil, apperror.NewConflictError("username already exists", nil)
		}
		s.logger.Error(ctx, "user insert failed", "error", err)
		return nil, apperror.NewDatabaseError("failed to create user", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return &RegisterResponse{UserID: user.ID, Username: user.Username}, nil
}

// Login verifies credentials and issues a bearer token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.repo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.burnHashCompare(req.Password)
			return nil, apperror.NewAuthError(errInvalidCredentials, nil)
		}
		s.logger.Error(ctx, "user lookup failed", "error", err)
		return nil, apperror.NewDatabaseError("failed to get user", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		if !errors.Is(err, ErrPasswordMismatch) {
			// A corrupt stored hash still looks like bad credentials to the caller.
			s.logger.Warn(ctx, "stored password hash unusable", "user_id", user.ID, "error", err)
		}
		return nil, apperror.NewAuthError(errInvalidCredentials, nil)
	}

	token, expiresAt, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return nil, apperror.NewInternalError("failed to issue token", err)
	}

	s.logger.Info(ctx, "user logged in", "user_id", user.ID, "expires_at", expiresAt)
	return &LoginResponse{Token: token, Username: user.Username}, nil
}

func (s *Service) burnHashCompare(password string) {
	hash, err := s.dummyHash()
	if err != nil {
		return
	}
	_ = s.hasher.Compare(hash, password)
}

func validateRegistration(req RegisterRequest) error {
	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Password) == "" {
		return apperror.NewValidationError("username and password are required", nil)
	}
	if utf8.RuneCountInString(req.Username) > MaxUsernameLength {
		return apperror.NewValidationError(fmt.Sprintf("username must be at most %d characters", MaxUsernameLength), nil)
	}
	if !utf8.ValidString(req.Username) || strings.IndexFunc(req.Username, unicode.IsControl) >= 0 {
		return apperror.NewValidationError("username must not contain control characters", nil)
	}
	if len(req.Password) > MaxPasswordBytes {
		return apperror.NewValidationError(fmt.Sprintf("password must be at most %d bytes", MaxPasswordBytes), nil)
	}
	if req.Password != req.ConfirmPassword {
		return apperror.NewValidationError("password and confirmPassword do not match", nil)
	}
	return nil
}

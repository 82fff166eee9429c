// Package store is the credential store: one row per user, with username
// uniqueness enforced by the database itself.
//
// Two backends satisfy Repository. PostgresRepository is the production store
// over a pgx pool; SQLiteRepository runs on the embedded modernc driver for
// local development and tests. Both translate driver errors into the sentinel
// errors below so callers never inspect driver-specific types.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateUsername is returned when an insert hits the username unique constraint.
	ErrDuplicateUsername = errors.New("username already exists")
)

// UsernameConstraint is the name of the unique constraint on users.username.
const UsernameConstraint = "users_username_key"

// User is the persisted account record. PasswordHash is the opaque output of
// the password hasher and is never serialized.
type User struct {
	ID           int64     `json:"userId"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	IsActive     bool      `json:"isActive"`
}

// Repository is the set of credential store operations the services depend on.
type Repository interface {
	// Create inserts user and sets its ID. A username collision yields ErrDuplicateUsername.
	Create(ctx context.Context, user *User) (*User, error)
	// ExistsByUsername reports whether a user with exactly this username exists.
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	// GetByUsername returns the user with exactly this username, or ErrNotFound.
	GetByUsername(ctx context.Context, username string) (*User, error)
	// GetByID returns the user with this id, or ErrNotFound.
	GetByID(ctx context.Context, id int64) (*User, error)
	// Ping checks that the backing database is reachable.
	Ping(ctx context.Context) error
}

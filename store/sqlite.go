package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// sqliteUser is the row shape; timestamps are stored as UTC unix milliseconds.
type sqliteUser struct {
	ID           int64  `db:"user_id"`
	Username     string `db:"username"`
	PasswordHash string `db:"password_hash"`
	CreatedAt    int64  `db:"created_at"`
	IsActive     bool   `db:"is_active"`
}

func (u sqliteUser) toUser() *User {
	return &User{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		CreatedAt:    fromMillis(u.CreatedAt),
		IsActive:     u.IsActive,
	}
}

// toMillis normalizes timestamps into millisecond precision for storage.
func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// fromMillis restores millisecond precision and keeps UTC normalization.
func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// SQLiteRepository implements Repository over sqlx and the modernc SQLite driver.
type SQLiteRepository struct {
	db *sqlx.DB
}

// NewSQLiteRepository creates a SQLiteRepository. The handle is owned by the caller.
func NewSQLiteRepository(db *sqlx.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, user *User) (*User, error) {
	query := r.db.Rebind(`INSERT INTO users (username, password_hash, created_at, is_active)
              VALUES (?, ?, ?, ?)`)

	res, err := r.db.ExecContext(ctx, query,
		user.Username, user.PasswordHash, toMillis(user.CreatedAt), user.IsActive)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	user.ID = id
	user.CreatedAt = fromMillis(toMillis(user.CreatedAt))
	return user, nil
}

func (r *SQLiteRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		r.db.Rebind(`SELECT EXISTS (SELECT 1 FROM users WHERE username = ?)`), username)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *SQLiteRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.getOne(ctx, `SELECT user_id, username, password_hash, created_at, is_active
              FROM users
              WHERE username = ?`, username)
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	return r.getOne(ctx, `SELECT user_id, username, password_hash, created_at, is_active
              FROM users
              WHERE user_id = ?`, id)
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) getOne(ctx context.Context, query string, arg any) (*User, error) {
	var row sqliteUser
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(query), arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return row.toUser(), nil
}

func isSQLiteUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	// Without extended result codes only the primary code is reported.
	return code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqliteErr.Error(), "UNIQUE")
}

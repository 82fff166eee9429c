package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/accounts-go/config"
	"github.com/user/accounts-go/db"
)

func TestIsPgUniqueViolation(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505", ConstraintName: UsernameConstraint}
	assert.True(t, isPgUniqueViolation(unique))
	assert.True(t, isPgUniqueViolation(fmt.Errorf("insert: %w", unique)))

	assert.False(t, isPgUniqueViolation(&pgconn.PgError{Code: "23502"}))
	assert.False(t, isPgUniqueViolation(errors.New("23505")))
	assert.False(t, isPgUniqueViolation(nil))
}

// newPostgresRepo connects to TEST_DATABASE_URL; the test is skipped without it.
func newPostgresRepo(t *testing.T) *PostgresRepository {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	require.NoError(t, db.MigratePostgres(dsn))

	pool, err := db.NewPgxPool(ctx, config.DatabaseConfig{Driver: config.DriverPostgres, URL: dsn, MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `TRUNCATE users RESTART IDENTITY`)
	require.NoError(t, err)

	return NewPostgresRepository(pool)
}

func TestPostgresRepository_Integration(t *testing.T) {
	repo := newPostgresRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Ping(ctx))

	u := newUser("alice")
	created, err := repo.Create(ctx, u)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	exists, err := repo.ExistsByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, exists)

	got, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, u.PasswordHash, got.PasswordHash)
	assert.WithinDuration(t, u.CreatedAt, got.CreatedAt, time.Millisecond)
	assert.Equal(t, time.UTC, got.CreatedAt.Location())

	byID, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	_, err = repo.Create(ctx, newUser("alice"))
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	_, err = repo.GetByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetByID(ctx, created.ID+1000)
	assert.ErrorIs(t, err, ErrNotFound)
}

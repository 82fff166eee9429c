// Package db provides database connectivity and schema migrations for the
// accounts service. It opens either a pgx pool (Postgres) or a sqlx handle
// over the modernc SQLite driver, and applies the embedded golang-migrate
// migrations for whichever dialect is in use.
package db

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver

	"github.com/user/accounts-go/apperror"
	"github.com/user/accounts-go/config"
)

const (
	connectTimeout  = 10 * time.Second
	pingTimeout     = 5 * time.Second
	maxConnIdleTime = 10 * time.Minute
	maxConnLifetime = 30 * time.Minute
)

// NewPgxPool establishes a pgxpool connection pool using the provided configuration
// and verifies it with a ping.
func NewPgxPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		// The DSN may carry a password, so it is not echoed back.
		return nil, apperror.NewDatabaseError("error parsing postgres connection string", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MaxConnIdleTime = maxConnIdleTime
	poolConfig.MaxConnLifetime = maxConnLifetime

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, apperror.NewDatabaseError("error creating pgxpool", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, pingTimeout)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, apperror.NewDatabaseError("error connecting to postgres", err)
	}

	return pool, nil
}

// OpenSQLite opens (creating if needed) the SQLite database at path.
//
// The handle is limited to one open connection: SQLite serializes writers
// anyway, and a single connection keeps busy errors out of concurrent requests.
func OpenSQLite(ctx context.Context, path string) (*sqlx.DB, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, apperror.NewConfigError("sqlite database path is required", nil)
	}

	dbx, err := sqlx.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, apperror.NewDatabaseError("error opening sqlite database", err)
	}
	dbx.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := dbx.PingContext(pingCtx); err != nil {
		_ = dbx.Close()
		return nil, apperror.NewDatabaseError(fmt.Sprintf("error connecting to sqlite database %s", path), err)
	}

	return dbx, nil
}

func sqliteDSN(path string) string {
	path = strings.TrimPrefix(path, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	q := url.Values{}
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "journal_mode(WAL)")
	return "file:" + path + "?" + q.Encode()
}

package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq" // database/sql driver used by golang-migrate's postgres driver

	"github.com/user/accounts-go/apperror"
)

//go:embed migrations/postgres/*.sql
var postgresMigrations embed.FS

//go:embed migrations/sqlite/*.sql
var sqliteMigrations embed.FS

// MigratePostgres applies all pending Postgres migrations.
//
// golang-migrate's postgres driver works on database/sql, not on a pgx pool,
// so a short-lived lib/pq connection is opened from the same DSN.
func MigratePostgres(dsn string) error {
	src, err := iofs.New(postgresMigrations, "migrations/postgres")
	if err != nil {
		return apperror.NewMigrationError("failed to load postgres migrations", err)
	}

	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		_ = src.Close()
		return apperror.NewMigrationError("failed to open migration connection", err)
	}
	defer sqlDB.Close()

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		_ = src.Close()
		return apperror.NewMigrationError("failed to create postgres migration driver", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		_ = src.Close()
		return apperror.NewMigrationError("failed to create migrator", err)
	}
	defer func() {
		// Both handles are ours to release here; sql.DB.Close is idempotent.
		_, _ = m.Close()
	}()

	return up(m)
}

// MigrateSQLite applies all pending SQLite migrations on an existing handle.
// The handle stays open: the migrator is deliberately not closed because the
// sqlite driver would close the shared *sql.DB with it.
func MigrateSQLite(sqlDB *sql.DB) error {
	src, err := iofs.New(sqliteMigrations, "migrations/sqlite")
	if err != nil {
		return apperror.NewMigrationError("failed to load sqlite migrations", err)
	}
	defer src.Close()

	driver, err := sqlite.WithInstance(sqlDB, &sqlite.Config{})
	if err != nil {
		return apperror.NewMigrationError("failed to create sqlite migration driver", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return apperror.NewMigrationError("failed to create migrator", err)
	}

	return up(m)
}

// up applies pending migrations. `migrate.ErrNoChange` means the schema is
// already current, which is not an error.
func up(m *migrate.Migrate) error {
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return apperror.NewMigrationError(fmt.Sprintf("failed to run migrations: %v", err), err)
	}
	return nil
}

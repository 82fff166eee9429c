// Command accounts runs the account registration, login and profile service.
//
// @title Accounts API
// @version 1.0
// @description Account registration, login and bearer-token protected profile lookup.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_JWT_TOKEN' to authorize
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/user/accounts-go/auth"
	"github.com/user/accounts-go/config"
	"github.com/user/accounts-go/db"
	"github.com/user/accounts-go/docs"
	"github.com/user/accounts-go/logging"
	"github.com/user/accounts-go/server"
	"github.com/user/accounts-go/store"
	"github.com/user/accounts-go/users"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatalf("accounts: %v", err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "accounts",
		Usage: "account registration, login and profile service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env-file",
				Value:   ".env",
				Usage:   "dotenv file to load before reading the environment",
				EnvVars: []string{"ENV_FILE"},
			},
		},
		Before: func(c *cli.Context) error {
			loadEnvFile(c.String("env-file"))
			return nil
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "apply migrations and serve the HTTP API (default)",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "apply pending database migrations and exit",
				Action: migrate,
			},
		},
	}
}

// loadEnvFile seeds the process environment from a dotenv file. Variables
// already set win. A missing file is normal outside development.
func loadEnvFile(path string) {
	if path == "" {
		return
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Printf("Warning: %s not found, using process environment only", path)
			return
		}
		log.Printf("Warning: error loading %s: %v", path, err)
	}
}

func serve(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, logger, err := bootstrap(ctx)
	if err != nil {
		return err
	}

	repo, closeStore, err := openStore(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	docs.SwaggerInfo.BasePath = swaggerBasePath(cfg.Server.BasePath)

	tokens := auth.NewTokenManager(cfg.Auth)
	authService := auth.NewService(repo, auth.NewBcryptHasher(), tokens, logger)
	userService := users.NewService(repo, logger)

	router := server.NewRouter(server.Deps{
		Config:       cfg.Server,
		Store:        repo,
		Tokens:       tokens,
		AuthHandlers: auth.NewHandlers(authService, server.ProfilePath(cfg.Server.BasePath)),
		UserHandlers: users.NewHandlers(userService),
		Logger:       logger,
	})

	return server.Run(ctx, cfg.Server, router, logger)
}

func migrate(c *cli.Context) error {
	cfg, logger, err := bootstrap(c.Context)
	if err != nil {
		return err
	}

	_, closeStore, err := openStore(c.Context, cfg.Database, logger)
	if err != nil {
		return err
	}
	closeStore()

	logger.Info(c.Context, "migrations applied", "driver", cfg.Database.Driver)
	return nil
}

// swaggerBasePath is the basePath advertised in the swagger document.
func swaggerBasePath(p string) string {
	if p == "" {
		return "/"
	}
	return p
}

func bootstrap(ctx context.Context) (*config.AppConfig, logging.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	for _, w := range cfg.Warnings {
		logger.Warn(ctx, w)
	}
	return cfg, logger, nil
}

// openStore migrates the configured database and returns a repository over it.
func openStore(ctx context.Context, cfg config.DatabaseConfig, logger logging.Logger) (store.Repository, func(), error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		dbx, err := db.OpenSQLite(ctx, cfg.URL)
		if err != nil {
			return nil, nil, err
		}
		if err := db.MigrateSQLite(dbx.DB); err != nil {
			_ = dbx.Close()
			return nil, nil, err
		}
		logger.Info(ctx, "using sqlite credential store", "path", cfg.URL)
		return store.NewSQLiteRepository(dbx), func() { _ = dbx.Close() }, nil

	default:
		if err := db.MigratePostgres(cfg.URL); err != nil {
			return nil, nil, err
		}
		pool, err := db.NewPgxPool(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		logger.Info(ctx, "using postgres credential store", "max_conns", cfg.MaxConns)
		return store.NewPostgresRepository(pool), pool.Close, nil
	}
}

// Package config provides configuration management for the accounts service.
// Values come from environment variables (optionally seeded from a .env file by
// main), are parsed with caarlos0/env, validated, and then frozen into an
// AppConfig that is passed around by value. Nothing re-reads the environment
// after startup.
package config

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	// DriverPostgres selects the pgx-backed credential store.
	DriverPostgres = "postgres"
	// DriverSQLite selects the embedded modernc SQLite credential store.
	DriverSQLite = "sqlite"

	// DefaultExpiryMinutes is used when JWT_EXPIRY_MINUTES is unset or unusable.
	DefaultExpiryMinutes = 60.0

	// MaxExpiryMinutes bounds JWT_EXPIRY_MINUTES to ten years, well inside
	// what time.Duration can hold.
	MaxExpiryMinutes = 10 * 365 * 24 * 60

	// MinSecretLength is the smallest HS256 key we accept, in bytes (256 bits).
	MinSecretLength = 32

	minPoolSize = 1
	maxPoolSize = 100
)

// DatabaseConfig holds the credential store connection settings.
type DatabaseConfig struct {
	Driver   string // "postgres" or "sqlite"
	URL      string // Postgres DSN, or SQLite file path
	MaxConns int
}

// AuthConfig holds the token signing parameters. It is built once and never mutated.
type AuthConfig struct {
	SigningSecret string        // HMAC-SHA256 key material
	Issuer        string        // `iss` claim, also required on validation
	Audience      string        // `aud` claim, also required on validation
	TokenTTL      time.Duration // lifetime of an issued token
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	BasePath           string // route prefix, "" or "/api" style (no trailing slash)
	CORSAllowedOrigins []string
	SwaggerEnabled     bool
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string
	Format string
}

// AppConfig is the top-level configuration structure for the application.
type AppConfig struct {
	Database DatabaseConfig
	Auth     AuthConfig
	Server   ServerConfig
	Log      LogConfig

	// Warnings lists non-fatal problems found while loading, e.g. an expiry
	// value that fell back to the default. Callers log them once logging is up.
	Warnings []string
}

// environment mirrors the raw variables. JWT_EXPIRY_MINUTES stays a string so
// an unparsable value can fall back to the default instead of failing.
type environment struct {
	DBDriver    string `env:"DB_DRIVER" envDefault:"postgres"`
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	DBMaxConns  int    `env:"DB_MAX_CONNS" envDefault:"10"`

	JWTSecret        string `env:"JWT_SECRET,required,notEmpty"`
	JWTIssuer        string `env:"JWT_ISSUER,required,notEmpty"`
	JWTAudience      string `env:"JWT_AUDIENCE,required,notEmpty"`
	JWTExpiryMinutes string `env:"JWT_EXPIRY_MINUTES"`

	Port               string   `env:"PORT" envDefault:"8080"`
	BasePath           string   `env:"BASE_PATH"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:4200" envSeparator:","`
	SwaggerEnabled     bool     `env:"SWAGGER_ENABLED" envDefault:"false"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// LoadConfig creates and returns an AppConfig by reading and validating environment variables.
// It collects all errors encountered during loading and returns a single error if any exist.
func LoadConfig() (*AppConfig, error) {
	var problems []string

	var raw environment
	if err := env.Parse(&raw); err != nil {
		var agg env.AggregateError
		if errors.As(err, &agg) {
			for _, e := range agg.Errors {
				problems = append(problems, e.Error())
			}
		} else {
			problems = append(problems, err.Error())
		}
	}

	var warnings []string

	driver := strings.ToLower(strings.TrimSpace(raw.DBDriver))
	if driver != DriverPostgres && driver != DriverSQLite {
		problems = append(problems, fmt.Sprintf("invalid value for DB_DRIVER: expected %q or %q, got %q", DriverPostgres, DriverSQLite, raw.DBDriver))
	}

	maxConns := raw.DBMaxConns
	if maxConns < minPoolSize {
		warnings = append(warnings, fmt.Sprintf("DB_MAX_CONNS (%d) is less than minimum %d, clamping", maxConns, minPoolSize))
		maxConns = minPoolSize
	}
	if maxConns > maxPoolSize {
		warnings = append(warnings, fmt.Sprintf("DB_MAX_CONNS (%d) is greater than maximum %d, clamping", maxConns, maxPoolSize))
		maxConns = maxPoolSize
	}

	if raw.JWTSecret != "" && len(raw.JWTSecret) < MinSecretLength {
		problems = append(problems, fmt.Sprintf("JWT_SECRET must be at least %d bytes for HS256, got %d", MinSecretLength, len(raw.JWTSecret)))
	}

	minutes, ok := ParseExpiryMinutes(raw.JWTExpiryMinutes)
	if !ok && raw.JWTExpiryMinutes != "" {
		warnings = append(warnings, fmt.Sprintf("invalid value for JWT_EXPIRY_MINUTES %q, using default of %v minutes", raw.JWTExpiryMinutes, DefaultExpiryMinutes))
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("configuration errors:\n- %s", strings.Join(problems, "\n- "))
	}

	return &AppConfig{
		Database: DatabaseConfig{
			Driver:   driver,
			URL:      raw.DatabaseURL,
			MaxConns: maxConns,
		},
		Auth: AuthConfig{
			SigningSecret: raw.JWTSecret,
			Issuer:        raw.JWTIssuer,
			Audience:      raw.JWTAudience,
			TokenTTL:      time.Duration(minutes * float64(time.Minute)),
		},
		Server: ServerConfig{
			Port:               raw.Port,
			BasePath:           normalizeBasePath(raw.BasePath),
			CORSAllowedOrigins: trimAll(raw.CORSAllowedOrigins),
			SwaggerEnabled:     raw.SwaggerEnabled,
		},
		Log: LogConfig{
			Level:  raw.LogLevel,
			Format: raw.LogFormat,
		},
		Warnings: warnings,
	}, nil
}

// ParseExpiryMinutes parses a token lifetime in (possibly fractional) minutes.
// Empty, unparsable, non-finite, non-positive and larger than
// MaxExpiryMinutes values yield DefaultExpiryMinutes and ok=false.
func ParseExpiryMinutes(value string) (minutes float64, ok bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return DefaultExpiryMinutes, false
	}
	m, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(m) || math.IsInf(m, 0) || m <= 0 || m > MaxExpiryMinutes {
		return DefaultExpiryMinutes, false
	}
	return m, true
}

func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	p = strings.TrimRight(p, "/")
	if p == "" {
		return ""
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Package config loads server settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Addr                string
	DBDriver            string
	DBPath              string
	DatabaseURL         string
	JWTSecret           string
	AllowHeaderIdentity bool
	CORSAllowedOrigins  []string
	LogLevel            slog.Level
	Environment         string
}

// Load reads .env files when present, then the environment. Variables
// already set in the environment win over .env values.
func Load(envFiles ...string) Config {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("env file not loaded", "file", f, "err", err)
		}
	}

	environment := getEnv("APP_ENV", "development")

	return Config{
		Addr:                getEnv("LEAVE_ADDR", ":8080"),
		DBDriver:            strings.ToLower(getEnv("LEAVE_DB_DRIVER", DriverSQLite)),
		DBPath:              getEnv("LEAVE_DB_PATH", "leave.db"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		AllowHeaderIdentity: getEnvBool("ALLOW_HEADER_IDENTITY", environment != "production"),
		CORSAllowedOrigins:  getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:8080"}),
		LogLevel:            getEnvLevel("LOG_LEVEL", slog.LevelInfo),
		Environment:         environment,
	}
}

// Validate reports settings that cannot start a server. Header identity is
// unauthenticated and only allowed outside production.
func (c Config) Validate() error {
	switch c.DBDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("LEAVE_DB_PATH is required for the %s driver", DriverSQLite)
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s driver", DriverPostgres)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown LEAVE_DB_DRIVER %q", c.DBDriver)
	}
	if c.AllowHeaderIdentity && c.IsProduction() {
		return errors.New("ALLOW_HEADER_IDENTITY must be off in production")
	}
	if c.JWTSecret == "" && !c.AllowHeaderIdentity {
		return errors.New("JWT_SECRET is required when ALLOW_HEADER_IDENTITY is off")
	}
	return nil
}

func (c Config) IsProduction() bool { return c.Environment == "production" }

// NewLogger builds the process logger: JSON in production, text otherwise.
func (c Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvLevel(key string, fallback slog.Level) slog.Level {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return fallback
	}
	return level
}

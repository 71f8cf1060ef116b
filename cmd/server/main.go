/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the leave planner server. Handles configuration,
  store selection, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, environment), then command-line flags
  2. Open the store selected by LEAVE_DB_DRIVER
  3. Create the planner and API handler
  4. Configure HTTP router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides LEAVE_ADDR)
  -db      SQLite database path (overrides LEAVE_DB_PATH)
           Use ":memory:" for an in-memory database

ENVIRONMENT:
  LEAVE_ADDR, LEAVE_DB_DRIVER (sqlite|postgres|memory), LEAVE_DB_PATH,
  DATABASE_URL, JWT_SECRET, ALLOW_HEADER_IDENTITY, CORS_ALLOWED_ORIGINS,
  LOG_LEVEL, APP_ENV. See config/config.go.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close the store
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/leave.db"

  # Run against PostgreSQL
  LEAVE_DB_DRIVER=postgres DATABASE_URL=postgres://localhost/leave ./server

SEE ALSO:
  - api/server.go: Router configuration
  - leave/planner.go: Admission and persistence
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/leave-planner/api"
	"github.com/warp/leave-planner/config"
	"github.com/warp/leave-planner/leave"
	"github.com/warp/leave-planner/store/memory"
	"github.com/warp/leave-planner/store/postgres"
	"github.com/warp/leave-planner/store/sqlite"
)

func main() {
	cfg := config.Load()

	// Flags
	port := flag.Int("port", 0, "HTTP server port (overrides LEAVE_ADDR)")
	dbPath := flag.String("db", "", "SQLite database path (overrides LEAVE_DB_PATH)")
	flag.Parse()
	if *port != 0 {
		cfg.Addr = fmt.Sprintf(":%d", *port)
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	// Initialize store
	store, closeStore, err := openStore(context.Background(), cfg)
	if err != nil {
		logger.Error("failed to initialize store", "driver", cfg.DBDriver, "err", err)
		os.Exit(1)
	}
	defer closeStore()

	planner := leave.NewPlanner(store, store, logger)

	var health api.Pinger
	if p, ok := store.(api.Pinger); ok {
		health = p
	}
	handler := api.NewHandler(planner, health, logger)

	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET not set, identity comes from the X-User-ID header only")
	}
	router := api.NewRouter(handler, api.RouterOptions{
		Auth:           api.NewAuthenticator(cfg.JWTSecret, cfg.AllowHeaderIdentity),
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	// Create server
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting", "addr", cfg.Addr, "driver", cfg.DBDriver, "env", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "err", err)
		return
	}

	logger.Info("server stopped")
}

// openStore returns the configured store and its release func.
func openStore(ctx context.Context, cfg config.Config) (leave.Store, func(), error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		store := postgres.New(pool)
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		return store, store.Close, nil

	case config.DriverMemory:
		return memory.New(), func() {}, nil

	default:
		store, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	}
}

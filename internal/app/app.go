package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/chidiebere/linkrotor/internal/accesslog"
	"github.com/chidiebere/linkrotor/internal/admin"
	"github.com/chidiebere/linkrotor/internal/config"
	"github.com/chidiebere/linkrotor/internal/kv"
	"github.com/chidiebere/linkrotor/internal/registry"
	"github.com/chidiebere/linkrotor/internal/resolver"
	"github.com/chidiebere/linkrotor/internal/server"
)

// App holds the application dependencies and configuration.
type App struct {
	Config *config.Config
	Logger *slog.Logger
	DBPool *pgxpool.Pool // nil for the memory store
	Server *server.Server
}

// New initializes and returns a new App instance with all dependencies wired up.
func New(ctx context.Context) (*App, error) {
	if err := loadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := setupLogger(cfg.App.LogLevel)

	logger.Info("starting application",
		"env", cfg.App.Environment,
		"store", cfg.Store.Driver,
	)

	store, dbPool, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	accounts := registry.New(store, &registry.Config{Logger: logger})

	var recorder *accesslog.Recorder
	if cfg.Redirect.AccessLogEnabled {
		recorder = accesslog.New(store, &accesslog.Config{Logger: logger})
	}

	policy, err := resolver.NewPolicy(cfg.Redirect.Policy)
	if err != nil {
		return nil, fmt.Errorf("failed to build rotation policy: %w", err)
	}

	resolverCfg := resolver.Config{
		Directory:           accounts,
		Policy:              policy,
		Logger:              logger,
		ResolvePrimaryIDs:   cfg.Redirect.ResolvePrimaryIDs,
		RotateUnaliasedOnly: cfg.Redirect.RotateUnaliasedOnly,
	}
	if recorder != nil {
		resolverCfg.Recorder = recorder
	}

	redirects := resolver.NewHandler(resolver.HandlerConfig{
		Resolver:      resolver.New(resolverCfg),
		Logger:        logger,
		TargetBaseURL: cfg.Redirect.TargetBaseURL,
	})

	adminCfg := admin.HandlerConfig{
		Store:   accounts,
		Logger:  logger,
		BaseURL: cfg.Server.BaseURL,
	}
	if recorder != nil {
		adminCfg.AccessLog = recorder
	}
	adminHandler := admin.NewHandler(adminCfg)

	srv := server.New(cfg, logger, redirects, adminHandler)

	logger.Info("application initialized",
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
		"policy", cfg.Redirect.Policy,
	)

	return &App{
		Config: cfg,
		Logger: logger,
		DBPool: dbPool,
		Server: srv,
	}, nil
}

// Start starts the application server.
func (a *App) Start(ctx context.Context) error {
	a.Logger.Info("server starting",
		"port", a.Config.Server.Port,
		"base_url", a.Config.Server.BaseURL,
	)

	if err := a.Server.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown() error {
	a.Logger.Info("shutting down application")

	if a.DBPool != nil {
		a.DBPool.Close()
		a.Logger.Info("database connection closed")
	}

	return nil
}

// loadEnv loads .env file only in non-production environments.
func loadEnv() error {
	env := os.Getenv("APP_ENV")
	if env == "development" || env == "test" {
		if err := godotenv.Load("../.env"); err != nil {
			log.Println("no .env file found.")
		}
	}
	return nil
}

// setupLogger creates a structured logger based on the log level.
func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}

// openStore builds the configured key-value backend. The returned pool
// is non-nil only for the postgres driver; the caller owns closing it.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (kv.Store, *pgxpool.Pool, error) {
	switch cfg.Store.Driver {
	case config.StoreMemory:
		logger.Info("using in-memory store")
		return kv.NewMemoryStore(), nil, nil

	case config.StorePostgres:
		pool, err := connectDatabase(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}

		store, err := kv.NewPostgresStore(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("failed to initialize postgres store: %w", err)
		}
		return store, pool, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver: %s", cfg.Store.Driver)
	}
}

// connectDatabase establishes a connection to the PostgreSQL database.
func connectDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.Store.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	// Set pool configuration
	poolConfig.MaxConns = cfg.Store.MaxConns
	poolConfig.MinConns = cfg.Store.MinConns

	logger.Info("connecting to database",
		"host", cfg.Store.Host,
		"port", cfg.Store.Port,
		"database", cfg.Store.Name,
	)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established")

	return pool, nil
}

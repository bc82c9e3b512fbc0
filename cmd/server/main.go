package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tgstorefront/internal/api"
	"tgstorefront/internal/config"
	"tgstorefront/internal/mapsession"
	"tgstorefront/internal/points"
	"tgstorefront/internal/repository"
	"tgstorefront/internal/repository/memory"
	"tgstorefront/internal/repository/postgres"
	redisstore "tgstorefront/internal/repository/redis"
	"tgstorefront/internal/service"
	"tgstorefront/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	postgresdb "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting storefront server")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Configuration loaded successfully", zap.String("handoff_store", cfg.Store))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handoff store
	var (
		store   repository.HandoffStore
		users   repository.UserRepository
		sweeper repository.HandoffSweeper
	)

	switch cfg.Store {
	case config.StorePostgres:
		db, err := connectDatabase(cfg.DSN(), logger)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		logger.Info("Database connection established")

		if err := runMigrations(db, logger); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}

		handoffRepo := postgres.NewHandoffRepo(db)
		store, sweeper = handoffRepo, handoffRepo
		users = postgres.NewUserRepo(db)

	case config.StoreRedis:
		rdb, err := redisstore.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer rdb.Close()

		logger.Info("Redis connection established", zap.String("addr", cfg.Redis.Addr))
		store = redisstore.NewHandoffStore(rdb)

	default:
		mem := memory.ProcessStore()
		store, sweeper = mem, mem
	}

	if sweeper != nil {
		cleanupService := service.NewCleanupService(sweeper, logger)
		go cleanupService.Run(ctx, service.CleanupInterval)
	}

	// Services
	catalog := points.Default()
	authService := service.NewAuthService(store, users, cfg.Auth, logger)
	pickupService := service.NewPickupService(catalog)
	verifier := session.NewVerifier([]byte(cfg.Auth.SessionJWTSecret), cfg.Auth.SessionIssuer)

	gin.SetMode(gin.ReleaseMode)
	h := api.NewHandler(api.Options{
		AuthService:   authService,
		PickupService: pickupService,
		Verifier:      verifier,
		CookieDomain:  cfg.Auth.CookieDomain,
		WebAppURL:     cfg.WebAppURL,
		MapSessions:   mapsession.NewHandler(mapsession.Options{Catalog: catalog, Logger: logger}),
		Logger:        logger,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan

	logger.Info("Shutdown signal received, stopping server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shut down HTTP server", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// connectDatabase connects to PostgreSQL with retries
func connectDatabase(dsn string, logger *zap.Logger) (*sql.DB, error) {
	var db *sql.DB
	var err error

	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = sql.Open("postgres", dsn)
		if err != nil {
			logger.Warn("Failed to open database connection",
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			time.Sleep(retryDelay)
			continue
		}

		if err = db.Ping(); err != nil {
			logger.Warn("Failed to ping database",
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			db.Close()
			time.Sleep(retryDelay)
			continue
		}

		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		return db, nil
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
}

// runMigrations applies the users and handoff_codes migrations
func runMigrations(db *sql.DB, logger *zap.Logger) error {
	driver, err := postgresdb.WithInstance(db, &postgresdb.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info("No new migrations to apply")
	case err != nil:
		return fmt.Errorf("failed to run migrations: %w", err)
	default:
		logger.Info("Migrations applied successfully")
	}

	return nil
}

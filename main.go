// Package main provides the main entry point for the Ixian task sync server
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/ixianhq/ixian-server/app/handlers"
	"github.com/ixianhq/ixian-server/app/middleware"
	"github.com/ixianhq/ixian-server/app/router"
	"github.com/ixianhq/ixian-server/app/scheduler"
	"github.com/ixianhq/ixian-server/app/services"
	businessflow "github.com/ixianhq/ixian-server/business_flow"
	"github.com/ixianhq/ixian-server/config"
	"github.com/ixianhq/ixian-server/repository"
)

// Application represents the main application structure
type Application struct {
	router    *router.FiberRouter
	config    *config.ProductionConfig
	server    *fiber.App
	stopFuncs []func()
}

func main() {
	log.Println("Starting Ixian sync server...")

	// Load production configuration
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize application
	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	// Setup routes
	app.router.SetupRoutes()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Server starting on %s", address)

		if err := app.server.Listen(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Println("Shutting down gracefully...")

	// Stop background workers
	for _, fn := range app.stopFuncs {
		fn()
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB for connection pooling configuration
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test the connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	return db, nil
}

// initializeCache initializes the Redis client and verifies connectivity
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	// Override DB if provided in config
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established to %s (db=%d)", cfg.RedisURL, cfg.RedisDB)
	return rc, nil
}

// startCacheHealthMonitor starts a background goroutine that periodically pings Redis
// to detect connectivity issues. The returned cancel function stops the monitor.
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(context.Background(), 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					log.Printf("Redis healthcheck failed: %v", err)
				}
				c()
			}
		}
	}()
	return cancel
}

// initializeNotifier picks the configured reminder delivery channel
func initializeNotifier(cfg config.NtfyConfig) services.Notifier {
	if !cfg.Enabled {
		return services.NewMockNotifier()
	}
	return services.NewNtfyClient(cfg.ServerURL, cfg.Topic, cfg.AuthToken)
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	var stopFuncs []func()

	// Initialize database
	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}
	if rc != nil {
		cancel := startCacheHealthMonitor(context.Background(), rc, 30*time.Second)
		stopFuncs = append(stopFuncs, cancel)
	}

	// Initialize repositories
	taskRepo := repository.NewTaskRepository(db)
	tagRepo := repository.NewTagRepository(db)
	tombstoneRepo := repository.NewTombstoneRepository(db)
	reminderLogRepo := repository.NewReminderLogRepository(db)

	// Initialize services
	notifier := initializeNotifier(cfg.Ntfy)

	tokenService, err := services.NewTokenService(
		cfg.JWT.TokenTTL,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		jwtSecret(cfg),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	log.Printf("Token service initialized with issuer: %s, audience: %s", cfg.JWT.Issuer, cfg.JWT.Audience)

	var tagCache *services.TagCache
	if rc != nil {
		tagCache = services.NewTagCache(rc, cfg.Cache.DefaultTTL)
	}

	// Initialize flows
	taskFlow := businessflow.NewTaskFlow(taskRepo, tombstoneRepo, db)
	taskSyncFlow := businessflow.NewTaskSyncFlow(taskRepo, db)

	var tagFlow businessflow.TagFlow
	var tagSyncFlow businessflow.TagSyncFlow
	if tagCache != nil {
		tagFlow = businessflow.NewTagFlow(tagRepo, db, tagCache)
		tagSyncFlow = businessflow.NewTagSyncFlow(tagRepo, db, tagCache)
	} else {
		tagFlow = businessflow.NewTagFlow(tagRepo, db, nil)
		tagSyncFlow = businessflow.NewTagSyncFlow(tagRepo, db, nil)
	}

	// Initialize handlers
	taskHandler := handlers.NewTaskHandler(taskFlow, taskSyncFlow)
	tagHandler := handlers.NewTagHandler(tagFlow, tagSyncFlow)
	deviceHandler := handlers.NewDeviceHandler(tokenService, cfg.JWT.TokenTTL)

	// Initialize auth middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	// Initialize router
	appRouter := router.NewFiberRouter(cfg, taskHandler, tagHandler, deviceHandler, authMiddleware)

	// Start reminder and retention loops
	sched := scheduler.NewReminderScheduler(
		taskRepo,
		tagRepo,
		reminderLogRepo,
		tombstoneRepo,
		notifier,
		db,
		cfg.Sync.ReminderInterval,
		cfg.Sync.ReminderLead,
		cfg.Sync.SweepInterval,
		cfg.Sync.RetentionWindow,
	)
	stopScheduler := sched.Start(context.Background())
	stopFuncs = append(stopFuncs, stopScheduler)

	// Create application struct from FiberRouter
	fiberRouter := appRouter.(*router.FiberRouter)
	application := &Application{
		router:    fiberRouter,
		config:    cfg,
		server:    fiberRouter.GetApp(),
		stopFuncs: stopFuncs,
	}

	return application, nil
}

// jwtSecret returns the configured secret, falling back to an ephemeral one
// when auth is disabled so the token service can still be constructed
func jwtSecret(cfg *config.ProductionConfig) string {
	if cfg.JWT.SecretKey != "" {
		return cfg.JWT.SecretKey
	}
	return fmt.Sprintf("ephemeral-dev-secret-%d-not-for-production", time.Now().UnixNano())
}

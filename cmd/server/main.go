package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mayor-schedule-api/internal/api"
	"github.com/mayor-schedule-api/internal/cache"
	"github.com/mayor-schedule-api/internal/config"
	"github.com/mayor-schedule-api/internal/database"
	"github.com/mayor-schedule-api/internal/metrics"
	"github.com/mayor-schedule-api/internal/notify"
	"github.com/mayor-schedule-api/internal/readmodel"
	"github.com/mayor-schedule-api/internal/repository"
	"github.com/mayor-schedule-api/internal/service"
	"github.com/mayor-schedule-api/pkg/logger"
)

func main() {
	// Initialize logger
	log := logger.New()
	log.Info().Msg("Starting Mayor Schedule API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Run migrations
	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "./migrations"
	}
	if err := db.RunMigrations(migrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize repositories
	repos := repository.New(db)

	// Metrics registry
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// Push delivery client
	sender := notify.NewHTTPSender(&cfg.Push, log)

	// Initialize services
	services := service.NewServices(repos, sender, collector, cfg, log)

	// Offline snapshot store for the read model
	snapshots, err := cache.NewSnapshotStore(cfg.Cache.Dir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize snapshot store")
	}

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// Read-model synchronizer, driven by store change notifications
	rm := readmodel.New(repos.Appointment, snapshots, collector, db.DSN(), log)
	go rm.Run(rootCtx)
	log.Info().Msg("Read-model synchronizer started")

	// Start the reminder sweeper
	go services.Reminder.Start(rootCtx)
	log.Info().Msg("Reminder sweeper started")

	// Initialize router
	router := api.NewRouter(services, rm, cfg, registry, db, log)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Stop background workers
	services.Reminder.Stop()
	stop()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited gracefully")
}

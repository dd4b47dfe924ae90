// Package main implements the entry point for the memoryd daemon, the
// local-first verse memorization engine: it owns the SQLite store, schedules
// reviews, and keeps the remote mirror in sync in the background.
package main

import (
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/wellversed/memoryd/internal/config"
	"github.com/wellversed/memoryd/internal/domain/schedule"
	"github.com/wellversed/memoryd/internal/netcheck"
	"github.com/wellversed/memoryd/internal/platform/logger"
	"github.com/wellversed/memoryd/internal/platform/remote"
	"github.com/wellversed/memoryd/internal/platform/sqlite"
	"github.com/wellversed/memoryd/internal/service"
	"github.com/wellversed/memoryd/internal/task"
)

func main() {
	app, err := initializeApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer app.Close()

	app.sweeper.Start()
	slog.Info("memoryd started",
		"database", app.cfg.Database.Path,
		"timezone", app.cfg.Runtime.Timezone)

	// Block until asked to shut down.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	slog.Info("shutting down")
	app.sweeper.Stop()
}

// application bundles the daemon's wired components.
type application struct {
	cfg     *config.Config
	db      *sql.DB
	sweeper *task.SweepRunner

	// Service surface used by the embedding client.
	Verses   *service.VerseService
	Cards    *service.CardService
	Sessions *service.SessionManager
	Engine   *service.SyncEngine
}

// Close releases the daemon's resources.
func (a *application) Close() {
	if err := a.db.Close(); err != nil {
		slog.Error("failed to close database", "error", err)
	}
}

// initializeApp loads configuration and wires up application components.
func initializeApp() (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger := logger.Setup(cfg.Runtime.LogLevel)

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := sqlite.MigrateUp(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	verseStore := sqlite.NewVerseStore(db, appLogger)
	cardStore := sqlite.NewCardStore(db, appLogger)
	logStore := sqlite.NewReviewLogStore(db, appLogger)
	queueStore := sqlite.NewSyncQueueStore(db, appLogger)

	mirror := remote.NewHTTPMirror(cfg.Sync.RemoteBaseURL, cfg.Sync.Timeout, appLogger)
	resolver := remote.NewHTTPResolver(cfg.Resolver.BaseURL, cfg.Resolver.Timeout, appLogger)
	prober := netcheck.NewHTTPProber(cfg.Sync.RemoteBaseURL, cfg.Sync.Timeout, appLogger)

	scheduler := schedule.NewDefaultService()

	sweeper := task.NewSweepRunner(queueStore, mirror, task.SweepConfig{
		Interval:    cfg.Sync.SweepInterval,
		MaxAttempts: cfg.Sync.MaxAttempts,
	}, appLogger)

	return &application{
		cfg:     cfg,
		db:      db,
		sweeper: sweeper,
		Verses: service.NewVerseService(
			db, verseStore, cardStore, queueStore, resolver, mirror, prober, appLogger),
		Cards: service.NewCardService(
			cardStore, logStore, queueStore, mirror, scheduler, prober, appLogger),
		Sessions: service.NewSessionManager(),
		Engine: service.NewSyncEngine(
			db, cardStore, logStore, queueStore, mirror, scheduler, prober, appLogger),
	}, nil
}

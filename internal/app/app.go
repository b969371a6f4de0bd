package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"datafill/internal/binding"
	"datafill/internal/config"
	"datafill/internal/dbclient"
	"datafill/internal/fonts"
	"datafill/internal/service"
	"datafill/internal/storage"
)

// App wires storage, import sources, resolvers and services from a Config.
// Every command builds one and closes it on exit.
type App struct {
	Config *config.Config
	Fill   *service.FillService
	Watch  *service.WatchService
	Pool   *dbclient.Pool

	db  *storage.DB
	log *slog.Logger
}

// New opens the database and builds the services. emitter receives the
// operator notifications; nil logs them.
func New(cfg *config.Config, emitter service.EventEmitter, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}
	if emitter == nil {
		emitter = service.LogEmitter{Log: log}
	}

	db, err := storage.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	notifier, err := service.NewNotifier(emitter, cfg.Locale)
	if err != nil {
		db.Close()
		return nil, err
	}

	var resolver binding.Resolver = fonts.Passthrough{}
	if len(cfg.FontDirs) > 0 {
		resolver = fonts.NewLoader(cfg.FontDirs, cfg.FontWorkers, log)
	}

	pool := setupImportSources(cfg)

	fill := service.NewFillService(service.FillDeps{
		Config:    storage.NewSettingsStore(db),
		History:   storage.NewCommitStore(db),
		Resolver:  resolver,
		Notifier:  notifier,
		ConfigKey: cfg.ConfigKey,
		Log:       log,
	})

	log.Debug("app ready", "db", cfg.DBPath, "fontDirs", len(cfg.FontDirs), "connections", len(cfg.Connections))
	return &App{
		Config: cfg,
		Fill:   fill,
		Watch:  service.NewWatchService(fill, log),
		Pool:   pool,
		db:     db,
		log:    log,
	}, nil
}

// DefaultMode is the configured distribution mode.
func (a *App) DefaultMode() binding.Mode {
	return binding.ParseMode(a.Config.Mode)
}

// Shutdown stops watchers and waits for running commits before Close.
func (a *App) Shutdown(ctx context.Context) {
	a.Watch.Stop()
	a.Fill.WaitRunning(ctx)
}

// Close releases database connections.
func (a *App) Close() error {
	return errors.Join(teardownImportSources(a.Pool), a.db.Close())
}

// Package app wires the chat core and its hosting shell into a runnable
// daemon.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"luminachat/internal/backup"
	"luminachat/pkg/ai"
	"luminachat/pkg/api"
	"luminachat/pkg/banner"
	"luminachat/pkg/config"
	"luminachat/pkg/directory"
	"luminachat/pkg/lifecycle"
	"luminachat/pkg/metrics"
	"luminachat/pkg/repo"
	"luminachat/pkg/session"
	"luminachat/pkg/store"
)

// version is set via ldflags during release builds.
var version = "dev"

// App owns the daemon's components and lifecycle.
type App struct {
	cfg config.Config
	log *zap.Logger

	db         *store.Pebble
	notifier   *store.Notifier
	repository *repo.Repository
	reconciler *repo.Reconciler
	driver     *lifecycle.Driver
	backups    *backup.Scheduler

	srv *http.Server
}

// New opens storage and constructs every component. Nothing runs until
// Run is called.
func New(cfg config.Config, log *zap.Logger) (*App, error) {
	db, err := store.OpenPebble(cfg.Storage.DBPath, log.Named("store"))
	if err != nil {
		return nil, err
	}

	notifier := store.NewNotifier(log.Named("notify"))
	adapter := store.WithNotify(db, notifier, uuid.NewString())

	repository := repo.New(adapter, repo.DefaultSeed(), log.Named("repo"))
	if err := repository.LoadAll(); err != nil {
		_ = db.Close()
		return nil, err
	}
	reconciler := repo.NewReconciler(repository, notifier, adapter.Origin(), log.Named("reconcile"))

	var responder ai.Responder
	if cfg.AI.APIKey != "" {
		responder = ai.NewClient(cfg.AI.APIKey, cfg.AI.Model, log.Named("ai"), ai.WithTimeout(cfg.AITimeout()))
	} else {
		log.Warn("no_ai_key_configured_using_fallback")
		responder = ai.Static{}
	}

	delays := lifecycle.Delays{
		Sent:      time.Duration(cfg.Lifecycle.SentMS) * time.Millisecond,
		Delivered: time.Duration(cfg.Lifecycle.DeliveredMS) * time.Millisecond,
		Read:      time.Duration(cfg.Lifecycle.ReadMS) * time.Millisecond,
		AgentRead: time.Duration(cfg.Lifecycle.AgentReadMS) * time.Millisecond,
	}
	driver := lifecycle.New(repository, responder, delays, log.Named("lifecycle"))

	sess := session.New(adapter, log.Named("session"))
	dir := directory.New(adapter, log.Named("directory"))

	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst)
	server := api.New(repository, driver, sess, dir, limiter, log.Named("api"))

	a := &App{
		cfg:        cfg,
		log:        log,
		db:         db,
		notifier:   notifier,
		repository: repository,
		reconciler: reconciler,
		driver:     driver,
		srv: &http.Server{
			Addr:         cfg.Addr(),
			Handler:      server.Router(),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
	}

	if cfg.Backup.Enabled {
		b, err := backup.New(db, cfg.Backup.Cron, cfg.Backup.Keep, log.Named("backup"))
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		a.backups = b
	}
	return a, nil
}

// Run starts the HTTP listener and background jobs, then blocks until ctx
// is cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	banner.Print(a.cfg.Addr(), a.cfg.Storage.DBPath, version)
	if a.backups != nil {
		go a.backups.Start(ctx)
	}
	go a.trackDiskUsage(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("http_listening", zap.String("addr", a.srv.Addr))
		if err := a.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return a.shutdown()
	case err := <-errCh:
		_ = a.shutdown()
		return err
	}
}

func (a *App) shutdown() error {
	a.log.Info("shutting_down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = a.srv.Shutdown(sctx)

	a.driver.Close()
	a.reconciler.Close()
	err := a.db.Close()
	a.log.Info("shutdown_complete")
	return err
}

// trackDiskUsage refreshes the storage size gauge periodically.
func (a *App) trackDiskUsage(ctx context.Context) {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			metrics.StorageBytes.Set(float64(a.db.DiskUsage()))
		case <-ctx.Done():
			return
		}
	}
}

// Package daemon assembles the long-running papercast process: job store,
// progress hub, orchestrator, and HTTP API, guarded by a single-instance
// file lock.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"papercast/internal/api"
	"papercast/internal/config"
	"papercast/internal/jobs"
	"papercast/internal/logging"
	"papercast/internal/pipeline"
	"papercast/internal/progress"
)

const shutdownGrace = 5 * time.Second

// Daemon owns the background services and enforces single-instance
// execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *jobs.Store
	hub    *progress.Hub
	orch   *pipeline.Orchestrator
	server *api.Server

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
}

// New constructs a daemon with initialized dependencies. The builder
// argument lets tests substitute the pipeline; nil selects the standard one.
func New(cfg *config.Config, logger *slog.Logger, build pipeline.Builder) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires configuration")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if build == nil {
		build = NewBuilder(cfg, logger)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	store, err := jobs.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open job store: %w", err)
	}

	hub := progress.NewHub(cfg.Workflow.StreamBuffer)
	workDir := filepath.Join(cfg.Paths.OutputDir, "work")
	orch := pipeline.NewOrchestrator(store, hub, logger, workDir, build)

	lockPath := filepath.Join(cfg.Paths.LogDir, "papercastd.lock")
	server, err := api.NewServer(api.Config{
		Bind:      cfg.Paths.APIBind,
		OutputDir: cfg.Paths.OutputDir,
		LockPath:  lockPath,
		Store:     store,
		Hub:       hub,
		Submitter: orch,
		Logger:    logger,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		hub:      hub,
		orch:     orch,
		server:   server,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock and begins serving the API.
func (d *Daemon) Start() error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another papercast daemon instance is already running")
	}

	if err := d.server.Start(); err != nil {
		_ = d.lock.Unlock()
		return err
	}

	d.running.Store(true)
	d.logger.Info(
		"papercast daemon started",
		logging.String("bind", d.server.Addr()),
		logging.String("lock", d.lockPath),
	)
	return nil
}

// Stop drains the API server, waits for running jobs, and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := d.server.Shutdown(ctx); err != nil {
		d.logger.Warn("api shutdown incomplete", logging.Error(err))
	}
	d.orch.Close()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("papercast daemon stopped")
}

// Close stops the daemon and releases held resources.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Run starts the daemon and blocks until ctx is canceled.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	d.Stop()
	return nil
}

// Addr reports the API bind address once started.
func (d *Daemon) Addr() string {
	return d.server.Addr()
}

// LockPath returns the single-instance lock file location.
func (d *Daemon) LockPath() string {
	return d.lockPath
}

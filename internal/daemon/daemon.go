package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/gofrs/flock"

	"murmur/internal/config"
	"murmur/internal/dispatch"
	"murmur/internal/journal"
	"murmur/internal/logging"
	"murmur/internal/notify"
	"murmur/internal/pipeline"
	"murmur/internal/reconcile"
)

// Daemon coordinates the background processing services and enforces
// single-instance execution.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *journal.Store
	queue      *dispatch.Queue
	pipeline   *pipeline.Manager
	reconciler *reconcile.Reconciler
	logPath    string

	lockPath string
	lock     *flock.Flock

	api *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running        bool
	PID            int
	PipelineActive bool
	LastError      string
	Entries        journal.HealthSummary
	Queue          dispatch.Stats
	JournalDBPath  string
	DispatchDBPath string
	LockFilePath   string
}

// New constructs a daemon with initialized dependencies.
func New(
	cfg *config.Config,
	store *journal.Store,
	queue *dispatch.Queue,
	pm *pipeline.Manager,
	reconciler *reconcile.Reconciler,
	logger *slog.Logger,
) (*Daemon, error) {
	if cfg == nil || store == nil || queue == nil || logger == nil || pm == nil {
		return nil, errors.New("daemon requires config, stores, logger, and pipeline manager")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "murmurd.lock")
	d := &Daemon{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		queue:      queue,
		pipeline:   pm,
		reconciler: reconciler,
		logPath:    filepath.Join(cfg.Paths.LogDir, "murmur.log"),
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}

	server, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = server
	return d, nil
}

// Start launches the pipeline, the reconciler, and the API server, and
// acquires the daemon lock.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another murmur daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.pipeline.Start(d.ctx); err != nil {
		d.releaseStartup()
		return fmt.Errorf("start pipeline: %w", err)
	}
	if d.reconciler != nil {
		if err := d.reconciler.Start(); err != nil {
			d.pipeline.Stop()
			d.releaseStartup()
			return fmt.Errorf("start reconciler: %w", err)
		}
	}
	if d.api != nil {
		if err := d.api.start(d.ctx); err != nil {
			if d.reconciler != nil {
				d.reconciler.Stop()
			}
			d.pipeline.Stop()
			d.releaseStartup()
			return err
		}
	}

	d.running.Store(true)
	d.logger.Info("murmur daemon started", logging.String("lock", d.lockPath))
	return nil
}

func (d *Daemon) releaseStartup() {
	_ = d.lock.Unlock()
	if d.cancel != nil {
		d.cancel()
	}
	d.ctx = nil
	d.cancel = nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.api != nil {
		d.api.stop()
	}
	if d.reconciler != nil {
		d.reconciler.Stop()
	}
	d.pipeline.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("murmur daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	var errs []error
	if d.queue != nil {
		errs = append(errs, d.queue.Close())
	}
	if d.store != nil {
		errs = append(errs, d.store.Close())
	}
	return errors.Join(errs...)
}

// APIAddr reports the bound API listener address, empty until started.
func (d *Daemon) APIAddr() string {
	if d.api == nil {
		return ""
	}
	return d.api.addr()
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if d.cfg == nil {
		return false, "configuration unavailable", errors.New("configuration unavailable")
	}
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	notifier := notify.NewService(d.cfg)
	if err := notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:        d.running.Load(),
		PID:            os.Getpid(),
		PipelineActive: d.running.Load(),
		JournalDBPath:  d.store.Path(),
		DispatchDBPath: d.queue.Path(),
		LockFilePath:   d.lockPath,
	}
	if err := d.pipeline.LastError(); err != nil {
		status.LastError = err.Error()
	}
	if summary, err := d.store.Summary(ctx); err == nil {
		status.Entries = summary
	}
	if stats, err := d.queue.QueueStats(ctx); err == nil {
		status.Queue = stats
	}
	return status
}

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

	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/backup"
	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/cache"
	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/config"
	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/logging"
	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/rewrite"
	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/scanner"
	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/services"
	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/tmdb"
	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/watcher"
)

// Daemon wires the rewrite pipeline to its trigger sources and enforces
// single-instance execution through a lock file.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger

	lockPath string
	lock     *flock.Flock

	cache    *cache.Store
	client   *tmdb.Client
	rewriter *rewrite.Rewriter
	watcher  *watcher.Watcher
	scanner  *scanner.Scanner

	running atomic.Bool
	cancel  context.CancelFunc
}

// New constructs a daemon. Dependencies are opened in Start so a
// constructed daemon holds no resources until it runs.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires configuration")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := filepath.Join(cfg.Paths.LogDir, "sonarr-metadata-rewrite.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// LockPath returns the path of the single-instance lock file.
func (d *Daemon) LockPath() string { return d.lockPath }

// Start acquires the instance lock, opens the cache and TMDB client, and
// launches the configured trigger sources.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another instance is already running")
	}

	store, err := cache.Open(d.cfg.Paths.CacheDir, time.Duration(d.cfg.TMDB.CacheTTLHours)*time.Hour)
	if err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("open cache: %w", err)
	}
	d.cache = store
	d.client = tmdb.New(d.cfg, store, d.logger)
	backups := backup.NewStore(d.cfg.Paths.BackupDir, d.cfg.Paths.LibraryDir)
	d.rewriter = rewrite.New(d.cfg, d.client, backups, d.logger)

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if d.cfg.Monitor.Watcher {
		d.watcher = watcher.New(d.cfg.Paths.LibraryDir, d.logger, d.dispatch(runCtx, "watcher"))
		if err := d.watcher.Start(runCtx); err != nil {
			d.teardown()
			return fmt.Errorf("start watcher: %w", err)
		}
	}
	if d.cfg.Monitor.Scanner {
		interval := time.Duration(d.cfg.Monitor.ScanInterval) * time.Second
		d.scanner = scanner.New(d.cfg.Paths.LibraryDir, interval, d.logger, d.dispatch(runCtx, "scanner"))
		d.scanner.Start(runCtx)
	}

	d.running.Store(true)
	d.logger.Info("daemon started",
		logging.String("lock", d.lockPath),
		logging.String(logging.FieldPath, d.cfg.Paths.LibraryDir),
		logging.Bool("watcher", d.cfg.Monitor.Watcher),
		logging.Bool("scanner", d.cfg.Monitor.Scanner))
	return nil
}

// dispatch returns a trigger callback that runs the rewrite pipeline on
// one file and logs the outcome.
func (d *Daemon) dispatch(ctx context.Context, trigger string) func(path string) {
	return func(path string) {
		if ctx.Err() != nil {
			return
		}
		fileCtx := services.WithTrigger(ctx, trigger)
		result := d.rewriter.ProcessFile(fileCtx, path)
		attrs := []any{
			logging.String(logging.FieldPath, result.Path),
			logging.String(logging.FieldTrigger, trigger),
			logging.String("message", result.Message),
		}
		if result.Success {
			if result.FileModified {
				d.logger.Info("file rewritten", attrs...)
			} else {
				d.logger.Debug("file unchanged", attrs...)
			}
			return
		}
		d.logger.Warn("rewrite failed", attrs...)
	}
}

// Stop halts the trigger sources, closes the TMDB client and cache, and
// releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	d.teardown()
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// joinTimeout bounds how long teardown waits for a trigger source to
// finish in-flight work. Cancellation normally ends the loops quickly;
// a stuck join is abandoned so shutdown can proceed to releasing the
// cache, client, and lock.
const joinTimeout = 10 * time.Second

func (d *Daemon) stopWithin(name string, timeout time.Duration, stop func()) {
	joined := make(chan struct{})
	go func() {
		stop()
		close(joined)
	}()
	select {
	case <-joined:
	case <-time.After(timeout):
		d.logger.Warn("shutdown join timed out, abandoning component",
			logging.String(logging.FieldComponent, name))
	}
}

func (d *Daemon) teardown() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.watcher != nil {
		d.stopWithin("watcher", joinTimeout, d.watcher.Stop)
		d.watcher = nil
	}
	if d.scanner != nil {
		d.stopWithin("scanner", joinTimeout, d.scanner.Stop)
		d.scanner = nil
	}
	if d.client != nil {
		d.client.Close()
		d.client = nil
	}
	if d.cache != nil {
		if err := d.cache.Close(); err != nil {
			d.logger.Warn("failed to close cache", logging.Error(err))
		}
		d.cache = nil
	}
	d.rewriter = nil
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release instance lock", logging.Error(err))
	}
}

package scanner

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/logging"
	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/media"
)

// Callback receives the path of each discovered target file.
type Callback func(path string)

// Scanner walks the library tree on a fixed interval and dispatches every
// rewritable file it finds. It complements the filesystem watcher by catching
// files written while the service was down or on filesystems without change
// notification.
type Scanner struct {
	root     string
	interval time.Duration
	logger   *slog.Logger
	callback Callback

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// New builds a Scanner over root that fires every interval.
func New(root string, interval time.Duration, logger *slog.Logger, callback Callback) *Scanner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scanner{
		root:     root,
		interval: interval,
		logger:   logging.NewComponentLogger(logger, "scanner"),
		callback: callback,
	}
}

// Start launches the periodic scan loop. The first sweep runs immediately.
func (s *Scanner) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true
	go s.loop(loopCtx)
}

// Stop halts the scan loop and waits for an in-flight sweep to finish.
func (s *Scanner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	done := s.done
	s.running = false
	s.mu.Unlock()

	cancel()
	<-done
}

func (s *Scanner) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// Sweep walks the library once and dispatches every target file. It is the
// body of the periodic loop and is also usable for one-shot scans.
func (s *Scanner) Sweep(ctx context.Context) {
	s.sweep(ctx)
}

func (s *Scanner) sweep(ctx context.Context) {
	if _, err := os.Stat(s.root); err != nil {
		s.logger.Warn("library root unavailable, skipping scan",
			logging.String(logging.FieldPath, s.root),
			logging.Error(err))
		return
	}
	started := time.Now()
	paths, err := media.FindTargetFiles(s.root)
	if err != nil {
		s.logger.Warn("library scan failed", logging.Error(err))
		return
	}
	dispatched := 0
	for _, path := range paths {
		if ctx.Err() != nil {
			return
		}
		s.callback(path)
		dispatched++
	}
	s.logger.Debug("library scan complete",
		logging.Int("files", dispatched),
		logging.Duration("elapsed", time.Since(started)))
}

package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/logging"
	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/media"
)

// Callback receives the path of a target file that changed on disk.
type Callback func(path string)

// Watcher dispatches file events under a library root to a callback.
// Directories are watched recursively; directories created while
// running are picked up so a newly imported show is covered without a
// restart.
type Watcher struct {
	root     string
	logger   *slog.Logger
	callback Callback

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	done    chan struct{}
	running bool
}

// New builds a Watcher for root.
func New(root string, logger *slog.Logger, callback Callback) *Watcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Watcher{
		root:     root,
		logger:   logging.NewComponentLogger(logger, "watcher"),
		callback: callback,
	}
}

// Start begins watching. It returns once the watch tree is installed;
// event dispatch runs on a background goroutine until Stop or context
// cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := addRecursive(fsw, w.root); err != nil {
		_ = fsw.Close()
		return err
	}

	w.fsw = fsw
	w.done = make(chan struct{})
	w.running = true
	go w.loop(ctx, fsw, w.done)
	return nil
}

// Stop shuts the watcher down and waits for the dispatch goroutine,
// including any callback it is mid-way through.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	fsw := w.fsw
	done := w.done
	w.running = false
	w.mu.Unlock()

	_ = fsw.Close()
	<-done

	w.mu.Lock()
	w.fsw = nil
	w.mu.Unlock()
}

// loop holds its own watcher reference: the struct field is shared
// with Stop and must not be read here.
func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handle(fsw, event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", logging.Error(err))
		}
	}
}

func (w *Watcher) handle(fsw *fsnotify.Watcher, event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		// Renames fire for the vacated path too; nothing to do there.
		return
	}
	if info.IsDir() {
		if event.Op&fsnotify.Create != 0 {
			if err := addRecursive(fsw, event.Name); err != nil {
				w.logger.Warn("failed to watch new directory",
					logging.String(logging.FieldPath, event.Name), logging.Error(err))
			}
		}
		return
	}

	if !media.IsTargetFile(event.Name) {
		return
	}
	w.logger.Debug("file event",
		logging.String(logging.FieldPath, event.Name),
		logging.String(logging.FieldEventType, event.Op.String()))
	w.callback(event.Name)
}

func addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return fsw.Add(path)
	})
}

package quota

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// SeedWatcher watches a seed file for changes and re-applies it through
// the admin write path. Rapid successive writes are debounced so an editor
// save (truncate then write) triggers a single reload.
type SeedWatcher struct {
	path     string
	admin    *Admin
	watcher  *fsnotify.Watcher
	debounce *debouncer
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// SeedWatcherConfig contains configuration for the seed watcher.
type SeedWatcherConfig struct {
	// Path is the seed file to watch.
	Path string

	// DebounceInterval is the quiet period before a reload triggers.
	// Default: 100ms
	DebounceInterval time.Duration
}

// NewSeedWatcher creates a watcher for the given seed file.
func NewSeedWatcher(cfg SeedWatcherConfig, admin *Admin) (*SeedWatcher, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("seed path cannot be empty")
	}
	if cfg.DebounceInterval == 0 {
		cfg.DebounceInterval = 100 * time.Millisecond
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &SeedWatcher{
		path:     cfg.Path,
		admin:    admin,
		watcher:  watcher,
		debounce: newDebouncer(cfg.DebounceInterval),
		logger:   slog.Default().With("component", "quota.seedwatcher"),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Watch blocks, reloading the seed file on change, until the context is
// cancelled or Stop is called. A reload that fails validation is logged
// and the store keeps its previous contents.
func (w *SeedWatcher) Watch(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		close(w.doneCh)
	}()

	// Watch the parent directory: editors replace files by rename, which
	// drops a watch placed on the file itself.
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch seed directory: %w", err)
	}

	w.logger.Info("seed watcher started", "path", w.path)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("seed watcher stopped (context cancelled)")
			return nil

		case <-w.stopCh:
			w.logger.Info("seed watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !w.shouldProcessEvent(event) {
				continue
			}

			w.logger.Debug("seed file event detected",
				"path", event.Name,
				"op", event.Op.String(),
			)

			w.debounce.trigger(func() {
				w.reload(ctx)
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("seed watcher error", "error", err)
		}
	}
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *SeedWatcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.debounce.stop()

	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

func (w *SeedWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Op&fsnotify.Chmod == fsnotify.Chmod {
		return false
	}
	return filepath.Clean(event.Name) == filepath.Clean(w.path)
}

func (w *SeedWatcher) reload(ctx context.Context) {
	w.logger.Info("reloading seed file", "path", w.path)

	seed, err := LoadSeed(w.path)
	if err != nil {
		w.logger.Error("seed reload failed, keeping previous policy",
			"path", w.path,
			"error", err,
		)
		return
	}

	if err := seed.Apply(ctx, w.admin); err != nil {
		w.logger.Error("seed apply failed",
			"path", w.path,
			"error", err,
		)
	}
}

// debouncer collects rapid events and runs the callback only after a quiet
// period.
type debouncer struct {
	interval time.Duration
	mu       sync.Mutex
	timer    *time.Timer
	callback func()
	stopCh   chan struct{}
}

func newDebouncer(interval time.Duration) *debouncer {
	return &debouncer{
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

func (d *debouncer) trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.callback = callback

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.interval, func() {
		select {
		case <-d.stopCh:
			return
		default:
			d.mu.Lock()
			cb := d.callback
			d.mu.Unlock()

			if cb != nil {
				cb()
			}
		}
	})
}

func (d *debouncer) stop() {
	close(d.stopCh)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.callback = nil
}

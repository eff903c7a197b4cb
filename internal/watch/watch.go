// Package watch keeps a partition set in sync with a partition file on disk.
//
// A Watcher re-parses the file whenever it is written, debouncing bursts of
// events, and restores the parsed layout into its partition set. Each
// successful reload is broadcast through a notifier; a file that fails to
// parse leaves the previous layout in place.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/leapstack-labs/phylopart/internal/notifier"
	"github.com/leapstack-labs/phylopart/pkg/core"
	"github.com/leapstack-labs/phylopart/pkg/parser"
	"github.com/leapstack-labs/phylopart/pkg/partition"
)

// DefaultDelay is the debounce interval between the last event and a reload.
const DefaultDelay = 100 * time.Millisecond

// Watcher follows one partition file.
type Watcher struct {
	path    string
	opts    parser.Options
	logger  *slog.Logger
	delay   time.Duration
	onError func(error)

	mu      sync.Mutex
	parts   *partition.Partitions
	dialect string
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithDelay sets the debounce interval.
func WithDelay(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.delay = d
		}
	}
}

// WithErrorHandler is called with every reload error after the first load.
func WithErrorHandler(fn func(error)) Option {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// New creates a watcher for path. Reloads are announced on n.
func New(path string, opts parser.Options, n *notifier.Notifier, options ...Option) *Watcher {
	w := &Watcher{
		path:    filepath.Clean(path),
		opts:    opts,
		logger:  slog.New(slog.DiscardHandler),
		delay:   DefaultDelay,
		onError: func(error) {},
	}
	for _, opt := range options {
		opt(w)
	}
	if w.opts.Logger == nil {
		w.opts.Logger = w.logger
	}
	popts := []partition.Option{partition.WithLogger(w.logger)}
	if n != nil {
		popts = append(popts, partition.WithListener(n))
	}
	w.parts = partition.New(popts...)
	return w
}

// Layout returns a copy of the current layout.
func (w *Watcher) Layout() *core.Layout {
	w.mu.Lock()
	defer w.mu.Unlock()
	layout := w.parts.Snapshot()
	layout.Dialect = w.dialect
	return layout
}

// Contiguous reports whether the current ranges form a gap-free cover.
func (w *Watcher) Contiguous() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.parts.Contiguous()
}

// Reload parses the file and, on success, replaces the current layout.
func (w *Watcher) Reload(ctx context.Context) error {
	layout, err := parser.ParseFile(ctx, w.path, w.opts)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.parts.Restore(layout); err != nil {
		return err
	}
	w.dialect = layout.Dialect
	w.logger.Debug("reloaded partition file", "path", w.path, "dialect", layout.Dialect, "partitions", len(layout.Partitions))
	return nil
}

// Run loads the file once and then reloads it on every change until ctx is
// cancelled. An error from the first load is returned; later errors go to
// the error handler and the watcher keeps running.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	// Editors often replace the file, so watch its directory.
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.path, err)
	}

	if err := w.Reload(ctx); err != nil {
		return err
	}

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 || filepath.Clean(event.Name) != w.path {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.delay)
			} else {
				timer.Reset(w.delay)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.logger.Debug("file changed, reloading", "path", w.path)
			if err := w.Reload(ctx); err != nil {
				w.logger.Error("reload failed", "path", w.path, "error", err)
				w.onError(err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

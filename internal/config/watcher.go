package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/roach88/hql/internal/compiler"
)

// DefaultDebounce is how long a burst of writes must settle before the file
// is read again.
const DefaultDebounce = 100 * time.Millisecond

// Watcher serves the latest valid options of one config file.
//
// Snapshot is safe for concurrent use. A reload that fails to parse is
// logged and the previous options stay in force.
type Watcher struct {
	path     string
	fs       *fsnotify.Watcher
	current  atomic.Pointer[compiler.Options]
	logger   *slog.Logger
	debounce time.Duration
	onReload func(compiler.Options)

	mu    sync.Mutex
	timer *time.Timer
	done  chan struct{}
}

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithDebounce replaces DefaultDebounce.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) { w.debounce = d }
}

// WithWatchLogger sets where reload results are logged.
func WithWatchLogger(l *slog.Logger) WatchOption {
	return func(w *Watcher) { w.logger = l }
}

// OnReload registers fn to run after each successful reload.
func OnReload(fn func(compiler.Options)) WatchOption {
	return func(w *Watcher) { w.onReload = fn }
}

// Watch loads path and keeps reloading it until ctx is done or Close is
// called. The initial load must succeed.
func Watch(ctx context.Context, path string, opts ...WatchOption) (*Watcher, error) {
	initial, err := Load(path)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch config: %w", err)
	}
	// Editors often replace the file, so watch its directory.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch config: %w", err)
	}

	w := &Watcher{
		path:     path,
		fs:       fsw,
		logger:   slog.Default(),
		debounce: DefaultDebounce,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.current.Store(&initial)

	go w.loop(ctx)
	return w, nil
}

// Snapshot returns the options currently in force.
func (w *Watcher) Snapshot() compiler.Options {
	return *w.current.Load()
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-w.done:
		return nil
	default:
	}
	close(w.done)
	if w.timer != nil {
		w.timer.Stop()
	}
	return w.fs.Close()
}

func (w *Watcher) loop(ctx context.Context) {
	name := filepath.Clean(w.path)
	for {
		select {
		case <-ctx.Done():
			w.Close()
			return
		case <-w.done:
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != name {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.schedule()
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watch error", "path", w.path, "error", err)
		}
	}
}

// schedule restarts the debounce timer; only the last event of a burst
// triggers a reload.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	opts, err := Load(w.path)
	if err != nil {
		w.logger.Warn("config reload failed, keeping previous options", "path", w.path, "error", err)
		return
	}
	w.current.Store(&opts)
	w.logger.Info("config reloaded", "path", w.path)
	if w.onReload != nil {
		w.onReload(opts)
	}
}

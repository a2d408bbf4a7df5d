// Package watch implements the dirty-flag producers for the memory core:
// a debounced filesystem watcher and an optional debounced change-stream
// watcher, each notifying a caller-supplied callback rather than running
// sync themselves (C4 in the component design).
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/haasonsaas/nexus-memcore/internal/debounce"
	"github.com/haasonsaas/nexus-memcore/internal/observability"
)

// DefaultFileDebounce is the coalescing window for filesystem events.
const DefaultFileDebounce = 500 * time.Millisecond

// FileWatcher watches MEMORY.md, memory.md, memory/, and extra configured
// paths, and invokes OnDirty (debounced) on add/change/unlink.
type FileWatcher struct {
	Workspace  string
	ExtraPaths []string
	Debounce   time.Duration
	OnDirty    func()
	Logger     *observability.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	deb     *debounce.Debouncer[struct{}]
}

// Start begins watching in the background. Safe to call once; a second call
// while already started is a no-op.
func (w *FileWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.watcher != nil {
		w.mu.Unlock()
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}

	debounceMs := w.Debounce
	if debounceMs <= 0 {
		debounceMs = DefaultFileDebounce
	}
	w.deb = debounce.NewDebouncer[struct{}](
		debounce.WithDebounceDuration[struct{}](debounceMs),
		debounce.WithOnFlush[struct{}](func(_ []*struct{}) error {
			if w.OnDirty != nil {
				w.OnDirty()
			}
			return nil
		}),
	)

	for _, p := range w.watchTargets() {
		if err := fsw.Add(p); err != nil {
			w.logf("warn", "syncengine: watch target unavailable", "path", p, "error", err)
		}
	}

	watchCtx, cancel := context.WithCancel(ctx)
	w.watcher = fsw
	w.cancel = cancel
	w.mu.Unlock()

	w.wg.Add(1)
	go w.loop(watchCtx)
	return nil
}

// Close stops the watcher. Idempotent.
func (w *FileWatcher) Close() error {
	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	fsw := w.watcher
	w.watcher = nil
	deb := w.deb
	w.mu.Unlock()

	if deb != nil {
		deb.Stop()
	}
	var err error
	if fsw != nil {
		err = fsw.Close()
	}
	w.wg.Wait()
	return err
}

func (w *FileWatcher) loop(ctx context.Context) {
	defer w.wg.Done()
	w.mu.Lock()
	fsw := w.watcher
	deb := w.deb
	w.mu.Unlock()
	if fsw == nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				deb.Enqueue(&struct{}{})
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logf("warn", "syncengine: filesystem watch error", "error", err)
		}
	}
}

func (w *FileWatcher) watchTargets() []string {
	var targets []string
	add := func(p string) {
		if p == "" {
			return
		}
		if _, err := os.Stat(p); err == nil {
			targets = append(targets, p)
		}
	}

	add(filepath.Join(w.Workspace, "MEMORY.md"))
	add(filepath.Join(w.Workspace, "memory.md"))
	add(filepath.Join(w.Workspace, "memory"))
	for _, p := range w.ExtraPaths {
		add(p)
	}
	// Always watch the workspace root too, so a MEMORY.md created after
	// Start still surfaces a Create event.
	add(w.Workspace)
	return targets
}

func (w *FileWatcher) logf(level, msg string, args ...any) {
	if w.Logger == nil {
		return
	}
	ctx := context.Background()
	switch level {
	case "warn":
		w.Logger.Warn(ctx, msg, args...)
	default:
		w.Logger.Info(ctx, msg, args...)
	}
}

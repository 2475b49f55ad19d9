package document

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/compozy/autotune/pkg/logger"
)

// Watcher notifies callbacks when watched documents change. It watches the
// parent directories so files replaced by rename keep being tracked.
type Watcher struct {
	watcher   *fsnotify.Watcher
	callbacks []func(path string)
	mu        sync.RWMutex
	// watched maps absolute paths to the context that registered them
	watched map[string]context.Context
	// dirs counts watched files per directory
	dirs      map[string]int
	log       logger.Logger
	stopCh    chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
}

// NewWatcher creates a new document watcher.
func NewWatcher(ctx context.Context) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &Watcher{
		watcher: fsWatcher,
		watched: make(map[string]context.Context),
		dirs:    make(map[string]int),
		log:     logger.FromContext(ctx),
		stopCh:  make(chan struct{}),
	}, nil
}

// Watch starts watching path until ctx is done or the watcher is closed.
func (w *Watcher) Watch(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	if _, err := os.Stat(absPath); err != nil {
		return fmt.Errorf("failed to watch file: %w", err)
	}
	dir := filepath.Dir(absPath)
	w.mu.Lock()
	if _, ok := w.watched[absPath]; ok {
		w.watched[absPath] = ctx
		w.mu.Unlock()
		return nil
	}
	if w.dirs[dir] == 0 {
		if err := w.watcher.Add(dir); err != nil {
			w.mu.Unlock()
			return fmt.Errorf("failed to watch directory: %w", err)
		}
	}
	w.dirs[dir]++
	w.watched[absPath] = ctx
	w.mu.Unlock()
	if done := ctx.Done(); done != nil {
		go func(p string, done <-chan struct{}) {
			select {
			case <-done:
			case <-w.stopCh:
			}
			w.unwatch(p)
		}(absPath, done)
	}
	w.startOnce.Do(func() {
		go w.handleEvents()
	})
	return nil
}

func (w *Watcher) unwatch(path string) {
	dir := filepath.Dir(path)
	w.mu.Lock()
	if _, ok := w.watched[path]; !ok {
		w.mu.Unlock()
		return
	}
	delete(w.watched, path)
	w.dirs[dir]--
	last := w.dirs[dir] <= 0
	if last {
		delete(w.dirs, dir)
	}
	w.mu.Unlock()
	if !last {
		return
	}
	if err := w.watcher.Remove(dir); err != nil && !errors.Is(err, fsnotify.ErrClosed) {
		w.log.Debug("failed to remove watch", "path", dir, "error", err)
	}
}

// OnChange registers a callback invoked with the absolute path of a changed document.
func (w *Watcher) OnChange(callback func(path string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

func (w *Watcher) handleEvents() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			name := filepath.Clean(event.Name)
			w.mu.RLock()
			pathCtx, stillWatched := w.watched[name]
			w.mu.RUnlock()
			if !stillWatched || (pathCtx != nil && pathCtx.Err() != nil) {
				continue
			}
			// A rename onto the watched name arrives as Create.
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.notifyCallbacks(name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.log.Warn("file watcher error", "error", err)
			}
		}
	}
}

func (w *Watcher) notifyCallbacks(path string) {
	w.mu.RLock()
	callbacks := make([]func(string), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.RUnlock()
	for _, callback := range callbacks {
		if callback != nil {
			callback(path)
		}
	}
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	var closeErr error
	w.closeOnce.Do(func() {
		close(w.stopCh)
		if err := w.watcher.Close(); err != nil {
			closeErr = fmt.Errorf("failed to close watcher: %w", err)
		}
	})
	return closeErr
}

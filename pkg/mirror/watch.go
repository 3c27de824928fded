package mirror

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/fsnotify/fsnotify"
)

// ErrAlreadyWatching is returned by Watch while a previous watch is running.
var ErrAlreadyWatching = errors.New("mirror is already being watched")

// Watch imports files matching the pattern as they are created or written,
// until ctx ends. It returns once the watcher is set up; the returned channel
// is closed when the watch loop has exited.
//
// Removing a file does not delete its note.
func (m *Mirror) Watch(ctx context.Context) (<-chan struct{}, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	m.mu.Lock()
	if m.watching {
		m.mu.Unlock()
		return nil, ErrAlreadyWatching
	}
	m.watching = true
	m.mu.Unlock()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		m.setWatching(false)
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := m.recursiveAdd(watcher, m.config.Dir); err != nil {
		_ = watcher.Close()
		m.setWatching(false)
		return nil, err
	}

	w := &watchWorker{
		mirror:    m,
		watcher:   watcher,
		debouncer: newDebouncer(m.config.Debounce),
		done:      make(chan struct{}),
	}
	lifecycle.Go(ctx, w.run, lifecycle.WithErrorHandler(func(err error) {
		m.handleError(fmt.Errorf("watcher: %w", err))
	}))
	return w.done, nil
}

// recursiveAdd watches dir and every non-hidden directory below it.
func (m *Mirror) recursiveAdd(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if rel, _ := filepath.Rel(m.config.Dir, path); rel != "." && ignored(rel) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func (m *Mirror) handleError(err error) {
	m.config.Logger.Error("mirror watch error", "error", err)
	if m.config.ErrorHandler != nil {
		m.config.ErrorHandler(err)
	}
}

type watchWorker struct {
	mirror    *Mirror
	watcher   *fsnotify.Watcher
	debouncer *debouncer
	done      chan struct{}
}

// run is the main event loop for the watcher.
func (w *watchWorker) run(ctx context.Context) (err error) {
	logger := w.mirror.config.Logger
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("watcher panic: %v", recovered)
			if logger.Enabled(ctx, slog.LevelDebug) {
				logger.Error("watcher panic", "error", err, "stack", string(debug.Stack()))
			}
		}
	}()
	defer close(w.done)
	defer w.mirror.setWatching(false)
	defer w.watcher.Close()

	logger.Debug("watching mirror", "dir", w.mirror.config.Dir, "pattern", w.mirror.config.Pattern)
	err = w.loop(ctx)

	// Drop pending imports and wait for the ones already running.
	w.debouncer.stopAndWait(5 * time.Second)
	return err
}

func (w *watchWorker) loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("watcher events channel closed")
			}
			w.process(ctx, event)

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("watcher errors channel closed")
			}
			w.mirror.handleError(wErr)
		}
	}
}

// process filters an event and schedules the import of the file it names.
func (w *watchWorker) process(ctx context.Context, event fsnotify.Event) {
	m := w.mirror
	m.config.Logger.Debug("event received", "name", event.Name, "op", event.Op.String())

	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	rel, err := filepath.Rel(m.config.Dir, event.Name)
	if err != nil {
		return
	}

	if event.Has(fsnotify.Create) && isDir(event.Name) {
		if !ignored(rel) {
			if err := m.recursiveAdd(w.watcher, event.Name); err != nil {
				m.handleError(err)
			}
		}
		return
	}
	if !m.match(rel) {
		return
	}

	path := event.Name
	w.debouncer.add(path, func() {
		if ctx.Err() != nil {
			return
		}
		if _, err := m.ImportFile(ctx, path); err != nil {
			m.handleError(fmt.Errorf("import %s: %w", rel, err))
		}
	})
}

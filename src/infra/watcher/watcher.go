package watcher

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/contre95/dropzone/src/features/watching"
	"github.com/fsnotify/fsnotify"
)

var _ watching.Source = (*Watcher)(nil)

// Watcher monitors a single directory, non recursively, and emits an event for every
// file created in or moved into it.
type Watcher struct {
	watcher   *fsnotify.Watcher
	watchPath string
	stopOnce  sync.Once
	stopChan  chan struct{}
	eventChan chan<- watching.FileEvent
}

// NewWatcher creates a new file system watcher
func NewWatcher(eventChan chan<- watching.FileEvent) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher:   watcher,
		eventChan: eventChan,
		stopChan:  make(chan struct{}),
	}, nil
}

// Factory adapts NewWatcher to a watching.SourceFactory.
func Factory(events chan<- watching.FileEvent) (watching.Source, error) {
	return NewWatcher(events)
}

// Start begins watching the path for new files
func (w *Watcher) Start(ctx context.Context, watchPath string) error {
	w.watchPath = watchPath
	slog.Info("Starting file watcher", "path", watchPath)

	if err := w.watcher.Add(watchPath); err != nil {
		return err
	}

	go w.watchLoop(ctx)

	slog.Info("File watcher started successfully", "path", watchPath)
	return nil
}

// Stop stops the file watcher. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		slog.Info("Stopping file watcher", "path", w.watchPath)
		close(w.stopChan)
		w.watcher.Close()
	})
}

// watchLoop processes file system events
func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("File watcher error", "path", w.watchPath, "error", err)

		case <-w.stopChan:
			return

		case <-ctx.Done():
			return
		}
	}
}

// handleEvent forwards creations. A file renamed into the directory is reported by
// fsnotify as a Create on the new name.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) {
		return
	}

	fileEvent := watching.FileEvent{
		Path:      event.Name,
		Kind:      watching.EventCreated,
		Timestamp: time.Now(),
	}
	if info, err := os.Stat(event.Name); err == nil {
		fileEvent.IsDir = info.IsDir()
	}

	select {
	case w.eventChan <- fileEvent:
		slog.Debug("Emitted file event", "path", fileEvent.Path, "dir", fileEvent.IsDir)
	default:
		slog.Warn("Event channel full, dropping file event", "path", fileEvent.Path)
	}
}

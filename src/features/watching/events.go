package watching

import (
	"path/filepath"
	"strings"
	"time"
)

// EventKind tells how a candidate file showed up in the watched directory.
type EventKind string

const (
	EventCreated EventKind = "created"
	EventMoved   EventKind = "moved"
	EventManual  EventKind = "manual"
)

// FileEvent is a candidate file reported by the filesystem watcher.
type FileEvent struct {
	Path      string
	Kind      EventKind
	IsDir     bool
	Timestamp time.Time
}

// Extension returns the lower-cased extension of the event path, dot included.
func (e FileEvent) Extension() string {
	return strings.ToLower(filepath.Ext(e.Path))
}

// key resolves the path used for deduplication.
func (e FileEvent) key() string {
	if abs, err := filepath.Abs(e.Path); err == nil {
		return abs
	}
	return filepath.Clean(e.Path)
}

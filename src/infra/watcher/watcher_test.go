package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/contre95/dropzone/src/features/watching"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nextEvent(t *testing.T, events <-chan watching.FileEvent) watching.FileEvent {
	t.Helper()
	select {
	case e := <-events:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
		return watching.FileEvent{}
	}
}

func TestWatcher_EmitsCreatedAndMovedFiles(t *testing.T) {
	dir, elsewhere := t.TempDir(), t.TempDir()
	events := make(chan watching.FileEvent, 10)
	w, err := NewWatcher(events)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background(), dir))
	t.Cleanup(w.Stop)

	created := filepath.Join(dir, "note.md")
	require.NoError(t, os.WriteFile(created, []byte("hello"), 0644))
	e := nextEvent(t, events)
	assert.Equal(t, created, e.Path)
	assert.Equal(t, watching.EventCreated, e.Kind)
	assert.False(t, e.IsDir)

	src := filepath.Join(elsewhere, "scan.png")
	require.NoError(t, os.WriteFile(src, []byte("png"), 0644))
	require.NoError(t, os.Rename(src, filepath.Join(dir, "scan.png")))
	for {
		e = nextEvent(t, events)
		if e.Path != created {
			break
		}
	}
	assert.Equal(t, filepath.Join(dir, "scan.png"), e.Path)

	require.NoError(t, os.Mkdir(filepath.Join(dir, "processed"), 0755))
	e = nextEvent(t, events)
	assert.True(t, e.IsDir)
}

func TestWatcher_StartFailsOnMissingDirectory(t *testing.T) {
	w, err := NewWatcher(make(chan watching.FileEvent, 1))
	require.NoError(t, err)
	defer w.Stop()
	require.Error(t, w.Start(context.Background(), filepath.Join(t.TempDir(), "missing")))
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w, err := NewWatcher(make(chan watching.FileEvent, 1))
	require.NoError(t, err)
	w.Stop()
	w.Stop()
}

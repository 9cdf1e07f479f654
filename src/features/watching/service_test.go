package watching

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	events  chan<- FileEvent
	emit    []FileEvent
	startFn func() error
	stopped chan struct{}
}

func (s *fakeSource) Start(ctx context.Context, watchPath string) error {
	if s.startFn != nil {
		if err := s.startFn(); err != nil {
			return err
		}
	}
	go func() {
		for _, e := range s.emit {
			s.events <- e
		}
	}()
	return nil
}

func (s *fakeSource) Stop() { close(s.stopped) }

func TestService_RunFeedsDispatchers(t *testing.T) {
	processed := make(chan Outcome, 1)
	obs := ObserverFunc(func(_ context.Context, o Outcome) {
		if o.Status == StatusProcessed {
			processed <- o
		}
	})
	d := NewDispatcher(Options{Name: "notes", Extensions: []string{".md"}}, &fakeStabilizer{}, &fakeProcessor{}, obs)

	source := &fakeSource{
		emit:    []FileEvent{created("/inbox/a.txt"), created("/inbox/a.md")},
		stopped: make(chan struct{}),
	}
	svc := NewService()
	svc.Register("/inbox", d, func(events chan<- FileEvent) (Source, error) {
		source.events = events
		return source, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	select {
	case o := <-processed:
		assert.Equal(t, "/inbox/a.md", o.Path)
	case <-time.After(time.Second):
		t.Fatal("file was not processed")
	}

	cancel()
	require.NoError(t, <-done)
	<-source.stopped

	stats := svc.Stats()
	require.Len(t, stats, 1)
	assert.Equal(t, 1, stats[0].Processed)
	got, ok := svc.Dispatcher("notes")
	require.True(t, ok)
	assert.Same(t, d, got)
}

func TestService_RunFailsWhenASourceCannotStart(t *testing.T) {
	svc := NewService()
	good := &fakeSource{stopped: make(chan struct{})}
	bad := &fakeSource{stopped: make(chan struct{}), startFn: func() error { return errors.New("no such directory") }}

	svc.Register("/a", newTestDispatcher(&fakeStabilizer{}, &fakeProcessor{}), func(events chan<- FileEvent) (Source, error) {
		good.events = events
		return good, nil
	})
	svc.Register("/b", newTestDispatcher(&fakeStabilizer{}, &fakeProcessor{}), func(events chan<- FileEvent) (Source, error) {
		bad.events = events
		return bad, nil
	})

	err := svc.Run(context.Background())
	require.ErrorContains(t, err, "no such directory")
	<-good.stopped
	<-bad.stopped
}

func TestService_RunWithoutWatchers(t *testing.T) {
	require.Error(t, NewService().Run(context.Background()))
}

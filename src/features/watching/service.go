package watching

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

const eventChannelBuffer = 100

// Source emits file events for a single, non-recursive directory.
type Source interface {
	Start(ctx context.Context, watchPath string) error
	Stop()
}

// SourceFactory builds a Source that writes its events to the given channel.
type SourceFactory func(events chan<- FileEvent) (Source, error)

type unit struct {
	watchPath  string
	dispatcher *Dispatcher
	newSource  SourceFactory
}

// Service runs every configured watcher, one Dispatcher per watched directory.
type Service struct {
	mu    sync.RWMutex
	units []unit
}

// NewService creates an empty watching service.
func NewService() *Service {
	return &Service{}
}

// Register adds a dispatcher fed by a source on watchPath.
func (s *Service) Register(watchPath string, dispatcher *Dispatcher, newSource SourceFactory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.units = append(s.units, unit{watchPath: watchPath, dispatcher: dispatcher, newSource: newSource})
}

// Run starts all sources and dispatchers and blocks until ctx is cancelled.
// Failing to start any source stops all of them.
func (s *Service) Run(ctx context.Context) error {
	s.mu.RLock()
	units := append([]unit(nil), s.units...)
	s.mu.RUnlock()

	if len(units) == 0 {
		return fmt.Errorf("no watchers registered")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)
	abort := func(err error) error {
		cancel()
		_ = g.Wait()
		return err
	}

	for _, u := range units {
		events := make(chan FileEvent, eventChannelBuffer)
		source, err := u.newSource(events)
		if err != nil {
			return abort(fmt.Errorf("failed to create watcher %s: %w", u.dispatcher.Name(), err))
		}
		if err := source.Start(ctx, u.watchPath); err != nil {
			source.Stop()
			return abort(fmt.Errorf("failed to watch %s for %s: %w", u.watchPath, u.dispatcher.Name(), err))
		}

		stats := u.dispatcher.Stats()
		slog.Info("Watcher starting up",
			"watcher", stats.Name,
			"watching", u.watchPath,
			"processor", stats.Processor,
			"extensions", stats.Extensions,
			"workers", stats.Workers,
		)

		g.Go(func() error {
			defer source.Stop()
			return u.dispatcher.Run(ctx, events)
		})
	}

	err := g.Wait()
	slog.Info("All watchers stopped")
	return err
}

// Stats returns a snapshot of every dispatcher.
func (s *Service) Stats() []Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := make([]Stats, 0, len(s.units))
	for _, u := range s.units {
		stats = append(stats, u.dispatcher.Stats())
	}
	return stats
}

// Dispatcher returns the dispatcher registered under name.
func (s *Service) Dispatcher(name string) (*Dispatcher, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.units {
		if u.dispatcher.Name() == name {
			return u.dispatcher, true
		}
	}
	return nil, false
}

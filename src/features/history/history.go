package history

import (
	"context"
	"log/slog"

	"github.com/contre95/dropzone/src/features/watching"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// Query filters the outcome history. Zero values match everything.
type Query struct {
	Watcher string
	Status  watching.Status
	Limit   int
}

// Store persists outcomes.
type Store interface {
	Record(ctx context.Context, outcome watching.Outcome) error
	List(ctx context.Context, q Query) ([]watching.Outcome, error)
	Summary(ctx context.Context, watcher string) (map[watching.Status]int, error)
}

// Service records outcomes and serves them back.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Observe records every outcome worth keeping. Ignored and duplicate events are noise and
// are not stored.
func (s *Service) Observe(ctx context.Context, o watching.Outcome) {
	if o.Status == watching.StatusIgnored || o.Status == watching.StatusDuplicate {
		return
	}
	if err := s.store.Record(context.WithoutCancel(ctx), o); err != nil {
		slog.Error("Failed to record outcome", "watcher", o.Watcher, "path", o.Path, "error", err)
	}
}

// List returns the most recent outcomes first.
func (s *Service) List(ctx context.Context, q Query) ([]watching.Outcome, error) {
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	q.Limit = min(q.Limit, MaxLimit)
	return s.store.List(ctx, q)
}

// Summary counts the recorded outcomes per status.
func (s *Service) Summary(ctx context.Context, watcher string) (map[watching.Status]int, error) {
	return s.store.Summary(ctx, watcher)
}

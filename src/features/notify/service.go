package notify

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/contre95/dropzone/src/features/config"
	"github.com/contre95/dropzone/src/features/watching"
)

const sendTimeout = 30 * time.Second

// Sender delivers a notification about an outcome.
type Sender interface {
	Name() string
	Send(ctx context.Context, outcome watching.Outcome) error
}

// Service forwards the outcomes selected by notify.on to every sender, in the background.
type Service struct {
	config  *config.Manager
	senders []Sender
	wg      sync.WaitGroup
}

func NewService(cfg *config.Manager, senders ...Sender) *Service {
	return &Service{config: cfg, senders: senders}
}

// Enabled reports whether there is anything to notify.
func (s *Service) Enabled() bool {
	return len(s.senders) > 0 && len(s.config.Get().Notify.On) > 0
}

// Observe sends the outcome when its status is listed in notify.on ("*" selects every status).
func (s *Service) Observe(ctx context.Context, o watching.Outcome) {
	if !ShouldNotify(s.config.Get().Notify.On, o.Status) {
		return
	}
	for _, sender := range s.senders {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
			defer cancel()
			if err := sender.Send(sendCtx, o); err != nil {
				slog.Error("Notification failed", "sender", sender.Name(), "watcher", o.Watcher, "path", o.Path, "error", err)
				return
			}
			slog.Debug("Notification sent", "sender", sender.Name(), "watcher", o.Watcher, "status", o.Status)
		}()
	}
}

// Wait blocks until every pending notification is delivered or has failed.
func (s *Service) Wait() {
	s.wg.Wait()
}

// ShouldNotify reports whether status is selected by the notify.on list.
func ShouldNotify(on []string, status watching.Status) bool {
	return slices.Contains(on, "*") || slices.Contains(on, string(status))
}

package metrics

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/contre95/dropzone/src/features/watching"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Service turns outcomes into Prometheus metrics and keeps a small overview for the API.
type Service struct {
	registry *prometheus.Registry
	metrics  *series

	mu     sync.Mutex
	counts map[string]map[watching.Status]int
}

// NewService creates a metrics service with its own registry, including the Go runtime
// and process collectors.
func NewService() *Service {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Service{
		registry: reg,
		metrics:  newSeries(reg),
		counts:   make(map[string]map[watching.Status]int),
	}
}

// Registry returns the registry served at /metrics.
func (s *Service) Registry() *prometheus.Registry {
	return s.registry
}

// Observe records an outcome.
func (s *Service) Observe(_ context.Context, o watching.Outcome) {
	s.metrics.outcomes.WithLabelValues(o.Watcher, string(o.Status)).Inc()
	if o.StableAfter > 0 {
		s.metrics.stabilization.WithLabelValues(o.Watcher).Observe(o.StableAfter.Seconds())
	}
	if o.Dispatched() {
		s.metrics.processing.WithLabelValues(o.Watcher, string(o.Status)).Observe(o.ProcessingTime.Seconds())
		s.metrics.processed.WithLabelValues(o.Watcher).Inc()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.counts[o.Watcher] == nil {
		s.counts[o.Watcher] = make(map[watching.Status]int)
	}
	s.counts[o.Watcher][o.Status]++
}

// Overview returns the outcome counts since startup, sorted by watcher name.
func (s *Service) Overview() Overview {
	s.mu.Lock()
	defer s.mu.Unlock()

	overview := Overview{Watchers: []WatcherSummary{}}
	for watcher, statuses := range s.counts {
		summary := WatcherSummary{Watcher: watcher, Statuses: make(map[watching.Status]int, len(statuses))}
		for status, n := range statuses {
			summary.Statuses[status] = n
			summary.Total += n
		}
		overview.Total += summary.Total
		overview.Watchers = append(overview.Watchers, summary)
	}
	slices.SortFunc(overview.Watchers, func(a, b WatcherSummary) int {
		return strings.Compare(a.Watcher, b.Watcher)
	})
	return overview
}

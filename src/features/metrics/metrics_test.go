package metrics

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/contre95/dropzone/src/features/watching"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func observeAll(s *Service, outcomes ...watching.Outcome) {
	for _, o := range outcomes {
		s.Observe(context.Background(), o)
	}
}

func TestService_CountsOutcomes(t *testing.T) {
	s := NewService()
	observeAll(s,
		watching.Outcome{Watcher: "notes", Status: watching.StatusProcessed, StableAfter: 2 * time.Second, ProcessingTime: time.Second},
		watching.Outcome{Watcher: "notes", Status: watching.StatusFailed, StableAfter: 2 * time.Second, ProcessingTime: time.Second},
		watching.Outcome{Watcher: "notes", Status: watching.StatusUnstable, StableAfter: 20 * time.Second},
		watching.Outcome{Watcher: "ocr", Status: watching.StatusIgnored},
	)

	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.outcomes.WithLabelValues("notes", "processed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.outcomes.WithLabelValues("ocr", "ignored")))
	assert.Equal(t, 2.0, testutil.ToFloat64(s.metrics.processed.WithLabelValues("notes")))
	assert.Equal(t, 2, testutil.CollectAndCount(s.metrics.processing))
	assert.Equal(t, 1, testutil.CollectAndCount(s.metrics.stabilization))

	overview := s.Overview()
	assert.Equal(t, 4, overview.Total)
	require.Len(t, overview.Watchers, 2)
	assert.Equal(t, "notes", overview.Watchers[0].Watcher)
	assert.Equal(t, 3, overview.Watchers[0].Total)
	assert.Equal(t, 1, overview.Watchers[0].Statuses[watching.StatusUnstable])
}

func TestRoutes(t *testing.T) {
	s := NewService()
	observeAll(s, watching.Outcome{Watcher: "notes", Status: watching.StatusProcessed})

	app := fiber.New()
	RegisterRoutes(app, s)

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `dropzone_outcomes_total{status="processed",watcher="notes"} 1`)
	assert.Contains(t, string(body), "go_goroutines")

	resp, err = app.Test(httptest.NewRequest("GET", "/api/metrics", nil))
	require.NoError(t, err)
	var overview Overview
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&overview))
	assert.Equal(t, 1, overview.Total)
}

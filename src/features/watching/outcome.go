package watching

import (
	"context"
	"time"
)

// Status is the final state of one detect and process cycle.
type Status string

const (
	StatusProcessed   Status = "processed"
	StatusFailed      Status = "failed"
	StatusTimedOut    Status = "timed_out"
	StatusUnstable    Status = "unstable"
	StatusDisappeared Status = "disappeared"
	StatusIgnored     Status = "ignored"
	StatusDuplicate   Status = "duplicate"
	StatusCancelled   Status = "cancelled"
)

// Statuses lists every status, in the order they are reported by the API.
var Statuses = []Status{
	StatusProcessed, StatusFailed, StatusTimedOut, StatusUnstable,
	StatusDisappeared, StatusIgnored, StatusDuplicate, StatusCancelled,
}

// Outcome describes what happened to a candidate file.
type Outcome struct {
	ID             string        `json:"id"`
	Watcher        string        `json:"watcher"`
	Processor      string        `json:"processor"`
	Path           string        `json:"path"`
	Event          EventKind     `json:"event"`
	Status         Status        `json:"status"`
	Size           int64         `json:"size"`
	Summary        string        `json:"summary,omitempty"`
	OutputPath     string        `json:"outputPath,omitempty"`
	Error          string        `json:"error,omitempty"`
	Err            error         `json:"-"`
	DetectedAt     time.Time     `json:"detectedAt"`
	StableAfter    time.Duration `json:"stableAfter"`
	ProcessingTime time.Duration `json:"processingTime"`
	FinishedAt     time.Time     `json:"finishedAt"`
}

// Dispatched reports whether the outcome reached the processing step.
func (o Outcome) Dispatched() bool {
	switch o.Status {
	case StatusProcessed, StatusFailed, StatusTimedOut:
		return true
	}
	return false
}

// Observer is notified of every outcome a Dispatcher produces.
// Observe is called inline on the worker, so slow observers must hand off the work.
type Observer interface {
	Observe(ctx context.Context, outcome Outcome)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, outcome Outcome)

func (f ObserverFunc) Observe(ctx context.Context, outcome Outcome) { f(ctx, outcome) }

package watching

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultTimeout = 300 * time.Second

// Processor is the external step a stable file is handed to.
type Processor interface {
	Name() string
	Process(ctx context.Context, path string) (Result, error)
}

// Result is what a successful processing step produced.
type Result struct {
	Summary    string
	OutputPath string
}

// Options configures a Dispatcher.
type Options struct {
	Name       string
	Extensions []string
	Timeout    time.Duration
	Workers    int
	QueueSize  int
}

// Stats is a snapshot of a Dispatcher state.
type Stats struct {
	Name       string   `json:"name"`
	Processor  string   `json:"processor"`
	Extensions []string `json:"extensions"`
	Workers    int      `json:"workers"`
	Processed  int      `json:"processed"`
	InFlight   int      `json:"inFlight"`
}

// Dispatcher filters file events, waits for the files to stabilize and hands them to a Processor.
// Every path is dispatched at most once per Dispatcher lifetime, even when processing fails.
type Dispatcher struct {
	name       string
	extensions map[string]bool
	timeout    time.Duration
	workers    int
	queueSize  int
	detector   Stabilizer
	processor  Processor
	observers  []Observer

	mu        sync.Mutex
	processed map[string]struct{}
	inFlight  map[string]struct{}
}

// NewDispatcher creates a dispatcher. Extensions are expected lower-cased with a leading dot.
func NewDispatcher(opts Options, detector Stabilizer, processor Processor, observers ...Observer) *Dispatcher {
	extensions := make(map[string]bool, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		extensions[ext] = true
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.QueueSize < 1 {
		opts.QueueSize = 1
	}
	return &Dispatcher{
		name:       opts.Name,
		extensions: extensions,
		timeout:    opts.Timeout,
		workers:    opts.Workers,
		queueSize:  opts.QueueSize,
		detector:   detector,
		processor:  processor,
		observers:  observers,
		processed:  make(map[string]struct{}),
		inFlight:   make(map[string]struct{}),
	}
}

// Name returns the watcher name the dispatcher was built for.
func (d *Dispatcher) Name() string {
	return d.name
}

// Accepts reports whether the event is a regular file with an allowed extension.
func (d *Dispatcher) Accepts(event FileEvent) bool {
	return !event.IsDir && d.extensions[event.Extension()]
}

// Run hands events to the workers until ctx is cancelled or events is closed.
// Queued events still run through their stability check, which ends immediately once ctx is done.
func (d *Dispatcher) Run(ctx context.Context, events <-chan FileEvent) error {
	queue := make(chan FileEvent, d.queueSize)
	var wg sync.WaitGroup
	for range d.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for event := range queue {
				d.Handle(ctx, event)
			}
		}()
	}
	defer func() {
		close(queue)
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Dispatcher stopping", "watcher", d.name)
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if !d.Accepts(event) {
				d.ignore(ctx, event)
				continue
			}
			select {
			case queue <- event:
			default:
				slog.Warn("Dispatch queue full, dropping file event", "watcher", d.name, "path", event.Path)
			}
		}
	}
}

// Handle runs one full detect and process cycle for the event and returns its outcome.
func (d *Dispatcher) Handle(ctx context.Context, event FileEvent) Outcome {
	if !d.Accepts(event) {
		return d.ignore(ctx, event)
	}

	outcome := d.newOutcome(event)
	key := event.key()
	if !d.claim(key) {
		slog.Debug("Already processed, skipping", "watcher", d.name, "path", event.Path)
		outcome.Status = StatusDuplicate
		return d.report(ctx, outcome)
	}

	slog.Info("New file detected", "watcher", d.name, "path", event.Path, "event", event.Kind)

	start := time.Now()
	size, err := d.detector.WaitForStable(ctx, event.Path)
	outcome.StableAfter = time.Since(start)
	if err != nil {
		d.release(key)
		outcome.Err = err
		switch {
		case errors.Is(err, ErrFileDisappeared):
			outcome.Status = StatusDisappeared
		case errors.Is(err, context.Canceled):
			outcome.Status = StatusCancelled
		default:
			outcome.Status = StatusUnstable
		}
		if outcome.Status == StatusCancelled {
			slog.Info("Stopped waiting for file, shutting down", "watcher", d.name, "path", event.Path)
		} else {
			slog.Error("Skipping unstable/missing file", "watcher", d.name, "path", event.Path, "status", outcome.Status, "error", err)
		}
		return d.report(ctx, outcome)
	}
	outcome.Size = size

	// Marked before processing: a failed step is not retried.
	d.markProcessed(key)

	slog.Info("Processing file", "watcher", d.name, "processor", d.processor.Name(), "path", event.Path)
	start = time.Now()
	result, err := d.process(ctx, event.Path)
	outcome.ProcessingTime = time.Since(start)
	outcome.Summary = result.Summary
	outcome.OutputPath = result.OutputPath
	switch {
	case err == nil:
		outcome.Status = StatusProcessed
		slog.Info("Processing succeeded", "watcher", d.name, "path", event.Path, "output", result.OutputPath, "summary", result.Summary)
	case errors.Is(err, ErrExternalStepTimeout):
		outcome.Status = StatusTimedOut
		outcome.Err = err
		slog.Error("Processing timed out", "watcher", d.name, "path", event.Path, "timeout", d.timeout, "error", err)
	default:
		outcome.Status = StatusFailed
		outcome.Err = err
		slog.Error("Processing failed", "watcher", d.name, "path", event.Path, "error", err)
	}
	return d.report(ctx, outcome)
}

// process calls the processor under the timeout. The call is detached from shutdown so an
// in-flight step is only ever bounded by the timeout.
func (d *Dispatcher) process(ctx context.Context, path string) (Result, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	type reply struct {
		result Result
		err    error
	}
	done := make(chan reply, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- reply{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		result, err := d.processor.Process(ctx, path)
		done <- reply{result: result, err: err}
	}()

	select {
	case r := <-done:
		if r.err == nil {
			return r.result, nil
		}
		if errors.Is(r.err, context.DeadlineExceeded) {
			return r.result, fmt.Errorf("%w after %s: %w", ErrExternalStepTimeout, d.timeout, r.err)
		}
		return r.result, fmt.Errorf("%w: %w", ErrExternalStepFailure, r.err)
	case <-ctx.Done():
		return Result{}, fmt.Errorf("%w after %s", ErrExternalStepTimeout, d.timeout)
	}
}

func (d *Dispatcher) ignore(ctx context.Context, event FileEvent) Outcome {
	slog.Debug("Ignoring file", "watcher", d.name, "path", event.Path, "dir", event.IsDir)
	outcome := d.newOutcome(event)
	outcome.Status = StatusIgnored
	return d.report(ctx, outcome)
}

func (d *Dispatcher) newOutcome(event FileEvent) Outcome {
	detected := event.Timestamp
	if detected.IsZero() {
		detected = time.Now()
	}
	return Outcome{
		ID:         uuid.New().String(),
		Watcher:    d.name,
		Processor:  d.processor.Name(),
		Path:       event.Path,
		Event:      event.Kind,
		DetectedAt: detected,
	}
}

func (d *Dispatcher) report(ctx context.Context, outcome Outcome) Outcome {
	outcome.FinishedAt = time.Now()
	if outcome.Err != nil {
		outcome.Error = outcome.Err.Error()
	}
	for _, o := range d.observers {
		o.Observe(ctx, outcome)
	}
	return outcome
}

// claim reserves the path for this cycle. It fails if the path was already dispatched or is in flight.
func (d *Dispatcher) claim(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.processed[key]; ok {
		return false
	}
	if _, ok := d.inFlight[key]; ok {
		return false
	}
	d.inFlight[key] = struct{}{}
	return true
}

func (d *Dispatcher) release(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.inFlight, key)
}

func (d *Dispatcher) markProcessed(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.inFlight, key)
	d.processed[key] = struct{}{}
}

// IsProcessed reports whether the path has been dispatched already.
func (d *Dispatcher) IsProcessed(path string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.processed[FileEvent{Path: path}.key()]
	return ok
}

// Stats returns a snapshot of the dispatcher state.
func (d *Dispatcher) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	exts := make([]string, 0, len(d.extensions))
	for ext := range d.extensions {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return Stats{
		Name:       d.name,
		Processor:  d.processor.Name(),
		Extensions: exts,
		Workers:    d.workers,
		Processed:  len(d.processed),
		InFlight:   len(d.inFlight),
	}
}

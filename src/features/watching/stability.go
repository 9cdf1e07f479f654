package watching

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"
)

const defaultAttemptMultiplier = 10

// Stabilizer blocks until a file has finished being written.
type Stabilizer interface {
	WaitForStable(ctx context.Context, path string) (int64, error)
}

// Detector decides a file is complete once its size stays the same for a number of consecutive polls.
// A zero-byte file never counts as stable.
type Detector struct {
	interval   time.Duration
	required   int
	multiplier int
	stat       func(string) (fs.FileInfo, error)
}

// NewDetector creates a Detector polling every interval until the size was unchanged for
// required consecutive checks, giving up after required*multiplier polls.
func NewDetector(interval time.Duration, required, multiplier int) *Detector {
	if required < 1 {
		required = 1
	}
	if multiplier < 1 {
		multiplier = defaultAttemptMultiplier
	}
	return &Detector{
		interval:   interval,
		required:   required,
		multiplier: multiplier,
		stat:       os.Stat,
	}
}

// Bound is the maximum number of polls before giving up.
func (d *Detector) Bound() int {
	return d.required * d.multiplier
}

// WaitForStable polls the size of path and returns it once it has settled.
func (d *Detector) WaitForStable(ctx context.Context, path string) (int64, error) {
	slog.Debug("Waiting for file to finish writing", "path", path)

	previous := int64(-1)
	stable := 0
	for range d.Bound() {
		info, err := d.stat(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return 0, fmt.Errorf("%w: %s", ErrFileDisappeared, path)
			}
			return 0, fmt.Errorf("failed to stat %s: %w", path, err)
		}

		size := info.Size()
		if size == previous && previous > 0 {
			stable++
			if stable >= d.required {
				slog.Info("File is stable", "path", path, "bytes", size, "steady_for", time.Duration(d.required)*d.interval)
				return size, nil
			}
		} else {
			stable = 0
		}
		previous = size

		if err := sleep(ctx, d.interval); err != nil {
			return 0, err
		}
	}

	return 0, fmt.Errorf("%w: %s (%d checks)", ErrStabilizationTimeout, path, d.Bound())
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

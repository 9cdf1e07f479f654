package watching

import "errors"

var (
	// ErrFileDisappeared is returned when a candidate file vanishes while it is being stabilized.
	ErrFileDisappeared = errors.New("file disappeared while waiting to stabilize")
	// ErrStabilizationTimeout is returned when a file size never settles within the attempt bound.
	ErrStabilizationTimeout = errors.New("timed out waiting for file to stabilize")
	// ErrExternalStepTimeout is returned when the processing step exceeds its timeout.
	ErrExternalStepTimeout = errors.New("processing step timed out")
	// ErrExternalStepFailure is returned when the processing step fails or returns an unusable result.
	ErrExternalStepFailure = errors.New("processing step failed")
)

package script

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/contre95/dropzone/src/features/config"
	"github.com/contre95/dropzone/src/features/watching"
)

const (
	maxSummary = 200
	waitDelay  = time.Second
)

var _ watching.Processor = (*Runner)(nil)

// Runner hands files to a user provided bash script as its only argument.
type Runner struct {
	script string
}

func NewRunner(w config.Watcher) *Runner {
	return &Runner{script: w.Script}
}

func (r *Runner) Name() string { return config.KindScript }

// Process runs `bash <script> <path>`. A zero exit status is a success.
func (r *Runner) Process(ctx context.Context, path string) (watching.Result, error) {
	cmd := exec.CommandContext(ctx, "bash", r.script, path)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// children of the script may keep the output pipes open after it is killed
	cmd.WaitDelay = waitDelay

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return watching.Result{}, ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return watching.Result{}, fmt.Errorf("script exited with status %d: %s", exitErr.ExitCode(), msg)
		}
		return watching.Result{}, fmt.Errorf("failed to run script: %w", err)
	}

	return watching.Result{Summary: summarize(stdout.String())}, nil
}

// summarize keeps the last non empty output line.
func summarize(out string) string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	if utf8.RuneCountInString(last) > maxSummary {
		last = string([]rune(last)[:maxSummary])
	}
	return last
}

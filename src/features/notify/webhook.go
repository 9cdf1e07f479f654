package notify

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/contre95/dropzone/src/features/watching"
)

// Webhook runs a shell command rendered from a template for every outcome. The template
// sees .Watcher, .Processor, .Path, .File, .Status, .Summary, .Output, .Error and
// .Duration. File names come from whoever drops the file, so the command must reference
// them as {{quote .File}} or through the DROPZONE_* environment variables; a raw
// {{.File}} is pasted into the shell script as is.
type Webhook struct {
	tmpl *template.Template
}

type webhookData struct {
	Watcher   string
	Processor string
	Path      string
	File      string
	Status    string
	Summary   string
	Output    string
	Error     string
	Duration  string
}

// NewWebhook parses the command template.
func NewWebhook(command string) (*Webhook, error) {
	tmpl, err := template.New("webhook").Funcs(template.FuncMap{"quote": shellQuote}).Parse(command)
	if err != nil {
		return nil, fmt.Errorf("failed to parse webhook template: %w", err)
	}
	return &Webhook{tmpl: tmpl}, nil
}

func (w *Webhook) Name() string { return "webhook" }

// Send renders the command and runs it with /bin/sh.
func (w *Webhook) Send(ctx context.Context, o watching.Outcome) error {
	data := webhookData{
		Watcher:   o.Watcher,
		Processor: o.Processor,
		Path:      o.Path,
		File:      filepath.Base(o.Path),
		Status:    string(o.Status),
		Summary:   o.Summary,
		Output:    o.OutputPath,
		Error:     o.Error,
		Duration:  o.FinishedAt.Sub(o.DetectedAt).Round(time.Millisecond).String(),
	}

	var command strings.Builder
	if err := w.tmpl.Execute(&command, data); err != nil {
		return fmt.Errorf("failed to execute webhook template: %w", err)
	}

	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", command.String())
	cmd.Env = append(os.Environ(), data.env()...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("webhook command failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// env exposes the outcome to the command without going through the shell parser.
func (d webhookData) env() []string {
	return []string{
		"DROPZONE_WATCHER=" + d.Watcher,
		"DROPZONE_PROCESSOR=" + d.Processor,
		"DROPZONE_PATH=" + d.Path,
		"DROPZONE_FILE=" + d.File,
		"DROPZONE_STATUS=" + d.Status,
		"DROPZONE_SUMMARY=" + d.Summary,
		"DROPZONE_OUTPUT=" + d.Output,
		"DROPZONE_ERROR=" + d.Error,
		"DROPZONE_DURATION=" + d.Duration,
	}
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/contre95/dropzone/src/features/config"
	"github.com/contre95/dropzone/src/features/watching"
	"github.com/contre95/dropzone/src/infra/files"
)

var _ watching.Processor = (*Service)(nil)

// Service recognizes the text of an image and writes it as a markdown note.
type Service struct {
	engine       Engine
	outputPath   string
	processedDir string
	maxDimension int
	now          func() time.Time
}

// NewEngine returns the engine selected by cfg.Engine.
func NewEngine(cfg config.OCR) (Engine, error) {
	switch cfg.Engine {
	case config.EngineVision:
		return NewVisionEngine(cfg), nil
	case config.EngineUmi:
		return NewUmiEngine(cfg), nil
	default:
		return nil, fmt.Errorf("unknown OCR engine %q", cfg.Engine)
	}
}

// NewService creates an OCR processor for the given watcher. When the watcher moves
// processed images, they end up in <watch_path>/<processed_dir>.
func NewService(engine Engine, cfg config.OCR, w config.Watcher) *Service {
	s := &Service{
		engine:       engine,
		outputPath:   w.OutputPath,
		maxDimension: cfg.MaxDimension,
		now:          time.Now,
	}
	if w.MoveProcessed {
		s.processedDir = filepath.Join(w.WatchPath, w.ProcessedDir)
	}
	return s
}

func (s *Service) Name() string { return config.KindOCR + "/" + s.engine.Name() }

// Process runs OCR on the image at path and writes <output>/<timestamp>_<stem>.md.
func (s *Service) Process(ctx context.Context, path string) (watching.Result, error) {
	img, err := LoadImage(path, s.maxDimension)
	if err != nil {
		return watching.Result{}, err
	}

	text, err := s.engine.Recognize(ctx, img)
	if err != nil {
		return watching.Result{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return watching.Result{}, ErrNoText
	}

	notePath, err := WriteNote(s.outputPath, path, text, s.now())
	if err != nil {
		return watching.Result{}, err
	}

	if s.processedDir != "" {
		if _, err := files.MoveFile(path, s.processedDir); err != nil {
			return watching.Result{}, fmt.Errorf("note written to %s but the image could not be moved: %w", notePath, err)
		}
	}

	return watching.Result{
		Summary:    fmt.Sprintf("%d characters recognized", len([]rune(text))),
		OutputPath: notePath,
	}, nil
}

// WriteNote writes the recognized text of source as a markdown note in dir and returns its path.
func WriteNote(dir, source, text string, at time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	name := filepath.Base(source)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	notePath := files.UniquePath(
		filepath.Join(dir, fmt.Sprintf("%s_%s.md", at.Format("2006-01-02_15-04-05"), files.Sanitize(stem))),
		at,
	)

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", stem)
	fmt.Fprintf(&sb, "- Source: `%s`\n", name)
	fmt.Fprintf(&sb, "- Recognized: %s\n\n", at.Format(time.DateTime))
	sb.WriteString("---\n\n")
	sb.WriteString(text)
	sb.WriteString("\n")

	if err := os.WriteFile(notePath, []byte(sb.String()), 0644); err != nil {
		return "", fmt.Errorf("failed to write note: %w", err)
	}
	return notePath, nil
}

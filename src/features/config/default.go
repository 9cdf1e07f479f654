package config

import "time"

const (
	defaultStableInterval    = 2 * time.Second
	defaultStableChecks      = 5
	defaultAttemptMultiplier = 10
	defaultTimeout           = 300 * time.Second
	defaultQueueSize         = 100
	defaultProcessedDir      = "processed"
	defaultMaxChars          = 8000
	defaultMaxDimension      = 2048
	defaultOCRPrompt         = "Transcribe all text in this image exactly as written. Reply with the text only."
)

// createDefaultConfig creates a new Config with sensible default values
func createDefaultConfig() *Config {
	return &Config{
		Logger: Logger{
			Level:  "info",
			Format: "text",
			File:   "./logs/dropzone.log",
		},
		Server: Server{
			Enabled:     false,
			PrintRoutes: false,
			Port:        3636,
		},
		Database: Database{
			Path: "./dropzone.db",
		},
		LLM: LLM{
			BaseURL:     "",
			Model:       "gpt-4o-mini",
			Temperature: 0,
			MaxTokens:   20,
		},
		OCR: OCR{
			Engine:       EngineVision,
			BaseURL:      "http://localhost:11434/v1", // Ollama's OpenAI compatible API
			Model:        "llama3.2-vision",
			APIKey:       "ollama",
			Prompt:       defaultOCRPrompt,
			MaxDimension: defaultMaxDimension,
		},
		Notify: Notify{
			On: []string{"failed", "timed_out"},
			Webhook: Webhook{
				Enabled: false,
				Command: `notify-send "dropzone" "$DROPZONE_WATCHER: $DROPZONE_STATUS $DROPZONE_FILE"`,
			},
		},
		Telegram: Telegram{
			Enabled:      false,
			Token:        "",                                   // Can be obtained with https://t.me/BotFather
			AllowedUsers: []string{"<your_telegram_username>"}, // No @
		},
		Watchers: []Watcher{
			{
				Name:       "notes",
				Kind:       KindClassify,
				WatchPath:  "./inbox/notes",
				OutputPath: "./notes",
				Extensions: []string{".md", ".markdown"},
				Stability: Stability{
					Interval:          defaultStableInterval,
					Checks:            defaultStableChecks,
					AttemptMultiplier: defaultAttemptMultiplier,
				},
				Timeout:    defaultTimeout,
				Workers:    1,
				QueueSize:  defaultQueueSize,
				Categories: []string{"Work", "Personal", "Projects", "Reference", "Journal"},
				MaxChars:   defaultMaxChars,
			},
			{
				Name:       "ocr",
				Kind:       KindOCR,
				WatchPath:  "./inbox/ocr",
				OutputPath: "./notes/ocr",
				Extensions: []string{".jpg", ".jpeg", ".png", ".bmp", ".tiff", ".tif", ".webp"},
				Stability: Stability{
					Interval:          defaultStableInterval,
					Checks:            defaultStableChecks,
					AttemptMultiplier: defaultAttemptMultiplier,
				},
				Timeout:       defaultTimeout,
				Workers:       1,
				QueueSize:     defaultQueueSize,
				MoveProcessed: true,
				ProcessedDir:  defaultProcessedDir,
			},
		},
	}
}

// applyDefaults fills the values a hand written config is likely to leave out.
func applyDefaults(cfg *Config) {
	if cfg.Logger.Level == "" {
		cfg.Logger.Level = "info"
	}
	if cfg.OCR.Engine == "" {
		cfg.OCR.Engine = EngineVision
	}
	if cfg.OCR.Prompt == "" {
		cfg.OCR.Prompt = defaultOCRPrompt
	}
	if cfg.OCR.MaxDimension == 0 {
		cfg.OCR.MaxDimension = defaultMaxDimension
	}
	for i := range cfg.Watchers {
		w := &cfg.Watchers[i]
		if w.Stability.Interval == 0 {
			w.Stability.Interval = defaultStableInterval
		}
		if w.Stability.Checks == 0 {
			w.Stability.Checks = defaultStableChecks
		}
		if w.Stability.AttemptMultiplier == 0 {
			w.Stability.AttemptMultiplier = defaultAttemptMultiplier
		}
		if w.Timeout == 0 {
			w.Timeout = defaultTimeout
		}
		if w.Workers == 0 {
			w.Workers = 1
		}
		if w.QueueSize == 0 {
			w.QueueSize = defaultQueueSize
		}
		if w.ProcessedDir == "" {
			w.ProcessedDir = defaultProcessedDir
		}
		if w.Kind == KindClassify && w.MaxChars == 0 {
			w.MaxChars = defaultMaxChars
		}
	}
}

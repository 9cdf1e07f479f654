package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned for any configuration the watchers cannot start with.
var ErrInvalidConfig = errors.New("invalid configuration")

// Load reads a YAML file from the given path and returns a new ConfigManager.
// If the file doesn't exist, creates a default configuration.
func Load(path string) (*Manager, error) {
	// Check if config file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		slog.Info("Config file not found, creating default configuration", "path", path)
		defaultCfg := createDefaultConfig()

		// Save default config to file
		if err := NewManager(defaultCfg).Save(path); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return finish(defaultCfg)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return finish(&cfg)
}

// finish applies defaults and env overrides, validates and prepares the directories.
func finish(cfg *Config) (*Manager, error) {
	applyDefaults(cfg)
	applyEnv(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	manager := NewManager(cfg)
	if err := manager.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return manager, nil
}

// applyEnv overrides secrets with environment variables if set
func applyEnv(cfg *Config) {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.LLM.APIKey = key
	}
	if key := os.Getenv("DROPZONE_OCR_API_KEY"); key != "" {
		cfg.OCR.APIKey = key
	}
	if token := os.Getenv("DROPZONE_TELEGRAM_TOKEN"); token != "" {
		cfg.Telegram.Token = token
	}
}

// Validate checks the struct tags and the rules that depend on the watcher kind.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("%w: config validation failed: %w", ErrInvalidConfig, err)
	}

	seen := make(map[string]bool, len(cfg.Watchers))
	for i := range cfg.Watchers {
		w := &cfg.Watchers[i]
		if seen[w.Name] {
			return fmt.Errorf("%w: duplicate watcher name %q", ErrInvalidConfig, w.Name)
		}
		seen[w.Name] = true
		w.Extensions = normalizeExtensions(w.Extensions)

		switch w.Kind {
		case KindClassify:
			if w.OutputPath == "" {
				return fmt.Errorf("%w: watcher %q needs an output_path", ErrInvalidConfig, w.Name)
			}
			if len(w.Categories) == 0 {
				return fmt.Errorf("%w: watcher %q needs at least one category", ErrInvalidConfig, w.Name)
			}
			if cfg.LLM.Model == "" {
				return fmt.Errorf("%w: llm.model is required by watcher %q", ErrInvalidConfig, w.Name)
			}
			// The hosted API is the only endpoint that always needs a key.
			if cfg.LLM.BaseURL == "" && cfg.LLM.APIKey == "" {
				return fmt.Errorf("%w: llm.api_key (or OPENAI_API_KEY) is required by watcher %q", ErrInvalidConfig, w.Name)
			}
		case KindOCR:
			if w.OutputPath == "" {
				return fmt.Errorf("%w: watcher %q needs an output_path", ErrInvalidConfig, w.Name)
			}
			if cfg.OCR.BaseURL == "" {
				return fmt.Errorf("%w: ocr.base_url is required by watcher %q", ErrInvalidConfig, w.Name)
			}
			if cfg.OCR.Engine == EngineVision && cfg.OCR.Model == "" {
				return fmt.Errorf("%w: ocr.model is required by the vision engine", ErrInvalidConfig)
			}
		case KindScript:
			if w.Script == "" {
				return fmt.Errorf("%w: watcher %q needs a script", ErrInvalidConfig, w.Name)
			}
			if _, err := os.Stat(w.Script); err != nil {
				return fmt.Errorf("%w: script for watcher %q: %w", ErrInvalidConfig, w.Name, err)
			}
		}
	}

	if cfg.Telegram.Enabled && cfg.Telegram.Token == "" {
		return fmt.Errorf("%w: telegram.token (or DROPZONE_TELEGRAM_TOKEN) is required when telegram is enabled", ErrInvalidConfig)
	}
	return nil
}

// normalizeExtensions lower-cases the extensions and makes sure they start with a dot.
func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}

// WriteDefault writes the default configuration to path, refusing to overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}
	return NewManager(createDefaultConfig()).Save(path)
}

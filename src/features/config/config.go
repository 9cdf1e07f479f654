package config

import "time"

// Watcher kinds.
const (
	KindClassify = "classify"
	KindOCR      = "ocr"
	KindScript   = "script"
)

// OCR engines.
const (
	EngineVision = "vision"
	EngineUmi    = "umi"
)

// Config holds the application configuration.
type Config struct {
	Logger   Logger    `yaml:"logger"`
	Server   Server    `yaml:"server"`
	Database Database  `yaml:"database"`
	LLM      LLM       `yaml:"llm"`
	OCR      OCR       `yaml:"ocr"`
	Notify   Notify    `yaml:"notify"`
	Telegram Telegram  `yaml:"telegram"`
	Watchers []Watcher `yaml:"watchers" validate:"required,min=1,dive"`
}

// Watcher holds the configuration of a single drop folder.
type Watcher struct {
	Name          string        `yaml:"name" validate:"required"`
	Kind          string        `yaml:"kind" validate:"required,oneof=classify ocr script"`
	WatchPath     string        `yaml:"watch_path" validate:"required"`
	OutputPath    string        `yaml:"output_path"`
	Extensions    []string      `yaml:"extensions" validate:"required,min=1"`
	Stability     Stability     `yaml:"stability"`
	Timeout       time.Duration `yaml:"timeout" validate:"gt=0"`
	Workers       int           `yaml:"workers" validate:"gte=1"`
	QueueSize     int           `yaml:"queue_size" validate:"gte=1"`
	MoveProcessed bool          `yaml:"move_processed"`
	ProcessedDir  string        `yaml:"processed_dir"`
	Categories    []string      `yaml:"categories,omitempty"`
	MaxChars      int           `yaml:"max_chars,omitempty"`
	Script        string        `yaml:"script,omitempty"`
}

// Stability holds the settings of the file stability check.
type Stability struct {
	Interval          time.Duration `yaml:"interval" validate:"gt=0"`
	Checks            int           `yaml:"checks" validate:"gte=1"`
	AttemptMultiplier int           `yaml:"attempt_multiplier" validate:"gte=1"`
}

// Database holds the configuration for the outcome history. An empty path disables it.
type Database struct {
	Path string `yaml:"path"`
}

// Server hold the configuration for the Fiber server Config
type Server struct {
	Enabled     bool   `yaml:"enabled"`
	PrintRoutes bool   `yaml:"show_routes"`
	Port        uint32 `yaml:"port"`
}

// Logger holds the configuration for the app logging
type Logger struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json logfmt"`
	File   string `yaml:"file"`
}

// LLM holds the chat completion endpoint used to categorize notes.
type LLM struct {
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// OCR holds the text recognition endpoint.
type OCR struct {
	Engine       string `yaml:"engine" validate:"omitempty,oneof=vision umi"`
	BaseURL      string `yaml:"base_url"`
	Model        string `yaml:"model"`
	APIKey       string `yaml:"api_key"`
	Prompt       string `yaml:"prompt"`
	MaxDimension int    `yaml:"max_dimension"`
}

// Notify holds the outcome notification settings.
type Notify struct {
	On      []string `yaml:"on"`
	Webhook Webhook  `yaml:"webhook"`
}

// Webhook runs a shell command rendered from a text/template for every notified outcome.
// Outcome values are also exported as DROPZONE_* environment variables.
type Webhook struct {
	Enabled bool   `yaml:"enabled"`
	Command string `yaml:"command"`
}

type Telegram struct {
	Enabled      bool     `yaml:"enabled"`
	Token        string   `yaml:"token"`
	ChatID       int64    `yaml:"chat_id"`
	AllowedUsers []string `yaml:"allowedUsers"`
	Notify       bool     `yaml:"notify"`
}

// Watcher returns the watcher with the given name.
func (c *Config) Watcher(name string) (Watcher, bool) {
	for _, w := range c.Watchers {
		if w.Name == name {
			return w, true
		}
	}
	return Watcher{}, false
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/contre95/dropzone/src/features/config"
	"github.com/contre95/dropzone/src/features/history"
	"github.com/contre95/dropzone/src/features/hosting"
	"github.com/contre95/dropzone/src/features/metrics"
	"github.com/contre95/dropzone/src/features/notify"
	"github.com/contre95/dropzone/src/features/watching"
	"github.com/contre95/dropzone/src/infra/database"
	"github.com/contre95/dropzone/src/infra/llm"
	"github.com/contre95/dropzone/src/infra/ocr"
	"github.com/contre95/dropzone/src/infra/script"
	"github.com/contre95/dropzone/src/infra/watcher"
	"golang.org/x/sync/errgroup"
)

// App holds the services built from the configuration.
type App struct {
	config      *config.Manager
	watching    *watching.Service
	metrics     *metrics.Service
	history     *history.Service
	notify      *notify.Service
	telegramBot *hosting.TelegramBot
	closers     []io.Closer
}

// NewApp wires every service and registers one dispatcher per configured watcher.
func NewApp(cfgManager *config.Manager) (*App, error) {
	cfg := cfgManager.Get()
	a := &App{
		config:   cfgManager,
		watching: watching.NewService(),
		metrics:  metrics.NewService(),
	}

	// Create the outcome history
	if cfg.Database.Path != "" {
		db, err := database.NewSqliteHistory(cfg.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open history database: %w", err)
		}
		a.closers = append(a.closers, db)
		a.history = history.NewService(db)
	}

	// Create the Telegram bot if enabled
	if cfg.Telegram.Enabled {
		bot, err := hosting.NewTelegramBot(cfgManager, a.watching, a.metrics)
		if err != nil {
			slog.Error("Failed to initialize Telegram bot", "error", err)
		} else {
			a.telegramBot = bot
		}
	}

	senders, err := a.notificationSenders(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.notify = notify.NewService(cfgManager, senders...)

	observers := []watching.Observer{a.metrics}
	if a.history != nil {
		observers = append(observers, a.history)
	}
	if a.notify.Enabled() {
		observers = append(observers, a.notify)
	}

	for _, w := range cfg.Watchers {
		processor, err := NewProcessor(cfg, w)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("%w: watcher %s: %w", config.ErrInvalidConfig, w.Name, err)
		}
		a.watching.Register(w.WatchPath, NewDispatcher(w, processor, observers...), watcher.Factory)
	}
	return a, nil
}

func (a *App) notificationSenders(cfg *config.Config) ([]notify.Sender, error) {
	var senders []notify.Sender
	if cfg.Notify.Webhook.Enabled {
		hook, err := notify.NewWebhook(cfg.Notify.Webhook.Command)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
		}
		senders = append(senders, hook)
	}
	if a.telegramBot != nil && cfg.Telegram.Notify && cfg.Telegram.ChatID != 0 {
		senders = append(senders, notify.NewTelegram(a.telegramBot.API(), cfg.Telegram.ChatID))
	}
	return senders, nil
}

// NewProcessor returns the processing step for the watcher kind.
func NewProcessor(cfg *config.Config, w config.Watcher) (watching.Processor, error) {
	switch w.Kind {
	case config.KindClassify:
		return llm.NewClassifier(cfg.LLM, w), nil
	case config.KindOCR:
		engine, err := ocr.NewEngine(cfg.OCR)
		if err != nil {
			return nil, err
		}
		return ocr.NewService(engine, cfg.OCR, w), nil
	case config.KindScript:
		return script.NewRunner(w), nil
	default:
		return nil, fmt.Errorf("unknown watcher kind %q", w.Kind)
	}
}

// NewDispatcher builds the dispatcher of a watcher.
func NewDispatcher(w config.Watcher, processor watching.Processor, observers ...watching.Observer) *watching.Dispatcher {
	detector := watching.NewDetector(w.Stability.Interval, w.Stability.Checks, w.Stability.AttemptMultiplier)
	return watching.NewDispatcher(watching.Options{
		Name:       w.Name,
		Extensions: w.Extensions,
		Timeout:    w.Timeout,
		Workers:    w.Workers,
		QueueSize:  w.QueueSize,
	}, detector, processor, observers...)
}

// Run starts the watchers, and the HTTP server and Telegram bot when enabled, until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.watching.Run(ctx)
	})

	if a.config.Get().Server.Enabled {
		server := hosting.NewServer(a.config, a.watching, a.metrics, a.history)
		g.Go(func() error {
			return server.Run(ctx)
		})
	}

	if a.telegramBot != nil {
		g.Go(func() error {
			return a.telegramBot.Run(ctx)
		})
	}

	err := g.Wait()
	a.notify.Wait()
	return err
}

// Process runs one file through the full pipeline of the named watcher, stability check included.
func (a *App) Process(ctx context.Context, watcherName, path string) (watching.Outcome, error) {
	d, ok := a.watching.Dispatcher(watcherName)
	if !ok {
		return watching.Outcome{}, fmt.Errorf("unknown watcher %q", watcherName)
	}
	event := watching.FileEvent{Path: path, Kind: watching.EventManual, Timestamp: time.Now()}
	if !d.Accepts(event) {
		return watching.Outcome{}, fmt.Errorf("watcher %s does not handle %s files", watcherName, event.Extension())
	}
	outcome := d.Handle(ctx, event)
	a.notify.Wait()
	return outcome, nil
}

// Close releases the history database.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

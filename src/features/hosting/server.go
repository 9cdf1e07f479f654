package hosting

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/contre95/dropzone/src/features/config"
	"github.com/contre95/dropzone/src/features/history"
	"github.com/contre95/dropzone/src/features/metrics"
	"github.com/contre95/dropzone/src/features/watching"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Server is the HTTP server for the application.
type Server struct {
	app  *fiber.App
	port uint32
}

// NewServer creates a new HTTP server. historyService may be nil when the history database
// is disabled.
func NewServer(cfg *config.Manager, watchingService *watching.Service, metricsService *metrics.Service, historyService *history.Service) *Server {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			if code >= fiber.StatusInternalServerError {
				slog.Error("Internal Server Error", "error", err)
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
		AppName:               "Dropzone",
		DisableStartupMessage: true,
		EnablePrintRoutes:     cfg.Get().Server.PrintRoutes,
	})

	app.Use(recover.New())
	app.Use(LogAllRequestsMiddleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	config.RegisterRoutes(app, cfg)
	watching.RegisterRoutes(app, watchingService)
	metrics.RegisterRoutes(app, metricsService)
	if historyService != nil {
		history.RegisterRoutes(app, historyService)
	}

	return &Server{app: app, port: cfg.Get().Server.Port}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.app.Listen(":" + fmt.Sprint(s.port))
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	errs := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", s.port)
		errs <- s.Start()
	}()
	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		slog.Info("Stopping HTTP server")
		return s.Shutdown()
	}
}

package watching

import (
	"github.com/gofiber/fiber/v2"
)

// Handler serves the watcher state over HTTP.
type Handler struct {
	service *Service
}

// NewHandler creates a new watching handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleWatchers lists every watcher with its processed and in-flight counts.
func (h *Handler) HandleWatchers(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"watchers": h.service.Stats()})
}

// HandleWatcher returns a single watcher.
func (h *Handler) HandleWatcher(c *fiber.Ctx) error {
	d, ok := h.service.Dispatcher(c.Params("name"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "watcher not found"})
	}
	return c.JSON(d.Stats())
}

package history

import (
	"log/slog"

	"github.com/contre95/dropzone/src/features/watching"
	"github.com/gofiber/fiber/v2"
)

// Handler serves the outcome history over HTTP.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetHistory lists outcomes, optionally filtered by ?watcher=, ?status= and ?limit=.
func (h *Handler) GetHistory(c *fiber.Ctx) error {
	q := Query{
		Watcher: c.Query("watcher"),
		Status:  watching.Status(c.Query("status")),
		Limit:   c.QueryInt("limit", DefaultLimit),
	}
	outcomes, err := h.service.List(c.Context(), q)
	if err != nil {
		slog.Error("Error loading history", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load history"})
	}
	return c.JSON(fiber.Map{"outcomes": outcomes, "count": len(outcomes)})
}

// GetSummary returns the outcome counts per status.
func (h *Handler) GetSummary(c *fiber.Ctx) error {
	counts, err := h.service.Summary(c.Context(), c.Query("watcher"))
	if err != nil {
		slog.Error("Error loading history summary", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load summary"})
	}
	return c.JSON(counts)
}

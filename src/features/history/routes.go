package history

import "github.com/gofiber/fiber/v2"

// RegisterRoutes registers the routes for the history feature.
func RegisterRoutes(app *fiber.App, service *Service) {
	handler := NewHandler(service)
	history := app.Group("/api/history")
	history.Get("/", handler.GetHistory)
	history.Get("/summary", handler.GetSummary)
}

package watching

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(app *fiber.App, service *Service) {
	handler := NewHandler(service)
	watchers := app.Group("/api/watchers")
	watchers.Get("/", handler.HandleWatchers)
	watchers.Get("/:name", handler.HandleWatcher)
}

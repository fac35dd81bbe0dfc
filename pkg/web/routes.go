package web

import "github.com/gofiber/fiber/v3"

// RegisterRoutes mounts all API routes on the app.
func RegisterRoutes(app *fiber.App, handlers *APIHandlers) {
	a := app.Group("/automations")
	a.Get("/", handlers.ListAutomations)
	a.Post("/", handlers.CreateAutomation)
	a.Get("/:id", handlers.GetAutomation)
	a.Patch("/:id", handlers.UpdateAutomation)
	a.Delete("/:id", handlers.DeleteAutomation)
	a.Get("/:id/runs", handlers.ListRuns)

	app.Post("/workflow/action", handlers.RouteWorkflowAction)
	app.Post("/events", handlers.PublishEvent)
	app.Post("/internal/run-scheduled", handlers.RunScheduled)

	app.Get("/health", handlers.HealthCheck)
}

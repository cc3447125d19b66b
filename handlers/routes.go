package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// Routes groups the handlers mounted on the app
type Routes struct {
	IPO         *IPOHandler
	Dashboard   *DashboardHandler
	Performance *PerformanceHandler
}

// Register mounts the health check, the JSON API under apiPrefix and the dashboard
func (r *Routes) Register(app *fiber.App, apiPrefix string) {
	app.Get("/health", r.Performance.Health)

	api := app.Group(apiPrefix)

	// IPO Routes
	api.Get("/ipos", r.IPO.GetIPOs)
	api.Patch("/ipos/:id", r.IPO.UpdateIPO)
	api.Get("/ipos/:id/history", r.IPO.GetIPOHistory)

	// Performance Routes
	api.Get("/metrics", r.Performance.GetPerformanceMetrics)
	api.Delete("/cache", r.Performance.ClearCache)

	// Dashboard
	app.Get("/", r.Dashboard.Show)
	app.Post("/dashboard/ipos/:id", r.Dashboard.Update)
}

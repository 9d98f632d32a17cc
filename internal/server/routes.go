package server

import (
	"github.com/semlattice/lattice/internal/server/middleware"
	"github.com/semlattice/lattice/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Run lifecycle routes
	apiRoutes.POST("/runs", routes.CreateRunHandler, middleware.RequirePermission("run.create"))
	apiRoutes.POST("/runs/:id/cancel", routes.CancelRunHandler, middleware.RequirePermission("run.cancel"))
	apiRoutes.GET("/runs", routes.ListRunsHandler, middleware.RequireAnyPermission("run.view", "run.view:all"))
	apiRoutes.GET("/runs/:id", routes.GetRunHandler, middleware.RequireAnyPermission("run.view", "run.view:all"))

	// Export routes
	apiRoutes.GET("/runs/:id/export", routes.GetExportLinkHandler, middleware.RequirePermission("run.export"))

	// Telemetry routes
	apiRoutes.GET("/telemetry", routes.GetTelemetryHandler, middleware.RequirePermission("telemetry.view"))

	// Node search routes
	apiRoutes.POST("/nodes/similar", routes.SimilarNodesHandler, middleware.RequirePermission("node.search"))
}

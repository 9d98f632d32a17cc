package routes

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/semlattice/lattice/internal/server/middleware"
	"github.com/semlattice/lattice/pkg/store"
)

// GetTelemetryHandler returns the persisted telemetry window, newest first.
func GetTelemetryHandler(c echo.Context) error {
	type telemetryResponse struct {
		Message string               `json:"message"`
		Records []store.TelemetryRow `json:"records"`
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, telemetryResponse{Message: "Unauthorized"})
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return c.JSON(http.StatusBadRequest, telemetryResponse{Message: "Invalid limit"})
		}
		limit = parsed
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	records, err := app.Store.TelemetryHistory(ctx, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, telemetryResponse{Message: "Internal server error"})
	}
	if records == nil {
		records = []store.TelemetryRow{}
	}

	return c.JSON(http.StatusOK, telemetryResponse{
		Message: "Telemetry found",
		Records: records,
	})
}

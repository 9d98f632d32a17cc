package routes

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/semlattice/lattice/internal/server/middleware"
	"github.com/semlattice/lattice/pkg/store"
)

func GetRunHandler(c echo.Context) error {
	type getRunParams struct {
		RunID string `param:"id" validate:"required"`
	}

	type getRunResponse struct {
		Message string     `json:"message"`
		Run     *store.Run `json:"run,omitempty"`
	}

	params := new(getRunParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, getRunResponse{Message: "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, getRunResponse{Message: "Invalid request params"})
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, getRunResponse{Message: "Unauthorized"})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	run, err := app.Store.GetRun(ctx, params.RunID)
	if err != nil {
		return c.JSON(http.StatusNotFound, getRunResponse{Message: "Run not found"})
	}

	return c.JSON(http.StatusOK, getRunResponse{
		Message: "Run found",
		Run:     &run,
	})
}

func ListRunsHandler(c echo.Context) error {
	type listRunsResponse struct {
		Message string      `json:"message"`
		Runs    []store.Run `json:"runs"`
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, listRunsResponse{Message: "Unauthorized"})
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return c.JSON(http.StatusBadRequest, listRunsResponse{Message: "Invalid limit"})
		}
		limit = parsed
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	runs, err := app.Store.ListRuns(ctx, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, listRunsResponse{Message: "Internal server error"})
	}
	if runs == nil {
		runs = []store.Run{}
	}

	return c.JSON(http.StatusOK, listRunsResponse{
		Message: "Runs found",
		Runs:    runs,
	})
}

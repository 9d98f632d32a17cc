package routes

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/semlattice/lattice/internal/queue"
	"github.com/semlattice/lattice/internal/server/middleware"
	"github.com/semlattice/lattice/internal/util"
	"github.com/semlattice/lattice/pkg/logger"
	"github.com/semlattice/lattice/pkg/pipeline"
	"github.com/semlattice/lattice/pkg/store"
)

// CreateRunHandler accepts a construction request, persists the run row, and
// enqueues it for a worker. The response is 202: results arrive through the
// response exchange and the stored run record, not this request.
func CreateRunHandler(c echo.Context) error {
	type createRunParams struct {
		Text    string           `json:"text" validate:"required"`
		Options pipeline.Options `json:"options"`
		Export  bool             `json:"export"`
	}

	type createRunResponse struct {
		Message string     `json:"message"`
		Run     *store.Run `json:"run,omitempty"`
	}

	params := new(createRunParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, createRunResponse{Message: "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, createRunResponse{Message: "Invalid request params"})
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, createRunResponse{Message: "Unauthorized"})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	runID, err := util.NewRunID()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, createRunResponse{Message: "Internal server error"})
	}

	optionsJSON, err := json.Marshal(params.Options)
	if err != nil {
		return c.JSON(http.StatusBadRequest, createRunResponse{Message: "Invalid request params"})
	}

	run, err := app.Store.CreateRun(ctx, store.CreateRunParams{
		ID:        runID,
		InputText: params.Text,
		Options:   optionsJSON,
	})
	if err != nil {
		logger.Error("[Server] Failed to create run", "err", err)
		return c.JSON(http.StatusInternalServerError, createRunResponse{Message: "Internal server error"})
	}

	msg := queue.RunRequestMsg{
		Type:      queue.MessageRun,
		RequestID: runID,
		Payload: queue.RunPayload{
			Text:    params.Text,
			Options: params.Options,
			Export:  params.Export,
		},
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, createRunResponse{Message: "Internal server error"})
	}
	if err := queue.PublishFIFO(app.Queue, queue.RunQueue, data); err != nil {
		logger.Error("[Server] Failed to enqueue run", "run_id", runID, "err", err)
		_ = app.Store.UpdateRunStatus(ctx, runID, store.RunFailed, "enqueue failed")
		return c.JSON(http.StatusInternalServerError, createRunResponse{Message: "Internal server error"})
	}

	return c.JSON(http.StatusAccepted, createRunResponse{
		Message: "Run queued",
		Run:     &run,
	})
}

// CancelRunHandler broadcasts a cancel request for the named run.
func CancelRunHandler(c echo.Context) error {
	type cancelRunParams struct {
		RunID string `param:"id" validate:"required"`
	}

	type cancelRunResponse struct {
		Message string `json:"message"`
	}

	params := new(cancelRunParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, cancelRunResponse{Message: "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, cancelRunResponse{Message: "Invalid request params"})
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, cancelRunResponse{Message: "Unauthorized"})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	run, err := app.Store.GetRun(ctx, params.RunID)
	if err != nil {
		return c.JSON(http.StatusNotFound, cancelRunResponse{Message: "Run not found"})
	}
	if run.Status == store.RunCompleted || run.Status == store.RunFailed || run.Status == store.RunCancelled {
		return c.JSON(http.StatusConflict, cancelRunResponse{Message: "Run already finished"})
	}

	msg := queue.CancelRequestMsg{
		Type:      queue.MessageCancel,
		RequestID: params.RunID,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, cancelRunResponse{Message: "Internal server error"})
	}
	if err := queue.PublishFIFO(app.Queue, queue.CancelQueue, data); err != nil {
		logger.Error("[Server] Failed to enqueue cancel", "run_id", params.RunID, "err", err)
		return c.JSON(http.StatusInternalServerError, cancelRunResponse{Message: "Internal server error"})
	}

	return c.JSON(http.StatusAccepted, cancelRunResponse{Message: "Cancel requested"})
}

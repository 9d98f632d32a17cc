package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/semlattice/lattice/internal/server/middleware"
	"github.com/semlattice/lattice/pkg/store"
)

// SimilarNodesHandler runs a cosine nearest-neighbor search over persisted
// node embeddings. The caller supplies the query vector; embedding text is
// the worker's job, not the API's.
func SimilarNodesHandler(c echo.Context) error {
	type similarNodesParams struct {
		Embedding []float32 `json:"embedding" validate:"required"`
		Limit     int       `json:"limit"`
	}

	type similarNodesResponse struct {
		Message string              `json:"message"`
		Nodes   []store.SimilarNode `json:"nodes"`
	}

	params := new(similarNodesParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, similarNodesResponse{Message: "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, similarNodesResponse{Message: "Invalid request params"})
	}
	if params.Limit < 0 {
		return c.JSON(http.StatusBadRequest, similarNodesResponse{Message: "Invalid limit"})
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, similarNodesResponse{Message: "Unauthorized"})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	nodes, err := app.Store.SimilarNodes(ctx, params.Embedding, params.Limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, similarNodesResponse{Message: "Internal server error"})
	}
	if nodes == nil {
		nodes = []store.SimilarNode{}
	}

	return c.JSON(http.StatusOK, similarNodesResponse{
		Message: "Similar nodes found",
		Nodes:   nodes,
	})
}

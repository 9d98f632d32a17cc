package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/semlattice/lattice/internal/server/middleware"
	"github.com/semlattice/lattice/internal/storage"
)

// GetExportLinkHandler returns a presigned download link for one file of a
// run's uploaded export tree. Defaults to the manifest.
func GetExportLinkHandler(c echo.Context) error {
	type getExportParams struct {
		RunID string `param:"id" validate:"required"`
		File  string `query:"file"`
	}

	type getExportResponse struct {
		Message string `json:"message"`
		URL     string `json:"url,omitempty"`
	}

	params := new(getExportParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, getExportResponse{Message: "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, getExportResponse{Message: "Invalid request params"})
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, getExportResponse{Message: "Unauthorized"})
	}

	file := params.File
	if file == "" {
		file = "metadata.json"
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App
	if app.S3 == nil {
		return c.JSON(http.StatusNotFound, getExportResponse{Message: "Export storage not configured"})
	}

	if _, err := app.Store.GetRun(ctx, params.RunID); err != nil {
		return c.JSON(http.StatusNotFound, getExportResponse{Message: "Run not found"})
	}

	key := "exports/" + params.RunID + "/" + file
	url, err := storage.GenerateDownloadLink(ctx, app.S3, key)
	if err != nil {
		return c.JSON(http.StatusNotFound, getExportResponse{Message: "Export file does not exist"})
	}

	return c.JSON(http.StatusOK, getExportResponse{
		Message: "Download link generated",
		URL:     url,
	})
}

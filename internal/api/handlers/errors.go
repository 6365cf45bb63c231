package handlers

import (
	"errors"
	"io/fs"
	"net/http"

	"solar-battery-sim/internal/api/models"
	"solar-battery-sim/internal/data"
	"solar-battery-sim/internal/log"
	"solar-battery-sim/internal/model"
	"solar-battery-sim/internal/store"

	"github.com/gin-gonic/gin"
)

var errNoDatasets = errors.New("dataset directory is not configured")

func respondError(c *gin.Context, status int, code, message string, details map[string]interface{}) {
	c.JSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func badRequest(c *gin.Context, err error) {
	respondError(c, http.StatusBadRequest, models.CodeInvalidRequest, err.Error(), nil)
}

// respondErr maps err onto the API error codes.
func respondErr(c *gin.Context, err error) {
	var cfgErr *model.ConfigError
	var schemaErr *model.SchemaError
	switch {
	case errors.As(err, &cfgErr):
		respondError(c, http.StatusBadRequest, models.CodeInvalidConfig, err.Error(),
			map[string]interface{}{"field": cfgErr.Field})
	case errors.As(err, &schemaErr):
		details := map[string]interface{}{"field": schemaErr.Field}
		if schemaErr.Row >= 0 {
			details["row"] = schemaErr.Row
		}
		respondError(c, http.StatusBadRequest, models.CodeInvalidInput, err.Error(), details)
	case errors.Is(err, errNoDatasets):
		respondError(c, http.StatusBadRequest, models.CodeInvalidRequest, err.Error(), nil)
	case errors.Is(err, store.ErrNotFound), errors.Is(err, data.ErrNoData), errors.Is(err, fs.ErrNotExist):
		respondError(c, http.StatusNotFound, models.CodeNotFound, err.Error(), nil)
	default:
		log.Ctx(c.Request.Context()).Error("request failed", "path", c.Request.URL.Path, "err", err)
		respondError(c, http.StatusInternalServerError, models.CodeSimulationError, err.Error(), nil)
	}
}

package controller

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/greengate/greengate/internal/domain/dto"
)

// Freshness reports the last ingestion time of each reference layer, so
// clients can show how current the evidence is.
func (c *Controller) Freshness(ctx echo.Context) error {
	freshness, err := c.service.LayerFreshness(ctx.Request().Context())
	if err != nil {
		return err
	}

	resp := dto.FreshnessResponse{Layers: make(map[string]string, len(freshness))}
	for layerType, updated := range freshness {
		resp.Layers[layerType] = updated.UTC().Format(time.RFC3339)
	}

	return ctx.JSON(http.StatusOK, resp)
}

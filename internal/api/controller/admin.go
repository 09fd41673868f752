package controller

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

func (c *Controller) ListValidations(ctx echo.Context) error {
	limit, err := strconv.Atoi(ctx.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	offset, err := strconv.Atoi(ctx.QueryParam("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	summaries, err := c.service.ListValidations(ctx.Request().Context(), limit, offset)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, summaries)
}

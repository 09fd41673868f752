package controller

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/greengate/greengate/internal/domain/dto"
	"github.com/greengate/greengate/internal/pkg/constants"
)

var errInvalidID = constants.NewCodedError(http.StatusBadRequest, "invalid_id", "invalid validation id")

// QuickValidate validates a polygon without persisting the record.
func (c *Controller) QuickValidate(ctx echo.Context) error {
	payload := new(dto.GeometryPayload)
	if err := ctx.Bind(payload); err != nil {
		return err
	}
	if err := ctx.Validate(payload); err != nil {
		return err
	}

	record, err := c.service.QuickValidate(ctx.Request().Context(), payload)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, record)
}

// Validate validates a polygon and persists the auditable record.
func (c *Controller) Validate(ctx echo.Context) error {
	payload := new(dto.GeometryPayload)
	if err := ctx.Bind(payload); err != nil {
		return err
	}
	if err := ctx.Validate(payload); err != nil {
		return err
	}

	record, err := c.service.Validate(ctx.Request().Context(), payload)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusCreated, record)
}

func (c *Controller) GetValidation(ctx echo.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return errInvalidID
	}

	record, err := c.service.GetValidation(ctx.Request().Context(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, record)
}

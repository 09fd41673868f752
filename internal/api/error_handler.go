package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/greengate/greengate/internal/domain"
	"github.com/greengate/greengate/internal/pkg/constants"
)

func httpErrorHandler(err error, c echo.Context) {
	msg := err.Error()
	code := http.StatusInternalServerError
	reason := "internal_error"

	for unwrapped := err; unwrapped != nil; unwrapped = errors.Unwrap(unwrapped) {
		if ce, ok := unwrapped.(*constants.CodedError); ok {
			code = ce.Code()
			reason = ce.Reason()
			break
		}
		if he, ok := unwrapped.(*echo.HTTPError); ok {
			code = he.Code
			reason = "bad_request"
			break
		}
	}

	if code == http.StatusInternalServerError {
		// Opaque outward, full context stays in the logs.
		msg = constants.ErrInternal.Error()
	}

	_ = c.JSON(code, domain.ErrorResponse{
		Message: msg,
		Code:    code,
		Reason:  reason,
	})
}

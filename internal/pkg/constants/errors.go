package constants

import "net/http"

// CodedError carries the HTTP status and machine-readable reason exposed
// by the API error handler. Engine errors are declared once here so every
// layer agrees on the taxonomy.
type CodedError struct {
	code   int
	reason string
	msg    string
}

func NewCodedError(code int, reason, msg string) *CodedError {
	return &CodedError{code: code, reason: reason, msg: msg}
}

func (e *CodedError) Error() string {
	return e.msg
}

func (e *CodedError) Code() int {
	return e.code
}

func (e *CodedError) Reason() string {
	return e.reason
}

var (
	// Input errors: rejected before any spatial query runs.
	ErrInvalidGeometry  = NewCodedError(http.StatusBadRequest, "invalid_geometry", "geometry is malformed")
	ErrGeometryTooLarge = NewCodedError(http.StatusRequestEntityTooLarge, "geometry_too_large", "geometry exceeds vertex or area limit")
	ErrOutOfBounds      = NewCodedError(http.StatusUnprocessableEntity, "out_of_bounds", "geometry lies outside the national bounding box")

	// A single unavailable layer only degrades the run; this fires when
	// no check can be answered at all.
	ErrAllLayersUnavailable = NewCodedError(http.StatusServiceUnavailable, "layer_unavailable", "all reference layers unavailable")

	ErrNotFound   = NewCodedError(http.StatusNotFound, "not_found", "validation not found")
	ErrDBNotFound = NewCodedError(http.StatusNotFound, "not_found", "record not found")

	ErrUnauthorized = NewCodedError(http.StatusUnauthorized, "unauthorized", "unauthorized")
	ErrInternal     = NewCodedError(http.StatusInternalServerError, "internal_error", "internal error")
)

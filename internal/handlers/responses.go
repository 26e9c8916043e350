package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/organizapp/internal/domain"
)

// ErrorResponse is the standard format for API error responses.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StatusResponse is returned by simple health style endpoints.
type StatusResponse struct {
	Status string `json:"status"`
}

// WriteError maps domain errors onto HTTP status codes and writes an
// ErrorResponse. Unexpected errors are logged and reported as internal.
func WriteError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrGroupDeleted):
		return c.JSON(http.StatusNotFound, ErrorResponse{Code: "not_found", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "validation_failed", Message: err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		return c.JSON(http.StatusForbidden, ErrorResponse{Code: "forbidden", Message: err.Error()})
	case errors.Is(err, domain.ErrUserAlreadyExists):
		return c.JSON(http.StatusConflict, ErrorResponse{Code: "conflict", Message: err.Error()})
	default:
		c.Logger().Error("Request failed: ", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Code: "internal", Message: "internal error"})
	}
}

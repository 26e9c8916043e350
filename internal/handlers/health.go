package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthGet reports that the process is serving.
func HealthGet(c echo.Context) error {
	return c.JSON(http.StatusOK, StatusResponse{Status: "ok"})
}

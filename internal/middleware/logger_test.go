package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	original := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(original)

	e := echo.New()
	e.Use(echomw.RequestID())
	e.Use(Logger)
	e.GET("/api/groups", func(c echo.Context) error {
		FromContext(c.Request().Context()).Info("handled")
		return c.NoContent(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/groups", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	out := buf.String()
	assert.Contains(t, out, "msg=handled")
	assert.Contains(t, out, "request_id="+rec.Header().Get(echo.HeaderXRequestID))
	assert.Contains(t, out, "method=GET")
	assert.Contains(t, out, "path=/api/groups")
}

func TestFromContext_Default(t *testing.T) {
	assert.Same(t, slog.Default(), FromContext(context.Background()))

	custom := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	assert.Same(t, custom, FromContext(WithLogger(context.Background(), custom)))
}

package server

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/organizapp/internal/memstore"
	"github.com/nfrund/organizapp/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPErrorHandler_WithStackTrace(t *testing.T) {
	e := echo.New()

	// Capture log output by temporarily redirecting slog's default logger.
	var logBuffer bytes.Buffer
	handler := slog.NewTextHandler(&logBuffer, &slog.HandlerOptions{
		AddSource: true,
	})
	originalLogger := slog.Default()
	slog.SetDefault(slog.New(handler))
	defer slog.SetDefault(originalLogger)

	setupErrorHandling(e)

	e.GET("/test-unhandled-error", func(c echo.Context) error {
		return errors.New("a deliberate unhandled error occurred")
	})

	req := httptest.NewRequest(http.MethodGet, "/test-unhandled-error", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code, "Expected a 500 Internal Server Error response")
	assert.JSONEq(t, `{"code":"internal","message":"internal error"}`, rec.Body.String())

	logOutput := logBuffer.String()
	assert.Contains(t, logOutput, "Internal Server Error (Unhandled)", "Log message should indicate an unhandled error")
	assert.Contains(t, logOutput, "error=\"a deliberate unhandled error occurred\"", "Log should contain the original error message")
	assert.Contains(t, logOutput, "stack_trace=", "Log must contain the stack_trace field")
	assert.Contains(t, logOutput, "runtime/debug/stack.go", "Stack trace should originate from the debug package")
	assert.Contains(t, logOutput, "internal/server/server_test.go", "Stack trace should point back to this test file")
}

func TestHTTPErrorHandler_HTTPError(t *testing.T) {
	e := echo.New()
	setupErrorHandling(e)

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"code":"not_found","message":"Not Found"}`, rec.Body.String())
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "not_found", errorCode(http.StatusNotFound))
	assert.Equal(t, "rate_limited", errorCode(http.StatusTooManyRequests))
	assert.Equal(t, "internal", errorCode(http.StatusBadGateway))
	assert.Equal(t, "error", errorCode(http.StatusTeapot))
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Dependencies{})
	assert.Error(t, err)

	cfg := testutils.ConfigForTests(t, nil)
	_, err = New(Dependencies{Config: cfg})
	assert.Error(t, err)
}

func TestShutdown_RunsStepsInOrder(t *testing.T) {
	cfg := testutils.ConfigForTests(t, nil)
	s, err := New(Dependencies{Config: cfg, UserStore: memstore.NewUserStore()})
	require.NoError(t, err)

	var order []string
	step := func(name string, fail bool) func(context.Context) error {
		return func(context.Context) error {
			order = append(order, name)
			if fail {
				return errors.New(name + " failed")
			}
			return nil
		}
	}
	s.OnShutdown("bus", step("bus", false))
	s.OnShutdown("moderation", step("moderation", true))
	s.OnShutdown("database", step("database", false))

	err = s.Shutdown(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "moderation failed")
	assert.Equal(t, []string{"bus", "moderation", "database"}, order)
}

func TestOpenStores_Memory(t *testing.T) {
	cfg := testutils.ConfigForTests(t, nil)
	stores, err := OpenStores(context.Background(), cfg)
	require.NoError(t, err)

	assert.NotNil(t, stores.Groups)
	assert.NotNil(t, stores.Messages)
	assert.NotNil(t, stores.Users)
	assert.NoError(t, stores.Close(context.Background()))
}

func TestEndpointOptions(t *testing.T) {
	cfg := testutils.ConfigForTests(t, map[string]string{"WS_SEND_BUFFER": "8"})
	assert.Len(t, EndpointOptions(cfg), 3)
}

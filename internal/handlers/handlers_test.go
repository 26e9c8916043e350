package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/nfrund/organizapp/internal/domain"
	"github.com/nfrund/organizapp/internal/handlers"
	"github.com/nfrund/organizapp/internal/memstore"
	"github.com/nfrund/organizapp/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSessionSecret = "a-very-secret-key-for-testing-!"

func setupSessionTest(t *testing.T) (*echo.Echo, *domain.User) {
	t.Helper()
	users := memstore.NewUserStore()
	alice, err := users.Create(context.Background(), &domain.User{Name: "alice"})
	require.NoError(t, err)

	e := echo.New()
	e.Validator = handlers.NewValidator()
	e.Use(session.Middleware(sessions.NewCookieStore([]byte(testSessionSecret))))
	e.Use(middleware.SessionUser(users))

	h := handlers.NewSessionHandler(users)
	e.POST("/api/session", h.Create)
	e.GET("/api/session", h.Get)
	e.DELETE("/api/session", h.Delete)
	e.GET("/health", handlers.HealthGet)
	return e, alice
}

func do(e *echo.Echo, method, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealthGet(t *testing.T) {
	e, _ := setupSessionTest(t)
	rec := do(e, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestSessionHandler(t *testing.T) {
	e, alice := setupSessionTest(t)

	t.Run("login with a known name", func(t *testing.T) {
		rec := do(e, http.MethodPost, "/api/session", `{"name":"  alice "}`, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var got domain.User
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, alice.ID, got.ID)

		me := do(e, http.MethodGet, "/api/session", "", rec.Result().Cookies())
		assert.Equal(t, http.StatusOK, me.Code)
		assert.Contains(t, me.Body.String(), alice.ID)
	})

	t.Run("unknown name is not found", func(t *testing.T) {
		rec := do(e, http.MethodPost, "/api/session", `{"name":"mallory"}`, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), `"code":"not_found"`)
	})

	t.Run("blank name fails validation", func(t *testing.T) {
		rec := do(e, http.MethodPost, "/api/session", `{"name":"   "}`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), `"code":"validation_failed"`)
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := do(e, http.MethodPost, "/api/session", `{"name":`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), `"code":"bad_request"`)
	})

	t.Run("anonymous get is unauthorized", func(t *testing.T) {
		rec := do(e, http.MethodGet, "/api/session", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("logout clears the session", func(t *testing.T) {
		login := do(e, http.MethodPost, "/api/session", `{"name":"alice"}`, nil)
		require.Equal(t, http.StatusOK, login.Code)

		out := do(e, http.MethodDelete, "/api/session", "", login.Result().Cookies())
		require.Equal(t, http.StatusNoContent, out.Code)

		me := do(e, http.MethodGet, "/api/session", "", out.Result().Cookies())
		assert.Equal(t, http.StatusUnauthorized, me.Code)
	})
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("group 3: %w", domain.ErrNotFound), http.StatusNotFound, "not_found"},
		{domain.ErrGroupDeleted, http.StatusNotFound, "not_found"},
		{fmt.Errorf("%w: name", domain.ErrInvalidInput), http.StatusBadRequest, "validation_failed"},
		{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
		{domain.ErrUserAlreadyExists, http.StatusConflict, "conflict"},
		{errors.New("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			require.NoError(t, handlers.WriteError(c, tt.err))
			assert.Equal(t, tt.status, rec.Code)

			var body handlers.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
			if tt.code == "internal" {
				assert.Equal(t, "internal error", body.Message)
			}
		})
	}
}

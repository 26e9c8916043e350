package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/organizapp/internal/domain"
	"github.com/nfrund/organizapp/internal/middleware"
)

// SessionHandler binds a browser session to a known user. The /ws
// handshake then picks the user up from the cookie.
type SessionHandler struct {
	users domain.UserRepository
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(users domain.UserRepository) *SessionHandler {
	return &SessionHandler{users: users}
}

// Create handles POST /api/session.
func (h *SessionHandler) Create(c echo.Context) error {
	var req SessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "bad_request", Message: "malformed request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "validation_failed", Message: err.Error()})
	}

	user, err := h.users.FindByName(c.Request().Context(), domain.NormalizeName(req.Name))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Code: "not_found", Message: fmt.Sprintf("no user named %q", req.Name)})
		}
		return WriteError(c, err)
	}

	if err := middleware.Login(c, user.ID); err != nil {
		return WriteError(c, fmt.Errorf("save session: %w", err))
	}
	return c.JSON(http.StatusOK, user)
}

// Get handles GET /api/session and returns the current user.
func (h *SessionHandler) Get(c echo.Context) error {
	user := middleware.UserFromContext(c)
	if user == nil {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Code: "unauthenticated", Message: "no active session"})
	}
	return c.JSON(http.StatusOK, user)
}

// Delete handles DELETE /api/session.
func (h *SessionHandler) Delete(c echo.Context) error {
	if err := middleware.Logout(c); err != nil {
		return WriteError(c, fmt.Errorf("clear session: %w", err))
	}
	return c.NoContent(http.StatusNoContent)
}

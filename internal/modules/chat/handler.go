package chat

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/organizapp/internal/domain"
	"github.com/nfrund/organizapp/internal/handlers"
)

// Handler serves the read-only HTTP view of chat state.
type Handler struct {
	cache    *GroupCache
	groups   domain.GroupRepository
	messages domain.MessageRepository
}

// NewHandler creates a new Handler.
func NewHandler(cache *GroupCache, groups domain.GroupRepository, messages domain.MessageRepository) *Handler {
	return &Handler{cache: cache, groups: groups, messages: messages}
}

// GroupsGet handles GET /api/groups.
func (h *Handler) GroupsGet(c echo.Context) error {
	if err := h.cache.Load(c.Request().Context()); err != nil {
		return handlers.WriteError(c, err)
	}
	return c.JSON(http.StatusOK, h.cache.List())
}

// MessagesGet handles GET /api/groups/:id/messages.
func (h *Handler) MessagesGet(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, handlers.ErrorResponse{Code: "bad_request", Message: "group id must be a positive integer"})
	}

	ctx := c.Request().Context()
	if _, err := h.groups.Get(ctx, id); err != nil {
		return handlers.WriteError(c, err)
	}
	history, err := h.messages.ListByGroup(ctx, id)
	if err != nil {
		return handlers.WriteError(c, err)
	}
	if history == nil {
		history = []*domain.Message{}
	}
	return c.JSON(http.StatusOK, MessagesPayload{GroupID: id, History: history})
}

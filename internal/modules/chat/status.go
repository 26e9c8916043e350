package chat

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/organizapp/internal/domain"
	"github.com/nfrund/organizapp/internal/handlers"
	"github.com/nfrund/organizapp/internal/rendering"
	"github.com/nfrund/organizapp/internal/websocket"
	g "maragu.dev/gomponents"
	hx "maragu.dev/gomponents-htmx"
	h "maragu.dev/gomponents/html"
)

const (
	statusPollInterval = "every 5s"
	statusRoomsPath    = "/status/rooms"
)

// StatusHandler renders the operator status page.
type StatusHandler struct {
	cache       *GroupCache
	connections *websocket.Registry
	renderer    rendering.Renderer
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(cache *GroupCache, connections *websocket.Registry, renderer rendering.Renderer) *StatusHandler {
	return &StatusHandler{cache: cache, connections: connections, renderer: renderer}
}

// PageGet handles GET /status.
func (s *StatusHandler) PageGet(c echo.Context) error {
	rooms, err := s.roomsPanel(c)
	if err != nil {
		return handlers.WriteError(c, err)
	}
	body := h.Div(
		h.ID("rooms"),
		hx.Get(statusRoomsPath),
		hx.Trigger(statusPollInterval),
		hx.Swap("innerHTML"),
		rooms,
	)
	return s.renderer.RenderPage(c, http.StatusOK, rendering.Layout("OrganiZapp status", body))
}

// RoomsGet handles GET /status/rooms, the fragment the page polls.
func (s *StatusHandler) RoomsGet(c echo.Context) error {
	rooms, err := s.roomsPanel(c)
	if err != nil {
		return handlers.WriteError(c, err)
	}
	out, err := s.renderer.RenderComponent(c.Request().Context(), rooms)
	if err != nil {
		return err
	}
	return c.HTMLBlob(http.StatusOK, out)
}

func (s *StatusHandler) roomsPanel(c echo.Context) (g.Node, error) {
	if err := s.cache.Load(c.Request().Context()); err != nil {
		return nil, err
	}
	snap := s.connections.Snapshot()
	members := make(map[string][]websocket.Member, len(snap.Rooms))
	for _, rs := range snap.Rooms {
		members[rs.Room] = rs.Members
	}
	return StatusPanel(s.cache.List(), snap, members), nil
}

// StatusPanel lists live groups with their room members, then the number
// of open connections.
func StatusPanel(groups []*domain.Group, snap websocket.Snapshot, members map[string][]websocket.Member) g.Node {
	return h.Div(h.Class("status"),
		h.P(h.Class("connections"), g.Textf("%d open connections", snap.Connections)),
		g.If(len(groups) == 0, h.P(g.Text("No groups yet."))),
		g.If(len(groups) > 0, h.Table(
			h.THead(h.Tr(h.Th(g.Text("ID")), h.Th(g.Text("Group")), h.Th(g.Text("Last message")), h.Th(g.Text("Members")))),
			h.TBody(g.Map(groups, func(grp *domain.Group) g.Node {
				room := members[websocket.GroupRoom(grp.ID)]
				return h.Tr(
					h.Td(g.Textf("%d", grp.ID)),
					h.Td(g.Text(grp.Name)),
					h.Td(lastMessageCell(grp.LastMessage)),
					h.Td(g.If(len(room) == 0, g.Text("-")), h.Ul(g.Map(room, memberItem))),
				)
			})),
		)),
	)
}

func lastMessageCell(m *domain.MessageSummary) g.Node {
	if m == nil {
		return g.Text("-")
	}
	return g.Textf("%s: %s", m.SenderName, m.Preview)
}

func memberItem(m websocket.Member) g.Node {
	label := m.ConnectionID
	if m.User != nil {
		label = m.User.Name + " (" + m.ConnectionID + ")"
	}
	return h.Li(g.Text(label))
}

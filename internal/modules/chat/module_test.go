package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/labstack/echo/v4"
	"github.com/nfrund/organizapp/internal/domain"
	"github.com/nfrund/organizapp/internal/memstore"
	"github.com/nfrund/organizapp/internal/presence"
	"github.com/nfrund/organizapp/internal/pubsub"
	"github.com/nfrund/organizapp/internal/registry"
	"github.com/nfrund/organizapp/internal/rendering"
	ws "github.com/nfrund/organizapp/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bootModule(t *testing.T) (*registry.Registry, *httptest.Server) {
	t.Helper()

	bus := pubsub.NewWatermillBridge()
	t.Cleanup(func() { _ = bus.Close() })
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	reg := registry.New(nil)
	conns := ws.NewRegistry()
	registry.Set(reg, registry.ConnectionsKey, conns)
	registry.Set(reg, registry.BroadcasterKey, presence.NewBroadcaster(conns))
	registry.Set[domain.GroupRepository](reg, registry.GroupsKey, memstore.NewGroupStore())
	registry.Set[domain.MessageRepository](reg, registry.MessagesKey, memstore.NewMessageStore())
	registry.Set[domain.UserRepository](reg, registry.UsersKey, memstore.NewUserStore())

	m := New(Dependencies{
		Publisher:  bus,
		Subscriber: bus,
		Renderer:   rendering.NewUniversalRenderer(),
	})
	require.Equal(t, "chat", m.Name())
	require.NoError(t, m.Register(reg))

	e := echo.New()
	require.NoError(t, m.Boot(ctx, e.Group(""), reg))
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return reg, srv
}

func readFrame(t *testing.T, ctx context.Context, c *websocket.Conn, event string) frame {
	t.Helper()
	for {
		_, data, err := c.Read(ctx)
		require.NoError(t, err)
		var f frame
		require.NoError(t, json.Unmarshal(data, &f))
		if f.Type == event {
			return f
		}
	}
}

func TestChatModule_RegisterRequiresServices(t *testing.T) {
	m := New(Dependencies{})
	assert.Error(t, m.Register(registry.New(nil)))
	assert.Error(t, m.Boot(context.Background(), echo.New().Group(""), registry.New(nil)))
}

func TestChatModule_EndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping websocket round trip in short mode")
	}
	reg, srv := bootModule(t)
	_, ok := registry.Get(reg, RelayKey)
	require.True(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	alice, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer alice.CloseNow()
	bob, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer bob.CloseNow()

	conns := registry.MustGet(reg, registry.ConnectionsKey)
	require.Eventually(t, func() bool { return conns.Count() == 2 }, time.Second, 10*time.Millisecond)

	require.NoError(t, alice.Write(ctx, websocket.MessageText,
		[]byte(`{"type":"create_group","correlation_id":"c-1","payload":{"name":"Trip"}}`)))
	ack := payloadOf[AckPayload](t, readFrame(t, ctx, alice, EventAck))
	assert.Equal(t, "c-1", ack.CorrelationID)

	groups := readFrame(t, ctx, bob, EventGroupsUpdated)
	assert.Contains(t, string(groups.Payload), `"name":"Trip"`)

	require.NoError(t, bob.Write(ctx, websocket.MessageText, []byte(`{"type":"join_group","payload":{"group_id":1}}`)))
	member := payloadOf[MemberPayload](t, readFrame(t, ctx, alice, EventNewMember))
	assert.Equal(t, int64(1), member.GroupID)

	require.NoError(t, bob.Write(ctx, websocket.MessageText, []byte(`{oops`)))
	errFrame := payloadOf[ErrorPayload](t, readFrame(t, ctx, bob, EventError))
	assert.Equal(t, CodeBadRequest, errFrame.Code)

	resp, err := http.Get(srv.URL + "/api/groups")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, bob.Close(websocket.StatusNormalClosure, "bye"))
	left := payloadOf[MemberPayload](t, readFrame(t, ctx, alice, EventMemberLeft))
	assert.Equal(t, int64(1), left.GroupID)
	require.Eventually(t, func() bool { return conns.Count() == 1 }, time.Second, 10*time.Millisecond)
}

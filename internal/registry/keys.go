package registry

import (
	"github.com/nfrund/organizapp/internal/domain"
	"github.com/nfrund/organizapp/internal/presence"
	"github.com/nfrund/organizapp/internal/pubsub"
	"github.com/nfrund/organizapp/internal/rendering"
	"github.com/nfrund/organizapp/internal/websocket"
)

// Shared services. Modules look these up during Register and Boot instead
// of reaching into the server.
const (
	GroupsKey      Key[domain.GroupRepository]   = "store.groups"
	MessagesKey    Key[domain.MessageRepository] = "store.messages"
	UsersKey       Key[domain.UserRepository]    = "store.users"
	ConnectionsKey Key[*websocket.Registry]      = "ws.registry"
	BroadcasterKey Key[*presence.Broadcaster]    = "presence.broadcaster"
	BusKey         Key[pubsub.Bus]               = "pubsub.bus"
	RendererKey    Key[rendering.Renderer]       = "rendering.renderer"
)

package chat

import (
	"encoding/json"

	"github.com/nfrund/organizapp/internal/domain"
	"github.com/nfrund/organizapp/internal/topicmgr"
)

// Inbound event names.
const (
	EventListGroups  = "list_groups"
	EventCreateGroup = "create_group"
	EventUpdateGroup = "update_group"
	EventDeleteGroup = "delete_group"
	EventJoinGroup   = "join_group"
	EventLeaveGroup  = "leave_group"
	EventSendMessage = "send_message"
	EventIdentify    = "identify"
	EventDisconnect  = "disconnect"
)

// Outbound event names.
const (
	EventGroupsUpdated = "groups_updated"
	EventNewMember     = "new_member"
	EventMemberLeft    = "member_left"
	EventMessages      = "messages"
	EventDirectMessage = "direct_message"
	EventIdentified    = "identified"
	EventAck           = "ack"
	EventError         = "error"
)

// Error codes carried by error frames.
const (
	CodeBadRequest       = "bad_request"
	CodeUnknownEvent     = "unknown_event"
	CodeValidationFailed = "validation_failed"
	CodeNotFound         = "not_found"
	CodeUnknownSender    = "unknown_sender"
	CodeForbidden        = "forbidden"
	CodeRejected         = "rejected"
	CodeInternal         = "internal"
)

// Envelope is the inbound frame.
type Envelope struct {
	Type          string          `json:"type"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload,omitempty"`
}

// CreateGroupRequest is the create_group payload. The name is checked by
// domain.ValidateGroupName after normalization.
type CreateGroupRequest struct {
	Name string `json:"name"`
}

// UpdateGroupRequest is the update_group payload.
type UpdateGroupRequest struct {
	GroupID int64  `json:"group_id" validate:"gt=0"`
	Name    string `json:"name"`
}

// GroupRequest is shared by delete_group, join_group and leave_group.
type GroupRequest struct {
	GroupID int64 `json:"group_id" validate:"gt=0"`
}

// SendMessageRequest targets exactly one of GroupID or ReceiverID.
type SendMessageRequest struct {
	GroupID    int64  `json:"group_id" validate:"required_without=ReceiverID,excluded_with=ReceiverID,gte=0"`
	ReceiverID string `json:"receiver_id" validate:"required_without=GroupID,excluded_with=GroupID,max=64"`
	Text       string `json:"text" validate:"required,printable,max=5000"`
	SenderName string `json:"sender_name" validate:"max=50"`
}

// IdentifyRequest binds a connection to a named user.
type IdentifyRequest struct {
	Name string `json:"name" validate:"required,max=50"`
}

// AckPayload confirms a state-changing request to its originator.
type AckPayload struct {
	Event         string `json:"event"`
	CorrelationID string `json:"correlation_id"`
	Data          any    `json:"data,omitempty"`
}

// ErrorPayload reports a failed request to its originator only.
type ErrorPayload struct {
	Event         string `json:"event,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
	Code          string `json:"code"`
	Message       string `json:"message"`
}

// MessagesPayload carries a group's full history.
type MessagesPayload struct {
	GroupID int64             `json:"group_id"`
	History []*domain.Message `json:"history"`
}

// MemberPayload is sent with new_member and member_left.
type MemberPayload struct {
	GroupID      int64        `json:"group_id"`
	ConnectionID string       `json:"connection_id"`
	User         *domain.User `json:"user,omitempty"`
}

// IdentifiedPayload answers identify.
type IdentifiedPayload struct {
	CorrelationID string       `json:"correlation_id"`
	User          *domain.User `json:"user"`
}

// Ack data shapes.
type (
	groupAck struct {
		Group *domain.Group `json:"group"`
	}
	deleteAck struct {
		GroupID int64 `json:"group_id"`
		Purged  int   `json:"purged"`
		Evicted int   `json:"evicted"`
	}
	joinAck struct {
		GroupID int64 `json:"group_id"`
		Members int   `json:"members"`
	}
	leaveAck struct {
		GroupID int64 `json:"group_id"`
		Left    bool  `json:"left"`
	}
	sendAck struct {
		MessageID  int64  `json:"message_id"`
		GroupID    int64  `json:"group_id,omitempty"`
		ReceiverID string `json:"receiver_id,omitempty"`
	}
)

type wireEvent struct {
	name        string
	direction   string
	description string
	payload     any
}

var wireEvents = []wireEvent{
	{EventListGroups, "in", "Request the live group list", nil},
	{EventCreateGroup, "in", "Create a group owned by the sender", CreateGroupRequest{}},
	{EventUpdateGroup, "in", "Rename a group (owner only)", UpdateGroupRequest{}},
	{EventDeleteGroup, "in", "Delete a group and purge its messages (owner only)", GroupRequest{}},
	{EventJoinGroup, "in", "Join a group room and receive its history", GroupRequest{}},
	{EventLeaveGroup, "in", "Leave a group room", GroupRequest{}},
	{EventSendMessage, "in", "Send a group or direct message", SendMessageRequest{}},
	{EventIdentify, "in", "Bind the connection to a named user", IdentifyRequest{}},
	{EventDisconnect, "in", "Leave every room and close the connection", nil},
	{EventGroupsUpdated, "out", "Full live group list, sent to every connection", []domain.Group{}},
	{EventNewMember, "out", "A connection joined a group room", MemberPayload{}},
	{EventMemberLeft, "out", "A connection left a group room", MemberPayload{}},
	{EventMessages, "out", "Full history of a group", MessagesPayload{}},
	{EventDirectMessage, "out", "A direct message, sent to both parties", domain.Message{}},
	{EventIdentified, "out", "Result of identify", IdentifiedPayload{}},
	{EventAck, "out", "Successful state change, sent to the originator", AckPayload{}},
	{EventError, "out", "Failed request, sent to the originator", ErrorPayload{}},
}

// The wire protocol is published in the topic catalog so the CLI can list it
// next to the bus topics.
var _ = registerWireEvents(topicmgr.Default())

func registerWireEvents(m *topicmgr.Manager) []*topicmgr.Topic {
	out := make([]*topicmgr.Topic, 0, len(wireEvents))
	for _, ev := range wireEvents {
		cfg := topicmgr.TopicConfig{
			Name:        "chat." + ev.direction + "." + ev.name,
			Module:      "chat",
			Description: ev.description,
			Metadata: map[string]any{
				"wire_event": ev.name,
				"direction":  ev.direction,
			},
		}
		if ev.payload != nil {
			if example, err := json.Marshal(ev.payload); err == nil {
				cfg.Example = string(example)
			}
		}
		out = append(out, m.MustRegister(topicmgr.DefineModule(cfg)))
	}
	return out
}

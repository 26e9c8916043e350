package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/nfrund/organizapp/internal/archive"
	"github.com/nfrund/organizapp/internal/domain"
	"github.com/nfrund/organizapp/internal/moderation"
	"github.com/nfrund/organizapp/internal/presence"
	"github.com/nfrund/organizapp/internal/websocket"
)

// Moderator inspects outgoing text before it is stored.
type Moderator interface {
	Check(ctx context.Context, in moderation.Input) moderation.Verdict
}

// RelayDependencies holds everything the relay needs. Moderator and
// Archiver are optional.
type RelayDependencies struct {
	Groups      domain.GroupRepository
	Messages    domain.MessageRepository
	Users       domain.UserRepository
	Connections *websocket.Registry
	Broadcaster *presence.Broadcaster
	Moderator   Moderator
	Archiver    *archive.Archiver
}

// Relay applies inbound client events to the stores and the connection
// registry, then fans the results out. Events are handled one at a time, so
// every connection observes the same order of state changes.
type Relay struct {
	mu sync.Mutex

	groups      domain.GroupRepository
	messages    domain.MessageRepository
	users       domain.UserRepository
	connections *websocket.Registry
	broadcast   *presence.Broadcaster
	moderator   Moderator
	archiver    *archive.Archiver
	cache       *GroupCache
	logger      *slog.Logger
}

// NewRelay creates a relay. The group cache starts empty and is loaded on
// first use.
func NewRelay(deps RelayDependencies) *Relay {
	return &Relay{
		groups:      deps.Groups,
		messages:    deps.Messages,
		users:       deps.Users,
		connections: deps.Connections,
		broadcast:   deps.Broadcaster,
		moderator:   deps.Moderator,
		archiver:    deps.Archiver,
		cache:       NewGroupCache(deps.Groups, deps.Messages),
		logger:      slog.Default().With("service", "chat-relay"),
	}
}

// Cache exposes the relay's group cache to read-only HTTP handlers.
func (r *Relay) Cache() *GroupCache {
	return r.cache
}

// eventError is a failure reported back to the originating connection.
type eventError struct {
	code    string
	message string
	err     error
}

func (e *eventError) Error() string {
	if e.err != nil {
		return e.code + ": " + e.message + ": " + e.err.Error()
	}
	return e.code + ": " + e.message
}

func (e *eventError) Unwrap() error { return e.err }

func fail(code, message string) error {
	return &eventError{code: code, message: message}
}

// classify maps an error onto a wire code and a client-safe message.
func classify(err error) (code, message string) {
	var ee *eventError
	switch {
	case errors.As(err, &ee):
		return ee.code, ee.message
	case errors.Is(err, domain.ErrGroupDeleted):
		return CodeNotFound, domain.ErrGroupDeleted.Error()
	case errors.Is(err, domain.ErrNotFound):
		return CodeNotFound, domain.ErrNotFound.Error()
	case errors.Is(err, domain.ErrInvalidInput):
		return CodeValidationFailed, err.Error()
	case errors.Is(err, domain.ErrForbidden):
		return CodeForbidden, domain.ErrForbidden.Error()
	case errors.Is(err, domain.ErrUnknownSender):
		return CodeUnknownSender, domain.ErrUnknownSender.Error()
	default:
		return CodeInternal, "internal error"
	}
}

// request is one inbound event in flight.
type request struct {
	conn    *websocket.Connection
	event   string
	corrID  string
	payload json.RawMessage
}

// decode unmarshals the payload into v and validates it. A missing payload
// decodes to the zero value.
func (q *request) decode(v any) error {
	if len(q.payload) > 0 && !bytes.Equal(bytes.TrimSpace(q.payload), []byte("null")) {
		if err := json.Unmarshal(q.payload, v); err != nil {
			return &eventError{code: CodeBadRequest, message: "malformed payload", err: err}
		}
	}
	return domain.Validate(v)
}

// Handle processes one raw inbound frame from connectionID.
func (r *Relay) Handle(ctx context.Context, connectionID string, frame []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.connections.Get(connectionID)
	if !ok {
		r.logger.DebugContext(ctx, "Dropping event from unknown connection", "connection_id", connectionID)
		return
	}

	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil || env.Type == "" {
		r.replyError(ctx, conn, &request{}, fail(CodeBadRequest, "malformed envelope"))
		return
	}

	q := &request{conn: conn, event: env.Type, corrID: env.CorrelationID, payload: env.Payload}
	if q.corrID == "" {
		q.corrID = uuid.NewString()
	}

	logger := r.logger.With("event", q.event, "connection_id", connectionID, "correlation_id", q.corrID)
	logger.DebugContext(ctx, "Handling event")

	var err error
	switch q.event {
	case EventListGroups:
		err = r.listGroups(ctx, q)
	case EventCreateGroup:
		err = r.createGroup(ctx, q)
	case EventUpdateGroup:
		err = r.updateGroup(ctx, q)
	case EventDeleteGroup:
		err = r.deleteGroup(ctx, q)
	case EventJoinGroup:
		err = r.joinGroup(ctx, q)
	case EventLeaveGroup:
		err = r.leaveGroup(ctx, q)
	case EventSendMessage:
		err = r.sendMessage(ctx, q)
	case EventIdentify:
		err = r.identify(ctx, q)
	case EventDisconnect:
		r.disconnect(ctx, connectionID, "client_request")
	default:
		err = fail(CodeUnknownEvent, fmt.Sprintf("unknown event %q", q.event))
	}

	if err != nil {
		if code, _ := classify(err); code == CodeInternal {
			logger.ErrorContext(ctx, "Event failed", "error", err)
		} else {
			logger.DebugContext(ctx, "Event rejected", "error", err)
		}
		r.replyError(ctx, conn, q, err)
	}
}

// HandleDisconnect removes a closed connection from every room and tells
// the remaining members of each group it was in.
func (r *Relay) HandleDisconnect(ctx context.Context, connectionID, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disconnect(ctx, connectionID, reason)
}

func (r *Relay) disconnect(ctx context.Context, connectionID, reason string) {
	conn, ok := r.connections.Get(connectionID)
	if !ok {
		return
	}
	user := conn.User()
	rooms := r.connections.LeaveAll(connectionID)
	for _, room := range rooms {
		groupID, ok := websocket.ParseGroupRoom(room)
		if !ok {
			continue
		}
		r.send(ctx, func() (int, error) {
			return r.broadcast.ToRoom(room, EventMemberLeft, MemberPayload{GroupID: groupID, ConnectionID: connectionID, User: user})
		})
	}
	r.logger.InfoContext(ctx, "Connection left", "connection_id", connectionID, "reason", reason, "rooms", len(rooms))
}

func (r *Relay) listGroups(ctx context.Context, q *request) error {
	if err := r.cache.Load(ctx); err != nil {
		return err
	}
	r.send(ctx, func() (int, error) {
		return r.broadcast.ToConnection(q.conn.ID(), EventGroupsUpdated, r.cache.List())
	})
	return nil
}

func (r *Relay) createGroup(ctx context.Context, q *request) error {
	var req CreateGroupRequest
	if err := q.decode(&req); err != nil {
		return err
	}
	name, err := domain.ValidateGroupName(req.Name)
	if err != nil {
		return err
	}

	g, err := r.groups.Create(ctx, name, q.conn.Principal())
	if err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	r.connections.Join(q.conn.ID(), websocket.GroupRoom(g.ID))
	r.refresh(ctx)

	r.ack(ctx, q, groupAck{Group: g})
	r.publishGroups(ctx)
	return nil
}

func (r *Relay) updateGroup(ctx context.Context, q *request) error {
	var req UpdateGroupRequest
	if err := q.decode(&req); err != nil {
		return err
	}
	name, err := domain.ValidateGroupName(req.Name)
	if err != nil {
		return err
	}
	if _, err := r.authorize(ctx, q, req.GroupID); err != nil {
		return err
	}

	g, err := r.groups.Update(ctx, req.GroupID, name)
	if err != nil {
		return fmt.Errorf("update group %d: %w", req.GroupID, err)
	}
	r.refresh(ctx)

	r.ack(ctx, q, groupAck{Group: g})
	r.publishGroups(ctx)
	return nil
}

// deleteGroup archives the history, purges it, tombstones the group and
// evicts the room, in that order, before anyone is told.
func (r *Relay) deleteGroup(ctx context.Context, q *request) error {
	var req GroupRequest
	if err := q.decode(&req); err != nil {
		return err
	}
	g, err := r.authorize(ctx, q, req.GroupID)
	if err != nil {
		return err
	}
	history, err := r.messages.ListByGroup(ctx, req.GroupID)
	if err != nil {
		return fmt.Errorf("delete group %d: load history: %w", req.GroupID, err)
	}
	if _, err := r.archiver.Write(g, history); err != nil {
		r.logger.WarnContext(ctx, "Failed to archive group, deleting anyway", "group_id", g.ID, "error", err)
	}

	purged, err := r.messages.DeleteByGroup(ctx, req.GroupID)
	if err != nil {
		return fmt.Errorf("delete group %d: purge messages: %w", req.GroupID, err)
	}
	if err := r.groups.SoftDelete(ctx, req.GroupID); err != nil {
		return fmt.Errorf("delete group %d: %w", req.GroupID, err)
	}
	evicted := r.connections.RemoveRoom(websocket.GroupRoom(req.GroupID))
	r.refresh(ctx)

	r.logger.InfoContext(ctx, "Group deleted", "group_id", req.GroupID, "purged", purged, "evicted", len(evicted))
	r.ack(ctx, q, deleteAck{GroupID: req.GroupID, Purged: purged, Evicted: len(evicted)})
	r.publishGroups(ctx)
	return nil
}

func (r *Relay) joinGroup(ctx context.Context, q *request) error {
	var req GroupRequest
	if err := q.decode(&req); err != nil {
		return err
	}
	if _, err := r.groups.Get(ctx, req.GroupID); err != nil {
		return fmt.Errorf("join group %d: %w", req.GroupID, err)
	}

	room := websocket.GroupRoom(req.GroupID)
	r.connections.Join(q.conn.ID(), room)

	r.send(ctx, func() (int, error) {
		return r.broadcast.ToRoom(room, EventNewMember, MemberPayload{
			GroupID:      req.GroupID,
			ConnectionID: q.conn.ID(),
			User:         q.conn.User(),
		})
	})
	if err := r.publishHistory(ctx, req.GroupID); err != nil {
		return err
	}
	r.ack(ctx, q, joinAck{GroupID: req.GroupID, Members: r.connections.RoomCount(room)})
	return nil
}

func (r *Relay) leaveGroup(ctx context.Context, q *request) error {
	var req GroupRequest
	if err := q.decode(&req); err != nil {
		return err
	}

	room := websocket.GroupRoom(req.GroupID)
	left := r.connections.Leave(q.conn.ID(), room)
	if left {
		r.send(ctx, func() (int, error) {
			return r.broadcast.ToRoom(room, EventMemberLeft, MemberPayload{
				GroupID:      req.GroupID,
				ConnectionID: q.conn.ID(),
				User:         q.conn.User(),
			})
		})
	}
	r.ack(ctx, q, leaveAck{GroupID: req.GroupID, Left: left})
	return nil
}

func (r *Relay) sendMessage(ctx context.Context, q *request) error {
	var req SendMessageRequest
	if err := q.decode(&req); err != nil {
		return err
	}

	sender, err := r.resolveSender(ctx, q, req.SenderName)
	if err != nil {
		return err
	}

	text, err := r.moderate(ctx, moderation.Input{
		Text:       req.Text,
		Sender:     sender.Name,
		GroupID:    req.GroupID,
		ReceiverID: req.ReceiverID,
	})
	if err != nil {
		return err
	}

	msg := &domain.Message{
		SenderID:        sender.ID,
		SenderName:      sender.Name,
		SenderAvatarURL: sender.AvatarURL,
		Content:         text,
	}

	if req.ReceiverID != "" {
		return r.sendDirect(ctx, q, sender, req.ReceiverID, msg)
	}

	if _, err := r.groups.Get(ctx, req.GroupID); err != nil {
		return fmt.Errorf("send to group %d: %w", req.GroupID, err)
	}
	msg.GroupID = req.GroupID
	stored, err := r.messages.Create(ctx, msg)
	if err != nil {
		return fmt.Errorf("store message: %w", err)
	}
	r.cache.Touch(stored.GroupID, stored.Summary())

	r.ack(ctx, q, sendAck{MessageID: stored.ID, GroupID: stored.GroupID})
	return r.publishHistory(ctx, stored.GroupID)
}

func (r *Relay) sendDirect(ctx context.Context, q *request, sender *domain.User, receiverID string, msg *domain.Message) error {
	receiver, err := r.users.FindByID(ctx, receiverID)
	if err != nil {
		return fmt.Errorf("direct message receiver %q: %w", receiverID, err)
	}
	msg.ReceiverID = receiver.ID
	stored, err := r.messages.Create(ctx, msg)
	if err != nil {
		return fmt.Errorf("store direct message: %w", err)
	}

	r.ack(ctx, q, sendAck{MessageID: stored.ID, ReceiverID: stored.ReceiverID})
	r.send(ctx, func() (int, error) {
		return r.broadcast.ToRooms(
			[]string{websocket.UserRoom(receiver.ID), websocket.UserRoom(sender.ID)},
			EventDirectMessage, stored,
		)
	})
	return nil
}

func (r *Relay) identify(ctx context.Context, q *request) error {
	var req IdentifyRequest
	if err := q.decode(&req); err != nil {
		return err
	}
	user, err := r.lookupUser(ctx, req.Name)
	if err != nil {
		return err
	}
	r.connections.Bind(q.conn.ID(), user)
	r.send(ctx, func() (int, error) {
		return r.broadcast.ToConnection(q.conn.ID(), EventIdentified, IdentifiedPayload{CorrelationID: q.corrID, User: user})
	})
	return nil
}

// resolveSender prefers the user bound to the connection. Otherwise the
// claimed sender name must belong to a known user, who is then bound.
func (r *Relay) resolveSender(ctx context.Context, q *request, claimed string) (*domain.User, error) {
	if u := q.conn.User(); u != nil {
		return u, nil
	}
	if strings.TrimSpace(claimed) == "" {
		return nil, fail(CodeUnknownSender, "sender is not identified")
	}
	u, err := r.lookupUser(ctx, claimed)
	if err != nil {
		return nil, err
	}
	r.connections.Bind(q.conn.ID(), u)
	return u, nil
}

func (r *Relay) lookupUser(ctx context.Context, name string) (*domain.User, error) {
	u, err := r.users.FindByName(ctx, domain.NormalizeName(name))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, &eventError{code: CodeUnknownSender, message: fmt.Sprintf("no user named %q", name), err: domain.ErrUnknownSender}
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return u, nil
}

// moderate runs the moderator and checks the possibly rewritten text again.
func (r *Relay) moderate(ctx context.Context, in moderation.Input) (string, error) {
	if r.moderator == nil {
		return in.Text, nil
	}
	v := r.moderator.Check(ctx, in)
	if !v.Allow {
		reason := v.Reason
		if reason == "" {
			reason = "message rejected by moderation"
		}
		return "", fail(CodeRejected, reason)
	}
	if strings.TrimSpace(v.Text) == "" {
		return "", fail(CodeValidationFailed, "text is empty after moderation")
	}
	if utf8.RuneCountInString(v.Text) > domain.MaxMessageLength {
		return "", fail(CodeValidationFailed, "text is too long after moderation")
	}
	return v.Text, nil
}

// authorize loads the group and checks that the connection owns it.
func (r *Relay) authorize(ctx context.Context, q *request, groupID int64) (*domain.Group, error) {
	g, err := r.groups.Get(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !g.OwnedBy(q.conn.Principal()) {
		return nil, &eventError{code: CodeForbidden, message: "only the group owner may do this", err: domain.ErrForbidden}
	}
	return g, nil
}

func (r *Relay) publishHistory(ctx context.Context, groupID int64) error {
	history, err := r.messages.ListByGroup(ctx, groupID)
	if err != nil {
		return fmt.Errorf("load history of %d: %w", groupID, err)
	}
	if history == nil {
		history = []*domain.Message{}
	}
	r.send(ctx, func() (int, error) {
		return r.broadcast.ToRoom(websocket.GroupRoom(groupID), EventMessages, MessagesPayload{GroupID: groupID, History: history})
	})
	return nil
}

func (r *Relay) publishGroups(ctx context.Context) {
	r.send(ctx, func() (int, error) {
		return r.broadcast.ToAll(EventGroupsUpdated, r.cache.List())
	})
}

// refresh reloads the cache after a group write. The write already
// succeeded, so a failure is logged and the next write retries.
func (r *Relay) refresh(ctx context.Context) {
	if err := r.cache.Refresh(ctx); err != nil {
		r.logger.ErrorContext(ctx, "Failed to refresh group cache", "error", err)
	}
}

func (r *Relay) ack(ctx context.Context, q *request, data any) {
	r.send(ctx, func() (int, error) {
		return r.broadcast.ToConnection(q.conn.ID(), EventAck, AckPayload{Event: q.event, CorrelationID: q.corrID, Data: data})
	})
}

func (r *Relay) replyError(ctx context.Context, conn *websocket.Connection, q *request, err error) {
	code, message := classify(err)
	r.send(ctx, func() (int, error) {
		return r.broadcast.ToConnection(conn.ID(), EventError, ErrorPayload{
			Event:         q.event,
			CorrelationID: q.corrID,
			Code:          code,
			Message:       message,
		})
	})
}

func (r *Relay) send(ctx context.Context, deliver func() (int, error)) {
	if _, err := deliver(); err != nil {
		r.logger.ErrorContext(ctx, "Failed to encode outbound frame", "error", err)
	}
}

package websocket

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/nfrund/organizapp/internal/domain"
)

// Registry tracks live connections and their room memberships. Rooms exist
// only while they have members.
type Registry struct {
	mu          sync.RWMutex
	conns       map[string]*Connection
	rooms       map[string]map[string]struct{} // room -> connection ids
	memberships map[string]map[string]struct{} // connection id -> rooms
	logger      *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		conns:       make(map[string]*Connection),
		rooms:       make(map[string]map[string]struct{}),
		memberships: make(map[string]map[string]struct{}),
		logger:      slog.Default().With("service", "websocket"),
	}
}

// Register assigns the connection an id and adds it with no rooms, except
// its user room when it already carries a user.
func (r *Registry) Register(c *Connection) string {
	c.id = uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.conns[c.id] = c
	r.memberships[c.id] = make(map[string]struct{})
	if uid := c.UserID(); uid != "" {
		r.join(c.id, UserRoom(uid))
	}
	r.logger.Debug("Connection registered", "connection_id", c.id, "user_id", c.UserID())
	return c.id
}

// Join adds the connection to room. It is idempotent and reports whether
// the connection is now a member. Empty rooms and unknown connections are
// ignored.
func (r *Registry) Join(connectionID, room string) bool {
	if room == "" {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[connectionID]; !ok {
		return false
	}
	r.join(connectionID, room)
	return true
}

// join must be called with r.mu held.
func (r *Registry) join(connectionID, room string) {
	members, ok := r.rooms[room]
	if !ok {
		members = make(map[string]struct{})
		r.rooms[room] = members
	}
	members[connectionID] = struct{}{}
	r.memberships[connectionID][room] = struct{}{}
}

// Leave removes one membership. It reports whether the connection was a member.
func (r *Registry) Leave(connectionID, room string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leave(connectionID, room)
}

// leave must be called with r.mu held.
func (r *Registry) leave(connectionID, room string) bool {
	members, ok := r.rooms[room]
	if !ok {
		return false
	}
	if _, ok := members[connectionID]; !ok {
		return false
	}
	delete(members, connectionID)
	if len(members) == 0 {
		delete(r.rooms, room)
	}
	if rooms, ok := r.memberships[connectionID]; ok {
		delete(rooms, room)
	}
	return true
}

// LeaveAll removes the connection from every room and from the registry,
// closes its send queue, and returns the rooms it left, sorted. Unknown
// connections yield nil.
func (r *Registry) LeaveAll(connectionID string) []string {
	r.mu.Lock()
	c, ok := r.conns[connectionID]
	if !ok {
		r.mu.Unlock()
		return nil
	}

	left := make([]string, 0, len(r.memberships[connectionID]))
	for room := range r.memberships[connectionID] {
		left = append(left, room)
	}
	for _, room := range left {
		r.leave(connectionID, room)
	}
	delete(r.memberships, connectionID)
	delete(r.conns, connectionID)
	r.mu.Unlock()

	c.close()
	sort.Strings(left)
	r.logger.Debug("Connection removed", "connection_id", connectionID, "rooms_left", len(left))
	return left
}

// RemoveRoom drops every membership of room and returns the connection ids
// that were in it.
func (r *Registry) RemoveRoom(room string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	members := r.rooms[room]
	ids := make([]string, 0, len(members))
	for id := range members {
		ids = append(ids, id)
		delete(r.memberships[id], room)
	}
	delete(r.rooms, room)
	sort.Strings(ids)
	return ids
}

// Bind attaches a user to the connection and moves it into that user's
// room. It reports false for unknown connections.
func (r *Registry) Bind(connectionID string, user *domain.User) bool {
	if user == nil || user.ID == "" {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conns[connectionID]
	if !ok {
		return false
	}
	if previous := c.setUser(user); previous != "" && previous != user.ID {
		r.leave(connectionID, UserRoom(previous))
	}
	r.join(connectionID, UserRoom(user.ID))
	return true
}

// Members returns the connections in room, ordered by id.
func (r *Registry) Members(room string) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[room]
	out := make([]*Connection, 0, len(members))
	for id := range members {
		out = append(out, r.conns[id])
	}
	sortConnections(out)
	return out
}

// Rooms returns the rooms the connection is in, sorted.
func (r *Registry) Rooms(connectionID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := r.memberships[connectionID]
	out := make([]string, 0, len(rooms))
	for room := range rooms {
		out = append(out, room)
	}
	sort.Strings(out)
	return out
}

// Get looks a connection up by id.
func (r *Registry) Get(connectionID string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[connectionID]
	return c, ok
}

// All returns every registered connection, ordered by id.
func (r *Registry) All() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Connection, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	sortConnections(out)
	return out
}

// Count returns the number of registered connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// RoomCount returns the number of members of room.
func (r *Registry) RoomCount(room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[room])
}

// Member is one entry of a room roster.
type Member struct {
	ConnectionID string       `json:"connection_id"`
	User         *domain.User `json:"user,omitempty"`
}

// RoomSnapshot is a point-in-time view of one room.
type RoomSnapshot struct {
	Room    string   `json:"room"`
	Members []Member `json:"members"`
}

// Snapshot is a point-in-time view of the registry.
type Snapshot struct {
	Connections int            `json:"connections"`
	Rooms       []RoomSnapshot `json:"rooms"`
}

// Snapshot copies the registry state, rooms sorted by key.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := Snapshot{Connections: len(r.conns), Rooms: make([]RoomSnapshot, 0, len(r.rooms))}
	for room, members := range r.rooms {
		rs := RoomSnapshot{Room: room, Members: make([]Member, 0, len(members))}
		for id := range members {
			rs.Members = append(rs.Members, Member{ConnectionID: id, User: r.conns[id].User()})
		}
		sort.Slice(rs.Members, func(i, j int) bool { return rs.Members[i].ConnectionID < rs.Members[j].ConnectionID })
		snap.Rooms = append(snap.Rooms, rs)
	}
	sort.Slice(snap.Rooms, func(i, j int) bool { return snap.Rooms[i].Room < snap.Rooms[j].Room })
	return snap
}

func sortConnections(conns []*Connection) {
	sort.Slice(conns, func(i, j int) bool { return conns[i].id < conns[j].id })
}

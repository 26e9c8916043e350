// Package memstore provides in-memory implementations of the domain
// repositories. They back the "memory" store driver and the relay tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nfrund/organizapp/internal/domain"
)

// GroupStore keeps groups in a map guarded by a mutex. Ids come from a
// counter that never rewinds, so tombstoned ids stay reserved.
type GroupStore struct {
	mu     sync.RWMutex
	groups map[int64]*domain.Group
	nextID int64
	now    func() time.Time
}

var _ domain.GroupRepository = (*GroupStore)(nil)

func NewGroupStore() *GroupStore {
	return &GroupStore{groups: make(map[int64]*domain.Group), now: time.Now}
}

func (s *GroupStore) Create(_ context.Context, name, owner string) (*domain.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	now := s.now().UTC()
	g := &domain.Group{ID: s.nextID, Name: name, Owner: owner, CreatedAt: now, UpdatedAt: now}
	s.groups[g.ID] = g
	return g.Clone(), nil
}

func (s *GroupStore) Get(_ context.Context, id int64) (*domain.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return g.Clone(), nil
}

func (s *GroupStore) List(_ context.Context) ([]*domain.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Group, 0, len(s.groups))
	for _, g := range s.groups {
		if !g.Deleted() {
			out = append(out, g.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *GroupStore) Update(_ context.Context, id int64, name string) (*domain.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	g.Name = name
	g.UpdatedAt = s.now().UTC()
	return g.Clone(), nil
}

func (s *GroupStore) SoftDelete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.lookup(id)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	g.DeletedAt = &now
	g.UpdatedAt = now
	return nil
}

// lookup must be called with s.mu held.
func (s *GroupStore) lookup(id int64) (*domain.Group, error) {
	g, ok := s.groups[id]
	if !ok {
		return nil, fmt.Errorf("group %d: %w", id, domain.ErrNotFound)
	}
	if g.Deleted() {
		return nil, fmt.Errorf("group %d: %w", id, domain.ErrGroupDeleted)
	}
	return g, nil
}

// MessageStore keeps messages in insertion order.
type MessageStore struct {
	mu       sync.RWMutex
	messages []*domain.Message
	nextID   int64
	now      func() time.Time
}

var _ domain.MessageRepository = (*MessageStore)(nil)

func NewMessageStore() *MessageStore {
	return &MessageStore{now: time.Now}
}

func (s *MessageStore) Create(_ context.Context, msg *domain.Message) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	m := *msg
	m.ID = s.nextID
	m.CreatedAt = s.now().UTC()
	s.messages = append(s.messages, &m)
	out := m
	return &out, nil
}

func (s *MessageStore) ListByGroup(_ context.Context, groupID int64) ([]*domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Message, 0)
	for _, m := range s.messages {
		if m.GroupID == groupID && !m.Direct() {
			c := *m
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *MessageStore) LastByGroup(_ context.Context, groupID int64) (*domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.messages) - 1; i >= 0; i-- {
		if m := s.messages[i]; m.GroupID == groupID && !m.Direct() {
			c := *m
			return &c, nil
		}
	}
	return nil, nil
}

func (s *MessageStore) DeleteByGroup(_ context.Context, groupID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.messages[:0]
	removed := 0
	for _, m := range s.messages {
		if m.GroupID == groupID && !m.Direct() {
			removed++
			continue
		}
		kept = append(kept, m)
	}
	// Clear the tail so dropped messages can be collected.
	for i := len(kept); i < len(s.messages); i++ {
		s.messages[i] = nil
	}
	s.messages = kept
	return removed, nil
}

// UserStore indexes users by id and by name.
type UserStore struct {
	mu     sync.RWMutex
	byID   map[string]*domain.User
	byName map[string]string
	now    func() time.Time
}

var _ domain.UserRepository = (*UserStore)(nil)

func NewUserStore() *UserStore {
	return &UserStore{
		byID:   make(map[string]*domain.User),
		byName: make(map[string]string),
		now:    time.Now,
	}
}

func (s *UserStore) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byName[user.Name]; taken {
		return nil, fmt.Errorf("user %q: %w", user.Name, domain.ErrUserAlreadyExists)
	}
	u := *user
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = s.now().UTC()
	s.byID[u.ID] = &u
	s.byName[u.Name] = u.ID
	out := u
	return &out, nil
}

func (s *UserStore) FindByName(_ context.Context, name string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byName[name]
	if !ok {
		return nil, fmt.Errorf("user %q: %w", name, domain.ErrNotFound)
	}
	u := *s.byID[id]
	return &u, nil
}

func (s *UserStore) FindByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	c := *u
	return &c, nil
}

func (s *UserStore) List(_ context.Context) ([]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.User, 0, len(s.byID))
	for _, u := range s.byID {
		c := *u
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

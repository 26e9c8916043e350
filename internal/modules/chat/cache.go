package chat

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/nfrund/organizapp/internal/domain"
)

// GroupCache is the relay's view of the live groups, each carrying its
// last-message summary. It is reloaded from the stores after every group
// write, so readers never see a group the store no longer lists.
type GroupCache struct {
	groups   domain.GroupRepository
	messages domain.MessageRepository

	mu     sync.RWMutex
	loaded bool
	byID   map[int64]*domain.Group
}

// NewGroupCache creates an empty, unloaded cache.
func NewGroupCache(groups domain.GroupRepository, messages domain.MessageRepository) *GroupCache {
	return &GroupCache{
		groups:   groups,
		messages: messages,
		byID:     make(map[int64]*domain.Group),
	}
}

// Load fills the cache on first use.
func (c *GroupCache) Load(ctx context.Context) error {
	c.mu.RLock()
	loaded := c.loaded
	c.mu.RUnlock()
	if loaded {
		return nil
	}
	return c.Refresh(ctx)
}

// Refresh replaces the cache contents with the store's live groups.
func (c *GroupCache) Refresh(ctx context.Context) error {
	list, err := c.groups.List(ctx)
	if err != nil {
		return fmt.Errorf("refresh group cache: %w", err)
	}

	byID := make(map[int64]*domain.Group, len(list))
	for _, g := range list {
		last, err := c.messages.LastByGroup(ctx, g.ID)
		if err != nil {
			return fmt.Errorf("refresh group cache: last message of %d: %w", g.ID, err)
		}
		if last != nil {
			g.LastMessage = last.Summary()
		}
		byID[g.ID] = g
	}

	c.mu.Lock()
	c.byID = byID
	c.loaded = true
	c.mu.Unlock()
	return nil
}

// Touch records a new last message without a round trip to the store.
func (c *GroupCache) Touch(groupID int64, summary *domain.MessageSummary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if g, ok := c.byID[groupID]; ok {
		g.LastMessage = summary
	}
}

// List returns copies of the cached groups ordered by id.
func (c *GroupCache) List() []*domain.Group {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*domain.Group, 0, len(c.byID))
	for _, g := range c.byID {
		out = append(out, g.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get returns a copy of a cached group.
func (c *GroupCache) Get(id int64) (*domain.Group, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	g, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	return g.Clone(), true
}

// Len is the number of live groups.
func (c *GroupCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}

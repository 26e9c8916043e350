package domain

import (
	"context"
	"time"
)

// Group is a persistent chat group. A group with a non-nil DeletedAt is a
// tombstone: it keeps its id reserved but is invisible to List and Get.
type Group struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Owner       string          `json:"owner"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   *time.Time      `json:"deleted_at,omitempty"`
	LastMessage *MessageSummary `json:"last_message,omitempty"`
}

// Deleted reports whether the group carries a tombstone.
func (g *Group) Deleted() bool {
	return g.DeletedAt != nil
}

// OwnedBy reports whether principal may update or delete the group.
func (g *Group) OwnedBy(principal string) bool {
	return principal != "" && g.Owner == principal
}

// Clone returns a deep copy so cached groups can be handed out safely.
func (g *Group) Clone() *Group {
	c := *g
	if g.DeletedAt != nil {
		t := *g.DeletedAt
		c.DeletedAt = &t
	}
	if g.LastMessage != nil {
		s := *g.LastMessage
		c.LastMessage = &s
	}
	return &c
}

// GroupRepository defines the contract for group persistence.
// Get returns ErrNotFound for unknown ids and ErrGroupDeleted for tombstones.
type GroupRepository interface {
	Create(ctx context.Context, name, owner string) (*Group, error)
	Get(ctx context.Context, id int64) (*Group, error)
	List(ctx context.Context) ([]*Group, error)
	Update(ctx context.Context, id int64, name string) (*Group, error)
	SoftDelete(ctx context.Context, id int64) error
}

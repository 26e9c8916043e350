package domain

import (
	"context"
	"time"
)

// User is a chat participant. Users are looked up by display name; issuing
// credentials for them happens elsewhere.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name" validate:"required,max=50"`
	AvatarURL string    `json:"avatar_url,omitempty" validate:"omitempty,url"`
	CreatedAt time.Time `json:"created_at"`
}

// Principal returns the owner principal used for group authorization.
func (u *User) Principal() string {
	return "user:" + u.ID
}

// UserRepository defines the contract for user lookups.
// It lives in the domain because it's a requirement OF the domain, not
// of the database implementation.
type UserRepository interface {
	Create(ctx context.Context, user *User) (*User, error)
	FindByName(ctx context.Context, name string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	List(ctx context.Context) ([]*User, error)
}

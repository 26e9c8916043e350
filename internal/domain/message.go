package domain

import (
	"context"
	"time"
	"unicode/utf8"
)

// previewRunes bounds the content carried in a MessageSummary.
const previewRunes = 80

// Message is a persisted chat message. It targets exactly one of GroupID or
// ReceiverID. IDs grow monotonically and define insertion order.
type Message struct {
	ID              int64     `json:"id"`
	GroupID         int64     `json:"group_id,omitempty"`
	ReceiverID      string    `json:"receiver_id,omitempty"`
	SenderID        string    `json:"sender_id"`
	SenderName      string    `json:"sender_name"`
	SenderAvatarURL string    `json:"sender_avatar_url,omitempty"`
	Content         string    `json:"content"`
	CreatedAt       time.Time `json:"created_at"`
}

// Direct reports whether the message is point-to-point.
func (m *Message) Direct() bool {
	return m.ReceiverID != ""
}

// Summary builds the last-message projection shown in group listings.
func (m *Message) Summary() *MessageSummary {
	preview := m.Content
	if utf8.RuneCountInString(preview) > previewRunes {
		preview = string([]rune(preview)[:previewRunes]) + "…"
	}
	return &MessageSummary{
		ID:         m.ID,
		SenderName: m.SenderName,
		Preview:    preview,
		CreatedAt:  m.CreatedAt,
	}
}

// MessageSummary is the derived last-message view attached to a Group.
type MessageSummary struct {
	ID         int64     `json:"id"`
	SenderName string    `json:"sender_name"`
	Preview    string    `json:"preview"`
	CreatedAt  time.Time `json:"created_at"`
}

// MessageRepository defines the contract for message persistence.
// ListByGroup returns messages in insertion order; LastByGroup returns
// nil, nil for a group without messages.
type MessageRepository interface {
	Create(ctx context.Context, msg *Message) (*Message, error)
	ListByGroup(ctx context.Context, groupID int64) ([]*Message, error)
	LastByGroup(ctx context.Context, groupID int64) (*Message, error)
	DeleteByGroup(ctx context.Context, groupID int64) (int, error)
}

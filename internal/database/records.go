package database

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/nfrund/organizapp/internal/domain"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Table names. "group" is a SurrealQL keyword, hence the prefix.
const (
	tableGroup    = "chat_group"
	tableMessage  = "chat_message"
	tableUser     = "chat_user"
	tableSequence = "sequence"
)

type groupRecord struct {
	ID        *surrealmodels.RecordID       `json:"id,omitempty"`
	Name      string                        `json:"name"`
	Owner     string                        `json:"owner"`
	CreatedAt surrealmodels.CustomDateTime  `json:"created_at"`
	UpdatedAt surrealmodels.CustomDateTime  `json:"updated_at"`
	DeletedAt *surrealmodels.CustomDateTime `json:"deleted_at,omitempty"`
}

func (r *groupRecord) toDomain() (*domain.Group, error) {
	id, err := recordInt(r.ID)
	if err != nil {
		return nil, err
	}
	g := &domain.Group{
		ID:        id,
		Name:      r.Name,
		Owner:     r.Owner,
		CreatedAt: r.CreatedAt.Time,
		UpdatedAt: r.UpdatedAt.Time,
	}
	if r.DeletedAt != nil {
		t := r.DeletedAt.Time
		g.DeletedAt = &t
	}
	return g, nil
}

type messageRecord struct {
	ID              *surrealmodels.RecordID      `json:"id,omitempty"`
	Seq             int64                        `json:"seq"`
	GroupID         int64                        `json:"group_id"`
	ReceiverID      string                       `json:"receiver_id"`
	SenderID        string                       `json:"sender_id"`
	SenderName      string                       `json:"sender_name"`
	SenderAvatarURL string                       `json:"sender_avatar_url"`
	Content         string                       `json:"content"`
	CreatedAt       surrealmodels.CustomDateTime `json:"created_at"`
}

func (r *messageRecord) toDomain() *domain.Message {
	return &domain.Message{
		ID:              r.Seq,
		GroupID:         r.GroupID,
		ReceiverID:      r.ReceiverID,
		SenderID:        r.SenderID,
		SenderName:      r.SenderName,
		SenderAvatarURL: r.SenderAvatarURL,
		Content:         r.Content,
		CreatedAt:       r.CreatedAt.Time,
	}
}

type userRecord struct {
	ID        *surrealmodels.RecordID      `json:"id,omitempty"`
	Name      string                       `json:"name"`
	AvatarURL string                       `json:"avatar_url"`
	CreatedAt surrealmodels.CustomDateTime `json:"created_at"`
}

func (r *userRecord) toDomain() (*domain.User, error) {
	if r.ID == nil {
		return nil, NewDBError(ErrInvalidID, "user record without id")
	}
	return &domain.User{
		ID:        fmt.Sprint(r.ID.ID),
		Name:      r.Name,
		AvatarURL: r.AvatarURL,
		CreatedAt: r.CreatedAt.Time,
	}, nil
}

type sequenceRecord struct {
	Value int64 `json:"value"`
}

// recordInt extracts a numeric record key. The CBOR decoder hands integers
// back as whichever width fits, so every integer kind is accepted.
func recordInt(id *surrealmodels.RecordID) (int64, error) {
	if id == nil {
		return 0, NewDBError(ErrInvalidID, "missing record id")
	}
	switch v := id.ID.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, NewDBError(ErrInvalidID, fmt.Sprintf("record key %d overflows int64", v))
		}
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, NewDBError(ErrInvalidID, fmt.Sprintf("record key %q is not numeric", v))
		}
		return n, nil
	default:
		return 0, NewDBError(ErrInvalidID, fmt.Sprintf("unsupported record key type %T", id.ID))
	}
}

func datetime(t time.Time) surrealmodels.CustomDateTime {
	return surrealmodels.CustomDateTime{Time: t.UTC()}
}

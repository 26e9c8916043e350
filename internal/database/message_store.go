package database

import (
	"context"
	"time"

	"github.com/nfrund/organizapp/internal/domain"
	"github.com/surrealdb/surrealdb.go"
)

// MessageStore persists chat messages in SurrealDB. Each message gets its
// id from a sequence so that ordering by seq is insertion order.
type MessageStore struct {
	conn *Connection
	now  func() time.Time
}

var _ domain.MessageRepository = (*MessageStore)(nil)

// NewMessageStore creates a MessageStore over an established connection.
func NewMessageStore(conn *Connection) *MessageStore {
	return &MessageStore{conn: conn, now: time.Now}
}

func (s *MessageStore) Create(ctx context.Context, msg *domain.Message) (*domain.Message, error) {
	ctx, cancel := getTimeoutFromContext(ctx, s.conn.ExecuteTimeout(), ContextKeyExecuteTimeout)
	defer cancel()

	var created *domain.Message
	err := s.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		seq, err := nextSequence(ctx, db, tableMessage)
		if err != nil {
			return err
		}

		query := "CREATE type::thing('" + tableMessage + "', $seq) CONTENT $data RETURN AFTER"
		row, err := QueryOne[messageRecord](ctx, db, query, map[string]any{
			"seq": seq,
			"data": map[string]any{
				"seq":               seq,
				"group_id":          msg.GroupID,
				"receiver_id":       msg.ReceiverID,
				"sender_id":         msg.SenderID,
				"sender_name":       msg.SenderName,
				"sender_avatar_url": msg.SenderAvatarURL,
				"content":           msg.Content,
				"created_at":        datetime(s.now()),
			},
		})
		if err != nil {
			return err
		}
		if row == nil {
			return NewDBError(ErrQueryFailed, "message was not created").WithQuery(query)
		}
		created = row.toDomain()
		return nil
	})
	if err != nil {
		return nil, WrapError(err, "failed to create message")
	}
	return created, nil
}

// ListByGroup returns every message of the group, oldest first.
func (s *MessageStore) ListByGroup(ctx context.Context, groupID int64) ([]*domain.Message, error) {
	ctx, cancel := getTimeoutFromContext(ctx, s.conn.QueryTimeout(), ContextKeyQueryTimeout)
	defer cancel()

	var messages []*domain.Message
	err := s.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		rows, err := Query[messageRecord](ctx, db,
			"SELECT * FROM "+tableMessage+" WHERE group_id = $group_id ORDER BY seq ASC",
			map[string]any{"group_id": groupID})
		if err != nil {
			return err
		}
		messages = make([]*domain.Message, 0, len(rows))
		for i := range rows {
			messages = append(messages, rows[i].toDomain())
		}
		return nil
	})
	if err != nil {
		return nil, WrapError(err, "failed to list messages")
	}
	return messages, nil
}

func (s *MessageStore) LastByGroup(ctx context.Context, groupID int64) (*domain.Message, error) {
	ctx, cancel := getTimeoutFromContext(ctx, s.conn.QueryTimeout(), ContextKeyQueryTimeout)
	defer cancel()

	var last *domain.Message
	err := s.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		row, err := QueryOne[messageRecord](ctx, db,
			"SELECT * FROM "+tableMessage+" WHERE group_id = $group_id ORDER BY seq DESC LIMIT 1",
			map[string]any{"group_id": groupID})
		if err != nil {
			return err
		}
		if row != nil {
			last = row.toDomain()
		}
		return nil
	})
	if err != nil {
		return nil, WrapError(err, "failed to load last message")
	}
	return last, nil
}

// DeleteByGroup hard-deletes the group's messages and reports how many went.
func (s *MessageStore) DeleteByGroup(ctx context.Context, groupID int64) (int, error) {
	ctx, cancel := getTimeoutFromContext(ctx, s.conn.ExecuteTimeout(), ContextKeyExecuteTimeout)
	defer cancel()

	var n int
	err := s.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		rows, err := Query[messageRecord](ctx, db,
			"DELETE "+tableMessage+" WHERE group_id = $group_id RETURN BEFORE",
			map[string]any{"group_id": groupID})
		if err != nil {
			return err
		}
		n = len(rows)
		return nil
	})
	if err != nil {
		return 0, WrapError(err, "failed to delete messages")
	}
	return n, nil
}

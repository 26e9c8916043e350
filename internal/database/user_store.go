package database

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nfrund/organizapp/internal/domain"
	"github.com/surrealdb/surrealdb.go"
)

// UserStore looks users up by display name. The name index is unique.
type UserStore struct {
	conn *Connection
	now  func() time.Time
}

var _ domain.UserRepository = (*UserStore)(nil)

// NewUserStore creates a UserStore over an established connection.
func NewUserStore(conn *Connection) *UserStore {
	return &UserStore{conn: conn, now: time.Now}
}

func (s *UserStore) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := getTimeoutFromContext(ctx, s.conn.ExecuteTimeout(), ContextKeyExecuteTimeout)
	defer cancel()

	var created *domain.User
	err := s.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		existing, err := QueryOne[userRecord](ctx, db,
			"SELECT * FROM "+tableUser+" WHERE name = $name",
			map[string]any{"name": user.Name})
		if err != nil {
			return err
		}
		if existing != nil {
			return NewDBError(domain.ErrUserAlreadyExists, "user name taken")
		}

		id := user.ID
		if id == "" {
			id = uuid.NewString()
		}
		query := "CREATE type::thing('" + tableUser + "', $id) CONTENT { name: $name, avatar_url: $avatar_url, created_at: $now } RETURN AFTER"
		row, err := QueryOne[userRecord](ctx, db, query, map[string]any{
			"id":         id,
			"name":       user.Name,
			"avatar_url": user.AvatarURL,
			"now":        datetime(s.now()),
		})
		if err != nil {
			// The unique index catches a concurrent insert of the same name.
			if strings.Contains(strings.ToLower(err.Error()), "already contains") {
				return NewDBError(domain.ErrUserAlreadyExists, "user name taken")
			}
			return err
		}
		if row == nil {
			return NewDBError(ErrQueryFailed, "user was not created").WithQuery(query)
		}
		created, err = row.toDomain()
		return err
	})
	if err != nil {
		return nil, WrapError(err, "failed to create user")
	}
	return created, nil
}

func (s *UserStore) FindByName(ctx context.Context, name string) (*domain.User, error) {
	return s.findOne(ctx, "SELECT * FROM "+tableUser+" WHERE name = $name", map[string]any{"name": name})
}

func (s *UserStore) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return s.findOne(ctx, "SELECT * FROM type::thing('"+tableUser+"', $id)", map[string]any{"id": id})
}

func (s *UserStore) List(ctx context.Context) ([]*domain.User, error) {
	ctx, cancel := getTimeoutFromContext(ctx, s.conn.QueryTimeout(), ContextKeyQueryTimeout)
	defer cancel()

	var users []*domain.User
	err := s.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		rows, err := Query[userRecord](ctx, db, "SELECT * FROM "+tableUser+" ORDER BY name ASC", nil)
		if err != nil {
			return err
		}
		users = make([]*domain.User, 0, len(rows))
		for i := range rows {
			u, err := rows[i].toDomain()
			if err != nil {
				return err
			}
			users = append(users, u)
		}
		return nil
	})
	if err != nil {
		return nil, WrapError(err, "failed to list users")
	}
	return users, nil
}

func (s *UserStore) findOne(ctx context.Context, query string, params map[string]any) (*domain.User, error) {
	ctx, cancel := getTimeoutFromContext(ctx, s.conn.QueryTimeout(), ContextKeyQueryTimeout)
	defer cancel()

	var user *domain.User
	err := s.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		row, err := QueryOne[userRecord](ctx, db, query, params)
		if err != nil {
			return err
		}
		if row == nil {
			return NewDBError(domain.ErrNotFound, "user not found")
		}
		user, err = row.toDomain()
		return err
	})
	if err != nil {
		return nil, WrapError(err, "failed to find user")
	}
	return user, nil
}

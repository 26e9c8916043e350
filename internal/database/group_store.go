package database

import (
	"context"
	"time"

	"github.com/nfrund/organizapp/internal/domain"
	"github.com/surrealdb/surrealdb.go"
)

// GroupStore persists groups in SurrealDB. Deletion sets a deleted_at
// tombstone; the row and its id stay reserved.
type GroupStore struct {
	conn *Connection
	now  func() time.Time
}

var _ domain.GroupRepository = (*GroupStore)(nil)

// NewGroupStore creates a GroupStore over an established connection.
func NewGroupStore(conn *Connection) *GroupStore {
	return &GroupStore{conn: conn, now: time.Now}
}

func (s *GroupStore) Create(ctx context.Context, name, owner string) (*domain.Group, error) {
	ctx, cancel := getTimeoutFromContext(ctx, s.conn.ExecuteTimeout(), ContextKeyExecuteTimeout)
	defer cancel()

	var created *domain.Group
	err := s.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		id, err := nextSequence(ctx, db, tableGroup)
		if err != nil {
			return err
		}

		now := datetime(s.now())
		query := "CREATE type::thing('" + tableGroup + "', $id) CONTENT { name: $name, owner: $owner, created_at: $now, updated_at: $now } RETURN AFTER"
		row, err := QueryOne[groupRecord](ctx, db, query, map[string]any{
			"id":    id,
			"name":  name,
			"owner": owner,
			"now":   now,
		})
		if err != nil {
			return err
		}
		if row == nil {
			return NewDBError(ErrQueryFailed, "group was not created").WithQuery(query)
		}
		created, err = row.toDomain()
		return err
	})
	if err != nil {
		return nil, WrapError(err, "failed to create group")
	}
	return created, nil
}

// Get returns domain.ErrNotFound for unknown ids and domain.ErrGroupDeleted
// for tombstones.
func (s *GroupStore) Get(ctx context.Context, id int64) (*domain.Group, error) {
	ctx, cancel := getTimeoutFromContext(ctx, s.conn.QueryTimeout(), ContextKeyQueryTimeout)
	defer cancel()

	var g *domain.Group
	err := s.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		var err error
		g, err = s.get(ctx, db, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if g.Deleted() {
		return nil, NewDBError(domain.ErrGroupDeleted, "group is a tombstone")
	}
	return g, nil
}

func (s *GroupStore) get(ctx context.Context, db *surrealdb.DB, id int64) (*domain.Group, error) {
	if id <= 0 {
		return nil, NewDBError(domain.ErrNotFound, "group id must be positive")
	}
	query := "SELECT * FROM type::thing('" + tableGroup + "', $id)"
	row, err := QueryOne[groupRecord](ctx, db, query, map[string]any{"id": id})
	if err != nil {
		return nil, WrapError(err, "failed to load group")
	}
	if row == nil {
		return nil, NewDBError(domain.ErrNotFound, "group not found")
	}
	return row.toDomain()
}

// List returns live groups ordered by id.
func (s *GroupStore) List(ctx context.Context) ([]*domain.Group, error) {
	ctx, cancel := getTimeoutFromContext(ctx, s.conn.QueryTimeout(), ContextKeyQueryTimeout)
	defer cancel()

	var groups []*domain.Group
	err := s.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		rows, err := Query[groupRecord](ctx, db, "SELECT * FROM "+tableGroup+" WHERE deleted_at = NONE ORDER BY id ASC", nil)
		if err != nil {
			return err
		}
		groups = make([]*domain.Group, 0, len(rows))
		for i := range rows {
			g, err := rows[i].toDomain()
			if err != nil {
				return err
			}
			groups = append(groups, g)
		}
		return nil
	})
	if err != nil {
		return nil, WrapError(err, "failed to list groups")
	}
	return groups, nil
}

func (s *GroupStore) Update(ctx context.Context, id int64, name string) (*domain.Group, error) {
	ctx, cancel := getTimeoutFromContext(ctx, s.conn.ExecuteTimeout(), ContextKeyExecuteTimeout)
	defer cancel()

	var updated *domain.Group
	err := s.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		current, err := s.get(ctx, db, id)
		if err != nil {
			return err
		}
		if current.Deleted() {
			return NewDBError(domain.ErrGroupDeleted, "cannot update a deleted group")
		}

		query := "UPDATE type::thing('" + tableGroup + "', $id) MERGE { name: $name, updated_at: $now } RETURN AFTER"
		row, err := QueryOne[groupRecord](ctx, db, query, map[string]any{
			"id":   id,
			"name": name,
			"now":  datetime(s.now()),
		})
		if err != nil {
			return err
		}
		if row == nil {
			return NewDBError(domain.ErrNotFound, "group vanished during update").WithQuery(query)
		}
		updated, err = row.toDomain()
		return err
	})
	if err != nil {
		return nil, WrapError(err, "failed to update group")
	}
	return updated, nil
}

func (s *GroupStore) SoftDelete(ctx context.Context, id int64) error {
	ctx, cancel := getTimeoutFromContext(ctx, s.conn.ExecuteTimeout(), ContextKeyExecuteTimeout)
	defer cancel()

	err := s.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		current, err := s.get(ctx, db, id)
		if err != nil {
			return err
		}
		if current.Deleted() {
			return NewDBError(domain.ErrGroupDeleted, "group already deleted")
		}

		now := datetime(s.now())
		return Execute(ctx, db,
			"UPDATE type::thing('"+tableGroup+"', $id) SET deleted_at = $now, updated_at = $now",
			map[string]any{"id": id, "now": now})
	})
	if err != nil {
		return WrapError(err, "failed to delete group")
	}
	return nil
}

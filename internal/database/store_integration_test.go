package database

import (
	"context"
	"testing"

	"github.com/nfrund/organizapp/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupStore_Lifecycle(t *testing.T) {
	conn, cleanup := setupTestConn(t)
	defer cleanup()

	ctx := context.Background()
	store := NewGroupStore(conn)

	first, err := store.Create(ctx, "general", "conn:a")
	require.NoError(t, err)
	second, err := store.Create(ctx, "random", "user:b")
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)

	groups, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, first.ID, groups[0].ID)

	updated, err := store.Update(ctx, first.ID, "announcements")
	require.NoError(t, err)
	assert.Equal(t, "announcements", updated.Name)
	assert.Equal(t, "conn:a", updated.Owner)

	require.NoError(t, store.SoftDelete(ctx, first.ID))

	_, err = store.Get(ctx, first.ID)
	assert.ErrorIs(t, err, domain.ErrGroupDeleted)
	assert.ErrorIs(t, store.SoftDelete(ctx, first.ID), domain.ErrGroupDeleted)

	_, err = store.Get(ctx, 9999)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	groups, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, second.ID, groups[0].ID)

	third, err := store.Create(ctx, "after-delete", "conn:c")
	require.NoError(t, err)
	assert.Greater(t, third.ID, second.ID, "tombstoned ids are never reused")
}

func TestMessageStore_Ordering(t *testing.T) {
	conn, cleanup := setupTestConn(t)
	defer cleanup()

	ctx := context.Background()
	store := NewMessageStore(conn)

	last, err := store.LastByGroup(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, last)

	for _, text := range []string{"one", "two", "three"} {
		_, err := store.Create(ctx, &domain.Message{GroupID: 1, SenderID: "s", SenderName: "Sam", Content: text})
		require.NoError(t, err)
	}
	_, err = store.Create(ctx, &domain.Message{GroupID: 2, SenderID: "s", SenderName: "Sam", Content: "elsewhere"})
	require.NoError(t, err)

	msgs, err := store.ListByGroup(ctx, 1)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "one", msgs[0].Content)
	assert.Equal(t, "three", msgs[2].Content)
	assert.Less(t, msgs[0].ID, msgs[1].ID)

	last, err = store.LastByGroup(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "three", last.Content)

	n, err := store.DeleteByGroup(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	msgs, err = store.ListByGroup(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestUserStore(t *testing.T) {
	conn, cleanup := setupTestConn(t)
	defer cleanup()

	ctx := context.Background()
	store := NewUserStore(conn)

	alice, err := store.Create(ctx, &domain.User{Name: "alice", AvatarURL: "https://example.com/a.png"})
	require.NoError(t, err)
	assert.NotEmpty(t, alice.ID)

	_, err = store.Create(ctx, &domain.User{Name: "alice"})
	assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)

	found, err := store.FindByName(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, found.ID)

	byID, err := store.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Name)

	_, err = store.FindByName(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	users, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nfrund/organizapp/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

func TestDBError(t *testing.T) {
	t.Run("message includes context, query and cause", func(t *testing.T) {
		err := NewDBError(ErrQueryFailed, "loading group").WithQuery("SELECT 1")
		assert.Equal(t, "loading group (query: SELECT 1): query execution failed", err.Error())
		assert.Equal(t, "SELECT 1", err.Query())
	})

	t.Run("matches wrapped sentinels", func(t *testing.T) {
		err := NewDBError(domain.ErrNotFound, "group not found")
		assert.True(t, errors.Is(err, domain.ErrNotFound))
		assert.False(t, errors.Is(err, domain.ErrGroupDeleted))
	})

	t.Run("wrap keeps the cause and prepends context", func(t *testing.T) {
		inner := NewDBError(domain.ErrGroupDeleted, "tombstone").WithQuery("SELECT *")
		err := WrapError(inner, "failed to update group")

		var dbErr *DBError
		require.True(t, errors.As(err, &dbErr))
		assert.Equal(t, "SELECT *", dbErr.Query())
		assert.Contains(t, err.Error(), "failed to update group: tombstone")
		assert.True(t, errors.Is(err, domain.ErrGroupDeleted))
	})

	t.Run("wrap of nil is nil", func(t *testing.T) {
		assert.NoError(t, WrapError(nil, "anything"))
	})
}

func TestRecordInt(t *testing.T) {
	tests := []struct {
		name    string
		key     any
		want    int64
		wantErr bool
	}{
		{"int64", int64(7), 7, false},
		{"uint64", uint64(12), 12, false},
		{"int", 3, 3, false},
		{"float64", float64(9), 9, false},
		{"numeric string", "42", 42, false},
		{"word string", "abc", 0, true},
		{"unsupported", []byte("1"), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := surrealmodels.NewRecordID(tableGroup, tt.key)
			got, err := recordInt(&id)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("nil id", func(t *testing.T) {
		_, err := recordInt(nil)
		assert.ErrorIs(t, err, ErrInvalidID)
	})
}

func TestGroupRecordToDomain(t *testing.T) {
	id := surrealmodels.NewRecordID(tableGroup, int64(5))
	deleted := datetime(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	rec := groupRecord{
		ID:        &id,
		Name:      "ops",
		Owner:     "user:abc",
		CreatedAt: datetime(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		DeletedAt: &deleted,
	}

	g, err := rec.toDomain()
	require.NoError(t, err)
	assert.Equal(t, int64(5), g.ID)
	assert.Equal(t, "ops", g.Name)
	assert.True(t, g.Deleted())
	assert.True(t, g.OwnedBy("user:abc"))
}

func TestHasLimitClause(t *testing.T) {
	assert.True(t, hasLimitClause("SELECT * FROM x LIMIT 1"))
	assert.True(t, hasLimitClause("select * from x limit 5"))
	assert.False(t, hasLimitClause("SELECT * FROM unlimited"))
	assert.False(t, hasLimitClause("SELECT * FROM x"))
}

func TestRedactDBURL(t *testing.T) {
	assert.Equal(t, "ws://root:xxxxx@localhost:8000/rpc", redactDBURL("ws://root:secret@localhost:8000/rpc"))
	assert.Equal(t, "ws://localhost:8000/rpc", redactDBURL("ws://localhost:8000/rpc"))
	assert.Equal(t, "invalid-url", redactDBURL("://bad"))
}

func TestIsConnectionError(t *testing.T) {
	assert.False(t, isConnectionError(nil))
	assert.True(t, isConnectionError(NewDBError(ErrNotConnected, "down")))
	assert.True(t, isConnectionError(errors.New("write: broken pipe")))
	assert.False(t, isConnectionError(errors.New("syntax error")))
}

func TestRetryer(t *testing.T) {
	fast := func() *ExponentialBackoffRetryer {
		r := NewExponentialBackoffRetryer()
		r.baseDelay = time.Millisecond
		r.maxDelay = 2 * time.Millisecond
		r.maxRetries = 2
		return r
	}

	t.Run("succeeds after failures", func(t *testing.T) {
		calls := 0
		err := fast().Retry(context.Background(), func() error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up", func(t *testing.T) {
		calls := 0
		err := fast().Retry(context.Background(), func() error {
			calls++
			return errors.New("permanent")
		})
		require.Error(t, err)
		assert.Equal(t, 3, calls)
		assert.Contains(t, err.Error(), "after 3 attempts")
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := fast().Retry(ctx, func() error { return nil })
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("delay is capped", func(t *testing.T) {
		r := NewExponentialBackoffRetryer()
		r.jitter = false
		assert.Equal(t, 100*time.Millisecond, r.calculateDelay(0))
		assert.Equal(t, 400*time.Millisecond, r.calculateDelay(2))
		assert.Equal(t, 30*time.Second, r.calculateDelay(20))
	})
}

func TestGetTimeoutFromContext(t *testing.T) {
	ctx := WithQueryTimeout(context.Background(), time.Hour)
	derived, cancel := getTimeoutFromContext(ctx, time.Millisecond, ContextKeyQueryTimeout)
	defer cancel()

	deadline, ok := derived.Deadline()
	require.True(t, ok)
	assert.Greater(t, time.Until(deadline), time.Minute)
}

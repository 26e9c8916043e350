package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateGroupName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"plain", "Trip", "Trip", false},
		{"trimmed", "  Book club \n", "Book club", false},
		{"nfc normalized", "Cafe\u0301", "Caf\u00e9", false},
		{"empty", "", "", true},
		{"whitespace only", "   \t", "", true},
		{"control only", "\u0007", "", true},
		{"max length", strings.Repeat("é", MaxGroupNameLength), strings.Repeat("é", MaxGroupNameLength), false},
		{"too long", strings.Repeat("a", MaxGroupNameLength+1), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateGroupName(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate_User(t *testing.T) {
	assert.NoError(t, Validate(&User{Name: "ada"}))
	assert.NoError(t, Validate(&User{Name: "ada", AvatarURL: "https://example.com/a.png"}))

	err := Validate(&User{Name: ""})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "Name")

	assert.ErrorIs(t, Validate(&User{Name: "ada", AvatarURL: "not a url"}), ErrInvalidInput)
}

func TestGroup_OwnershipAndClone(t *testing.T) {
	now := time.Now()
	g := &Group{
		ID:          1,
		Name:        "Trip",
		Owner:       "user:42",
		DeletedAt:   &now,
		LastMessage: &MessageSummary{ID: 3, Preview: "hi"},
	}

	assert.True(t, g.OwnedBy("user:42"))
	assert.False(t, g.OwnedBy("user:7"))
	assert.False(t, (&Group{}).OwnedBy(""))
	assert.True(t, g.Deleted())

	c := g.Clone()
	c.LastMessage.Preview = "changed"
	*c.DeletedAt = now.Add(time.Hour)
	assert.Equal(t, "hi", g.LastMessage.Preview)
	assert.Equal(t, now, *g.DeletedAt)
}

func TestMessage_Summary(t *testing.T) {
	long := strings.Repeat("ü", previewRunes+10)
	m := &Message{ID: 9, SenderName: "ada", Content: long}

	s := m.Summary()
	assert.Equal(t, int64(9), s.ID)
	assert.Equal(t, "ada", s.SenderName)
	assert.Equal(t, strings.Repeat("ü", previewRunes)+"…", s.Preview)

	short := (&Message{Content: "hello"}).Summary()
	assert.Equal(t, "hello", short.Preview)
	assert.False(t, m.Direct())
	assert.True(t, (&Message{ReceiverID: "u1"}).Direct())
}

func TestUser_Principal(t *testing.T) {
	assert.Equal(t, "user:abc", (&User{ID: "abc"}).Principal())
}

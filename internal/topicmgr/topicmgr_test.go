package topicmgr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_Register(t *testing.T) {
	m := NewManager()

	require.NoError(t, m.Register(DefineFramework(TopicConfig{
		Name:        "ws.client.event",
		Description: "inbound frame",
	})))
	require.NoError(t, m.Register(DefineModule(TopicConfig{
		Name:        "chat.group.created",
		Description: "group created",
	})))

	t.Run("duplicate", func(t *testing.T) {
		err := m.Register(DefineFramework(TopicConfig{Name: "ws.client.event", Description: "again"}))
		var te *TopicError
		require.True(t, errors.As(err, &te))
		assert.Equal(t, ErrorDuplicateRegistration, te.Type)
	})

	t.Run("invalid name", func(t *testing.T) {
		err := m.Register(DefineFramework(TopicConfig{Name: "WS.Bad", Description: "x"}))
		var te *TopicError
		require.True(t, errors.As(err, &te))
		assert.Equal(t, ErrorValidationFailed, te.Type)
	})

	t.Run("missing description", func(t *testing.T) {
		assert.Error(t, m.Register(DefineFramework(TopicConfig{Name: "ws.quiet"})))
	})

	t.Run("module prefix enforced", func(t *testing.T) {
		assert.Error(t, m.Register(DefineModule(TopicConfig{Name: "other.thing", Module: "chat", Description: "x"})))
	})

	t.Run("lookup", func(t *testing.T) {
		topic, err := m.Get("chat.group.created")
		require.NoError(t, err)
		assert.Equal(t, "chat", topic.Module())
		assert.Equal(t, ScopeModule, topic.Scope())
		assert.False(t, topic.RegisteredAt().IsZero())

		_, err = m.Get("nope")
		assert.Error(t, err)
	})

	assert.Equal(t, 2, m.Count())
	assert.Equal(t, []string{"chat"}, m.ListModules())
	assert.Len(t, m.ListByModule("chat"), 1)
}

func TestMatchesPattern(t *testing.T) {
	tests := []struct {
		name, pattern string
		want          bool
	}{
		{"ws.client.event", "*", true},
		{"ws.client.event", "ws.*", true},
		{"ws.client.event", "ws.client.event", true},
		{"ws.client.event", "ws.*.event", true},
		{"ws.client.event", "chat.*", false},
		{"ws.client", "ws.*.event", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, matchesPattern(tt.name, tt.pattern), "%s ~ %s", tt.name, tt.pattern)
	}
}

func TestMustRegisterPanics(t *testing.T) {
	m := NewManager()
	assert.Panics(t, func() {
		m.MustRegister(DefineFramework(TopicConfig{Name: ""}))
	})
}

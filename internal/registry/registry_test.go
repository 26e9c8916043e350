package registry

import (
	"testing"

	"github.com/nfrund/organizapp/internal/config"
	"github.com/nfrund/organizapp/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greeter interface{ Greet() string }

type english struct{}

func (english) Greet() string { return "hello" }

func TestRegistry_SetGet(t *testing.T) {
	cfg := &config.Config{ServerAddr: ":0"}
	r := New(cfg)
	assert.Same(t, cfg, r.Config())

	key := Key[greeter]("test.greeter")
	_, ok := Get(r, key)
	assert.False(t, ok)

	Set[greeter](r, key, english{})
	g, ok := Get(r, key)
	require.True(t, ok)
	assert.Equal(t, "hello", g.Greet())
	assert.Equal(t, "hello", MustGet(r, key).Greet())
}

func TestRegistry_SharedKeys(t *testing.T) {
	r := New(nil)
	conns := websocket.NewRegistry()
	Set(r, ConnectionsKey, conns)

	got, ok := Get(r, ConnectionsKey)
	require.True(t, ok)
	assert.Same(t, conns, got)
}

func TestRegistry_WrongTypeUnderSameName(t *testing.T) {
	r := New(nil)
	Set(r, Key[string]("shared"), "value")

	_, ok := Get(r, Key[int]("shared"))
	assert.False(t, ok)
}

func TestRegistry_MustGetPanics(t *testing.T) {
	r := New(nil)
	assert.PanicsWithValue(t, `registry: no int registered for key "missing"`, func() {
		MustGet(r, Key[int]("missing"))
	})
}

func TestRegistry_Names(t *testing.T) {
	r := New(nil)
	Set(r, ConnectionsKey, websocket.NewRegistry())
	Set(r, Key[int]("a.first"), 1)

	assert.Equal(t, []string{"a.first", string(ConnectionsKey)}, r.Names())
}

package moderation

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultScript(t *testing.T) {
	f, err := New(afero.NewMemMapFs(), "")
	require.NoError(t, err)

	v := f.Check(context.Background(), Input{Text: "  hello    \n  world  ", Sender: "ann", GroupID: 1})
	assert.True(t, v.Allow)
	assert.Equal(t, "hello world", v.Text)
}

func TestCustomScript(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/rules.tengo", []byte(`
txt := import("text")
if txt.contains(txt.to_lower(text), "spam") {
	allow = false
	reason = "no spam"
}
if receiver_id != "" {
	text = "[dm] " + text
}
`), 0o644))

	f, err := New(fs, "/rules.tengo")
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("rejects", func(t *testing.T) {
		v := f.Check(ctx, Input{Text: "Buy SPAM now", GroupID: 1})
		assert.False(t, v.Allow)
		assert.Equal(t, "no spam", v.Reason)
	})

	t.Run("rewrites", func(t *testing.T) {
		v := f.Check(ctx, Input{Text: "hi", ReceiverID: "u2"})
		assert.True(t, v.Allow)
		assert.Equal(t, "[dm] hi", v.Text)
	})

	t.Run("evaluations are independent", func(t *testing.T) {
		v := f.Check(ctx, Input{Text: "plain", GroupID: 2})
		assert.True(t, v.Allow)
		assert.Empty(t, v.Reason)
		assert.Equal(t, "plain", v.Text)
	})
}

func TestFailOpen(t *testing.T) {
	fs := afero.NewMemMapFs()
	ctx := context.Background()

	t.Run("runtime error", func(t *testing.T) {
		require.NoError(t, afero.WriteFile(fs, "/err.tengo", []byte(`
allow = false
x := 1 / (group_id - group_id)
`), 0o644))
		f, err := New(fs, "/err.tengo")
		require.NoError(t, err)

		v := f.Check(ctx, Input{Text: "hello", GroupID: 3})
		assert.True(t, v.Allow)
		assert.Equal(t, "hello", v.Text)
	})

	t.Run("timeout", func(t *testing.T) {
		require.NoError(t, afero.WriteFile(fs, "/loop.tengo", []byte(`
allow = false
for true {}
`), 0o644))
		f, err := New(fs, "/loop.tengo", WithTimeout(20*time.Millisecond))
		require.NoError(t, err)

		v := f.Check(ctx, Input{Text: "hello"})
		assert.True(t, v.Allow)
	})
}

func TestReloadKeepsPreviousOnFailure(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/r.tengo", []byte(`reason = "v1"`), 0o644))

	f, err := New(fs, "/r.tengo")
	require.NoError(t, err)

	require.NoError(t, afero.WriteFile(fs, "/r.tengo", []byte(`this is not tengo (`), 0o644))
	assert.Error(t, f.Reload())
	assert.Equal(t, "v1", f.Check(context.Background(), Input{Text: "x"}).Reason)

	require.NoError(t, afero.WriteFile(fs, "/r.tengo", []byte(`reason = "v2"`), 0o644))
	require.NoError(t, f.Reload())
	assert.Equal(t, "v2", f.Check(context.Background(), Input{Text: "x"}).Reason)
}

func TestNewRejectsMissingOrBrokenScript(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, err := New(fs, "/missing.tengo")
	assert.Error(t, err)

	require.NoError(t, afero.WriteFile(fs, "/bad.tengo", []byte(`allow := `), 0o644))
	_, err = New(fs, "/bad.tengo")
	assert.Error(t, err)
}

func TestWatchReloadsFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.tengo")
	require.NoError(t, os.WriteFile(path, []byte(`reason = "before"`), 0o644))

	f, err := New(afero.NewOsFs(), path)
	require.NoError(t, err)
	require.NoError(t, f.Watch())
	defer f.Close()

	require.NoError(t, os.WriteFile(path, []byte(`reason = "after"`), 0o644))

	require.Eventually(t, func() bool {
		return f.Check(context.Background(), Input{Text: "x"}).Reason == "after"
	}, 2*time.Second, 20*time.Millisecond)
}

func TestWatchIgnoresMemFs(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/r.tengo", []byte(`reason = "x"`), 0o644))
	f, err := New(fs, "/r.tengo")
	require.NoError(t, err)
	assert.NoError(t, f.Watch())
	assert.NoError(t, f.Close())
}

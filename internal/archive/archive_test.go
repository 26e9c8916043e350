package archive

import (
	"testing"
	"time"

	"github.com/nfrund/organizapp/internal/domain"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiver(t *testing.T) {
	fs := afero.NewMemMapFs()
	a := New(fs, "/var/archive")
	a.now = func() time.Time { return time.Unix(1700000000, 0) }

	group := &domain.Group{ID: 4, Name: "ops", Owner: "conn:x"}
	msgs := []*domain.Message{
		{ID: 1, GroupID: 4, SenderName: "ann", Content: "first"},
		{ID: 2, GroupID: 4, SenderName: "bo", Content: "second"},
	}

	path, err := a.Write(group, msgs)
	require.NoError(t, err)
	assert.Equal(t, "/var/archive/group-4-1700000000.json", path)

	names, err := a.List()
	require.NoError(t, err)
	assert.Equal(t, []string{path}, names)

	tr, err := a.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "ops", tr.Group.Name)
	require.Len(t, tr.Messages, 2)
	assert.Equal(t, "second", tr.Messages[1].Content)
}

func TestArchiver_EmptyHistory(t *testing.T) {
	a := New(afero.NewMemMapFs(), "/a")
	path, err := a.Write(&domain.Group{ID: 1, Name: "quiet"}, nil)
	require.NoError(t, err)

	tr, err := a.Read(path)
	require.NoError(t, err)
	assert.NotNil(t, tr.Messages)
	assert.Empty(t, tr.Messages)
}

func TestArchiver_Disabled(t *testing.T) {
	var a *Archiver = New(afero.NewMemMapFs(), "")
	assert.Nil(t, a)

	path, err := a.Write(&domain.Group{ID: 1}, nil)
	assert.NoError(t, err)
	assert.Empty(t, path)

	names, err := a.List()
	assert.NoError(t, err)
	assert.Empty(t, names)
}

func TestArchiver_ReadOnlyFs(t *testing.T) {
	a := New(afero.NewReadOnlyFs(afero.NewMemMapFs()), "/a")
	_, err := a.Write(&domain.Group{ID: 1}, nil)
	assert.Error(t, err)
}

// Package archive writes a group's transcript to disk before its messages
// are purged.
package archive

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/nfrund/organizapp/internal/domain"
	"github.com/spf13/afero"
)

// Transcript is the archived form of a group.
type Transcript struct {
	Group      *domain.Group     `json:"group"`
	Messages   []*domain.Message `json:"messages"`
	ArchivedAt time.Time         `json:"archived_at"`
}

// Archiver writes transcripts under a directory of an afero filesystem.
type Archiver struct {
	fs     afero.Fs
	dir    string
	now    func() time.Time
	logger *slog.Logger
}

// New returns an Archiver rooted at dir, or nil when dir is empty. A nil
// Archiver is valid and archives nothing.
func New(fs afero.Fs, dir string) *Archiver {
	if dir == "" {
		return nil
	}
	return &Archiver{
		fs:     fs,
		dir:    dir,
		now:    time.Now,
		logger: slog.Default().With("service", "archive"),
	}
}

// Write stores the transcript as group-<id>-<unix>.json and returns the
// file path.
func (a *Archiver) Write(group *domain.Group, messages []*domain.Message) (string, error) {
	if a == nil {
		return "", nil
	}
	if err := a.fs.MkdirAll(a.dir, 0o755); err != nil {
		return "", fmt.Errorf("create archive dir: %w", err)
	}

	now := a.now().UTC()
	if messages == nil {
		messages = []*domain.Message{}
	}
	data, err := json.MarshalIndent(Transcript{Group: group, Messages: messages, ArchivedAt: now}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode transcript: %w", err)
	}

	path := filepath.Join(a.dir, fmt.Sprintf("group-%d-%d.json", group.ID, now.Unix()))
	if err := afero.WriteFile(a.fs, path, data, 0o644); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}
	a.logger.Info("Group archived", "group_id", group.ID, "messages", len(messages), "path", path)
	return path, nil
}

// List returns the archived file names, oldest first.
func (a *Archiver) List() ([]string, error) {
	if a == nil {
		return nil, nil
	}
	names, err := afero.Glob(a.fs, filepath.Join(a.dir, "group-*.json"))
	if err != nil {
		return nil, err
	}
	return names, nil
}

// Read loads a transcript written by Write.
func (a *Archiver) Read(path string) (*Transcript, error) {
	data, err := afero.ReadFile(a.fs, path)
	if err != nil {
		return nil, err
	}
	var t Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode transcript %s: %w", path, err)
	}
	return &t, nil
}

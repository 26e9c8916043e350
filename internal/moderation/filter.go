// Package moderation runs a Tengo script over every outgoing chat message.
// The script can reject a message or rewrite its text.
package moderation

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
)

//go:embed default.tengo
var defaultScript []byte

const defaultTimeout = 100 * time.Millisecond

// Input is what the script sees.
type Input struct {
	Text       string
	Sender     string
	GroupID    int64
	ReceiverID string
}

// Verdict is what the script decided.
type Verdict struct {
	Allow  bool
	Text   string
	Reason string
}

// Filter holds the compiled script. Check is safe for concurrent use; each
// call runs on a clone of the compiled program.
type Filter struct {
	fs      afero.Fs
	path    string
	timeout time.Duration
	logger  *slog.Logger

	mu       sync.RWMutex
	compiled *tengo.Compiled

	watchMu sync.Mutex
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// Option configures a Filter.
type Option func(*Filter)

// WithTimeout bounds each evaluation.
func WithTimeout(d time.Duration) Option {
	return func(f *Filter) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// New compiles the script at path on fs, or the embedded default when path
// is empty.
func New(fs afero.Fs, path string, opts ...Option) (*Filter, error) {
	f := &Filter{
		fs:      fs,
		path:    path,
		timeout: defaultTimeout,
		logger:  slog.Default().With("service", "moderation"),
	}
	for _, opt := range opts {
		opt(f)
	}
	if err := f.Reload(); err != nil {
		return nil, err
	}
	return f, nil
}

// Reload reads and compiles the script again. On failure the previously
// compiled script stays active.
func (f *Filter) Reload() error {
	src := defaultScript
	if f.path != "" {
		data, err := afero.ReadFile(f.fs, f.path)
		if err != nil {
			return fmt.Errorf("read moderation script %s: %w", f.path, err)
		}
		src = data
	}

	compiled, err := compile(src)
	if err != nil {
		return fmt.Errorf("compile moderation script: %w", err)
	}

	f.mu.Lock()
	f.compiled = compiled
	f.mu.Unlock()
	f.logger.Info("Moderation script loaded", "path", f.path)
	return nil
}

func compile(src []byte) (*tengo.Compiled, error) {
	s := tengo.NewScript(src)
	s.SetImports(stdlib.GetModuleMap("text", "fmt"))

	defaults := map[string]any{
		"text":        "",
		"sender":      "",
		"group_id":    int64(0),
		"receiver_id": "",
		"allow":       true,
		"reason":      "",
	}
	for name, v := range defaults {
		if err := s.Add(name, v); err != nil {
			return nil, err
		}
	}
	return s.Compile()
}

// Check evaluates the script for one message. Runtime errors and timeouts
// fail open: the message is allowed unchanged.
func (f *Filter) Check(ctx context.Context, in Input) Verdict {
	pass := Verdict{Allow: true, Text: in.Text}

	f.mu.RLock()
	c := f.compiled.Clone()
	f.mu.RUnlock()

	for name, v := range map[string]any{
		"text":        in.Text,
		"sender":      in.Sender,
		"group_id":    in.GroupID,
		"receiver_id": in.ReceiverID,
	} {
		if err := c.Set(name, v); err != nil {
			f.logger.Error("Failed to set moderation input", "name", name, "error", err)
			return pass
		}
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	if err := c.RunContext(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			f.logger.Warn("Moderation script timed out, allowing message", "timeout", f.timeout)
		} else {
			f.logger.Error("Moderation script failed, allowing message", "error", err)
		}
		return pass
	}

	return Verdict{
		Allow:  c.Get("allow").Bool(),
		Text:   c.Get("text").String(),
		Reason: c.Get("reason").String(),
	}
}

// Watch reloads the script whenever it changes on disk. It only applies to
// the OS filesystem and returns nil without watching otherwise.
func (f *Filter) Watch() error {
	if f.path == "" {
		return nil
	}
	if _, ok := f.fs.(*afero.OsFs); !ok {
		return nil
	}

	f.watchMu.Lock()
	defer f.watchMu.Unlock()
	if f.watcher != nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create script watcher: %w", err)
	}
	// Editors often replace the file, so watch the directory.
	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(f.path), err)
	}

	f.watcher = watcher
	f.done = make(chan struct{})
	go f.watchLoop(watcher, f.done)
	f.logger.Debug("Watching moderation script", "path", f.path)
	return nil
}

func (f *Filter) watchLoop(w *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	target := filepath.Clean(f.path)

	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if err := f.Reload(); err != nil {
					f.logger.Error("Moderation script reload failed, keeping previous", "error", err)
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			f.logger.Error("Moderation script watcher error", "error", err)
		}
	}
}

// Close stops the watcher, if any.
func (f *Filter) Close() error {
	f.watchMu.Lock()
	defer f.watchMu.Unlock()
	if f.watcher == nil {
		return nil
	}
	err := f.watcher.Close()
	<-f.done
	f.watcher = nil
	return err
}

package topicmgr

import (
	"sort"
	"sync"
	"time"
)

// Manager holds the registered topics.
type Manager struct {
	mu     sync.RWMutex
	topics map[string]*Topic
	now    func() time.Time
}

// NewManager creates an empty catalog.
func NewManager() *Manager {
	return &Manager{topics: make(map[string]*Topic), now: time.Now}
}

// DefineFramework builds a framework-scoped topic.
func DefineFramework(cfg TopicConfig) *Topic {
	cfg.Scope = ScopeFramework
	cfg.Module = ""
	return &Topic{config: cfg}
}

// DefineModule builds a module-scoped topic. When Module is empty it is
// taken from the first segment of the name.
func DefineModule(cfg TopicConfig) *Topic {
	cfg.Scope = ScopeModule
	if cfg.Module == "" {
		for i, ch := range cfg.Name {
			if ch == '.' {
				cfg.Module = cfg.Name[:i]
				break
			}
		}
	}
	return &Topic{config: cfg}
}

// Register validates and adds a topic. Names are unique.
func (m *Manager) Register(t *Topic) error {
	if t == nil {
		return &TopicError{Type: ErrorValidationFailed, Message: "cannot register nil topic"}
	}
	if err := validateConfig(t.config); err != nil {
		return &TopicError{Type: ErrorValidationFailed, Topic: t.Name(), Message: "invalid topic", Cause: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.topics[t.Name()]; exists {
		return &TopicError{
			Type:    ErrorDuplicateRegistration,
			Topic:   t.Name(),
			Message: "topic already registered: " + t.Name(),
		}
	}
	t.registeredAt = m.now()
	m.topics[t.Name()] = t
	return nil
}

// MustRegister registers a package-level topic and panics on failure,
// since a bad topic declaration is a programming error.
func (m *Manager) MustRegister(t *Topic) *Topic {
	if err := m.Register(t); err != nil {
		panic(err)
	}
	return t
}

// Get retrieves a topic by name.
func (m *Manager) Get(name string) (*Topic, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.topics[name]
	if !ok {
		return nil, &TopicError{Type: ErrorTopicNotFound, Topic: name, Message: "topic not found: " + name}
	}
	return t, nil
}

// List returns all topics sorted by name.
func (m *Manager) List() []*Topic {
	return m.filter(func(*Topic) bool { return true })
}

// ListByModule returns the topics owned by module.
func (m *Manager) ListByModule(module string) []*Topic {
	return m.filter(func(t *Topic) bool { return t.Module() == module })
}

// FindTopics returns the topics whose names match a wildcard pattern.
func (m *Manager) FindTopics(pattern string) []*Topic {
	return m.filter(func(t *Topic) bool { return matchesPattern(t.Name(), pattern) })
}

// ListModules returns the distinct module names, sorted.
func (m *Manager) ListModules() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, t := range m.topics {
		if t.Module() != "" {
			seen[t.Module()] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for mod := range seen {
		out = append(out, mod)
	}
	sort.Strings(out)
	return out
}

// Count returns the number of registered topics.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.topics)
}

func (m *Manager) filter(keep func(*Topic) bool) []*Topic {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Topic, 0, len(m.topics))
	for _, t := range m.topics {
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

var (
	defaultManager *Manager
	defaultOnce    sync.Once
)

// Default returns the process-wide catalog that package-level topics
// register with.
func Default() *Manager {
	defaultOnce.Do(func() {
		defaultManager = NewManager()
	})
	return defaultManager
}

package topicmgr

import "time"

// TopicScope defines whether a topic belongs to the framework or a module.
type TopicScope string

const (
	ScopeFramework TopicScope = "framework" // transport and presence topics
	ScopeModule    TopicScope = "module"    // chat and other feature topics
)

// TopicConfig holds configuration for creating a new topic.
type TopicConfig struct {
	Name        string         `json:"name"`
	Module      string         `json:"module"`
	Scope       TopicScope     `json:"scope"`
	Description string         `json:"description"`
	Example     string         `json:"example,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Topic is an immutable, registered topic definition.
type Topic struct {
	config       TopicConfig
	registeredAt time.Time
}

func (t *Topic) Name() string        { return t.config.Name }
func (t *Topic) Module() string      { return t.config.Module }
func (t *Topic) Scope() TopicScope   { return t.config.Scope }
func (t *Topic) Description() string { return t.config.Description }
func (t *Topic) Example() string     { return t.config.Example }

// RegisteredAt is zero until the topic is registered with a Manager.
func (t *Topic) RegisteredAt() time.Time { return t.registeredAt }

// Metadata returns a copy of the topic's metadata.
func (t *Topic) Metadata() map[string]any {
	out := make(map[string]any, len(t.config.Metadata))
	for k, v := range t.config.Metadata {
		out[k] = v
	}
	return out
}

// String returns the topic name for easy debugging.
func (t *Topic) String() string { return t.config.Name }

// ErrorType classifies catalog errors.
type ErrorType string

const (
	ErrorTopicNotFound         ErrorType = "topic_not_found"
	ErrorDuplicateRegistration ErrorType = "duplicate_registration"
	ErrorValidationFailed      ErrorType = "validation_failed"
)

// TopicError represents structured errors in the topic catalog.
type TopicError struct {
	Type    ErrorType `json:"type"`
	Topic   string    `json:"topic"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

func (e *TopicError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *TopicError) Unwrap() error { return e.Cause }

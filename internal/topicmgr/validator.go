package topicmgr

import (
	"fmt"
	"regexp"
	"strings"
)

// Topic names are dot-separated lowercase segments, e.g. ws.client.event.
// Underscores are allowed inside a segment.
var namePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*(\.[a-z][a-z0-9_]*)*$`)

// ValidateName checks a topic name against the naming convention.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("topic name cannot be empty")
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("topic name %q must be dot-separated lowercase segments", name)
	}
	return nil
}

func validateConfig(cfg TopicConfig) error {
	if err := ValidateName(cfg.Name); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.Description) == "" {
		return fmt.Errorf("topic description cannot be empty")
	}
	switch cfg.Scope {
	case ScopeFramework:
		if cfg.Module != "" {
			return fmt.Errorf("framework topic %s cannot belong to module %s", cfg.Name, cfg.Module)
		}
	case ScopeModule:
		if cfg.Module == "" {
			return fmt.Errorf("module topic %s needs a module", cfg.Name)
		}
		if !strings.HasPrefix(cfg.Name, cfg.Module+".") {
			return fmt.Errorf("module topic %s should start with %s.", cfg.Name, cfg.Module)
		}
	default:
		return fmt.Errorf("invalid topic scope: %q", cfg.Scope)
	}
	return nil
}

// matchesPattern supports a single trailing or embedded "*" per segment,
// e.g. "ws.*" or "chat.*.created".
func matchesPattern(name, pattern string) bool {
	if pattern == "*" || pattern == name {
		return true
	}
	nameParts := strings.Split(name, ".")
	patParts := strings.Split(pattern, ".")
	for i, p := range patParts {
		if p == "*" && i == len(patParts)-1 {
			return len(nameParts) >= len(patParts)
		}
		if i >= len(nameParts) {
			return false
		}
		if p != "*" && p != nameParts[i] {
			return false
		}
	}
	return len(nameParts) == len(patParts)
}

// internal/config/error.go
package config

import (
	"fmt"
	"strings"
)

// ConfigError aggregates configuration problems so the user sees every
// issue at once. It is the only error class that aborts a run before any
// work starts.
type ConfigError struct {
	Path   string   // config file path, if loaded from one
	Errors []string // validation errors
}

func (e *ConfigError) Error() string {
	if len(e.Errors) == 0 {
		return ""
	}
	parts := []string{"invalid configuration:"}
	for _, err := range e.Errors {
		parts = append(parts, fmt.Sprintf("  - %s", err))
	}
	return strings.Join(parts, "\n")
}

// HasErrors returns true if there are any errors.
func (e *ConfigError) HasErrors() bool {
	return len(e.Errors) > 0
}

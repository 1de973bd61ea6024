package source

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
)

// ErrNoAdapter is returned when no registered source matches a reference.
var ErrNoAdapter = errors.New("no source adapter for reference")

// Factory constructs a Source for a matched reference.
type Factory func() Source

type registration struct {
	name    string
	pattern *regexp.Regexp
	factory Factory
}

var (
	registryMu sync.RWMutex
	registry   []registration
)

// Register adds a source adapter selected by URL pattern. Adapters are
// tried in registration order; the first matching pattern wins.
func Register(name string, pattern *regexp.Regexp, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = append(registry, registration{name: name, pattern: pattern, factory: factory})
}

// Resolve picks the source adapter for a reference. Local file paths and
// file:// references resolve to the batch-file source; everything else is
// matched against registered URL patterns.
func Resolve(ref string) (Source, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: empty reference", ErrNoAdapter)
	}

	if path, ok := strings.CutPrefix(ref, "file://"); ok {
		return NewBatchFile(path), nil
	}
	if !strings.Contains(ref, "://") {
		if _, err := os.Stat(ref); err == nil {
			return NewBatchFile(ref), nil
		}
	}

	registryMu.RLock()
	defer registryMu.RUnlock()
	for _, r := range registry {
		if r.pattern.MatchString(ref) {
			return r.factory(), nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNoAdapter, ref)
}

package pattern

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrDuplicatePattern is returned by Register when the name is already
// taken in the same unit system.
var ErrDuplicatePattern = errors.New("pattern: duplicate pattern")

// ErrNilPattern is returned by Register for a nil pattern.
var ErrNilPattern = errors.New("pattern: nil pattern")

type registryKey struct {
	name   string
	metric bool
}

func keyFor(name string, isMetric bool) registryKey {
	return registryKey{name: strings.ToUpper(strings.TrimSpace(name)), metric: isMetric}
}

// Registry maps (name, unit system) pairs to patterns. Names are matched
// case-insensitively. Registered patterns must not be modified.
//
// A Registry is safe for concurrent use, so one instance can serve several
// builds at once.
type Registry struct {
	mu       sync.RWMutex
	patterns map[registryKey]*Pattern
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{patterns: make(map[registryKey]*Pattern)}
}

// Register stores p under (p.Name, isMetric). Registering a name that is
// already present in the same unit system fails with ErrDuplicatePattern
// and leaves the registry unchanged; use Replace to overwrite.
func (r *Registry) Register(p *Pattern, isMetric bool) error {
	if p == nil {
		return ErrNilPattern
	}
	k := keyFor(p.Name, isMetric)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.patterns[k]; dup {
		return fmt.Errorf("%w: %s (metric=%t)", ErrDuplicatePattern, k.name, isMetric)
	}
	r.patterns[k] = p
	return nil
}

// Replace stores p under (p.Name, isMetric), overwriting any previous entry.
func (r *Registry) Replace(p *Pattern, isMetric bool) {
	if p == nil {
		return
	}
	r.mu.Lock()
	r.patterns[keyFor(p.Name, isMetric)] = p
	r.mu.Unlock()
}

// Lookup returns the pattern registered under (name, isMetric).
func (r *Registry) Lookup(name string, isMetric bool) (*Pattern, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.patterns[keyFor(name, isMetric)]
	return p, ok
}

// Names returns the sorted names registered for one unit system.
func (r *Registry) Names(isMetric bool) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.patterns))
	for k := range r.patterns {
		if k.metric == isMetric {
			names = append(names, k.name)
		}
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered patterns across both unit systems.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.patterns)
}

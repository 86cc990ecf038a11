package patterns

import (
	"fmt"
	"sync"

	"github.com/pable/go-lol-coach/internal/model"
)

// Registry holds pattern detectors keyed by pattern key. Detectors run in
// registration order.
type Registry struct {
	mu        sync.RWMutex
	detectors map[model.PatternKey]Detector
	order     []model.PatternKey
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		detectors: make(map[model.PatternKey]Detector),
	}
}

// NewDefaultRegistry returns a registry with every built-in detector.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, d := range builtins() {
		r.MustRegister(d)
	}
	return r
}

// Register adds a detector. It returns an error if the key is taken.
func (r *Registry) Register(d Detector) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.detectors[d.Key()]; exists {
		return fmt.Errorf("detector already registered: %s", d.Key())
	}
	r.detectors[d.Key()] = d
	r.order = append(r.order, d.Key())
	return nil
}

// MustRegister is Register for built-ins; it panics on error.
func (r *Registry) MustRegister(d Detector) {
	if err := r.Register(d); err != nil {
		panic(err)
	}
}

// Get returns the detector for key, or nil.
func (r *Registry) Get(key model.PatternKey) Detector {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.detectors[key]
}

// All returns the detectors in registration order.
func (r *Registry) All() []Detector {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Detector, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.detectors[k])
	}
	return out
}

// Count returns the number of registered detectors.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

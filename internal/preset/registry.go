// Package preset - preset registry
package preset

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the presets known to the process, keyed by entity type.
// Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	presets map[string]*Preset
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{presets: make(map[string]*Preset)}
}

// Register validates and adds a preset. Registering an entity type twice
// is an error.
func (r *Registry) Register(p *Preset) error {
	if err := p.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.presets[p.EntityType]; exists {
		return fmt.Errorf("preset for entity type %q already registered", p.EntityType)
	}
	r.presets[p.EntityType] = p
	return nil
}

// Get returns the preset for an entity type.
func (r *Registry) Get(entityType string) (*Preset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.presets[entityType]
	return p, ok
}

// List returns all registered presets sorted by entity type.
func (r *Registry) List() []*Preset {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Preset, 0, len(r.presets))
	for _, p := range r.presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntityType < out[j].EntityType })
	return out
}

// DefaultRegistry returns a registry loaded with the built-in presets.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, p := range builtinPresets() {
		if err := r.Register(p); err != nil {
			// Built-ins are compile-time data; a failure here is a bug.
			panic(err)
		}
	}
	return r
}

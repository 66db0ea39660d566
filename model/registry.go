package model

import (
	"fmt"
	"sync"
)

// Registry maps entity names to definitions. It is an explicitly owned
// object, not ambient global state: the caller creates one, registers
// every entity into it before deriving schemas, and hands it to whatever
// top-level context manages entity types. Registration is expected to
// happen up front, single-writer; lookups afterwards are read-only and
// safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Definition)}
}

// Register adds a definition under its entity name. Registering the same
// definition again is a no-op; registering a different definition under
// an already-taken name is an error.
func (r *Registry) Register(def *Definition) error {
	if def == nil {
		return fmt.Errorf("register: definition must not be nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byName[def.Name()]; ok {
		if existing != def {
			return fmt.Errorf("register: entity name %q already registered", def.Name())
		}
		return nil
	}
	r.byName[def.Name()] = def
	return nil
}

// MustRegister is a helper that calls Register and panics on error.
// It is intended for use during application initialization.
func (r *Registry) MustRegister(def *Definition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

// Lookup retrieves a definition by entity name.
func (r *Registry) Lookup(name string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.byName[name]
	return def, ok
}

// Definitions returns all registered definitions.
func (r *Registry) Definitions() []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Definition, 0, len(r.byName))
	for _, def := range r.byName {
		result = append(result, def)
	}
	return result
}

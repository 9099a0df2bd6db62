package planner

import (
	"fmt"
	"sort"
	"sync"

	"github.com/andrescamacho/autobuild-go/internal/domain/buildtype"
)

// Factory creates a fresh strategy for one session.
type Factory func(catalog *buildtype.Catalog) (Strategy, error)

// Registry maps strategy names to factories
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under name
func (r *Registry) Register(name string, factory Factory) error {
	if name == "" {
		return fmt.Errorf("strategy name cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("factory for %s cannot be nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("strategy %s already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// Create instantiates the named strategy
func (r *Registry) Create(name string, catalog *buildtype.Catalog) (Strategy, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, &ErrUnknownStrategy{Name: name, Available: r.Names()}
	}
	s, err := factory(catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to create strategy %s: %w", name, err)
	}
	return s, nil
}

// Names lists the registered strategies in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

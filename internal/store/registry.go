package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Factory opens a backend for cfg.
type Factory func(ctx context.Context, cfg Config) (Store, error)

// Registry maps driver names to backend factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// RegisterDriver registers a factory for a driver name, replacing any
// previous one.
func (r *Registry) RegisterDriver(driver string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[driver] = factory
}

// Open creates a store for cfg.Driver.
func (r *Registry) Open(ctx context.Context, cfg Config) (Store, error) {
	r.mu.RLock()
	factory, ok := r.factories[cfg.Driver]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported store driver: %s (available: %v)", cfg.Driver, r.Drivers())
	}

	s, err := factory(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Driver, err)
	}
	return s, nil
}

// Drivers returns the registered driver names, sorted.
func (r *Registry) Drivers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	drivers := make([]string, 0, len(r.factories))
	for d := range r.factories {
		drivers = append(drivers, d)
	}
	sort.Strings(drivers)
	return drivers
}

var defaultRegistry = NewRegistry()

// Register adds a factory to the default registry. Backends call it from
// init, so importing a backend package makes its drivers available.
func Register(driver string, factory Factory) {
	defaultRegistry.RegisterDriver(driver, factory)
}

// Open opens a store from the default registry.
func Open(ctx context.Context, cfg Config) (Store, error) {
	return defaultRegistry.Open(ctx, cfg)
}

// Drivers lists the drivers in the default registry.
func Drivers() []string {
	return defaultRegistry.Drivers()
}

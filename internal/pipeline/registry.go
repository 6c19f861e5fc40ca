// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package pipeline

import (
	"log/slog"
	"sync"
)

// Registry maps step names to factories. New step types are added by
// registering a factory under a unique name; the resolver consults the
// registry and never enumerates step types itself.
// It is thread-safe for concurrent access.
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
}

// NewRegistry creates a new step factory registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a factory under the given step name. If a factory with the
// same name exists, it is overwritten and a warning is logged.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.factories[name]; ok {
		slog.Warn("step factory conflict: overwriting existing factory",
			"step", name,
		)
	}

	r.factories[name] = factory
}

// Get retrieves a factory by step name.
func (r *Registry) Get(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	return factory, ok
}

// Names returns all registered step names. The returned slice is a copy.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}

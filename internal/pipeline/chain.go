// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package pipeline

import (
	"github.com/samber/oops"
)

// Chain is the explicit, configured total order over step names. Steps are
// spliced into the order by configuration, not by subclassing; a finite
// order also guarantees that recursive resolution terminates.
type Chain struct {
	order []string
	index map[string]int
}

// NewChain creates a chain from the configured order. Duplicate names are a
// configuration error: they would make "the next step after X" ambiguous.
func NewChain(order []string) (*Chain, error) {
	if len(order) == 0 {
		return nil, oops.Code("PIPELINE_EMPTY_CHAIN").Errorf("step chain cannot be empty")
	}

	index := make(map[string]int, len(order))
	for i, name := range order {
		if name == NullStepName {
			return nil, oops.Code("PIPELINE_RESERVED_STEP").
				Errorf("step name %q is reserved for the terminal step", NullStepName)
		}
		if _, dup := index[name]; dup {
			return nil, oops.Code("PIPELINE_DUPLICATE_STEP").
				With("step", name).
				Errorf("step %q appears twice in the chain", name)
		}
		index[name] = i
	}

	return &Chain{order: append([]string(nil), order...), index: index}, nil
}

// First returns the first step name.
func (c *Chain) First() string {
	return c.order[0]
}

// Next returns the step name after the given one. ok is false when name is
// the last step or is not part of the chain.
func (c *Chain) Next(name string) (next string, ok bool) {
	i, known := c.index[name]
	if !known || i+1 >= len(c.order) {
		return "", false
	}
	return c.order[i+1], true
}

// Contains reports whether the chain includes the step name.
func (c *Chain) Contains(name string) bool {
	_, ok := c.index[name]
	return ok
}

// Order returns a copy of the configured order.
func (c *Chain) Order() []string {
	return append([]string(nil), c.order...)
}

// Validate dry-runs the chain against the registry at startup: every
// configured name must have a factory. A missing factory is a configuration
// error, never a runtime one.
func (c *Chain) Validate(registry *Registry) error {
	for _, name := range c.order {
		if _, ok := registry.Get(name); !ok {
			return oops.Code("PIPELINE_MISSING_FACTORY").
				With("step", name).
				Errorf("no factory registered for configured step %q", name)
		}
	}
	return nil
}

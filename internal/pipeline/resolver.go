// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package pipeline

import (
	"github.com/samber/oops"

	"github.com/gateward/gateward/internal/account"
)

// Resolver applies the skip/pass resolution algorithm over the configured
// chain. Resolution walks strictly forward: a step's side effect can never
// re-enter the resolver or move an account to an earlier step.
type Resolver struct {
	registry *Registry
	chain    *Chain
}

// NewResolver creates a resolver. The chain must already be validated
// against the registry.
func NewResolver(registry *Registry, chain *Chain) (*Resolver, error) {
	if registry == nil {
		return nil, oops.Code("PIPELINE_NIL_REGISTRY").Errorf("resolver requires a registry")
	}
	if chain == nil {
		return nil, oops.Code("PIPELINE_NIL_CHAIN").Errorf("resolver requires a chain")
	}
	return &Resolver{registry: registry, chain: chain}, nil
}

// ResolveCurrentStep determines the account's current step. Starting from the
// account's stored step name (or the head of the chain), each candidate is
// instantiated with a fresh context; a skipping or passing step yields to the
// next name in the chain until one neither skips nor passes, or the chain is
// exhausted and the terminal NullStep is returned. The resolved name is
// stored on the account.
func (r *Resolver) ResolveCurrentStep(acct *account.Account) (Step, error) {
	if acct == nil {
		return nil, oops.Code("PIPELINE_NIL_ACCOUNT").Errorf("cannot resolve step for nil account")
	}

	name := acct.CurrentStepName
	if name == "" || name == NullStepName || !r.chain.Contains(name) {
		name = r.chain.First()
	}

	return r.resolveFrom(acct, name)
}

// Advance re-evaluates a live step instance whose context may have been
// mutated by external confirmation and, if it now skips or passes, resolves
// onward from the next position. Used by command handlers after a correct
// password or 2FA code.
func (r *Resolver) Advance(step Step) (Step, error) {
	if step == nil {
		return nil, oops.Code("PIPELINE_NIL_STEP").Errorf("cannot advance from nil step")
	}
	acct := step.Context().Account()

	if !step.ShouldSkip() && !step.ShouldPass() {
		// Still gated; the account stays where it is.
		acct.CurrentStepName = step.Name()
		return step, nil
	}

	next, ok := r.chain.Next(step.Name())
	if !ok {
		return r.terminal(acct)
	}
	return r.resolveFrom(acct, next)
}

// resolveFrom runs the resolution loop beginning at the given step name.
// The loop is the iterative form of the recursive definition; it visits each
// chain position at most once, so it terminates for any finite chain.
func (r *Resolver) resolveFrom(acct *account.Account, name string) (Step, error) {
	for {
		factory, ok := r.registry.Get(name)
		if !ok {
			// Validated at startup; reaching this means the registry mutated
			// at runtime. Fail loudly rather than guessing a step.
			return nil, oops.Code("PIPELINE_MISSING_FACTORY").
				With("step", name).
				With("account", acct.Name).
				Errorf("no factory registered for step %q", name)
		}

		sc, err := NewStepContext(acct)
		if err != nil {
			return nil, err
		}
		step := factory(sc)

		if !step.ShouldSkip() && !step.ShouldPass() {
			acct.CurrentStepName = name
			recordResolution(name)
			return step, nil
		}

		next, ok := r.chain.Next(name)
		if !ok {
			return r.terminal(acct)
		}
		name = next
	}
}

func (r *Resolver) terminal(acct *account.Account) (Step, error) {
	sc, err := NewStepContext(acct)
	if err != nil {
		return nil, err
	}
	acct.CurrentStepName = NullStepName
	recordResolution(NullStepName)
	return NewNullStep(sc), nil
}

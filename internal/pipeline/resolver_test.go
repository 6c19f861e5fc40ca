// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package pipeline_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gateward/gateward/internal/account"
	"github.com/gateward/gateward/internal/pipeline"
	"github.com/gateward/gateward/pkg/errutil"
)

// scriptedStep is a step whose skip/pass results come from a shared script,
// so tests control exactly how resolution walks the chain.
type scriptedStep struct {
	name      string
	sc        *pipeline.StepContext
	skip      func(*account.Account) bool
	pass      func(*pipeline.StepContext) bool
	processed *int
}

func (s *scriptedStep) Name() string { return s.name }

func (s *scriptedStep) ShouldSkip() bool {
	if s.skip == nil {
		return false
	}
	return s.skip(s.sc.Account())
}

func (s *scriptedStep) ShouldPass() bool {
	if s.pass == nil {
		return false
	}
	return s.pass(s.sc)
}

func (s *scriptedStep) Process(context.Context, pipeline.Player) {
	if s.processed != nil {
		*s.processed++
	}
}

func (s *scriptedStep) Context() *pipeline.StepContext { return s.sc }

func scripted(name string, skip func(*account.Account) bool, pass func(*pipeline.StepContext) bool) (string, pipeline.Factory) {
	return name, func(sc *pipeline.StepContext) pipeline.Step {
		return &scriptedStep{name: name, sc: sc, skip: skip, pass: pass}
	}
}

func registeredSkipped(a *account.Account) bool  { return a.Registered }
func notRegistered(a *account.Account) bool      { return !a.Registered }
func passWhenAllowed(sc *pipeline.StepContext) bool { return sc.CanAdvance() }

func buildResolver(t *testing.T, order []string, register func(*pipeline.Registry)) *pipeline.Resolver {
	t.Helper()
	registry := pipeline.NewRegistry()
	register(registry)
	chain, err := pipeline.NewChain(order)
	require.NoError(t, err)
	require.NoError(t, chain.Validate(registry))
	resolver, err := pipeline.NewResolver(registry, chain)
	require.NoError(t, err)
	return resolver
}

func TestNewResolver(t *testing.T) {
	registry := pipeline.NewRegistry()
	chain, err := pipeline.NewChain([]string{"A"})
	require.NoError(t, err)

	_, err = pipeline.NewResolver(nil, chain)
	errutil.AssertErrorCode(t, err, "PIPELINE_NIL_REGISTRY")

	_, err = pipeline.NewResolver(registry, nil)
	errutil.AssertErrorCode(t, err, "PIPELINE_NIL_CHAIN")
}

func TestResolver_ResolveCurrentStep(t *testing.T) {
	t.Run("stops at first gating step", func(t *testing.T) {
		resolver := buildResolver(t, []string{"REGISTER", "LOGIN"}, func(r *pipeline.Registry) {
			r.Register(scripted("REGISTER", registeredSkipped, nil))
			r.Register(scripted("LOGIN", notRegistered, passWhenAllowed))
		})

		acct := newTestAccount(t, "alice")
		step, err := resolver.ResolveCurrentStep(acct)
		require.NoError(t, err)
		assert.Equal(t, "REGISTER", step.Name())
		assert.Equal(t, "REGISTER", acct.CurrentStepName)
	})

	t.Run("skipping steps yield to next in chain", func(t *testing.T) {
		resolver := buildResolver(t, []string{"REGISTER", "LOGIN"}, func(r *pipeline.Registry) {
			r.Register(scripted("REGISTER", registeredSkipped, nil))
			r.Register(scripted("LOGIN", notRegistered, passWhenAllowed))
		})

		acct := newTestAccount(t, "alice")
		acct.Registered = true
		step, err := resolver.ResolveCurrentStep(acct)
		require.NoError(t, err)
		assert.Equal(t, "LOGIN", step.Name())
	})

	t.Run("exhausted chain yields terminal step", func(t *testing.T) {
		resolver := buildResolver(t, []string{"REGISTER"}, func(r *pipeline.Registry) {
			r.Register(scripted("REGISTER", func(*account.Account) bool { return true }, nil))
		})

		acct := newTestAccount(t, "alice")
		step, err := resolver.ResolveCurrentStep(acct)
		require.NoError(t, err)
		assert.Equal(t, pipeline.NullStepName, step.Name())
		assert.Equal(t, pipeline.NullStepName, acct.CurrentStepName)

		// Re-resolving a terminal account restarts from the chain head, and
		// with every step still skipping it lands on the terminal step again.
		again, err := resolver.ResolveCurrentStep(acct)
		require.NoError(t, err)
		assert.Equal(t, pipeline.NullStepName, again.Name())
	})

	t.Run("resumes from stored step name", func(t *testing.T) {
		resolver := buildResolver(t, []string{"REGISTER", "LOGIN"}, func(r *pipeline.Registry) {
			r.Register(scripted("REGISTER", nil, nil))
			r.Register(scripted("LOGIN", nil, nil))
		})

		acct := newTestAccount(t, "alice")
		acct.CurrentStepName = "LOGIN"
		step, err := resolver.ResolveCurrentStep(acct)
		require.NoError(t, err)
		assert.Equal(t, "LOGIN", step.Name())
	})

	t.Run("unknown stored step restarts from head", func(t *testing.T) {
		resolver := buildResolver(t, []string{"REGISTER"}, func(r *pipeline.Registry) {
			r.Register(scripted("REGISTER", nil, nil))
		})

		acct := newTestAccount(t, "alice")
		acct.CurrentStepName = "RETIRED_STEP"
		step, err := resolver.ResolveCurrentStep(acct)
		require.NoError(t, err)
		assert.Equal(t, "REGISTER", step.Name())
	})

	t.Run("nil account is an error", func(t *testing.T) {
		resolver := buildResolver(t, []string{"REGISTER"}, func(r *pipeline.Registry) {
			r.Register(scripted("REGISTER", nil, nil))
		})
		_, err := resolver.ResolveCurrentStep(nil)
		errutil.AssertErrorCode(t, err, "PIPELINE_NIL_ACCOUNT")
	})
}

func TestResolver_Advance(t *testing.T) {
	resolver := buildResolver(t, []string{"LOGIN", "ENTER"}, func(r *pipeline.Registry) {
		r.Register(scripted("LOGIN", nil, passWhenAllowed))
		r.Register(scripted("ENTER", nil, nil))
	})

	acct := newTestAccount(t, "alice")
	step, err := resolver.ResolveCurrentStep(acct)
	require.NoError(t, err)
	require.Equal(t, "LOGIN", step.Name())

	t.Run("gated step stays put", func(t *testing.T) {
		same, err := resolver.Advance(step)
		require.NoError(t, err)
		assert.Equal(t, "LOGIN", same.Name())
	})

	t.Run("confirmed step moves forward", func(t *testing.T) {
		step.Context().AllowAdvance()
		next, err := resolver.Advance(step)
		require.NoError(t, err)
		assert.Equal(t, "ENTER", next.Name())
		assert.Equal(t, "ENTER", acct.CurrentStepName)
	})

	t.Run("nil step is an error", func(t *testing.T) {
		_, err := resolver.Advance(nil)
		errutil.AssertErrorCode(t, err, "PIPELINE_NIL_STEP")
	})
}

func TestResolver_AdvancePastLastStep(t *testing.T) {
	resolver := buildResolver(t, []string{"LOGIN"}, func(r *pipeline.Registry) {
		r.Register(scripted("LOGIN", nil, passWhenAllowed))
	})

	acct := newTestAccount(t, "alice")
	step, err := resolver.ResolveCurrentStep(acct)
	require.NoError(t, err)

	step.Context().AllowAdvance()
	next, err := resolver.Advance(step)
	require.NoError(t, err)
	assert.Equal(t, pipeline.NullStepName, next.Name())
}

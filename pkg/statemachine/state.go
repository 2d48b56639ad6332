package statemachine

import (
	"context"
	"fmt"
)

// StateDef is the immutable definition of one named state: its lifecycle
// hooks and its same-state-skip policy.
type StateDef[T any] struct {
	state         State
	sameStateSkip bool
	hooks         map[HookKind][]Hook[T]
}

// StateOption configures a state definition.
type StateOption[T any] func(*StateDef[T])

func newStateDef[T any](state State, opts ...StateOption[T]) *StateDef[T] {
	def := &StateDef[T]{
		state: state,
		hooks: make(map[HookKind][]Hook[T]),
	}
	for _, opt := range opts {
		opt(def)
	}
	return def
}

func (s *StateDef[T]) Name() string {
	return s.state.Name()
}

// State returns the state value the definition was declared with.
func (s *StateDef[T]) State() State {
	return s.state
}

// SameStateSkip reports whether boundary hooks are suppressed when an event
// resolves back to this state.
func (s *StateDef[T]) SameStateSkip() bool {
	return s.sameStateSkip
}

// Hooks returns a copy of the hooks registered under kind.
func (s *StateDef[T]) Hooks(kind HookKind) []Hook[T] {
	hooks := s.hooks[kind]
	out := make([]Hook[T], len(hooks))
	copy(out, hooks)
	return out
}

// CallAction invokes every hook registered under kind in registration order.
// The first error stops the sequence.
func (s *StateDef[T]) CallAction(ctx context.Context, kind HookKind, host T, args ...any) error {
	for i, hook := range s.hooks[kind] {
		if err := hook(ctx, host, args...); err != nil {
			return fmt.Errorf("state %s %s hook #%d: %w", s.Name(), kind, i, err)
		}
	}
	return nil
}

func (s *StateDef[T]) clone() *StateDef[T] {
	c := &StateDef[T]{
		state:         s.state,
		sameStateSkip: s.sameStateSkip,
		hooks:         make(map[HookKind][]Hook[T], len(s.hooks)),
	}
	for kind, hooks := range s.hooks {
		c.hooks[kind] = append([]Hook[T](nil), hooks...)
	}
	return c
}

func withHooks[T any](kind HookKind, hooks []Hook[T]) StateOption[T] {
	return func(s *StateDef[T]) {
		for _, h := range hooks {
			if h != nil {
				s.hooks[kind] = append(s.hooks[kind], h)
			}
		}
	}
}

func OnBeforeEnter[T any](hooks ...Hook[T]) StateOption[T] {
	return withHooks(BeforeEnter, hooks)
}

func OnEnter[T any](hooks ...Hook[T]) StateOption[T] {
	return withHooks(Enter, hooks)
}

func OnAfterEnter[T any](hooks ...Hook[T]) StateOption[T] {
	return withHooks(AfterEnter, hooks)
}

func OnBeforeExit[T any](hooks ...Hook[T]) StateOption[T] {
	return withHooks(BeforeExit, hooks)
}

func OnExit[T any](hooks ...Hook[T]) StateOption[T] {
	return withHooks(Exit, hooks)
}

func OnAfterExit[T any](hooks ...Hook[T]) StateOption[T] {
	return withHooks(AfterExit, hooks)
}

// OnHook registers hooks under an arbitrary kind. Used by declarative loaders.
func OnHook[T any](kind HookKind, hooks ...Hook[T]) StateOption[T] {
	return withHooks(kind, hooks)
}

// WithSameStateSkip suppresses exit, before_exit, before_enter, after_exit and
// after_enter hooks when an event resolves from this state back to itself.
// The enter hooks still run on purpose, which departs from the usual
// convention of skipping every hook on a same-state transition.
func WithSameStateSkip[T any]() StateOption[T] {
	return func(s *StateDef[T]) {
		s.sameStateSkip = true
	}
}

package statemachine

import (
	"context"
	"fmt"
)

// TransitionDef is one (source states -> destination) rule owned by an event.
// The destination is either a literal state or computed by a DestinationFunc.
// All guards must pass for the transition to be taken.
type TransitionDef[T any] struct {
	from    []State
	fromSet map[string]struct{}
	to      State
	dest    DestinationFunc[T]
	guards  []Guard[T]
}

// TransitionOption configures a single transition with guards.
type TransitionOption[T any] func(*TransitionDef[T])

func newTransitionDef[T any](from []State, to State, dest DestinationFunc[T], opts ...TransitionOption[T]) (*TransitionDef[T], error) {
	if len(from) == 0 || (to == nil && dest == nil) {
		return nil, ErrInvalidTransition
	}

	t := &TransitionDef[T]{
		from:    make([]State, 0, len(from)),
		fromSet: make(map[string]struct{}, len(from)),
		to:      to,
		dest:    dest,
	}
	for _, s := range from {
		if s == nil {
			return nil, ErrInvalidTransition
		}
		if _, dup := t.fromSet[s.Name()]; dup {
			continue
		}
		t.from = append(t.from, s)
		t.fromSet[s.Name()] = struct{}{}
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// From returns the source states in declaration order.
func (t *TransitionDef[T]) From() []State {
	return append([]State(nil), t.from...)
}

// To returns the literal destination, or nil for a dynamic transition.
func (t *TransitionDef[T]) To() State {
	return t.to
}

// Dynamic reports whether the destination is computed at fire time.
func (t *TransitionDef[T]) Dynamic() bool {
	return t.dest != nil
}

// Guarded reports whether the transition has at least one guard.
func (t *TransitionDef[T]) Guarded() bool {
	return len(t.guards) > 0
}

// Matches reports whether current is one of the source states.
func (t *TransitionDef[T]) Matches(current State) bool {
	if current == nil {
		return false
	}
	_, ok := t.fromSet[current.Name()]
	return ok
}

// GuardPasses evaluates the guards in order with the firing arguments.
// A transition without guards always passes.
func (t *TransitionDef[T]) GuardPasses(ctx context.Context, host T, args ...any) (bool, error) {
	for i, guard := range t.guards {
		ok, err := guard(ctx, host, args...)
		if err != nil {
			return false, fmt.Errorf("guard #%d: %w", i, err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// ResolveDestination returns the literal destination or the result of the
// destination function. The caller validates the name against the definition.
func (t *TransitionDef[T]) ResolveDestination(ctx context.Context, host T, args ...any) (State, error) {
	if t.dest == nil {
		return t.to, nil
	}

	to, err := t.dest(ctx, host, args...)
	if err != nil {
		return nil, fmt.Errorf("resolve destination: %w", err)
	}
	if to == nil {
		return nil, fmt.Errorf("resolve destination: %w", ErrInvalidState)
	}
	return to, nil
}

func (t *TransitionDef[T]) clone() *TransitionDef[T] {
	c := *t
	c.from = append([]State(nil), t.from...)
	c.fromSet = make(map[string]struct{}, len(t.fromSet))
	for k := range t.fromSet {
		c.fromSet[k] = struct{}{}
	}
	c.guards = append([]Guard[T](nil), t.guards...)
	return &c
}

// WithGuard adds a single guard to a transition.
func WithGuard[T any](guard Guard[T]) TransitionOption[T] {
	return func(t *TransitionDef[T]) {
		if guard != nil {
			t.guards = append(t.guards, guard)
		}
	}
}

// WithGuards adds multiple guards to a transition.
func WithGuards[T any](guards ...Guard[T]) TransitionOption[T] {
	return func(t *TransitionDef[T]) {
		for _, guard := range guards {
			if guard != nil {
				t.guards = append(t.guards, guard)
			}
		}
	}
}

// Predicate adapts an error-free predicate into a Guard.
func Predicate[T any](fn func(ctx context.Context, host T, args ...any) bool) Guard[T] {
	return func(ctx context.Context, host T, args ...any) (bool, error) {
		return fn(ctx, host, args...), nil
	}
}

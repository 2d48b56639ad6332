package statemachine

import (
	"context"
	"fmt"
)

// EventHookKind identifies an event-level hook sequence.
type EventHookKind string

const (
	Before EventHookKind = "before"
	After  EventHookKind = "after"
)

// EventDef is a named, ordered collection of transitions plus the event-level
// hooks that run around a successful transition.
type EventDef[T any] struct {
	event       Event
	transitions []*TransitionDef[T]
	before      []Hook[T]
	after       []Hook[T]
	success     Hook[T]
	onError     ErrorHandler[T]
	err         error
}

// EventOption configures an event definition.
type EventOption[T any] func(*EventDef[T])

func newEventDef[T any](event Event) *EventDef[T] {
	return &EventDef[T]{event: event}
}

func (e *EventDef[T]) Name() string {
	return e.event.Name()
}

// Event returns the event value the definition was declared with.
func (e *EventDef[T]) Event() Event {
	return e.event
}

// Transitions returns the transitions in declaration order.
func (e *EventDef[T]) Transitions() []*TransitionDef[T] {
	return append([]*TransitionDef[T](nil), e.transitions...)
}

// TransitionsFromState reports whether any transition is declared from state,
// ignoring guards.
func (e *EventDef[T]) TransitionsFromState(state State) bool {
	for _, t := range e.transitions {
		if t.Matches(state) {
			return true
		}
	}
	return false
}

// FindMatchingTransition returns the first transition, in declaration order,
// that is declared from current and whose guards pass. It returns nil when
// none does. Later matches are never consulted.
func (e *EventDef[T]) FindMatchingTransition(ctx context.Context, current State, host T, args ...any) (*TransitionDef[T], error) {
	for _, t := range e.transitions {
		if !t.Matches(current) {
			continue
		}
		ok, err := t.GuardPasses(ctx, host, args...)
		if err != nil {
			return nil, err
		}
		if ok {
			return t, nil
		}
	}
	return nil, nil
}

// Resolve returns the destination the event would move current to, or nil
// when no transition matches. It runs guards and destination functions but
// no hooks, so the orchestrator calls it once to decide the same-state skip
// and again to commit. Guards are therefore expected to tolerate being
// evaluated twice.
func (e *EventDef[T]) Resolve(ctx context.Context, current State, host T, args ...any) (State, error) {
	t, err := e.FindMatchingTransition(ctx, current, host, args...)
	if err != nil || t == nil {
		return nil, err
	}
	return t.ResolveDestination(ctx, host, args...)
}

// MayFire reports whether a transition would be taken from current. It does
// not run hooks or mutate anything.
func (e *EventDef[T]) MayFire(ctx context.Context, current State, host T, args ...any) (bool, error) {
	t, err := e.FindMatchingTransition(ctx, current, host, args...)
	if err != nil {
		return false, err
	}
	return t != nil, nil
}

// CallAction runs the before or after hook sequence.
func (e *EventDef[T]) CallAction(ctx context.Context, kind EventHookKind, host T, args ...any) error {
	hooks := e.before
	if kind == After {
		hooks = e.after
	}
	for i, hook := range hooks {
		if err := hook(ctx, host, args...); err != nil {
			return fmt.Errorf("event %s %s hook #%d: %w", e.Name(), kind, i, err)
		}
	}
	return nil
}

// ExecuteSuccessCallback runs the success handler, if any. It is only called
// once the new state has been durably committed.
func (e *EventDef[T]) ExecuteSuccessCallback(ctx context.Context, host T, args ...any) error {
	if e.success == nil {
		return nil
	}
	if err := e.success(ctx, host, args...); err != nil {
		return fmt.Errorf("event %s success hook: %w", e.Name(), err)
	}
	return nil
}

// ExecuteErrorCallback hands err to the error handler and returns what the
// handler returns. Without a handler err is returned unchanged.
func (e *EventDef[T]) ExecuteErrorCallback(ctx context.Context, host T, err error) error {
	if e.onError == nil {
		return err
	}
	return e.onError(ctx, host, err)
}

func (e *EventDef[T]) clone() *EventDef[T] {
	c := *e
	c.transitions = make([]*TransitionDef[T], len(e.transitions))
	for i, t := range e.transitions {
		c.transitions[i] = t.clone()
	}
	c.before = append([]Hook[T](nil), e.before...)
	c.after = append([]Hook[T](nil), e.after...)
	return &c
}

// WithTransition adds a transition from the given source states to a literal
// destination. Transitions are tried in the order they are added.
func WithTransition[T any](from []State, to State, opts ...TransitionOption[T]) EventOption[T] {
	return func(e *EventDef[T]) {
		if to == nil {
			e.setErr(ErrInvalidTransition)
			return
		}
		e.addTransition(from, to, nil, opts)
	}
}

// WithDynamicTransition adds a transition whose destination is computed when
// the event fires.
func WithDynamicTransition[T any](from []State, dest DestinationFunc[T], opts ...TransitionOption[T]) EventOption[T] {
	return func(e *EventDef[T]) {
		if dest == nil {
			e.setErr(ErrNilDestinationFunc)
			return
		}
		e.addTransition(from, nil, dest, opts)
	}
}

func (e *EventDef[T]) addTransition(from []State, to State, dest DestinationFunc[T], opts []TransitionOption[T]) {
	t, err := newTransitionDef(from, to, dest, opts...)
	if err != nil {
		e.setErr(err)
		return
	}
	e.transitions = append(e.transitions, t)
}

func (e *EventDef[T]) setErr(err error) {
	if e.err == nil {
		e.err = fmt.Errorf("event %s: %w", e.Name(), err)
	}
}

// OnBefore registers hooks that run before the transition is resolved for commit.
func OnBefore[T any](hooks ...Hook[T]) EventOption[T] {
	return func(e *EventDef[T]) {
		for _, h := range hooks {
			if h != nil {
				e.before = append(e.before, h)
			}
		}
	}
}

// OnAfter registers hooks that run after a committed transition.
func OnAfter[T any](hooks ...Hook[T]) EventOption[T] {
	return func(e *EventDef[T]) {
		for _, h := range hooks {
			if h != nil {
				e.after = append(e.after, h)
			}
		}
	}
}

// OnSuccess sets the handler that runs after the new state was persisted.
func OnSuccess[T any](hook Hook[T]) EventOption[T] {
	return func(e *EventDef[T]) {
		e.success = hook
	}
}

// OnError sets the handler for errors raised while the event fires.
func OnError[T any](handler ErrorHandler[T]) EventOption[T] {
	return func(e *EventDef[T]) {
		e.onError = handler
	}
}

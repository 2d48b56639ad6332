package statemachine

import (
	"context"
)

// State represents a state in the state machine.
type State interface {
	Name() string
}

// Event represents an event that can trigger a state transition.
type Event interface {
	Name() string
}

// Hook is a lifecycle callback. Hooks are notifications, not gates: a returned
// error aborts the transition and is routed to the event's error handler.
type Hook[T any] func(ctx context.Context, host T, args ...any) error

// Guard evaluates whether a transition may be taken with the given arguments.
type Guard[T any] func(ctx context.Context, host T, args ...any) (bool, error)

// DestinationFunc computes the destination state of a dynamic transition.
type DestinationFunc[T any] func(ctx context.Context, host T, args ...any) (State, error)

// InitialStateFunc computes the initial state of a new machine.
type InitialStateFunc[T any] func(ctx context.Context, host T) (State, error)

// ErrorHandler receives any error raised while an event is being fired.
// Its return value becomes the result of Fire; returning nil swallows the
// error and the event is reported as failed.
type ErrorHandler[T any] func(ctx context.Context, host T, err error) error

// HookKind identifies the point in a transition at which a state hook runs.
type HookKind string

const (
	BeforeEnter HookKind = "before_enter"
	Enter       HookKind = "enter"
	AfterEnter  HookKind = "after_enter"
	BeforeExit  HookKind = "before_exit"
	Exit        HookKind = "exit"
	AfterExit   HookKind = "after_exit"
)

// HookKinds lists every state hook kind in declaration order.
var HookKinds = []HookKind{BeforeEnter, Enter, AfterEnter, BeforeExit, Exit, AfterExit}

// StateReader loads a durably stored state name. An empty name means
// nothing is stored and the initial state should be entered.
type StateReader interface {
	ReadState(ctx context.Context) (string, error)
}

// StateWriter durably commits a state name. Returning false without an error
// reports a persistence failure: the transition is not committed.
type StateWriter interface {
	WriteState(ctx context.Context, state string) (bool, error)
}

// StateCacher receives every update of the in-memory current state,
// independent of durable persistence.
type StateCacher interface {
	CacheState(ctx context.Context, state string) error
}

// Persister is a read/write persistence collaborator.
type Persister interface {
	StateReader
	StateWriter
}

// EventFiredNotifier is implemented by hosts that want to know about
// committed transitions.
type EventFiredNotifier interface {
	EventFired(ctx context.Context, event Event, from, to State)
}

// EventFailedNotifier is implemented by hosts that want to know about events
// that did not change the state. The reason is one of *ErrNoTransitionAvailable,
// *ErrTransitionRejected or ErrPersistenceFailed.
type EventFailedNotifier interface {
	EventFailed(ctx context.Context, event Event, from State, reason error)
}

// StringState provides a simple string-based state implementation for basic use cases.
type StringState string

func (s StringState) Name() string {
	return string(s)
}

// StringEvent provides a simple string-based event implementation for basic use cases.
type StringEvent string

func (e StringEvent) Name() string {
	return string(e)
}

// From collects source states for a transition.
func From(states ...State) []State {
	return states
}

package statemachine

import (
	"errors"
	"fmt"
)

var (
	ErrUndefinedEvent     = errors.New("undefined event")
	ErrUndefinedState     = errors.New("undefined state")
	ErrDuplicateState     = errors.New("duplicate state")
	ErrDuplicateEvent     = errors.New("duplicate event")
	ErrNoStates           = errors.New("state machine must define at least one state")
	ErrInvalidTransition  = errors.New("invalid transition: source states and destination are required")
	ErrInvalidEvent       = errors.New("invalid event: event cannot be nil")
	ErrInvalidState       = errors.New("invalid state: state cannot be nil")
	ErrPersistenceFailed  = errors.New("state was not persisted")
	ErrPanicked           = errors.New("transition panicked")
	ErrMethodNotFound     = errors.New("host method not found")
	ErrMethodSignature    = errors.New("host method has unsupported signature")
	ErrEmptyMachineName   = errors.New("state machine name cannot be empty")
	ErrNilDestinationFunc = errors.New("dynamic transition requires a destination function")
)

// ErrNoTransitionAvailable indicates no transition of the event is declared from the state.
type ErrNoTransitionAvailable struct {
	StateName string
	EventName string
}

func (e *ErrNoTransitionAvailable) Error() string {
	return fmt.Sprintf("no transition available from state '%s' for event '%s'", e.StateName, e.EventName)
}

func NewErrNoTransitionAvailable(stateName, eventName string) *ErrNoTransitionAvailable {
	return &ErrNoTransitionAvailable{
		StateName: stateName,
		EventName: eventName,
	}
}

// ErrTransitionRejected indicates all possible transitions were blocked by guard functions.
type ErrTransitionRejected struct {
	StateName string
	EventName string
}

func (e *ErrTransitionRejected) Error() string {
	return fmt.Sprintf("transition from state '%s' for event '%s' was rejected by guards", e.StateName, e.EventName)
}

func NewErrTransitionRejected(stateName, eventName string) *ErrTransitionRejected {
	return &ErrTransitionRejected{
		StateName: stateName,
		EventName: eventName,
	}
}

// TransitionError wraps an error raised while an event was being fired.
type TransitionError struct {
	Event string
	From  string
	To    string
	Err   error
}

func (e *TransitionError) Error() string {
	if e.To == "" {
		return fmt.Sprintf("event %s from %s: %v", e.Event, e.From, e.Err)
	}

	return fmt.Sprintf("event %s (%s -> %s): %v", e.Event, e.From, e.To, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

// StateError wraps an error with state context.
type StateError struct {
	State string
	Err   error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("state %s: %v", e.State, e.Err)
}

func (e *StateError) Unwrap() error {
	return e.Err
}

func undefinedState(name string) error {
	return &StateError{State: name, Err: ErrUndefinedState}
}

func IsNoTransitionAvailableError(err error) bool {
	var e *ErrNoTransitionAvailable
	return errors.As(err, &e)
}

func IsTransitionRejectedError(err error) bool {
	var e *ErrTransitionRejected
	return errors.As(err, &e)
}

func IsUndefinedStateError(err error) bool {
	return errors.Is(err, ErrUndefinedState)
}

func IsUndefinedEventError(err error) bool {
	return errors.Is(err, ErrUndefinedEvent)
}

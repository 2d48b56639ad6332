// Package statemachine provides a finite-state-machine runtime that attaches to
// arbitrary host values.
//
// A Definition describes the machine for a host type T: the ordered set of
// states with their lifecycle hooks, the events with their ordered
// transitions, and the initial-state rule. It is built once, validated, and
// shared read-only by every Machine created from it. A Machine holds the
// current state of one host, initializes it lazily and fires events.
//
// The package revolves around two minimal interfaces, State and Event. The
// StringState and StringEvent helpers cover most cases:
//
//	const (
//	    Pending  = statemachine.StringState("pending")
//	    Approved = statemachine.StringState("approved")
//	    Rejected = statemachine.StringState("rejected")
//	    Approve  = statemachine.StringEvent("approve")
//	    Reject   = statemachine.StringEvent("reject")
//	)
//
//	def := statemachine.MustNew("order",
//	    statemachine.WithState[*Order](Pending),
//	    statemachine.WithState(Approved, statemachine.OnEnter(notifyCustomer)),
//	    statemachine.WithState[*Order](Rejected),
//	    statemachine.WithEvent(Approve,
//	        statemachine.WithTransition(statemachine.From(Pending), Approved,
//	            statemachine.WithGuard(isReady),
//	        ),
//	    ),
//	    statemachine.WithEvent[*Order](Reject,
//	        statemachine.WithTransition[*Order](statemachine.From(Pending, Approved), Rejected),
//	    ),
//	)
//
//	m := def.NewMachine(order)
//	ok, err := m.Fire(ctx, Approve)
//
// # Firing events
//
// Fire updates the in-memory state only. FireAndPersist also commits the new
// state through the StateWriter and reports false, leaving the state
// unchanged, when the write does not commit. For a transition from S to S'
// hooks run in this order:
//
//	S.exit, E.before, S.before_exit, S'.before_enter, S'.enter,
//	[write], E.success, S.after_exit, S'.after_enter, E.after
//
// The destination is resolved twice: once before any hook to decide the
// same-state skip, and again after the before hooks to commit. Guards and
// destination functions must tolerate that.
//
// A state declared WithSameStateSkip suppresses exit, before_exit,
// before_enter, after_exit and after_enter when an event resolves from it back
// to itself. Its enter hooks and the event hooks still run.
//
// # Errors
//
// Firing an undefined event returns ErrUndefinedEvent before any hook runs.
// An event that matches no transition is not an error: Fire returns false and
// hosts implementing EventFailedNotifier receive *ErrNoTransitionAvailable or
// *ErrTransitionRejected. Errors and panics raised by hooks, guards or
// persistence are wrapped in *TransitionError and passed to the handler set
// with OnError; its return value is returned by Fire. Without a handler the
// error is returned as is. State changes made before the error are not rolled
// back.
//
// # Collaborators
//
// Persistence and notifications are optional capability interfaces:
// StateReader, StateWriter, StateCacher, EventFiredNotifier and
// EventFailedNotifier. They are taken from machine options first, then from
// the host itself. The statestore package binds Redis, PostgreSQL, MongoDB and
// in-memory stores to StateReader and StateWriter.
//
// # Concurrency
//
// Definitions are immutable once built and safe to share. A Machine performs
// no locking; callers must serialize events fired on the same machine.
package statemachine

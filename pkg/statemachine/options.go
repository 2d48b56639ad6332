package statemachine

import (
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// WithState declares a state. States keep their declaration order; the first
// one is the default initial state.
func WithState[T any](state State, opts ...StateOption[T]) Option[T] {
	return func(d *Definition[T]) error {
		if state == nil {
			return ErrInvalidState
		}
		if _, ok := d.stateIndex[state.Name()]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateState, state.Name())
		}

		s := newStateDef(state, opts...)
		d.states = append(d.states, s)
		d.stateIndex[state.Name()] = s
		return nil
	}
}

// WithInitialState sets a literal initial state.
func WithInitialState[T any](state State) Option[T] {
	return func(d *Definition[T]) error {
		if state == nil {
			return ErrInvalidState
		}
		d.initial = state
		d.initialFunc = nil
		return nil
	}
}

// WithInitialStateFunc computes the initial state from the host when a
// machine is first read.
func WithInitialStateFunc[T any](fn InitialStateFunc[T]) Option[T] {
	return func(d *Definition[T]) error {
		if fn == nil {
			return ErrInvalidState
		}
		d.initial = nil
		d.initialFunc = fn
		return nil
	}
}

// WithEvent declares an event with its transitions and hooks.
func WithEvent[T any](event Event, opts ...EventOption[T]) Option[T] {
	return func(d *Definition[T]) error {
		if event == nil {
			return ErrInvalidEvent
		}
		if _, ok := d.eventIndex[event.Name()]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateEvent, event.Name())
		}

		e := newEventDef[T](event)
		for _, opt := range opts {
			opt(e)
		}
		if e.err != nil {
			return e.err
		}

		d.events = append(d.events, e)
		d.eventIndex[event.Name()] = e
		return nil
	}
}

// Rule is one row of a transition table.
type Rule[T any] struct {
	Event  Event
	From   []State
	To     State
	Guards []Guard[T]
}

// WithTransitions adds a table of transitions at once. Rows for the same event
// are appended to it in order; events are created on first use.
func WithTransitions[T any](rules []Rule[T]) Option[T] {
	return func(d *Definition[T]) error {
		for i, r := range rules {
			if r.Event == nil {
				return fmt.Errorf("rule[%d]: %w", i, ErrInvalidEvent)
			}

			e := d.eventFor(r.Event)
			WithTransition(r.From, r.To, WithGuards(r.Guards...))(e)
			if e.err != nil {
				return fmt.Errorf("rule[%d] %s: %w", i, ruleName(r.From, r.To), e.err)
			}
		}
		return nil
	}
}

func ruleName(from []State, to State) string {
	toName := "<nil>"
	if to != nil {
		toName = to.Name()
	}
	names := make([]string, 0, len(from))
	for _, s := range from {
		if s == nil {
			names = append(names, "<nil>")
			continue
		}
		names = append(names, s.Name())
	}
	return fmt.Sprintf("%v->%s", names, toName)
}

// eventFor returns the named event definition, creating it when missing.
func (d *Definition[T]) eventFor(event Event) *EventDef[T] {
	if e, ok := d.eventIndex[event.Name()]; ok {
		return e
	}
	e := newEventDef[T](event)
	d.events = append(d.events, e)
	d.eventIndex[event.Name()] = e
	return e
}

// WithLogger sets the logger used by machines of this definition.
// Nil loggers are ignored.
func WithLogger[T any](l *slog.Logger) Option[T] {
	return func(d *Definition[T]) error {
		if l != nil {
			d.logger = l
		}
		return nil
	}
}

// WithObserver registers an observer notified about every fired event.
func WithObserver[T any](o Observer) Option[T] {
	return func(d *Definition[T]) error {
		if o != nil {
			d.observers = append(d.observers, o)
		}
		return nil
	}
}

// WithLabeler replaces the default humanizer used for display labels.
func WithLabeler[T any](l Labeler) Option[T] {
	return func(d *Definition[T]) error {
		if l != nil {
			d.labeler = l
		}
		return nil
	}
}

// WithTracer sets the tracer used for fire spans. Without it the global
// tracer provider is used.
func WithTracer[T any](t trace.Tracer) Option[T] {
	return func(d *Definition[T]) error {
		d.tracer = t
		return nil
	}
}

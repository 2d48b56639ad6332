package statemachine

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrymomot/statekit/pkg/logger"
)

// Definition is the immutable description of a state machine for host type T:
// its ordered states, its events and the initial-state rule. Build it once with
// New and share it across any number of machines.
type Definition[T any] struct {
	name        string
	initial     State
	initialFunc InitialStateFunc[T]
	states      []*StateDef[T]
	stateIndex  map[string]*StateDef[T]
	events      []*EventDef[T]
	eventIndex  map[string]*EventDef[T]
	logger      *slog.Logger
	observers   []Observer
	labeler     Labeler
	tracer      trace.Tracer
}

// Option configures a definition during construction.
type Option[T any] func(*Definition[T]) error

// New creates a definition with the given name and options and validates it.
func New[T any](name string, opts ...Option[T]) (*Definition[T], error) {
	if name == "" {
		return nil, ErrEmptyMachineName
	}

	d := &Definition[T]{
		name:       name,
		stateIndex: make(map[string]*StateDef[T]),
		eventIndex: make(map[string]*EventDef[T]),
		logger:     logger.Discard(),
		labeler:    Humanizer{},
	}

	if err := d.apply(opts); err != nil {
		return nil, err
	}
	return d, nil
}

// MustNew creates a definition and panics if any option fails or the
// definition is invalid.
func MustNew[T any](name string, opts ...Option[T]) *Definition[T] {
	d, err := New(name, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create state machine %q: %v", name, err))
	}
	return d
}

// Extend returns an independent copy of the definition under a new name with
// the extra options applied. The receiver is left untouched.
func (d *Definition[T]) Extend(name string, opts ...Option[T]) (*Definition[T], error) {
	if name == "" {
		return nil, ErrEmptyMachineName
	}

	c := d.clone()
	c.name = name
	if err := c.apply(opts); err != nil {
		return nil, err
	}
	return c, nil
}

func (d *Definition[T]) apply(opts []Option[T]) error {
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return err
		}
	}
	return d.validate()
}

func (d *Definition[T]) validate() error {
	if len(d.states) == 0 {
		return ErrNoStates
	}

	for _, ev := range d.events {
		for _, t := range ev.transitions {
			for _, from := range t.from {
				if _, ok := d.stateIndex[from.Name()]; !ok {
					return fmt.Errorf("event %s: %w", ev.Name(), undefinedState(from.Name()))
				}
			}
			if t.to != nil {
				if _, ok := d.stateIndex[t.to.Name()]; !ok {
					return fmt.Errorf("event %s: %w", ev.Name(), undefinedState(t.to.Name()))
				}
			}
		}
	}

	if d.initial != nil {
		if _, ok := d.stateIndex[d.initial.Name()]; !ok {
			return fmt.Errorf("initial state: %w", undefinedState(d.initial.Name()))
		}
	}
	return nil
}

func (d *Definition[T]) clone() *Definition[T] {
	c := &Definition[T]{
		name:        d.name,
		initial:     d.initial,
		initialFunc: d.initialFunc,
		states:      make([]*StateDef[T], len(d.states)),
		stateIndex:  make(map[string]*StateDef[T], len(d.states)),
		events:      make([]*EventDef[T], len(d.events)),
		eventIndex:  make(map[string]*EventDef[T], len(d.events)),
		logger:      d.logger,
		observers:   append([]Observer(nil), d.observers...),
		labeler:     d.labeler,
		tracer:      d.tracer,
	}
	for i, s := range d.states {
		c.states[i] = s.clone()
		c.stateIndex[s.Name()] = c.states[i]
	}
	for i, e := range d.events {
		c.events[i] = e.clone()
		c.eventIndex[e.Name()] = c.events[i]
	}
	return c
}

// Name returns the machine name used in logs, metrics and labels.
func (d *Definition[T]) Name() string {
	return d.name
}

// LookupState returns the definition of the named state.
func (d *Definition[T]) LookupState(name string) (*StateDef[T], error) {
	s, ok := d.stateIndex[name]
	if !ok {
		return nil, undefinedState(name)
	}
	return s, nil
}

// LookupEvent returns the definition of the named event.
func (d *Definition[T]) LookupEvent(name string) (*EventDef[T], error) {
	e, ok := d.eventIndex[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUndefinedEvent, name)
	}
	return e, nil
}

// States returns the declared states in declaration order.
func (d *Definition[T]) States() []State {
	out := make([]State, len(d.states))
	for i, s := range d.states {
		out[i] = s.state
	}
	return out
}

// Events returns the declared events in declaration order.
func (d *Definition[T]) Events() []Event {
	out := make([]Event, len(d.events))
	for i, e := range d.events {
		out[i] = e.event
	}
	return out
}

func (d *Definition[T]) StateDefs() []*StateDef[T] {
	return append([]*StateDef[T](nil), d.states...)
}

func (d *Definition[T]) EventDefs() []*EventDef[T] {
	return append([]*EventDef[T](nil), d.events...)
}

// EventsForState returns the events that declare at least one transition from
// state, ignoring guards.
func (d *Definition[T]) EventsForState(state State) []Event {
	var out []Event
	for _, e := range d.events {
		if e.TransitionsFromState(state) {
			out = append(out, e.event)
		}
	}
	return out
}

// StaticInitialState returns the literal initial state, or the first declared
// state when none was configured. The second value is false when the initial
// state is computed per host.
func (d *Definition[T]) StaticInitialState() (State, bool) {
	if d.initialFunc != nil {
		return nil, false
	}
	if d.initial != nil {
		return d.initial, true
	}
	return d.states[0].state, true
}

// InitialState resolves the initial state for host.
func (d *Definition[T]) InitialState(ctx context.Context, host T) (State, error) {
	if d.initialFunc == nil {
		s, _ := d.StaticInitialState()
		return s, nil
	}

	s, err := d.initialFunc(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("resolve initial state: %w", err)
	}
	if s == nil {
		return nil, fmt.Errorf("resolve initial state: %w", ErrInvalidState)
	}
	if _, ok := d.stateIndex[s.Name()]; !ok {
		return nil, undefinedState(s.Name())
	}
	return s, nil
}

// HumanStateName returns the display label of state.
func (d *Definition[T]) HumanStateName(ctx context.Context, state State) string {
	return d.labeler.StateLabel(ctx, d.name, state)
}

// HumanEventName returns the display label of event.
func (d *Definition[T]) HumanEventName(ctx context.Context, event Event) string {
	return d.labeler.EventLabel(ctx, d.name, event)
}

// StatesForSelect returns label/value pairs for every state in declaration
// order, suitable for a select input.
func (d *Definition[T]) StatesForSelect(ctx context.Context) []SelectOption {
	out := make([]SelectOption, len(d.states))
	for i, s := range d.states {
		out[i] = SelectOption{
			Label: d.labeler.StateLabel(ctx, d.name, s.state),
			Value: s.Name(),
		}
	}
	return out
}

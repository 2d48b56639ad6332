package statemachine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrymomot/statekit/pkg/logger"
)

// Machine is the per-host runtime of a Definition. It caches the current state,
// initializes it lazily on first read and runs events through the transition
// orchestrator.
//
// A Machine is not safe for concurrent use. Callers that share one between
// goroutines must serialize access themselves.
type Machine[T any] struct {
	def         *Definition[T]
	host        T
	id          string
	current     State
	initialized bool

	reader StateReader
	writer StateWriter
	cacher StateCacher
	fired  EventFiredNotifier
	failed EventFailedNotifier
}

// MachineOption configures a machine instance.
type MachineOption[T any] func(*Machine[T])

// WithPersister sets the read/write persistence collaborator, overriding any
// implementation provided by the host. If p also implements StateCacher it is
// used as the cache hook too.
func WithPersister[T any](p Persister) MachineOption[T] {
	return func(m *Machine[T]) {
		if p == nil {
			return
		}
		m.reader = p
		m.writer = p
		if c, ok := p.(StateCacher); ok {
			m.cacher = c
		}
	}
}

// WithCacher sets the hook that receives every in-memory state update.
func WithCacher[T any](c StateCacher) MachineOption[T] {
	return func(m *Machine[T]) {
		if c != nil {
			m.cacher = c
		}
	}
}

// WithInstanceID sets the identifier used in logs, traces and observer records.
// A random UUID is used by default.
func WithInstanceID[T any](id string) MachineOption[T] {
	return func(m *Machine[T]) {
		if id != "" {
			m.id = id
		}
	}
}

// WithCurrentState starts the machine in the given state without running any
// hooks or reading persistence.
func WithCurrentState[T any](s State) MachineOption[T] {
	return func(m *Machine[T]) {
		if s != nil {
			m.current = s
			m.initialized = true
		}
	}
}

// NewMachine attaches the definition to host. Persistence and notification
// collaborators are taken from the options first, then from interfaces the
// host implements. Missing collaborators fall back to no-ops: nothing is read
// and every write commits.
func (d *Definition[T]) NewMachine(host T, opts ...MachineOption[T]) *Machine[T] {
	m := &Machine[T]{
		def:  d,
		host: host,
	}

	if r, ok := any(host).(StateReader); ok {
		m.reader = r
	}
	if w, ok := any(host).(StateWriter); ok {
		m.writer = w
	}
	if c, ok := any(host).(StateCacher); ok {
		m.cacher = c
	}
	if n, ok := any(host).(EventFiredNotifier); ok {
		m.fired = n
	}
	if n, ok := any(host).(EventFailedNotifier); ok {
		m.failed = n
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.reader == nil {
		m.reader = nopPersister{}
	}
	if m.writer == nil {
		m.writer = nopPersister{}
	}
	if m.id == "" {
		m.id = uuid.NewString()
	}
	return m
}

type nopPersister struct{}

func (nopPersister) ReadState(context.Context) (string, error) { return "", nil }

func (nopPersister) WriteState(context.Context, string) (bool, error) { return true, nil }

// Host returns the object the machine was attached to.
func (m *Machine[T]) Host() T {
	return m.host
}

// ID returns the instance id used in logs, traces and observer records.
func (m *Machine[T]) ID() string {
	return m.id
}

// Definition returns the shared definition the machine runs.
func (m *Machine[T]) Definition() *Definition[T] {
	return m.def
}

// Current returns the current state. On first call it loads the persisted
// state, or enters the initial state running its before_enter, enter and
// after_enter hooks exactly once.
func (m *Machine[T]) Current(ctx context.Context) (State, error) {
	if m.initialized {
		return m.current, nil
	}
	if err := m.initialize(logger.WithInstanceID(ctx, m.id)); err != nil {
		return nil, err
	}
	return m.current, nil
}

func (m *Machine[T]) initialize(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanicked, r)
		}
	}()

	name, err := m.reader.ReadState(ctx)
	if err != nil {
		return fmt.Errorf("read state: %w", err)
	}
	if name != "" {
		s, err := m.def.LookupState(name)
		if err != nil {
			return err
		}
		// A persisted value is the source of truth, so the cache hook is not called.
		m.current = s.state
		m.initialized = true
		return nil
	}

	initial, err := m.def.InitialState(ctx, m.host)
	if err != nil {
		return err
	}
	s, err := m.def.LookupState(initial.Name())
	if err != nil {
		return err
	}

	if err := s.CallAction(ctx, BeforeEnter, m.host); err != nil {
		return err
	}
	if err := s.CallAction(ctx, Enter, m.host); err != nil {
		return err
	}
	if err := m.setCurrent(ctx, s.state); err != nil {
		return err
	}
	return s.CallAction(ctx, AfterEnter, m.host)
}

func (m *Machine[T]) setCurrent(ctx context.Context, s State) error {
	m.current = s
	m.initialized = true
	if m.cacher == nil {
		return nil
	}
	if err := m.cacher.CacheState(ctx, s.Name()); err != nil {
		return fmt.Errorf("cache state: %w", err)
	}
	return nil
}

// Is reports whether the machine is currently in state s.
func (m *Machine[T]) Is(ctx context.Context, s State) (bool, error) {
	if s == nil {
		return false, ErrInvalidState
	}
	current, err := m.Current(ctx)
	if err != nil {
		return false, err
	}
	return current.Name() == s.Name(), nil
}

// MayFire reports whether firing e with args would take a transition. No hooks
// run and nothing is mutated apart from lazy initialization.
func (m *Machine[T]) MayFire(ctx context.Context, e Event, args ...any) (bool, error) {
	if e == nil {
		return false, ErrInvalidEvent
	}
	ev, err := m.def.LookupEvent(e.Name())
	if err != nil {
		return false, err
	}
	current, err := m.Current(ctx)
	if err != nil {
		return false, err
	}
	return ev.MayFire(ctx, current, m.host, args...)
}

// EventsForCurrentState returns the events declared from the current state,
// ignoring guards.
func (m *Machine[T]) EventsForCurrentState(ctx context.Context) ([]Event, error) {
	current, err := m.Current(ctx)
	if err != nil {
		return nil, err
	}
	return m.def.EventsForState(current), nil
}

// PermissibleEvents returns the events that would take a transition from the
// current state with args, guards applied.
func (m *Machine[T]) PermissibleEvents(ctx context.Context, args ...any) ([]Event, error) {
	current, err := m.Current(ctx)
	if err != nil {
		return nil, err
	}

	var out []Event
	for _, ev := range m.def.events {
		ok, err := ev.MayFire(ctx, current, m.host, args...)
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", ev.Name(), err)
		}
		if ok {
			out = append(out, ev.event)
		}
	}
	return out, nil
}

// HumanState returns the display label of the current state.
func (m *Machine[T]) HumanState(ctx context.Context) (string, error) {
	current, err := m.Current(ctx)
	if err != nil {
		return "", err
	}
	return m.def.HumanStateName(ctx, current), nil
}

// Fire runs event e and updates only the in-memory state. It reports false
// when no transition was taken. Errors raised by hooks, guards or the cache
// hook are passed to the event's error handler; without one they are returned
// as *TransitionError.
func (m *Machine[T]) Fire(ctx context.Context, e Event, args ...any) (bool, error) {
	return m.fire(ctx, e, false, args)
}

// FireAndPersist runs event e and commits the new state through the write
// hook. It reports false, leaving the state unchanged, when the write does
// not commit.
func (m *Machine[T]) FireAndPersist(ctx context.Context, e Event, args ...any) (bool, error) {
	return m.fire(ctx, e, true, args)
}

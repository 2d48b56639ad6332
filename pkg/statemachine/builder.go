package statemachine

// Builder provides a fluent API for building definitions.
type Builder[T any] struct {
	name string
	opts []Option[T]

	currentFrom  []State
	currentEvent Event
	currentTo    State
	currentDest  DestinationFunc[T]
	guards       []Guard[T]
}

// NewBuilder creates a new definition builder.
func NewBuilder[T any](name string) *Builder[T] {
	return &Builder[T]{name: name}
}

// State declares a state. Declaration order is preserved.
func (b *Builder[T]) State(state State, opts ...StateOption[T]) *Builder[T] {
	b.opts = append(b.opts, WithState(state, opts...))
	return b
}

func (b *Builder[T]) InitialState(state State) *Builder[T] {
	b.opts = append(b.opts, WithInitialState[T](state))
	return b
}

// Event attaches hooks to an event, creating it when it was not used yet.
func (b *Builder[T]) Event(event Event, opts ...EventOption[T]) *Builder[T] {
	b.opts = append(b.opts, func(d *Definition[T]) error {
		if event == nil {
			return ErrInvalidEvent
		}
		e := d.eventFor(event)
		for _, opt := range opts {
			opt(e)
		}
		return e.err
	})
	return b
}

// With appends arbitrary definition options.
func (b *Builder[T]) With(opts ...Option[T]) *Builder[T] {
	b.opts = append(b.opts, opts...)
	return b
}

// From sets the source states for a transition.
func (b *Builder[T]) From(states ...State) *Builder[T] {
	b.reset()
	b.currentFrom = states
	return b
}

// When sets the event that triggers a transition.
func (b *Builder[T]) When(event Event) *Builder[T] {
	b.currentEvent = event
	return b
}

// To sets the target state for a transition.
func (b *Builder[T]) To(state State) *Builder[T] {
	b.currentTo = state
	b.currentDest = nil
	return b
}

// ToFunc computes the target state when the event fires.
func (b *Builder[T]) ToFunc(fn DestinationFunc[T]) *Builder[T] {
	b.currentDest = fn
	b.currentTo = nil
	return b
}

// WithGuard adds a guard function to the current transition.
func (b *Builder[T]) WithGuard(guard Guard[T]) *Builder[T] {
	b.guards = append(b.guards, guard)
	return b
}

// Add finalizes the current transition.
func (b *Builder[T]) Add() (*Builder[T], error) {
	if b.currentEvent == nil {
		return b, ErrInvalidEvent
	}
	if len(b.currentFrom) == 0 || (b.currentTo == nil && b.currentDest == nil) {
		return b, ErrInvalidTransition
	}

	var opt EventOption[T]
	if b.currentDest != nil {
		opt = WithDynamicTransition(b.currentFrom, b.currentDest, WithGuards(b.guards...))
	} else {
		opt = WithTransition(b.currentFrom, b.currentTo, WithGuards(b.guards...))
	}
	b.Event(b.currentEvent, opt)
	b.reset()
	return b, nil
}

// Build validates and returns the definition.
func (b *Builder[T]) Build() (*Definition[T], error) {
	return New(b.name, b.opts...)
}

// MustBuild is like Build but panics on error.
func (b *Builder[T]) MustBuild() *Definition[T] {
	return MustNew(b.name, b.opts...)
}

// reset clears the current transition configuration.
func (b *Builder[T]) reset() {
	b.currentFrom = nil
	b.currentEvent = nil
	b.currentTo = nil
	b.currentDest = nil
	b.guards = nil
}

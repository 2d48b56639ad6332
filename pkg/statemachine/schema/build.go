package schema

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrymomot/statekit/pkg/statemachine"
	"github.com/dmitrymomot/statekit/pkg/statemachine/labels"
)

// ErrCallbacksIgnored is returned by the placeholder guards and destinations
// of a definition built with IgnoreCallbacks.
var ErrCallbacksIgnored = errors.New("schema: callbacks ignored")

type buildConfig[T any] struct {
	registry *Registry[T]
	ignore   bool
	extra    []statemachine.Option[T]
}

// BuildOption configures Build.
type BuildOption[T any] func(*buildConfig[T])

// WithRegistry resolves callback names through r before host methods.
func WithRegistry[T any](r *Registry[T]) BuildOption[T] {
	return func(c *buildConfig[T]) {
		if r != nil {
			c.registry = r
		}
	}
}

// IgnoreCallbacks builds a definition for inspection only: hooks and error
// handlers are dropped, guards and dynamic destinations become placeholders
// that fail with ErrCallbacksIgnored. Useful for validation and diagrams.
func IgnoreCallbacks[T any]() BuildOption[T] {
	return func(c *buildConfig[T]) {
		c.ignore = true
	}
}

// WithOptions appends definition options such as a logger or observers.
func WithOptions[T any](opts ...statemachine.Option[T]) BuildOption[T] {
	return func(c *buildConfig[T]) {
		c.extra = append(c.extra, opts...)
	}
}

// Build validates doc and turns it into a definition for host type T.
func Build[T any](doc *Document, opts ...BuildOption[T]) (*statemachine.Definition[T], error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	cfg := buildConfig[T]{registry: NewRegistry[T]()}
	for _, opt := range opts {
		opt(&cfg)
	}
	b := builder[T]{cfg: cfg}

	var defOpts []statemachine.Option[T]
	for _, s := range doc.States {
		opt, err := b.state(s)
		if err != nil {
			return nil, fmt.Errorf("state %q: %w", s.Name, err)
		}
		defOpts = append(defOpts, opt)
	}

	switch {
	case doc.Initial != "":
		defOpts = append(defOpts, statemachine.WithInitialState[T](statemachine.StringState(doc.Initial)))
	case doc.InitialFunc != "" && !cfg.ignore:
		fn, err := cfg.registry.initial(doc.InitialFunc)
		if err != nil {
			return nil, fmt.Errorf("initial_func: %w", err)
		}
		defOpts = append(defOpts, statemachine.WithInitialStateFunc(fn))
	}

	for _, e := range doc.Events {
		opt, err := b.event(e)
		if err != nil {
			return nil, fmt.Errorf("event %q: %w", e.Name, err)
		}
		defOpts = append(defOpts, opt)
	}

	if len(doc.Labels.States) > 0 || len(doc.Labels.Events) > 0 {
		defOpts = append(defOpts, statemachine.WithLabeler[T](doc.catalog()))
	}

	return statemachine.New(doc.Name, append(defOpts, cfg.extra...)...)
}

// MustBuild is like Build but panics on error.
func MustBuild[T any](doc *Document, opts ...BuildOption[T]) *statemachine.Definition[T] {
	def, err := Build(doc, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to build state machine %q: %v", doc.Name, err))
	}
	return def
}

func (d *Document) catalog() *labels.Catalog {
	cat := labels.New()
	lang := cat.DefaultLanguageName()
	for name, label := range d.Labels.States {
		cat.Set(lang, labels.StateKey(d.Name, name), label)
	}
	for name, label := range d.Labels.Events {
		cat.Set(lang, labels.EventKey(d.Name, name), label)
	}
	return cat
}

type builder[T any] struct {
	cfg buildConfig[T]
}

func (b builder[T]) hooks(names []string) ([]statemachine.Hook[T], error) {
	if b.cfg.ignore {
		return nil, nil
	}
	out := make([]statemachine.Hook[T], 0, len(names))
	for _, n := range names {
		h, err := b.cfg.registry.hook(n)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

func (b builder[T]) state(s State) (statemachine.Option[T], error) {
	var opts []statemachine.StateOption[T]
	if s.SameStateSkip {
		opts = append(opts, statemachine.WithSameStateSkip[T]())
	}
	// Iterate kinds in declaration order so hook registration is deterministic.
	for _, kind := range statemachine.HookKinds {
		names, ok := s.Hooks[string(kind)]
		if !ok {
			continue
		}
		hooks, err := b.hooks(names)
		if err != nil {
			return nil, fmt.Errorf("%s hook: %w", kind, err)
		}
		if len(hooks) > 0 {
			opts = append(opts, statemachine.OnHook(kind, hooks...))
		}
	}
	return statemachine.WithState(statemachine.StringState(s.Name), opts...), nil
}

func (b builder[T]) event(e Event) (statemachine.Option[T], error) {
	var opts []statemachine.EventOption[T]

	for i, t := range e.Transitions {
		opt, err := b.transition(t)
		if err != nil {
			return nil, fmt.Errorf("transitions[%d]: %w", i, err)
		}
		opts = append(opts, opt)
	}

	before, err := b.hooks(e.Before)
	if err != nil {
		return nil, fmt.Errorf("before: %w", err)
	}
	if len(before) > 0 {
		opts = append(opts, statemachine.OnBefore(before...))
	}

	after, err := b.hooks(e.After)
	if err != nil {
		return nil, fmt.Errorf("after: %w", err)
	}
	if len(after) > 0 {
		opts = append(opts, statemachine.OnAfter(after...))
	}

	if e.Success != "" && !b.cfg.ignore {
		h, err := b.cfg.registry.hook(e.Success)
		if err != nil {
			return nil, fmt.Errorf("success: %w", err)
		}
		opts = append(opts, statemachine.OnSuccess(h))
	}

	if e.Error != "" && !b.cfg.ignore {
		h, err := b.cfg.registry.errorHandler(e.Error)
		if err != nil {
			return nil, fmt.Errorf("error: %w", err)
		}
		opts = append(opts, statemachine.OnError(h))
	}

	return statemachine.WithEvent(statemachine.StringEvent(e.Name), opts...), nil
}

func (b builder[T]) transition(t Transition) (statemachine.EventOption[T], error) {
	from := make([]statemachine.State, len(t.From))
	for i, f := range t.From {
		from[i] = statemachine.StringState(f)
	}

	guards := make([]statemachine.Guard[T], 0, len(t.Guards))
	for _, n := range t.Guards {
		if b.cfg.ignore {
			guards = append(guards, ignoredGuard[T])
			continue
		}
		g, err := b.cfg.registry.guard(n)
		if err != nil {
			return nil, fmt.Errorf("guard: %w", err)
		}
		guards = append(guards, g)
	}
	gopt := statemachine.WithGuards(guards...)

	if t.ToFunc == "" {
		return statemachine.WithTransition(from, statemachine.StringState(t.To), gopt), nil
	}

	if b.cfg.ignore {
		return statemachine.WithDynamicTransition(from, ignoredDestination[T], gopt), nil
	}
	dest, err := b.cfg.registry.destination(t.ToFunc)
	if err != nil {
		return nil, fmt.Errorf("to_func: %w", err)
	}
	return statemachine.WithDynamicTransition(from, dest, gopt), nil
}

func ignoredGuard[T any](context.Context, T, ...any) (bool, error) {
	return false, ErrCallbacksIgnored
}

func ignoredDestination[T any](context.Context, T, ...any) (statemachine.State, error) {
	return nil, ErrCallbacksIgnored
}

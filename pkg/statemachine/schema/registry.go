package schema

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/statekit/pkg/statemachine"
)

// Registry maps callback names used in documents to functions. Names that are
// not registered are looked up as methods of T.
type Registry[T any] struct {
	hooks        map[string]statemachine.Hook[T]
	guards       map[string]statemachine.Guard[T]
	destinations map[string]statemachine.DestinationFunc[T]
	initials     map[string]statemachine.InitialStateFunc[T]
	errHandlers  map[string]statemachine.ErrorHandler[T]
}

func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{
		hooks:        make(map[string]statemachine.Hook[T]),
		guards:       make(map[string]statemachine.Guard[T]),
		destinations: make(map[string]statemachine.DestinationFunc[T]),
		initials:     make(map[string]statemachine.InitialStateFunc[T]),
		errHandlers:  make(map[string]statemachine.ErrorHandler[T]),
	}
}

func (r *Registry[T]) Hook(name string, fn statemachine.Hook[T]) *Registry[T] {
	r.hooks[name] = fn
	return r
}

func (r *Registry[T]) Guard(name string, fn statemachine.Guard[T]) *Registry[T] {
	r.guards[name] = fn
	return r
}

func (r *Registry[T]) Destination(name string, fn statemachine.DestinationFunc[T]) *Registry[T] {
	r.destinations[name] = fn
	return r
}

func (r *Registry[T]) InitialState(name string, fn statemachine.InitialStateFunc[T]) *Registry[T] {
	r.initials[name] = fn
	return r
}

func (r *Registry[T]) ErrorHandler(name string, fn statemachine.ErrorHandler[T]) *Registry[T] {
	r.errHandlers[name] = fn
	return r
}

func (r *Registry[T]) hook(name string) (statemachine.Hook[T], error) {
	if fn, ok := r.hooks[name]; ok {
		return fn, nil
	}
	return statemachine.Method[T](name)
}

func (r *Registry[T]) guard(name string) (statemachine.Guard[T], error) {
	if fn, ok := r.guards[name]; ok {
		return fn, nil
	}
	return statemachine.MethodGuard[T](name)
}

func (r *Registry[T]) destination(name string) (statemachine.DestinationFunc[T], error) {
	if fn, ok := r.destinations[name]; ok {
		return fn, nil
	}
	return statemachine.MethodDestination[T](name)
}

func (r *Registry[T]) initial(name string) (statemachine.InitialStateFunc[T], error) {
	if fn, ok := r.initials[name]; ok {
		return fn, nil
	}
	dest, err := statemachine.MethodDestination[T](name)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, host T) (statemachine.State, error) {
		return dest(ctx, host)
	}, nil
}

// errorHandler has no method fallback: handlers take the raised error, which
// host methods bound by name cannot receive.
func (r *Registry[T]) errorHandler(name string) (statemachine.ErrorHandler[T], error) {
	if fn, ok := r.errHandlers[name]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("%w: error handler %q is not registered", statemachine.ErrMethodNotFound, name)
}

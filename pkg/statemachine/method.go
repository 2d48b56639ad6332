package statemachine

import (
	"context"
	"fmt"
	"reflect"
)

var (
	contextType = reflect.TypeFor[context.Context]()
	errorType   = reflect.TypeFor[error]()
	stateType   = reflect.TypeFor[State]()
	argsType    = reflect.TypeFor[[]any]()
)

// methodCall invokes a named host method. Accepted parameter lists are
// (), (ctx), (args ...any) and (ctx, args ...any).
type methodCall struct {
	name     string
	withCtx  bool
	withArgs bool
	out      []reflect.Type
}

func lookupMethod[T any](name string) (methodCall, error) {
	typ := reflect.TypeFor[T]()
	m, ok := typ.MethodByName(name)
	if !ok {
		return methodCall{}, fmt.Errorf("%w: %s.%s", ErrMethodNotFound, typ, name)
	}

	ft := m.Type
	offset := 1
	if typ.Kind() == reflect.Interface {
		offset = 0
	}

	call := methodCall{name: name}
	in := make([]reflect.Type, 0, ft.NumIn())
	for i := offset; i < ft.NumIn(); i++ {
		in = append(in, ft.In(i))
	}

	if len(in) > 0 && in[0] == contextType {
		call.withCtx = true
		in = in[1:]
	}
	switch {
	case len(in) == 0:
	case len(in) == 1 && ft.IsVariadic() && in[0] == argsType:
		call.withArgs = true
	default:
		return methodCall{}, fmt.Errorf("%w: %s.%s has parameters %v", ErrMethodSignature, typ, name, in)
	}

	for i := 0; i < ft.NumOut(); i++ {
		call.out = append(call.out, ft.Out(i))
	}
	return call, nil
}

func (c methodCall) invoke(ctx context.Context, host any, args []any) ([]reflect.Value, error) {
	hv := reflect.ValueOf(host)
	if !hv.IsValid() {
		return nil, fmt.Errorf("%w: %s called on nil host", ErrMethodNotFound, c.name)
	}
	fn := hv.MethodByName(c.name)
	if !fn.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrMethodNotFound, c.name)
	}

	in := make([]reflect.Value, 0, 2)
	if c.withCtx {
		in = append(in, reflect.ValueOf(&ctx).Elem())
	}
	if c.withArgs {
		in = append(in, reflect.ValueOf(args))
		return fn.CallSlice(in), nil
	}
	return fn.Call(in), nil
}

func resultError(v reflect.Value) error {
	err, _ := v.Interface().(error)
	return err
}

// Method binds the named method of T as a hook. The method may return nothing
// or an error.
func Method[T any](name string) (Hook[T], error) {
	call, err := lookupMethod[T](name)
	if err != nil {
		return nil, err
	}
	switch {
	case len(call.out) == 0:
	case len(call.out) == 1 && call.out[0] == errorType:
	default:
		return nil, fmt.Errorf("%w: hook %s must return nothing or error", ErrMethodSignature, name)
	}

	return func(ctx context.Context, host T, args ...any) error {
		out, err := call.invoke(ctx, host, args)
		if err != nil {
			return err
		}
		if len(out) == 1 {
			return resultError(out[0])
		}
		return nil
	}, nil
}

// MustMethod is like Method but panics when the method cannot be bound.
func MustMethod[T any](name string) Hook[T] {
	h, err := Method[T](name)
	if err != nil {
		panic(err)
	}
	return h
}

// MethodGuard binds the named method of T as a guard. The method must return
// bool or (bool, error).
func MethodGuard[T any](name string) (Guard[T], error) {
	call, err := lookupMethod[T](name)
	if err != nil {
		return nil, err
	}
	boolType := reflect.TypeFor[bool]()
	switch {
	case len(call.out) == 1 && call.out[0] == boolType:
	case len(call.out) == 2 && call.out[0] == boolType && call.out[1] == errorType:
	default:
		return nil, fmt.Errorf("%w: guard %s must return bool or (bool, error)", ErrMethodSignature, name)
	}

	return func(ctx context.Context, host T, args ...any) (bool, error) {
		out, err := call.invoke(ctx, host, args)
		if err != nil {
			return false, err
		}
		if len(out) == 2 {
			if err := resultError(out[1]); err != nil {
				return false, err
			}
		}
		return out[0].Bool(), nil
	}, nil
}

func MustMethodGuard[T any](name string) Guard[T] {
	g, err := MethodGuard[T](name)
	if err != nil {
		panic(err)
	}
	return g
}

// MethodDestination binds the named method of T as a destination function.
// The method must return a State or a string, optionally followed by an error.
func MethodDestination[T any](name string) (DestinationFunc[T], error) {
	call, err := lookupMethod[T](name)
	if err != nil {
		return nil, err
	}

	valid := func(t reflect.Type) bool {
		return t.Implements(stateType) || t.Kind() == reflect.String
	}
	switch {
	case len(call.out) == 1 && valid(call.out[0]):
	case len(call.out) == 2 && valid(call.out[0]) && call.out[1] == errorType:
	default:
		return nil, fmt.Errorf("%w: destination %s must return State or string", ErrMethodSignature, name)
	}

	return func(ctx context.Context, host T, args ...any) (State, error) {
		out, err := call.invoke(ctx, host, args)
		if err != nil {
			return nil, err
		}
		if len(out) == 2 {
			if err := resultError(out[1]); err != nil {
				return nil, err
			}
		}
		if s, ok := out[0].Interface().(State); ok {
			return s, nil
		}
		if out[0].Kind() == reflect.String {
			return StringState(out[0].String()), nil
		}
		return nil, nil
	}, nil
}

func MustMethodDestination[T any](name string) DestinationFunc[T] {
	fn, err := MethodDestination[T](name)
	if err != nil {
		panic(err)
	}
	return fn
}

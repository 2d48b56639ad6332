package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/dmitrymomot/statekit/pkg/logger"
	"github.com/dmitrymomot/statekit/pkg/statemachine"
	"github.com/dmitrymomot/statekit/pkg/statemachine/schema"
)

var (
	errNoDestination = errors.New("no destination given for dynamic transition")
	errNoInitial     = errors.New("document computes its initial state; store one with 'state set' first")
)

// operator stands in for the application host when events are fired from the
// command line. Hooks are logged, guards pass unless denied, and dynamic
// destinations come from flags.
type operator struct {
	log   *slog.Logger
	deny  []string
	dests map[string]string
}

// registry binds every callback name referenced by doc to the operator.
func (o *operator) registry(doc *schema.Document) *schema.Registry[*operator] {
	r := schema.NewRegistry[*operator]()

	hook := func(name string) statemachine.Hook[*operator] {
		return func(ctx context.Context, op *operator, _ ...any) error {
			op.log.DebugContext(ctx, "hook skipped", slog.String("hook", name))
			return nil
		}
	}

	for _, s := range doc.States {
		for _, names := range s.Hooks {
			for _, n := range names {
				r.Hook(n, hook(n))
			}
		}
	}

	for _, e := range doc.Events {
		for _, n := range slices.Concat(e.Before, e.After) {
			r.Hook(n, hook(n))
		}
		if e.Success != "" {
			r.Hook(e.Success, hook(e.Success))
		}
		if e.Error != "" {
			r.ErrorHandler(e.Error, func(ctx context.Context, op *operator, err error) error {
				op.log.WarnContext(ctx, "error handler skipped", slog.String("handler", e.Error), logger.Error(err))
				return err
			})
		}

		for _, t := range e.Transitions {
			for _, g := range t.Guards {
				r.Guard(g, func(_ context.Context, op *operator, _ ...any) (bool, error) {
					return !slices.Contains(op.deny, g), nil
				})
			}
			if t.ToFunc != "" {
				r.Destination(t.ToFunc, func(_ context.Context, op *operator, _ ...any) (statemachine.State, error) {
					to, ok := op.dests[t.ToFunc]
					if !ok {
						return nil, fmt.Errorf("%w: pass --dest %s=<state>", errNoDestination, t.ToFunc)
					}
					return statemachine.StringState(to), nil
				})
			}
		}
	}

	if doc.InitialFunc != "" {
		r.InitialState(doc.InitialFunc, func(context.Context, *operator) (statemachine.State, error) {
			return nil, errNoInitial
		})
	}
	return r
}

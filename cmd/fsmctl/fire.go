package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/statekit/internal/stores"
	"github.com/dmitrymomot/statekit/pkg/logger"
	"github.com/dmitrymomot/statekit/pkg/statemachine"
	"github.com/dmitrymomot/statekit/pkg/statemachine/observers"
	"github.com/dmitrymomot/statekit/pkg/statemachine/schema"
	"github.com/dmitrymomot/statekit/pkg/statestore"
)

func newFireCmd(a *app) *cobra.Command {
	var (
		instance string
		event    string
		persist  bool
		op       operator
	)

	cmd := &cobra.Command{
		Use:   "fire <file>",
		Short: "Fire an event against a stored instance",
		Long: `Loads the instance state from the store and fires the event. Without --persist
the resulting state is printed but not written back.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logger.WithInstanceID(cmd.Context(), instance)
			op.log = a.log

			doc, err := schema.ParseFile(args[0])
			if err != nil {
				return err
			}
			def, err := schema.Build(doc,
				schema.WithRegistry(op.registry(doc)),
				schema.WithOptions(
					statemachine.WithLogger[*operator](a.log),
					statemachine.WithObserver[*operator](observers.NewLogging(a.log)),
				),
			)
			if err != nil {
				return err
			}
			if _, err := def.LookupEvent(event); err != nil {
				return err
			}

			return a.withBackend(ctx, func(b *stores.Backend) error {
				key := statestore.Key{Machine: def.Name(), ID: instance}
				m := def.NewMachine(&op,
					statemachine.WithInstanceID[*operator](instance),
					statemachine.WithPersister[*operator](statestore.Bind(b.Store, key, statestore.WithLogger(a.log))),
				)

				from, err := m.Current(ctx)
				if err != nil {
					return err
				}

				fire := m.Fire
				if persist {
					fire = m.FireAndPersist
				}
				fired, err := fire(ctx, statemachine.StringEvent(event))
				if err != nil {
					return err
				}

				to, err := m.Current(ctx)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				switch {
				case !fired:
					fmt.Fprintf(out, "%s: %s not fired in state %s\n", key, event, from.Name())
				case persist:
					fmt.Fprintf(out, "%s: %s -> %s\n", key, from.Name(), to.Name())
				default:
					fmt.Fprintf(out, "%s: %s -> %s (not persisted)\n", key, from.Name(), to.Name())
				}
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&instance, "id", "", "Instance id")
	f.StringVar(&event, "event", "", "Event to fire")
	f.BoolVar(&persist, "persist", false, "Write the new state back to the store")
	f.StringSliceVar(&op.deny, "deny", nil, "Guards that should fail")
	f.StringToStringVar(&op.dests, "dest", nil, "Destinations for dynamic transitions, as name=state")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("event")
	return cmd
}

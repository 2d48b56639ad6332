package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/statekit/internal/stores"
	"github.com/dmitrymomot/statekit/pkg/statestore"
)

func newStateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Read and manage persisted instance states",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "get <machine> <id>",
			Short: "Print the stored state of an instance",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				key := statestore.Key{Machine: args[0], ID: args[1]}
				return a.withBackend(ctx, func(b *stores.Backend) error {
					state, err := b.Store.Load(ctx, key)
					if errors.Is(err, statestore.ErrNotFound) {
						return fmt.Errorf("%s: %w", key, err)
					}
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), state)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "set <machine> <id> <state>",
			Short: "Overwrite the stored state without running hooks",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				key := statestore.Key{Machine: args[0], ID: args[1]}
				return a.withBackend(ctx, func(b *stores.Backend) error {
					return b.Store.Save(ctx, key, args[2])
				})
			},
		},
		&cobra.Command{
			Use:   "delete <machine> <id>",
			Short: "Remove the stored state of an instance",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				key := statestore.Key{Machine: args[0], ID: args[1]}
				return a.withBackend(ctx, func(b *stores.Backend) error {
					return b.Store.Delete(ctx, key)
				})
			},
		},
		&cobra.Command{
			Use:   "list <machine>",
			Short: "List instance ids stored for a machine",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				return a.withBackend(ctx, func(b *stores.Backend) error {
					ids, err := b.Store.List(ctx, args[0])
					if err != nil {
						return err
					}
					for _, id := range ids {
						fmt.Fprintln(cmd.OutOrStdout(), id)
					}
					return nil
				})
			},
		},
	)
	return cmd
}

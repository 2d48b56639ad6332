package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/statekit/internal/config"
	"github.com/dmitrymomot/statekit/internal/stores"
)

// app carries what commands share after the root pre-run.
type app struct {
	cfg  config.Config
	log  *slog.Logger
	open func(ctx context.Context, cfg config.Config, log *slog.Logger) (*stores.Backend, error)
}

func newRootCmd(a *app) *cobra.Command {
	var envFiles []string

	root := &cobra.Command{
		Use:           "fsmctl",
		Short:         "fsmctl works with declarative state machines",
		Long:          `fsmctl validates and renders state machine documents and fires events against instances kept in a state store.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if len(envFiles) > 0 {
				if err := config.LoadEnv(envFiles...); err != nil {
					return err
				}
			}
			if err := config.Load(&a.cfg); err != nil {
				return err
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			if a.log == nil {
				a.log = a.cfg.Logger()
			}
			return nil
		},
	}

	root.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "Load environment variables from these .env files")

	root.AddCommand(
		newValidateCmd(a),
		newGraphCmd(a),
		newStateCmd(a),
		newFireCmd(a),
	)
	return root
}

// Execute runs the command tree and exits non-zero on failure.
func Execute() {
	a := &app{open: stores.Open}
	if err := newRootCmd(a).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// withBackend opens the configured store, runs fn and closes the store.
func (a *app) withBackend(ctx context.Context, fn func(*stores.Backend) error) error {
	b, err := a.open(ctx, a.cfg, a.log)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", a.cfg.Store, err)
	}
	defer func() {
		if err := b.Close(ctx); err != nil {
			a.log.WarnContext(ctx, "failed to close state store", "error", err)
		}
	}()
	return fn(b)
}

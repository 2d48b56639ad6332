package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/statekit/internal/stores"
	"github.com/dmitrymomot/statekit/pkg/statemachine/schema"
	"github.com/dmitrymomot/statekit/pkg/statemachine/visualizer"
	"github.com/dmitrymomot/statekit/pkg/statestore"
)

func newGraphCmd(a *app) *cobra.Command {
	var (
		opts     = visualizer.DefaultOptions()
		noGuards bool
		instance string
	)

	cmd := &cobra.Command{
		Use:   "graph <file>",
		Short: "Export the machine as a Mermaid state diagram",
		Long:  `Renders the document as a Mermaid stateDiagram-v2. With --id the stored state of that instance is highlighted.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			doc, err := schema.ParseFile(args[0])
			if err != nil {
				return err
			}
			def, err := schema.Build(doc, schema.IgnoreCallbacks[*operator]())
			if err != nil {
				return err
			}

			opts.ShowGuards = !noGuards
			if instance != "" {
				err := a.withBackend(ctx, func(b *stores.Backend) error {
					state, err := b.Store.Load(ctx, statestore.Key{Machine: def.Name(), ID: instance})
					if err != nil {
						return err
					}
					opts.Highlight = state
					return nil
				})
				if err != nil {
					return err
				}
			}

			out, err := visualizer.MermaidWithOptions(ctx, def, opts)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Direction, "direction", opts.Direction, "Diagram direction: TB or LR")
	f.StringVar(&opts.Highlight, "highlight", "", "State to highlight")
	f.StringVar(&instance, "id", "", "Highlight the stored state of this instance")
	f.BoolVar(&opts.Fenced, "fenced", false, "Wrap the diagram in a mermaid code fence")
	f.BoolVar(&opts.ShowLabels, "labels", false, "Describe states with their display labels")
	f.BoolVar(&noGuards, "no-guards", false, "Do not mark guarded transitions")
	return cmd
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/statekit/pkg/statemachine/schema"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a state machine document for consistency",
		Long:  `Parses the document, reports every structural problem and builds the definition with callbacks ignored.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := schema.ParseFile(args[0])
			if err != nil {
				return err
			}
			def, err := schema.Build(doc, schema.IgnoreCallbacks[*operator]())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is valid: %d states, %d events\n",
				def.Name(), len(def.States()), len(def.Events()))
			return nil
		},
	}
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRollbackCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rollback <execution-id>",
		Short: "Restore every file backed up for an execution, undoing it regardless of undo/redo cursor position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap(flags)
			if err != nil {
				return err
			}
			defer app.Close()

			restored, err := app.engine.RollbackExecution(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("restored %d file(s):\n", len(restored))
			for _, path := range restored {
				fmt.Printf("  %s\n", path)
			}
			return nil
		},
	}
	return cmd
}

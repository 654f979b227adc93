package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relaydev/execcore/pkg/execerr"
)

func newUndoCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "undo",
		Short: "Reverse the most recent undoable action in this session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap(flags)
			if err != nil {
				return err
			}
			defer app.Close()

			action, err := app.ctx.ActionLog.Undo()
			if err != nil {
				return execerr.Wrap(err, execerr.CodeInvalidArgument, "undo")
			}
			fmt.Printf("undid %s: %s\n", action.Command, action.Description)
			return nil
		},
	}
	return cmd
}

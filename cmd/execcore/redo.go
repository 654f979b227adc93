package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relaydev/execcore/pkg/execerr"
)

func newRedoCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "redo",
		Short: "Replay the most recently undone action in this session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap(flags)
			if err != nil {
				return err
			}
			defer app.Close()

			action, err := app.ctx.ActionLog.Redo()
			if err != nil {
				return execerr.Wrap(err, execerr.CodeInvalidArgument, "redo")
			}
			fmt.Printf("redid %s: %s\n", action.Command, action.Description)
			return nil
		},
	}
	return cmd
}

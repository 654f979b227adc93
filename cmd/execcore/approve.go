package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relaydev/execcore/pkg/approval"
	"github.com/relaydev/execcore/pkg/policystore"
)

// alwaysApproveBackend stands in for the operator who already approved
// pending out of band; re-dispatch must not ask a second time.
type alwaysApproveBackend struct{}

func (alwaysApproveBackend) Prompt(context.Context, approval.ApprovalRequest) (bool, error) {
	return true, nil
}

func newApproveCmd(flags *globalFlags) *cobra.Command {
	var deny bool
	var decidedBy string
	var reason string

	cmd := &cobra.Command{
		Use:   "approve <pending-approval-id>",
		Short: "Resolve a pending approval left by a previous non-interactive run, re-dispatching the command on approval",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap(flags)
			if err != nil {
				return err
			}
			defer app.Close()

			pending, err := app.policies.GetPendingApproval(args[0])
			if err != nil {
				return fmt.Errorf("execcore: look up pending approval: %w", err)
			}
			if pending == nil {
				return fmt.Errorf("execcore: no pending approval %q", args[0])
			}
			if pending.Status != policystore.StatusPending {
				return fmt.Errorf("execcore: pending approval %q is already %s", args[0], pending.Status)
			}

			if deny {
				if err := app.policies.ResolvePendingApproval(args[0], policystore.StatusDenied, decidedBy, reason); err != nil {
					return err
				}
				fmt.Printf("denied %s\n", args[0])
				return nil
			}

			if err := app.policies.ResolvePendingApproval(args[0], policystore.StatusApproved, decidedBy, reason); err != nil {
				return err
			}

			app.ctx.Ctx = cmd.Context()
			app.ctx.WorkspacePath = pending.Workspace
			app.engine.Approval = approval.NewManager(true, true)
			app.engine.Approval.SetBackend(alwaysApproveBackend{})
			result, err := app.engine.ExecuteCommand(cmd.Context(), pending.CommandName, json.RawMessage(pending.CommandArgs), app.ctx)
			if err != nil {
				return err
			}
			fmt.Printf("execution_id: %s\n", result.ExecutionID)
			if !result.Success {
				return classifyRunFailure(result.Error)
			}
			fmt.Println(result.Output)
			return nil
		},
	}

	cmd.Flags().BoolVar(&deny, "deny", false, "deny instead of approve")
	cmd.Flags().StringVar(&decidedBy, "decided-by", "operator", "identity recorded as the decision maker")
	cmd.Flags().StringVar(&reason, "reason", "", "free-text reason recorded with the decision")
	return cmd
}

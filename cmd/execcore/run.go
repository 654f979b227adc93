package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/relaydev/execcore/pkg/execerr"
	"github.com/relaydev/execcore/pkg/execution"
	"github.com/relaydev/execcore/pkg/policystore"
)

func newRunCmd(flags *globalFlags) *cobra.Command {
	var argsJSON string
	var preview bool
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run <command> [--args '<json>']",
		Short: "Execute a registered command through the sandboxed pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap(flags)
			if err != nil {
				return err
			}
			defer app.Close()

			app.ctx.Ctx = cmd.Context()
			app.ctx.PreviewOnly = preview
			app.ctx.DryRun = dryRun

			if argsJSON == "" {
				argsJSON = "{}"
			}
			result, err := app.engine.ExecuteCommand(cmd.Context(), args[0], json.RawMessage(argsJSON), app.ctx)
			if err != nil {
				return execerr.Wrap(err, execerr.CodeExecutionFailed, "run command")
			}

			fmt.Printf("execution_id: %s\n", result.ExecutionID)
			if !result.Success {
				fmt.Printf("failed: %s\n", result.Error)
				if strings.Contains(result.Error, "approval") && !flags.interactive {
					pendingID := recordPendingApproval(app, args[0], argsJSON, result)
					fmt.Printf("recorded pending approval %s; resolve with `execcore approve %s`\n", pendingID, pendingID)
				}
				return classifyRunFailure(result.Error)
			}
			fmt.Println(result.Output)
			return nil
		},
	}

	cmd.Flags().StringVar(&argsJSON, "args", "", "JSON-encoded command arguments")
	cmd.Flags().BoolVar(&preview, "preview", false, "describe the effect without executing")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "alias for --preview, applied to every command whatever its descriptor's SupportsDryRun says")
	return cmd
}

// recordPendingApproval persists the denied invocation so an operator can
// resolve it later with `execcore approve`, without needing to re-type the
// original command and arguments.
func recordPendingApproval(app *appContext, commandName, argsJSON string, result *execution.Result) string {
	id := uuid.NewString()
	pending := &policystore.PendingApproval{
		ID:          id,
		ExecutionID: result.ExecutionID,
		CommandName: commandName,
		CommandArgs: argsJSON,
		Workspace:   app.ctx.WorkspacePath,
		Description: result.Error,
		RiskLevel:   "unknown",
		ExpiresAt:   time.Now().Add(24 * time.Hour),
	}
	if err := app.policies.CreatePendingApproval(pending); err != nil {
		fmt.Printf("warning: failed to record pending approval: %v\n", err)
	}
	return id
}

// classifyRunFailure maps the engine's plain-text failure reasons to the
// error codes the CLI's exit-code table understands. The engine reports
// failures as strings rather than structured errors, since most callers
// only need to display them; the CLI is the one place that needs a code.
func classifyRunFailure(reason string) error {
	switch {
	case strings.Contains(reason, "sandbox level"):
		return execerr.New(execerr.CodeSandboxViolation, reason)
	// Checked before "approval": the drift message from
	// approval.VerifyPreviewHash also contains that word.
	case strings.Contains(reason, "preview hash changed"):
		return execerr.New(execerr.CodeApprovalMismatch, reason)
	case strings.Contains(reason, "approval"):
		return execerr.New(execerr.CodeApprovalDenied, reason)
	case strings.Contains(reason, "protected path"):
		return execerr.New(execerr.CodeProtectedPath, reason)
	default:
		return execerr.New(execerr.CodeExecutionFailed, reason)
	}
}

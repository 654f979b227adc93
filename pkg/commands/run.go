package commands

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/relaydev/execcore/pkg/command"
	"github.com/relaydev/execcore/pkg/sandbox"
)

// runArgs is the JSON payload for the run command.
type runArgs struct {
	Command string `json:"command"`
	Network string `json:"network_url,omitempty"`
}

// networkCommandPattern flags commands that are themselves network clients,
// so Preview can surface a NetworkAccess action even though
// run's own capability declaration is static.
var networkCommandPattern = regexp.MustCompile(`\b(curl|wget|ssh|scp|rsync|nc|ncat)\b`)

// Run executes a shell command string under the sandboxed Executor.
type Run struct {
	Executor *sandbox.Executor
}

func (Run) Descriptor() command.Descriptor {
	return command.Descriptor{
		Name:                 "run",
		Description:          "Execute a shell command under the sandbox",
		Version:              "1.0.0",
		CapabilitiesRequired: []command.Capability{command.ExecuteShell, command.NetworkAccess},
		SandboxLevelRequired: sandbox.FullAccess,
		SupportsPreview:      true,
		SupportsDryRun:       false,
	}
}

func (Run) ValidateArgs(raw json.RawMessage) error {
	var args runArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return &command.ValidationError{Field: "args", Message: err.Error()}
	}
	if args.Command == "" {
		return &command.ValidationError{Field: "command", Message: "must not be empty"}
	}
	return nil
}

func (Run) Preview(ctx *command.Context, raw json.RawMessage) (*command.Preview, error) {
	var args runArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	actions := []command.PreviewAction{command.ExecuteShellAction{Command: args.Command}}
	if networkCommandPattern.MatchString(args.Command) {
		actions = append(actions, command.NetworkAccessAction{URL: args.Command})
	}
	preview := &command.Preview{
		CommandID:        "run",
		Description:      fmt.Sprintf("Execute: %s", args.Command),
		Actions:          actions,
		RequiresApproval: true,
	}
	return preview, nil
}

func (r Run) Execute(ctx *command.Context, raw json.RawMessage) (*command.Result, error) {
	var args runArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	policy, err := sandbox.NewPolicy(ctx.SandboxLevel, ctx.WorkspacePath, false)
	if err != nil {
		return nil, fmt.Errorf("commands: build sandbox policy: %w", err)
	}

	// The Execution Engine has already consulted these same checks against
	// the preview's actions before dispatching here; Execute re-checks them
	// directly so Run never shells out on the strength of a stale preview.
	if result := policy.CheckShellCommand(args.Command); result.IsDeny() {
		return &command.Result{CommandID: "run", Success: false, Error: result.Reason}, nil
	}
	if networkCommandPattern.MatchString(args.Command) {
		if result := policy.CheckNetworkAccess(args.Command); result.IsDeny() {
			return &command.Result{CommandID: "run", Success: false, Error: result.Reason}, nil
		}
	}

	if ctx.Cancellation != nil && ctx.Cancellation.Cancelled() {
		return nil, command.ErrCancelled
	}

	executor := r.Executor
	if executor == nil {
		executor = sandbox.NewExecutor(5 * time.Minute)
	}

	result := executor.Execute(ctx.Ctx, policy, args.Command)
	if result.Error != nil && !result.Killed {
		return &command.Result{
			CommandID: "run",
			Success:   false,
			Output:    result.Stdout,
			Error:     fmt.Sprintf("exit %d: %s", result.ExitCode, result.Stderr),
		}, nil
	}
	if result.Killed {
		return &command.Result{CommandID: "run", Success: false, Error: "command timed out"}, nil
	}
	return &command.Result{
		CommandID: "run",
		Success:   result.ExitCode == 0,
		Output:    result.Stdout,
		Error:     result.Stderr,
	}, nil
}

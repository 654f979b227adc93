package commands

import (
	"strings"
	"testing"
	"time"

	"github.com/relaydev/execcore/pkg/sandbox"
)

func TestRunExecuteReturnsStdout(t *testing.T) {
	ctx := testCtx(t)
	r := Run{Executor: sandbox.NewExecutor(5 * time.Second)}

	result, err := r.Execute(ctx, mustArgs(t, runArgs{Command: "echo hello"}))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !result.Success {
		t.Fatalf("Execute() success = false, error = %s", result.Error)
	}
	if !strings.Contains(result.Output, "hello") {
		t.Errorf("Output = %q, want it to contain %q", result.Output, "hello")
	}
}

func TestRunExecuteReportsNonZeroExit(t *testing.T) {
	ctx := testCtx(t)
	r := Run{Executor: sandbox.NewExecutor(5 * time.Second)}

	result, err := r.Execute(ctx, mustArgs(t, runArgs{Command: "exit 3"}))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Success {
		t.Fatal("Execute() success = true for a failing command, want false")
	}
}

func TestRunExecuteDeniesBelowFullAccess(t *testing.T) {
	ctx := testCtx(t)
	ctx.SandboxLevel = sandbox.WorkspaceWrite
	r := Run{Executor: sandbox.NewExecutor(5 * time.Second)}

	result, err := r.Execute(ctx, mustArgs(t, runArgs{Command: "echo hello"}))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Success {
		t.Fatal("Execute() succeeded below FullAccess, want sandbox denial")
	}
}

func TestRunExecuteDoesNotGateDangerousCommand(t *testing.T) {
	ctx := testCtx(t)
	r := Run{Executor: sandbox.NewExecutor(5 * time.Second)}

	// CheckShellCommand escalates dangerous patterns to RequireApproval even
	// at FullAccess; Execute does not itself gate on that (the Execution
	// Engine's approval stage does), so the command still runs here.
	result, err := r.Execute(ctx, mustArgs(t, runArgs{Command: "echo rm -rf / is dangerous"}))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !result.Success {
		t.Fatalf("Execute() success = false, error = %s", result.Error)
	}
}

func TestRunValidateArgsRejectsEmptyCommand(t *testing.T) {
	if err := (Run{}).ValidateArgs(mustArgs(t, runArgs{})); err == nil {
		t.Fatal("ValidateArgs() = nil, want error for empty command")
	}
}

func TestRunPreviewFlagsNetworkCommands(t *testing.T) {
	ctx := testCtx(t)
	preview, err := (Run{}).Preview(ctx, mustArgs(t, runArgs{Command: "curl https://example.com"}))
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if len(preview.Actions) != 2 {
		t.Fatalf("Actions count = %d, want 2 (shell + network)", len(preview.Actions))
	}
}

func TestRunPreviewPlainCommandHasNoNetworkAction(t *testing.T) {
	ctx := testCtx(t)
	preview, err := (Run{}).Preview(ctx, mustArgs(t, runArgs{Command: "echo hi"}))
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if len(preview.Actions) != 1 {
		t.Fatalf("Actions count = %d, want 1 (shell only)", len(preview.Actions))
	}
}

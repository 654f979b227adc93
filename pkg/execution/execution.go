// Package execution implements the outer lifecycle wrapping a registry
// dispatch: sandbox pre-check, approval, backup, audit instrumentation,
// and rollback. It is the one place that sees every subsystem at once.
package execution

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/relaydev/execcore/pkg/actionlog"
	"github.com/relaydev/execcore/pkg/approval"
	"github.com/relaydev/execcore/pkg/audit"
	"github.com/relaydev/execcore/pkg/backup"
	"github.com/relaydev/execcore/pkg/command"
	"github.com/relaydev/execcore/pkg/execerr"
	"github.com/relaydev/execcore/pkg/sandbox"
)

// Result is the outer result of a single execute_command invocation.
type Result struct {
	CommandID   string
	ExecutionID string
	Success     bool
	Output      string
	Error       string
	DurationMs  int64
}

// Engine wraps a command.Registry with approval, backup, and audit
// instrumentation around every dispatch.
type Engine struct {
	Registry     *command.Registry
	Audit        *audit.SessionAuditManager
	Approval     *approval.Manager
	Backup       *backup.Manager
	ActionLog    *actionlog.ActionLog
	AllowNetwork bool // mirrors config.SandboxConfig.AllowNetwork; see sandbox.Policy.AllowNetworkOverride
}

// NewEngine constructs an Engine from its explicitly injected dependencies;
// none of them are process-wide singletons.
func NewEngine(registry *command.Registry, auditMgr *audit.SessionAuditManager, approvalMgr *approval.Manager, backupMgr *backup.Manager, actions *actionlog.ActionLog) *Engine {
	return &Engine{Registry: registry, Audit: auditMgr, Approval: approvalMgr, Backup: backupMgr, ActionLog: actions}
}

// checkSandboxPolicy consults a fresh sandbox.Policy, built from cctx's level
// and workspace, against every concrete action in preview. It is the per-
// invocation enforcement of the Sandbox Policy Engine contract: the static
// command.CanRunInSandbox check in ExecuteCommand only compares the
// descriptor's declared sandbox level, never the actual paths, shell
// command, or URL a command is about to touch.
func (e *Engine) checkSandboxPolicy(cctx *command.Context, preview *command.Preview) (sandbox.PolicyResult, bool) {
	policy, err := sandbox.NewPolicy(cctx.SandboxLevel, cctx.WorkspacePath, false)
	if err != nil {
		return sandbox.Deny(fmt.Sprintf("build sandbox policy: %s", err)), false
	}
	policy.AllowNetworkOverride(e.AllowNetwork)

	requiresApproval := false
	for _, a := range preview.Actions {
		var result sandbox.PolicyResult
		switch v := a.(type) {
		case command.ReadFileAction:
			_, result = policy.CheckReadPath(v.Path)
		case command.WriteFileAction:
			_, result = policy.CheckWritePath(v.Path)
		case command.DeleteFileAction:
			_, result = policy.CheckWritePath(v.Path)
		case command.ExecuteShellAction:
			result = policy.CheckShellCommand(v.Command)
		case command.NetworkAccessAction:
			result = policy.CheckNetworkAccess(v.URL)
		default:
			continue
		}
		if result.IsDeny() {
			return result, false
		}
		if result.IsRequireApproval() {
			requiresApproval = true
		}
	}
	return sandbox.Allow, requiresApproval
}

func capabilityNames(caps []command.Capability) []string {
	out := make([]string, len(caps))
	for i, c := range caps {
		out[i] = string(c)
	}
	return out
}

// ExecuteCommand runs the full execute_command pipeline for name.
func (e *Engine) ExecuteCommand(ctx context.Context, name string, args json.RawMessage, cctx *command.Context) (*Result, error) {
	executor, err := e.Registry.Get(name)
	if err != nil {
		e.Audit.Append(&audit.CommandError{Message: err.Error()}, "")
		return &Result{Success: false, Error: err.Error()}, nil
	}
	desc := executor.Descriptor()

	if !command.CanRunInSandbox(executor, cctx.SandboxLevel) {
		reason := fmt.Sprintf("command %q requires sandbox level %s, have %s", name, desc.SandboxLevelRequired, cctx.SandboxLevel)
		e.Audit.Append(&audit.SandboxViolation{Reason: reason}, "")
		return &Result{Success: false, Error: reason}, nil
	}

	if err := executor.ValidateArgs(args); err != nil {
		e.Audit.Append(&audit.ValidationError{Message: err.Error()}, "")
		return &Result{Success: false, Error: err.Error()}, nil
	}

	executionID := ulid.Make().String()
	argsHash, err := audit.HashJSON(args)
	if err != nil {
		return nil, fmt.Errorf("execution: hash args: %w", err)
	}
	e.Audit.Append(&audit.CommandRequested{
		Name:         name,
		ArgsHash:     argsHash,
		Capabilities: capabilityNames(desc.CapabilitiesRequired),
		SandboxLevel: cctx.SandboxLevel.String(),
	}, executionID)

	preview, err := executor.Preview(cctx, args)
	if err != nil {
		e.Audit.Append(&audit.CommandError{Message: err.Error()}, executionID)
		return &Result{ExecutionID: executionID, Success: false, Error: err.Error()}, nil
	}
	previewHash, err := preview.Hash()
	if err != nil {
		return nil, fmt.Errorf("execution: hash preview: %w", err)
	}
	e.Audit.Append(&audit.CommandPreview{
		PreviewHash:      previewHash,
		ActionsCount:     len(preview.Actions),
		RequiresApproval: preview.RequiresApproval,
	}, executionID)

	if sandboxResult, escalate := e.checkSandboxPolicy(cctx, preview); sandboxResult.IsDeny() {
		e.Audit.Append(&audit.SandboxViolation{Reason: sandboxResult.Reason}, executionID)
		return &Result{ExecutionID: executionID, Success: false, Error: sandboxResult.Reason}, nil
	} else if escalate {
		preview.RequiresApproval = true
	}

	if cctx.PreviewOnly || cctx.DryRun {
		return &Result{CommandID: preview.CommandID, ExecutionID: executionID, Success: true, Output: preview.Description}, nil
	}

	status, err := approval.CheckCommandApproval(ctx, preview.RiskSources(), preview.RequiresApproval, e.Approval)
	if err != nil {
		e.Audit.Append(&audit.CommandError{Message: err.Error()}, executionID)
		return &Result{ExecutionID: executionID, Success: false, Error: err.Error()}, nil
	}
	if status != approval.Approved {
		reason := fmt.Sprintf("approval %s", status)
		e.Audit.Append(&audit.CommandRejected{Reason: reason}, executionID)
		return &Result{ExecutionID: executionID, Success: false, Error: reason}, nil
	}
	if preview.RequiresApproval {
		e.Audit.Append(&audit.CommandApproved{}, executionID)
	}

	if err := e.maybeBackup(executionID, preview); err != nil {
		e.Audit.Append(&audit.CommandError{Message: err.Error()}, executionID)
		return &Result{ExecutionID: executionID, Success: false, Error: err.Error()}, nil
	}

	// The preview approved above must still describe reality at execution
	// time; a second hash check guards against filesystem drift between
	// approval and dispatch.
	reconfirmed, err := executor.Preview(cctx, args)
	if err == nil {
		if confirmedHash, hashErr := reconfirmed.Hash(); hashErr == nil {
			if mismatchErr := approval.VerifyPreviewHash(previewHash, confirmedHash); mismatchErr != nil {
				e.Audit.Append(&audit.CommandRejected{Reason: "preview drift"}, executionID)
				return &Result{ExecutionID: executionID, Success: false, Error: mismatchErr.Error()}, nil
			}
		}
	}

	e.Audit.Append(&audit.CommandStarted{ExecutionID: executionID}, executionID)

	start := time.Now()
	execResult, execErr := executor.Execute(cctx, args)
	duration := time.Since(start)

	success := execErr == nil && execResult != nil && execResult.Success
	errMsg := ""
	outputSize := 0
	if execErr != nil {
		errMsg = execErr.Error()
	} else if execResult != nil {
		errMsg = execResult.Error
		outputSize = len(execResult.Output)
	}
	// A command that refuses its own request (a protected-path delete, for
	// instance) is a sandbox rejection, not an ordinary execution failure —
	// surface it as CommandRejected in addition to CommandCompleted so the
	// audit trail names the reason the same way an upfront Policy denial does.
	if execerr.IsCode(execErr, execerr.CodeProtectedPath) {
		e.Audit.Append(&audit.CommandRejected{Reason: "protected path"}, executionID)
	}
	e.Audit.Append(&audit.CommandCompleted{
		ExecutionID: executionID,
		Success:     success,
		DurationMs:  duration.Milliseconds(),
		OutputSize:  outputSize,
		Error:       errMsg,
	}, executionID)

	if success && execResult.Action != nil && e.ActionLog != nil {
		// The action's id is the execution id, not assigned by the command
		// itself, so RollbackExecution can find it by execution id later.
		execResult.Action.ID = executionID
		if execResult.Action.Timestamp.IsZero() {
			execResult.Action.Timestamp = time.Now().UTC()
		}
		e.ActionLog.Record(execResult.Action)
	}

	result := &Result{CommandID: preview.CommandID, ExecutionID: executionID, DurationMs: duration.Milliseconds()}
	if success {
		result.Success = true
		result.Output = execResult.Output
	} else {
		result.Error = errMsg
	}
	return result, nil
}

// maybeBackup snapshots every WriteFile/DeleteFile target in preview when
// the preview holds at least one such action and its aggregate risk is
// Medium or higher. The descriptor's declared capabilities are not read.
func (e *Engine) maybeBackup(executionID string, preview *command.Preview) error {
	if e.Backup == nil {
		return nil
	}
	var targets []string
	for _, a := range preview.Actions {
		switch v := a.(type) {
		case command.WriteFileAction:
			targets = append(targets, v.Path)
		case command.DeleteFileAction:
			targets = append(targets, v.Path)
		}
	}
	if len(targets) == 0 {
		return nil
	}
	risk := approval.AggregateRisk(preview.RiskSources())
	if risk < approval.Medium {
		return nil
	}
	if _, err := e.Backup.Snapshot(executionID, targets); err != nil {
		return fmt.Errorf("execution: backup snapshot: %w", err)
	}
	for _, path := range targets {
		e.Audit.Append(&audit.FileRead{Path: path}, executionID)
	}
	return nil
}

// ErrRollbackCursorNotAtTop describes an action log whose cursor is not
// positioned at the action associated with an execution id. RollbackExecution
// does not return it: in that case it restores the files and leaves the
// cursor where it is.
var ErrRollbackCursorNotAtTop = errors.New("execution: action log cursor is not at this execution")

// RollbackExecution restores every file captured in executionID's backup
// and, if the action log's cursor is at the top of the stack for this
// execution, advances it backward past the corresponding action.
func (e *Engine) RollbackExecution(executionID string) ([]string, error) {
	restored, err := e.Backup.Restore(executionID)
	if err != nil {
		return nil, fmt.Errorf("execution: rollback %s: %w", executionID, err)
	}
	for _, path := range restored {
		e.Audit.Append(&audit.FileWrite{Path: path, BackupCreated: false}, executionID)
	}
	if e.ActionLog != nil {
		history, cursor := e.ActionLog.History()
		if cursor > 0 && history[cursor-1].ID == executionID {
			if _, err := e.ActionLog.Undo(); err != nil {
				return restored, fmt.Errorf("execution: rollback action log: %w", err)
			}
		}
	}
	return restored, nil
}

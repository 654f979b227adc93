package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/relaydev/execcore/pkg/actionlog"
	"github.com/relaydev/execcore/pkg/command"
	"github.com/relaydev/execcore/pkg/sandbox"
)

// renameArgs is the JSON payload for the rename command.
type renameArgs struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Rename moves a file from From to To, creating intermediate destination
// directories as needed.
type Rename struct{}

func (Rename) Descriptor() command.Descriptor {
	return command.Descriptor{
		Name:                 "rename",
		Description:          "Rename or move a file",
		Version:              "1.0.0",
		CapabilitiesRequired: []command.Capability{command.WriteFile},
		SandboxLevelRequired: sandbox.WorkspaceWrite,
		SupportsPreview:      true,
		SupportsDryRun:       true,
	}
}

func (Rename) ValidateArgs(raw json.RawMessage) error {
	var args renameArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return &command.ValidationError{Field: "args", Message: err.Error()}
	}
	if args.From == "" {
		return &command.ValidationError{Field: "from", Message: "must not be empty"}
	}
	if args.To == "" {
		return &command.ValidationError{Field: "to", Message: "must not be empty"}
	}
	return nil
}

func (Rename) resolvePair(ctx *command.Context, args renameArgs) (string, string, error) {
	from, err := resolveWorkspacePath(ctx, args.From)
	if err != nil {
		return "", "", err
	}
	to, err := resolveWorkspacePath(ctx, args.To)
	if err != nil {
		return "", "", err
	}
	return from, to, nil
}

func (r Rename) Preview(ctx *command.Context, raw json.RawMessage) (*command.Preview, error) {
	var args renameArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	from, to, err := r.resolvePair(ctx, args)
	if err != nil {
		return nil, err
	}
	_, statErr := os.Stat(to)
	overwrites := statErr == nil
	return &command.Preview{
		CommandID:   "rename",
		Description: fmt.Sprintf("Rename %s to %s", from, to),
		Actions: []command.PreviewAction{
			command.ReadFileAction{Path: from},
			command.WriteFileAction{Path: to, OverwritesExisting: overwrites},
		},
		RequiresApproval: overwrites,
	}, nil
}

func (r Rename) Execute(ctx *command.Context, raw json.RawMessage) (*command.Result, error) {
	var args renameArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	from, to, err := r.resolvePair(ctx, args)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(from); err != nil {
		return &command.Result{Success: false, Error: fmt.Sprintf("source does not exist: %s", from)}, nil
	}
	if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return &command.Result{Success: false, Error: fmt.Sprintf("create destination parents: %v", err)}, nil
	}
	if err := os.Rename(from, to); err != nil {
		return &command.Result{Success: false, Error: fmt.Sprintf("rename: %v", err)}, nil
	}

	action := &actionlog.Action{
		Command:     "rename",
		Description: fmt.Sprintf("Rename %s to %s", from, to),
		StateBefore: actionlog.FileMoved{From: from, To: to},
		StateAfter:  actionlog.FileMoved{From: to, To: from},
	}
	return &command.Result{
		CommandID: "rename",
		Success:   true,
		Output:    fmt.Sprintf("Renamed %s to %s", from, to),
		Action:    action,
	}, nil
}

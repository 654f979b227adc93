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

// createArgs is the JSON payload for the create command.
type createArgs struct {
	Path      string `json:"path"`
	Content   string `json:"content"`
	Overwrite bool   `json:"overwrite"`
}

// Create writes a new file, refusing to clobber an existing one unless
// Overwrite is set, and creates any missing parent directories.
type Create struct{}

func (Create) Descriptor() command.Descriptor {
	return command.Descriptor{
		Name:                 "create",
		Description:          "Create a new file, optionally overwriting an existing one",
		Version:              "1.0.0",
		CapabilitiesRequired: []command.Capability{command.WriteFile},
		SandboxLevelRequired: sandbox.WorkspaceWrite,
		SupportsPreview:      true,
		SupportsDryRun:       true,
	}
}

func (Create) ValidateArgs(raw json.RawMessage) error {
	var args createArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return &command.ValidationError{Field: "args", Message: err.Error()}
	}
	if args.Path == "" {
		return &command.ValidationError{Field: "path", Message: "must not be empty"}
	}
	return nil
}

func (Create) Preview(ctx *command.Context, raw json.RawMessage) (*command.Preview, error) {
	var args createArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	path, err := resolveWorkspacePath(ctx, args.Path)
	if err != nil {
		return nil, err
	}
	_, statErr := os.Stat(path)
	exists := statErr == nil
	return &command.Preview{
		CommandID:   "create",
		Description: fmt.Sprintf("Create %s", path),
		Actions: []command.PreviewAction{
			command.WriteFileAction{Path: path, ContentPreview: args.Content, OverwritesExisting: exists && args.Overwrite},
		},
		RequiresApproval: exists && args.Overwrite,
	}, nil
}

func (Create) Execute(ctx *command.Context, raw json.RawMessage) (*command.Result, error) {
	var args createArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	path, err := resolveWorkspacePath(ctx, args.Path)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err == nil && !args.Overwrite {
		return &command.Result{Success: false, Error: fmt.Sprintf("path already exists: %s", path)}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &command.Result{Success: false, Error: fmt.Sprintf("create parent directories: %v", err)}, nil
	}
	if err := os.WriteFile(path, []byte(args.Content), 0o644); err != nil {
		return &command.Result{Success: false, Error: fmt.Sprintf("write file: %v", err)}, nil
	}

	action := &actionlog.Action{
		Command:     "create",
		Description: fmt.Sprintf("Create %s", path),
		StateBefore: actionlog.FileCreated{Path: path},
		StateAfter:  actionlog.FileDeleted{Path: path, Content: []byte(args.Content)},
	}
	return &command.Result{
		CommandID: "create",
		Success:   true,
		Output:    fmt.Sprintf("Created %s (%d bytes)", path, len(args.Content)),
		Action:    action,
	}, nil
}

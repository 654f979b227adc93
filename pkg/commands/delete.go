package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/relaydev/execcore/pkg/actionlog"
	"github.com/relaydev/execcore/pkg/command"
	"github.com/relaydev/execcore/pkg/execerr"
	"github.com/relaydev/execcore/pkg/sandbox"
)

// deleteArgs is the JSON payload for the delete command.
type deleteArgs struct {
	Path      string `json:"path"`
	Recursive bool   `json:"recursive"`
	Confirm   bool   `json:"confirm"`
}

// Delete removes a file, or a directory when Recursive is set. Protected
// names (.git, .gitignore, module manifest/lock files) are refused
// outright, regardless of Confirm.
type Delete struct{}

func (Delete) Descriptor() command.Descriptor {
	return command.Descriptor{
		Name:                 "delete",
		Description:          "Delete a file or directory",
		Version:              "1.0.0",
		CapabilitiesRequired: []command.Capability{command.WriteFile},
		SandboxLevelRequired: sandbox.WorkspaceWrite,
		SupportsPreview:      true,
		SupportsDryRun:       true,
	}
}

func (Delete) ValidateArgs(raw json.RawMessage) error {
	var args deleteArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return &command.ValidationError{Field: "args", Message: err.Error()}
	}
	if args.Path == "" {
		return &command.ValidationError{Field: "path", Message: "must not be empty"}
	}
	return nil
}

func (Delete) Preview(ctx *command.Context, raw json.RawMessage) (*command.Preview, error) {
	var args deleteArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	path, err := resolveWorkspacePath(ctx, args.Path)
	if err != nil {
		return nil, err
	}
	return &command.Preview{
		CommandID:   "delete",
		Description: fmt.Sprintf("Delete %s", path),
		Actions: []command.PreviewAction{
			command.DeleteFileAction{Path: path},
		},
		RequiresApproval: true,
	}, nil
}

func (Delete) Execute(ctx *command.Context, raw json.RawMessage) (*command.Result, error) {
	var args deleteArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	path, err := resolveWorkspacePath(ctx, args.Path)
	if err != nil {
		return nil, err
	}

	if isProtected(path) {
		return nil, execerr.New(execerr.CodeProtectedPath, fmt.Sprintf("refusing to delete protected path: %s", path))
	}

	info, err := os.Stat(path)
	if err != nil {
		return &command.Result{Success: false, Error: fmt.Sprintf("path does not exist: %s", path)}, nil
	}

	if info.IsDir() {
		return deleteDirectory(path, args.Recursive, args.Confirm)
	}
	return deleteFile(path)
}

func deleteFile(path string) (*command.Result, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return &command.Result{Success: false, Error: fmt.Sprintf("read before delete: %v", err)}, nil
	}
	if err := os.Remove(path); err != nil {
		return &command.Result{Success: false, Error: fmt.Sprintf("delete file: %v", err)}, nil
	}
	action := &actionlog.Action{
		Command:     "delete",
		Description: fmt.Sprintf("Delete %s", path),
		StateBefore: actionlog.FileDeleted{Path: path, Content: content},
		StateAfter:  actionlog.FileCreated{Path: path},
	}
	return &command.Result{CommandID: "delete", Success: true, Output: fmt.Sprintf("Deleted %s", path), Action: action}, nil
}

func deleteDirectory(path string, recursive, confirm bool) (*command.Result, error) {
	if !confirm {
		return &command.Result{Success: false, Error: "directory deletion requires confirm=true"}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return &command.Result{Success: false, Error: fmt.Sprintf("read directory: %v", err)}, nil
	}
	if len(entries) > 0 && !recursive {
		return &command.Result{Success: false, Error: "directory is not empty; pass recursive=true"}, nil
	}

	var contents []actionlog.DirEntry
	walkErr := filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		content, readErr := os.ReadFile(p)
		if readErr != nil {
			return readErr
		}
		contents = append(contents, actionlog.DirEntry{Path: p, Content: content})
		return nil
	})
	if walkErr != nil {
		return &command.Result{Success: false, Error: fmt.Sprintf("capture directory contents: %v", walkErr)}, nil
	}

	if err := os.RemoveAll(path); err != nil {
		return &command.Result{Success: false, Error: fmt.Sprintf("delete directory: %v", err)}, nil
	}

	action := &actionlog.Action{
		Command:     "delete",
		Description: fmt.Sprintf("Delete directory %s", path),
		StateBefore: actionlog.DirectoryDeleted{Path: path, Contents: contents},
		StateAfter:  actionlog.DirectoryCreated{Path: path},
	}
	return &command.Result{CommandID: "delete", Success: true, Output: fmt.Sprintf("Deleted directory %s", path), Action: action}, nil
}

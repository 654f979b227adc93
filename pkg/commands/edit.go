package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/relaydev/execcore/pkg/actionlog"
	"github.com/relaydev/execcore/pkg/audit"
	"github.com/relaydev/execcore/pkg/command"
	"github.com/relaydev/execcore/pkg/sandbox"
)

func checksum(content []byte) string { return audit.HashBytes(content) }

// editArgs is the JSON payload for the edit command: a full-content replace
// of an existing file.
type editArgs struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Edit replaces the entire content of an existing file.
type Edit struct{}

func (Edit) Descriptor() command.Descriptor {
	return command.Descriptor{
		Name:                 "edit",
		Description:          "Replace the content of an existing file",
		Version:              "1.0.0",
		CapabilitiesRequired: []command.Capability{command.WriteFile},
		SandboxLevelRequired: sandbox.WorkspaceWrite,
		SupportsPreview:      true,
		SupportsDryRun:       true,
	}
}

func (Edit) ValidateArgs(raw json.RawMessage) error {
	var args editArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return &command.ValidationError{Field: "args", Message: err.Error()}
	}
	if args.Path == "" {
		return &command.ValidationError{Field: "path", Message: "must not be empty"}
	}
	return nil
}

// unifiedDiff renders a unified diff of oldContent -> newContent for path,
// used both as the preview's content_preview and as Execute's result
// output. The FileModified action states hold full content and a checksum,
// not the diff.
func unifiedDiff(path, oldContent, newContent string) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(oldContent),
		B:        difflib.SplitLines(newContent),
		FromFile: path,
		ToFile:   path,
		Context:  3,
	}
	return difflib.GetUnifiedDiffString(diff)
}

func (Edit) Preview(ctx *command.Context, raw json.RawMessage) (*command.Preview, error) {
	var args editArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	path, err := resolveWorkspacePath(ctx, args.Path)
	if err != nil {
		return nil, err
	}
	existing, readErr := os.ReadFile(path)
	diff, err := unifiedDiff(path, string(existing), args.Content)
	if err != nil {
		return nil, fmt.Errorf("commands: diff %s: %w", path, err)
	}
	return &command.Preview{
		CommandID:   "edit",
		Description: fmt.Sprintf("Edit %s", path),
		Actions: []command.PreviewAction{
			command.WriteFileAction{Path: path, ContentPreview: diff, OverwritesExisting: readErr == nil},
		},
		RequiresApproval: readErr == nil,
	}, nil
}

func (Edit) Execute(ctx *command.Context, raw json.RawMessage) (*command.Result, error) {
	var args editArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	path, err := resolveWorkspacePath(ctx, args.Path)
	if err != nil {
		return nil, err
	}

	existing, err := os.ReadFile(path)
	if err != nil {
		return &command.Result{Success: false, Error: fmt.Sprintf("read existing file: %v", err)}, nil
	}

	if err := os.WriteFile(path, []byte(args.Content), 0o644); err != nil {
		return &command.Result{Success: false, Error: fmt.Sprintf("write file: %v", err)}, nil
	}

	diff, _ := unifiedDiff(path, string(existing), args.Content)
	action := &actionlog.Action{
		Command:     "edit",
		Description: fmt.Sprintf("Edit %s", path),
		StateBefore: actionlog.FileModified{Path: path, Content: existing, Checksum: checksum(existing)},
		StateAfter:  actionlog.FileModified{Path: path, Content: []byte(args.Content), Checksum: checksum([]byte(args.Content))},
	}
	return &command.Result{
		CommandID: "edit",
		Success:   true,
		Output:    strings.TrimSpace(diff),
		Action:    action,
	}, nil
}

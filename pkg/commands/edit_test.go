package commands

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEditExecuteReplacesContent(t *testing.T) {
	ctx := testCtx(t)
	path := filepath.Join(ctx.WorkspacePath, "a.txt")
	if err := os.WriteFile(path, []byte("line one\nline two\n"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	args := mustArgs(t, editArgs{Path: "a.txt", Content: "line one\nline three\n"})
	result, err := (Edit{}).Execute(ctx, args)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !result.Success {
		t.Fatalf("Execute() success = false, error = %s", result.Error)
	}

	content, _ := os.ReadFile(path)
	if string(content) != "line one\nline three\n" {
		t.Errorf("content = %q, want replaced content", content)
	}
	if !strings.Contains(result.Output, "line three") {
		t.Errorf("Output = %q, want unified diff mentioning new line", result.Output)
	}
	if result.Action == nil {
		t.Fatal("Action = nil, want non-nil")
	}
}

func TestEditExecuteFailsWhenFileMissing(t *testing.T) {
	ctx := testCtx(t)
	args := mustArgs(t, editArgs{Path: "missing.txt", Content: "x"})
	result, err := (Edit{}).Execute(ctx, args)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Success {
		t.Fatal("Execute() succeeded editing a nonexistent file, want failure")
	}
}

func TestEditPreviewRequiresApprovalWhenFileExists(t *testing.T) {
	ctx := testCtx(t)
	path := filepath.Join(ctx.WorkspacePath, "a.txt")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	preview, err := (Edit{}).Preview(ctx, mustArgs(t, editArgs{Path: "a.txt", Content: "new"}))
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if !preview.RequiresApproval {
		t.Error("RequiresApproval = false editing an existing file, want true")
	}
}

func TestEditValidateArgsRejectsEmptyPath(t *testing.T) {
	if err := (Edit{}).ValidateArgs(mustArgs(t, editArgs{Content: "x"})); err == nil {
		t.Fatal("ValidateArgs() = nil, want error for empty path")
	}
}

func TestChecksumIsStableAndSensitiveToContent(t *testing.T) {
	a := checksum([]byte("hello"))
	b := checksum([]byte("hello"))
	c := checksum([]byte("world"))
	if a != b {
		t.Error("checksum not stable across calls with identical content")
	}
	if a == c {
		t.Error("checksum collided across different content")
	}
}

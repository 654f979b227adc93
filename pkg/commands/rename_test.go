package commands

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRenameExecuteMovesFile(t *testing.T) {
	ctx := testCtx(t)
	from := filepath.Join(ctx.WorkspacePath, "a.txt")
	if err := os.WriteFile(from, []byte("content"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	result, err := (Rename{}).Execute(ctx, mustArgs(t, renameArgs{From: "a.txt", To: "b.txt"}))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !result.Success {
		t.Fatalf("Execute() success = false, error = %s", result.Error)
	}
	if _, err := os.Stat(from); !os.IsNotExist(err) {
		t.Error("source file still exists after rename")
	}
	to := filepath.Join(ctx.WorkspacePath, "b.txt")
	content, err := os.ReadFile(to)
	if err != nil {
		t.Fatalf("read renamed file: %v", err)
	}
	if string(content) != "content" {
		t.Errorf("content = %q, want %q", content, "content")
	}
	if result.Action == nil {
		t.Fatal("Action = nil, want non-nil")
	}
}

func TestRenameExecuteCreatesDestinationParents(t *testing.T) {
	ctx := testCtx(t)
	from := filepath.Join(ctx.WorkspacePath, "a.txt")
	if err := os.WriteFile(from, []byte("content"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	result, err := (Rename{}).Execute(ctx, mustArgs(t, renameArgs{From: "a.txt", To: "nested/dir/b.txt"}))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !result.Success {
		t.Fatalf("Execute() success = false, error = %s", result.Error)
	}
	if _, err := os.Stat(filepath.Join(ctx.WorkspacePath, "nested", "dir", "b.txt")); err != nil {
		t.Errorf("destination file not created in nested directory: %v", err)
	}
}

func TestRenameExecuteFailsWhenSourceMissing(t *testing.T) {
	ctx := testCtx(t)
	result, err := (Rename{}).Execute(ctx, mustArgs(t, renameArgs{From: "missing.txt", To: "b.txt"}))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Success {
		t.Fatal("Execute() succeeded renaming a nonexistent source, want failure")
	}
}

func TestRenamePreviewRequiresApprovalOnlyWhenDestinationExists(t *testing.T) {
	ctx := testCtx(t)
	from := filepath.Join(ctx.WorkspacePath, "a.txt")
	to := filepath.Join(ctx.WorkspacePath, "b.txt")
	if err := os.WriteFile(from, []byte("content"), 0o644); err != nil {
		t.Fatalf("seed source: %v", err)
	}

	noOverwrite, err := (Rename{}).Preview(ctx, mustArgs(t, renameArgs{From: "a.txt", To: "b.txt"}))
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if noOverwrite.RequiresApproval {
		t.Error("RequiresApproval = true for non-conflicting rename, want false")
	}

	if err := os.WriteFile(to, []byte("existing"), 0o644); err != nil {
		t.Fatalf("seed destination: %v", err)
	}
	withOverwrite, err := (Rename{}).Preview(ctx, mustArgs(t, renameArgs{From: "a.txt", To: "b.txt"}))
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if !withOverwrite.RequiresApproval {
		t.Error("RequiresApproval = false when destination exists, want true")
	}
}

func TestRenameValidateArgsRejectsMissingFields(t *testing.T) {
	if err := (Rename{}).ValidateArgs(mustArgs(t, renameArgs{To: "b.txt"})); err == nil {
		t.Fatal("ValidateArgs() = nil, want error for empty from")
	}
	if err := (Rename{}).ValidateArgs(mustArgs(t, renameArgs{From: "a.txt"})); err == nil {
		t.Fatal("ValidateArgs() = nil, want error for empty to")
	}
}

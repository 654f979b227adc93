package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/relaydev/execcore/pkg/execerr"
)

func TestDeleteExecuteRemovesFile(t *testing.T) {
	ctx := testCtx(t)
	path := filepath.Join(ctx.WorkspacePath, "a.txt")
	if err := os.WriteFile(path, []byte("content"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	result, err := (Delete{}).Execute(ctx, mustArgs(t, deleteArgs{Path: "a.txt"}))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !result.Success {
		t.Fatalf("Execute() success = false, error = %s", result.Error)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file still exists after delete")
	}
	if result.Action == nil {
		t.Fatal("Action = nil, want non-nil")
	}
}

func TestDeleteExecuteRefusesProtectedPath(t *testing.T) {
	ctx := testCtx(t)
	path := filepath.Join(ctx.WorkspacePath, "go.mod")
	if err := os.WriteFile(path, []byte("module x"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	result, err := (Delete{}).Execute(ctx, mustArgs(t, deleteArgs{Path: "go.mod", Confirm: true}))
	if err == nil {
		t.Fatal("Execute() error = nil, want a protected-path refusal")
	}
	if !execerr.IsCode(err, execerr.CodeProtectedPath) {
		t.Errorf("Execute() error code = %v, want %s", execerr.GetCode(err), execerr.CodeProtectedPath)
	}
	if result != nil {
		t.Errorf("Execute() result = %+v, want nil", result)
	}
	if _, err := os.Stat(path); err != nil {
		t.Error("protected file was removed despite refusal")
	}
}

func TestDeleteExecuteDirectoryRequiresConfirm(t *testing.T) {
	ctx := testCtx(t)
	dir := filepath.Join(ctx.WorkspacePath, "sub")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	result, err := (Delete{}).Execute(ctx, mustArgs(t, deleteArgs{Path: "sub"}))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Success {
		t.Fatal("Execute() deleted directory without confirm, want refusal")
	}
}

func TestDeleteExecuteNonEmptyDirectoryRequiresRecursive(t *testing.T) {
	ctx := testCtx(t)
	dir := filepath.Join(ctx.WorkspacePath, "sub")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "f.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("seed nested file: %v", err)
	}

	result, err := (Delete{}).Execute(ctx, mustArgs(t, deleteArgs{Path: "sub", Confirm: true}))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Success {
		t.Fatal("Execute() deleted non-empty directory without recursive, want refusal")
	}

	result, err = (Delete{}).Execute(ctx, mustArgs(t, deleteArgs{Path: "sub", Confirm: true, Recursive: true}))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !result.Success {
		t.Fatalf("Execute() success = false, error = %s", result.Error)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("directory still exists after recursive delete")
	}
	if result.Action == nil {
		t.Fatal("Action = nil, want non-nil")
	}
}

func TestDeleteValidateArgsRejectsEmptyPath(t *testing.T) {
	if err := (Delete{}).ValidateArgs(mustArgs(t, deleteArgs{})); err == nil {
		t.Fatal("ValidateArgs() = nil, want error for empty path")
	}
}

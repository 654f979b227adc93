package commands

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/relaydev/execcore/pkg/command"
	"github.com/relaydev/execcore/pkg/sandbox"
)

func workspaceCtx(t *testing.T, level sandbox.Level) *command.Context {
	t.Helper()
	return &command.Context{
		Ctx:           context.Background(),
		WorkspacePath: t.TempDir(),
		SandboxLevel:  level,
	}
}

func TestResolveWorkspacePathJoinsRelative(t *testing.T) {
	ctx := workspaceCtx(t, sandbox.WorkspaceWrite)
	resolved, err := resolveWorkspacePath(ctx, "a/b.txt")
	if err != nil {
		t.Fatalf("resolveWorkspacePath() error = %v", err)
	}
	if want := filepath.Join(ctx.WorkspacePath, "a", "b.txt"); resolved != want {
		t.Errorf("resolved = %q, want %q", resolved, want)
	}
}

func TestResolveWorkspacePathRejectsEscape(t *testing.T) {
	ctx := workspaceCtx(t, sandbox.WorkspaceWrite)
	if _, err := resolveWorkspacePath(ctx, "../outside.txt"); err == nil {
		t.Fatal("resolveWorkspacePath() = nil error, want escape rejected")
	}
}

func TestResolveWorkspacePathRejectsEmpty(t *testing.T) {
	ctx := workspaceCtx(t, sandbox.WorkspaceWrite)
	if _, err := resolveWorkspacePath(ctx, ""); err == nil {
		t.Fatal("resolveWorkspacePath() = nil error, want empty path rejected")
	}
}

// TestResolveWorkspacePathOutsideWorkspaceErrorWording covers the escaped-path
// scenario: at a confining level, an absolute path outside the workspace
// must be rejected with an error naming it, matched verbatim by callers that
// surface sandbox denials to users.
func TestResolveWorkspacePathOutsideWorkspaceErrorWording(t *testing.T) {
	ctx := workspaceCtx(t, sandbox.WorkspaceWrite)
	_, err := resolveWorkspacePath(ctx, "/etc/passwd")
	if err == nil {
		t.Fatal("resolveWorkspacePath() = nil error, want outside-workspace rejection")
	}
	if !strings.Contains(err.Error(), "outside workspace") {
		t.Errorf("error = %q, want it to contain %q", err.Error(), "outside workspace")
	}
}

// TestResolveWorkspacePathFullAccessNotConfined mirrors sandbox.Policy's own
// FullAccess semantics: an absolute out-of-workspace path is permitted once
// the invocation is granted FullAccess.
func TestResolveWorkspacePathFullAccessNotConfined(t *testing.T) {
	ctx := workspaceCtx(t, sandbox.FullAccess)
	resolved, err := resolveWorkspacePath(ctx, "/etc/passwd")
	if err != nil {
		t.Fatalf("resolveWorkspacePath() at FullAccess error = %v", err)
	}
	if resolved != "/etc/passwd" {
		t.Errorf("resolved = %q, want %q", resolved, "/etc/passwd")
	}
}

func TestIsProtectedMatchesKnownNames(t *testing.T) {
	cases := map[string]bool{
		"/work/go.mod":       true,
		"/work/.git":         true,
		"/work/.gitignore":   true,
		"/work/main.go":      false,
		"/work/sub/go.sum":   true,
		"/work/package.json": true,
	}
	for path, want := range cases {
		if got := isProtected(path); got != want {
			t.Errorf("isProtected(%q) = %v, want %v", path, got, want)
		}
	}
}

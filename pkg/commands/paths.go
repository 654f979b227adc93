// Package commands implements the concrete operations the execution core
// dispatches: create, edit, delete, rename, run, and search. Each conforms
// to command.Executor; the sandbox Policy built from ctx is still consulted
// a second time here, independently of the Execution Engine's own
// per-action check, so a command run outside the engine (direct embedding,
// tests) cannot write or read outside its granted level.
package commands

import (
	"fmt"
	"path/filepath"

	"github.com/relaydev/execcore/pkg/command"
	"github.com/relaydev/execcore/pkg/sandbox"
)

// resolveWorkspacePath resolves path against ctx's workspace and confirms
// it is permitted for write at ctx.SandboxLevel, via the same sandbox.Policy
// the Execution Engine consults — ReadOnly and WorkspaceWrite confine path
// to the workspace; FullAccess does not.
func resolveWorkspacePath(ctx *command.Context, path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("commands: empty path")
	}
	policy, err := sandbox.NewPolicy(ctx.SandboxLevel, ctx.WorkspacePath, false)
	if err != nil {
		return "", fmt.Errorf("commands: build sandbox policy: %w", err)
	}
	resolved, result := policy.CheckWritePath(path)
	if result.IsDeny() {
		return "", fmt.Errorf("commands: %s", result.Reason)
	}
	return resolved, nil
}

// protectedNames are refused by delete regardless of confirm; .git is never
// deletable even with confirm=true.
var protectedNames = map[string]bool{
	".git":              true,
	".gitignore":        true,
	"go.mod":            true,
	"go.sum":            true,
	"package.json":      true,
	"package-lock.json": true,
}

func isProtected(path string) bool {
	return protectedNames[filepath.Base(path)]
}

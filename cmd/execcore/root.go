package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/relaydev/execcore/pkg/actionlog"
	"github.com/relaydev/execcore/pkg/approval"
	"github.com/relaydev/execcore/pkg/audit"
	"github.com/relaydev/execcore/pkg/backup"
	"github.com/relaydev/execcore/pkg/command"
	"github.com/relaydev/execcore/pkg/commands"
	"github.com/relaydev/execcore/pkg/config"
	"github.com/relaydev/execcore/pkg/execution"
	"github.com/relaydev/execcore/pkg/logging"
	"github.com/relaydev/execcore/pkg/policystore"
	"github.com/relaydev/execcore/pkg/sandbox"
)

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	workspace   string
	sandboxLvl  string
	sessionID   string
	configPath  string
	dataDir     string
	interactive bool
}

// appContext is the fully wired dependency graph a subcommand needs to
// run execute_command, resolve approvals, or query history.
type appContext struct {
	cfg           *config.Config
	engine        *execution.Engine
	registry      *command.Registry
	policies      *policystore.Store
	logger        *logging.Logger
	ctx           *command.Context
	sessionID     string
	actionLogPath string
	dataDir       string
}

// Close persists the action log so a later invocation for the same
// session can resume undo/redo, then releases file handles.
func (a *appContext) Close() {
	if a.ctx != nil && a.ctx.ActionLog != nil && a.actionLogPath != "" {
		if err := a.ctx.ActionLog.SaveTo(a.actionLogPath); err != nil {
			fmt.Fprintf(os.Stderr, "execcore: warning: failed to save action log: %v\n", err)
		}
	}
	if a.logger != nil {
		a.logger.Close()
	}
	if a.policies != nil {
		a.policies.Close()
	}
}

// bootstrap wires every subsystem the way a single execcore invocation
// needs it: one process, one session, no daemon.
func bootstrap(flags *globalFlags) (*appContext, error) {
	cfg, err := loadConfig(flags.configPath)
	if err != nil {
		return nil, err
	}

	level := cfg.Sandbox.Level
	if flags.sandboxLvl != "" {
		level = flags.sandboxLvl
	}
	sandboxLevel, err := sandbox.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("execcore: %w", err)
	}

	workspace := flags.workspace
	if workspace == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("execcore: resolve working directory: %w", err)
		}
		workspace = wd
	}
	absWorkspace, err := filepath.Abs(workspace)
	if err != nil {
		return nil, fmt.Errorf("execcore: resolve workspace path: %w", err)
	}

	sessionID := flags.sessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	dataDir := flags.dataDir
	if dataDir == "" {
		dataDir = filepath.Join(absWorkspace, ".execcore")
	}

	auditMgr, err := audit.NewSessionAuditManager(filepath.Join(dataDir, "audit"), sessionID)
	if err != nil {
		return nil, fmt.Errorf("execcore: init audit log: %w", err)
	}

	logger, err := logging.NewLogger(filepath.Join(dataDir, "logs"), sessionID)
	if err != nil {
		return nil, fmt.Errorf("execcore: init logger: %w", err)
	}

	approvalMgr := approval.NewManager(cfg.Approval.AutoApproveLowRisk, flags.interactive && cfg.Approval.Interactive)
	approvalMgr.SetBackend(stdioApprovalBackend{})

	backupRoot := cfg.Backup.Root
	if backupRoot == "" {
		backupRoot = filepath.Join(dataDir, "backups")
	}
	backupMgr := backup.NewManager(backupRoot, cfg.Backup.MaxAgeDays, cfg.Backup.MaxEntries)

	actions := actionlog.New()
	actionLogPath := filepath.Join(dataDir, "actionlog", sessionID+".json")
	if err := actions.LoadFrom(actionLogPath); err != nil {
		return nil, fmt.Errorf("execcore: load action log: %w", err)
	}

	policies, err := policystore.Open(filepath.Join(dataDir, "policy.db"))
	if err != nil {
		return nil, fmt.Errorf("execcore: open policy store: %w", err)
	}

	registry := command.NewRegistry()
	registry.RegisterBuiltin(commands.Create{})
	registry.RegisterBuiltin(commands.Edit{})
	registry.RegisterBuiltin(commands.Delete{})
	registry.RegisterBuiltin(commands.Rename{})
	registry.RegisterBuiltin(commands.Search{})
	registry.RegisterBuiltin(commands.Run{Executor: sandbox.NewExecutor(5 * time.Minute)})

	engine := execution.NewEngine(registry, auditMgr, approvalMgr, backupMgr, actions)
	engine.AllowNetwork = cfg.Sandbox.AllowNetwork

	cctx := &command.Context{
		SessionID:     sessionID,
		WorkspacePath: absWorkspace,
		SandboxLevel:  sandboxLevel,
		ActionLog:     actions,
	}

	return &appContext{
		cfg:           cfg,
		engine:        engine,
		registry:      registry,
		policies:      policies,
		logger:        logger,
		ctx:           cctx,
		sessionID:     sessionID,
		actionLogPath: actionLogPath,
		dataDir:       dataDir,
	}, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "execcore",
		Short: "execcore — the trusted execution core of an AI coding assistant",
		Long:  "Runs sandboxed, approved, and audited filesystem and shell commands on behalf of an AI coding assistant, with full undo/redo history.",
	}

	root.PersistentFlags().StringVar(&flags.workspace, "workspace", "", "workspace root (default: current directory)")
	root.PersistentFlags().StringVar(&flags.sandboxLvl, "sandbox-level", "", "sandbox level: read-only, workspace-write, full-access")
	root.PersistentFlags().StringVar(&flags.sessionID, "session-id", "", "session id (default: a freshly generated UUID)")
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to a config.yaml overriding defaults")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "directory for audit logs, backups, and the policy store (default: <workspace>/.execcore)")
	root.PersistentFlags().BoolVar(&flags.interactive, "interactive", true, "prompt on the terminal for approvals requiring one")

	root.AddCommand(
		newRunCmd(flags),
		newApproveCmd(flags),
		newUndoCmd(flags),
		newRedoCmd(flags),
		newAuditCmd(flags),
		newRollbackCmd(flags),
		newPolicyCmd(flags),
	)
	return root
}

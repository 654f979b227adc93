package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relaydev/execcore/pkg/policystore"
	"github.com/relaydev/execcore/pkg/sandbox"
)

func newPolicyCmd(flags *globalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "policy",
		Short: "Manage named sandbox policies persisted across invocations",
	}
	root.AddCommand(
		newPolicySaveCmd(flags),
		newPolicyGetCmd(flags),
		newPolicyListCmd(flags),
		newPolicyDeleteCmd(flags),
	)
	return root
}

func newPolicySaveCmd(flags *globalFlags) *cobra.Command {
	var level string
	var workspace string
	var requireApproval bool
	var allowNetwork bool

	cmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Create or replace a named sandbox policy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap(flags)
			if err != nil {
				return err
			}
			defer app.Close()

			lvl, err := sandbox.ParseLevel(level)
			if err != nil {
				return fmt.Errorf("execcore: %w", err)
			}
			if workspace == "" {
				workspace = app.ctx.WorkspacePath
			}
			record := &policystore.PolicyRecord{
				Name:            args[0],
				Level:           lvl,
				Workspace:       workspace,
				RequireApproval: requireApproval,
				AllowNetwork:    allowNetwork,
			}
			if err := app.policies.SavePolicy(record); err != nil {
				return err
			}
			fmt.Printf("saved policy %q (%s)\n", record.Name, record.Level)
			return nil
		},
	}
	cmd.Flags().StringVar(&level, "level", "read-only", "sandbox level: read-only, workspace-write, full-access")
	cmd.Flags().StringVar(&workspace, "workspace", "", "workspace this policy applies to (default: the current workspace)")
	cmd.Flags().BoolVar(&requireApproval, "require-approval", false, "force approval regardless of risk classification")
	cmd.Flags().BoolVar(&allowNetwork, "allow-network", false, "permit network-capable commands under this policy")
	return cmd
}

func newPolicyGetCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get <name>",
		Short: "Print a named policy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap(flags)
			if err != nil {
				return err
			}
			defer app.Close()

			policy, err := app.policies.GetPolicy(args[0])
			if err != nil {
				return err
			}
			if policy == nil {
				return fmt.Errorf("execcore: no policy named %q", args[0])
			}
			return printJSON(policy)
		},
	}
}

func newPolicyListCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every saved policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap(flags)
			if err != nil {
				return err
			}
			defer app.Close()

			policies, err := app.policies.ListPolicies()
			if err != nil {
				return err
			}
			return printJSON(policies)
		},
	}
}

func newPolicyDeleteCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a named policy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap(flags)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.policies.DeletePolicy(args[0]); err != nil {
				return err
			}
			fmt.Printf("deleted policy %q\n", args[0])
			return nil
		},
	}
}

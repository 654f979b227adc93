package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/relaydev/execcore/pkg/audit"
)

func newAuditCmd(flags *globalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "audit",
		Short: "Query the session audit log",
	}
	root.AddCommand(newAuditSessionCmd(flags), newAuditTrailCmd(flags), newAuditSummaryCmd(flags))
	return root
}

func auditQueryEngine(app *appContext) *audit.QueryEngine {
	return audit.NewQueryEngine(filepath.Join(app.dataDir, "audit"))
}

func newAuditSessionCmd(f *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "session [session-id]",
		Short: "List every recorded event for a session (default: the current session)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap(f)
			if err != nil {
				return err
			}
			defer app.Close()

			sessionID := app.sessionID
			if len(args) == 1 {
				sessionID = args[0]
			}
			events, err := auditQueryEngine(app).ReadSession(sessionID)
			if err != nil {
				return err
			}
			return printJSON(events)
		},
	}
}

func newAuditTrailCmd(f *globalFlags) *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:   "trail <command-id>",
		Short: "List every event tagged with a given command id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap(f)
			if err != nil {
				return err
			}
			defer app.Close()

			if sessionID == "" {
				sessionID = app.sessionID
			}
			trail, err := auditQueryEngine(app).CommandTrail(sessionID, args[0])
			if err != nil {
				return err
			}
			return printJSON(trail)
		},
	}
	cmd.Flags().StringVar(&sessionID, "session-id", "", "session to search (default: the current session)")
	return cmd
}

func newAuditSummaryCmd(f *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "summary [session-id]",
		Short: "Print aggregate counters for a session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap(f)
			if err != nil {
				return err
			}
			defer app.Close()

			sessionID := app.sessionID
			if len(args) == 1 {
				sessionID = args[0]
			}
			summary, err := auditQueryEngine(app).SessionSummary(sessionID)
			if err != nil {
				return err
			}
			return printJSON(summary)
		},
	}
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("execcore: marshal output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

package cmd

import (
	"strconv"

	"github.com/korulabs/koru/internal/audit"
	"github.com/korulabs/koru/internal/reconcile"
	"github.com/korulabs/koru/internal/snapshot"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var rollbackEnv string

func init() {
	rollbackCmd.Flags().StringVar(&rollbackEnv, "env", "", "environment to restore (defaults to the project default)")
}

var rollbackCmd = &cobra.Command{
	Use:   "rollback <VERSION>",
	Short: "Restore the secrets captured at an earlier version",
	Long: `Restore an earlier version of the secrets.

The snapshot is replayed through the normal sync path, so the restore is
validated like any edit and becomes a new version itself. History is never
rewound.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting rollback command")

		version, err := strconv.Atoi(args[0])
		if err != nil || version < 1 {
			return Logger.ErrorfAndReturn("version must be a positive number, got %q", args[0])
		}

		spinner, cleanup := startSpinner("Rolling back...", verbose)
		defer cleanup()

		projectConfig, err := loadProject()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load project: %v", err)
		}
		environment, err := environmentFlag(projectConfig, rollbackEnv)
		if err != nil {
			return Logger.ErrorfAndReturn("%v", err)
		}

		sess, client, _, err := newAuthedClient()
		if err != nil {
			return Logger.ErrorfAndReturn("not logged in: %v", err)
		}
		workspaceID := projectConfig.Project.WorkspaceID

		ws, err := fetchWorkingSet(cmd.Context(), client, sess, workspaceID, environment)
		if err != nil {
			return Logger.ErrorfAndReturn("failed to fetch current state: %v", err)
		}

		engine := reconcile.NewEngine(client)
		engine.SetBaseline(workspaceID, ws.Rows, ws.SnapshotCount)
		service := snapshot.NewService(client, engine)

		rows, err := service.Rollback(cmd.Context(), snapshot.RollbackRequest{
			WorkspaceID: workspaceID,
			Environment: environment,
			ProjectKey:  ws.ProjectKey,
			Version:     version,
			Existing:    ws.Existing,
		})
		if err != nil {
			return Logger.ErrorfAndReturn("rollback failed: %v", err)
		}

		entry := audit.LogWithUser("rollback")
		entry.Environment = environment.String()
		entry.Version = version
		audit.Log(entry)

		newCount := engine.SnapshotCount(workspaceID)
		Logger.Infof("Rolled back to version %d, now at version %d", version, newCount)
		spinner.FinalMSG = color.GreenString("✓") + " Restored " + color.CyanString(environment.String()) +
			" to version " + color.YellowString(strconv.Itoa(version)) +
			color.HiBlackString(" (%d secrets, now at version %d)", len(rows), newCount)
		return nil
	},
}

package cmd

import (
	"github.com/korulabs/koru/internal/audit"
	"github.com/korulabs/koru/internal/merge"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var unsetEnv string

func init() {
	unsetCmd.Flags().StringVar(&unsetEnv, "env", "", "environment to delete from (defaults to the project default)")
}

var unsetCmd = &cobra.Command{
	Use:   "unset <KEY>",
	Short: "Delete a secret and its override",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting unset command")
		key := args[0]

		spinner, cleanup := startSpinner("Deleting secret...", verbose)
		defer cleanup()

		projectConfig, err := loadProject()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load project: %v", err)
		}
		environment, err := environmentFlag(projectConfig, unsetEnv)
		if err != nil {
			return Logger.ErrorfAndReturn("%v", err)
		}

		sess, client, _, err := newAuthedClient()
		if err != nil {
			return Logger.ErrorfAndReturn("not logged in: %v", err)
		}

		ws, err := fetchWorkingSet(cmd.Context(), client, sess, projectConfig.Project.WorkspaceID, environment)
		if err != nil {
			return Logger.ErrorfAndReturn("failed to fetch secrets: %v", err)
		}

		idx := findRow(ws.Rows, key)
		if idx < 0 {
			spinner.FinalMSG = color.RedString("✗") + " No secret named " + color.YellowString(merge.NormalizeKey(key)) +
				" in " + color.CyanString(environment.String())
			return nil
		}

		rows := append([]merge.MergedRow{}, ws.Rows[:idx]...)
		rows = append(rows, ws.Rows[idx+1:]...)

		_, count, err := pushRows(cmd.Context(), client, ws, projectConfig.Project.WorkspaceID, environment, rows)
		if err != nil {
			return Logger.ErrorfAndReturn("failed to delete secret: %v", err)
		}

		entry := audit.LogWithUser("push")
		entry.Environment = environment.String()
		entry.DeletedCount = 1
		audit.Log(entry)

		Logger.Infof("Secret %s deleted, snapshot %d", key, count)
		spinner.FinalMSG = color.GreenString("✓") + " " + color.YellowString(merge.NormalizeKey(key)) +
			" deleted from " + color.CyanString(environment.String()) +
			color.HiBlackString(" (version %d)", count)
		return nil
	},
}

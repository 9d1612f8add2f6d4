package cmd

import (
	"github.com/korulabs/koru/internal/audit"
	"github.com/korulabs/koru/internal/merge"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	setEnv     string
	setComment string
)

func init() {
	setCmd.Flags().StringVar(&setEnv, "env", "", "environment to write to (defaults to the project default)")
	setCmd.Flags().StringVar(&setComment, "comment", "", "comment stored alongside the secret")
}

var setCmd = &cobra.Command{
	Use:   "set <KEY> <VALUE>",
	Short: "Create or update a shared secret",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting set command")
		key, value := args[0], args[1]

		spinner, cleanup := startSpinner("Saving secret...", verbose)
		defer cleanup()

		projectConfig, err := loadProject()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load project: %v", err)
		}
		environment, err := environmentFlag(projectConfig, setEnv)
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

		rows := append([]merge.MergedRow{}, ws.Rows...)
		action := "created"
		if idx := findRow(rows, key); idx >= 0 {
			Logger.Debugf("Updating existing secret %s", rows[idx].Key)
			rows[idx].Value = value
			if setComment != "" {
				rows[idx].Comment = setComment
			}
			action = "updated"
		} else {
			Logger.Debugf("Creating new secret %s", key)
			rows = append(rows, merge.MergedRow{
				Pos:     len(rows),
				Key:     key,
				Value:   value,
				Comment: setComment,
			})
		}

		pushed, count, err := pushRows(cmd.Context(), client, ws, projectConfig.Project.WorkspaceID, environment, rows)
		if err != nil {
			return Logger.ErrorfAndReturn("failed to save secret: %v", err)
		}

		entry := audit.LogWithUser("push")
		entry.Environment = environment.String()
		if action == "created" {
			entry.AddedCount = 1
		} else {
			entry.UpdatedCount = 1
		}
		audit.Log(entry)

		Logger.Infof("Secret %s %s, snapshot %d", key, action, count)
		spinner.FinalMSG = color.GreenString("✓") + " " + color.YellowString(merge.NormalizeKey(key)) +
			" " + action + " in " + color.CyanString(environment.String()) +
			color.HiBlackString(" (version %d, %d secrets)", count, len(pushed))
		return nil
	},
}

package cmd

import (
	"github.com/korulabs/koru/internal/audit"
	"github.com/korulabs/koru/internal/merge"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	overrideEnv   string
	overrideClear bool
)

func init() {
	overrideCmd.Flags().StringVar(&overrideEnv, "env", "", "environment to write to (defaults to the project default)")
	overrideCmd.Flags().BoolVar(&overrideClear, "clear", false, "remove your override and fall back to the shared value")
}

var overrideCmd = &cobra.Command{
	Use:   "override <KEY> [VALUE]",
	Short: "Set a personal value that shadows the shared one for you only",
	Long: `Set a personal override for a secret.

Overrides are visible only to you; teammates keep seeing the shared value.
Use --clear to drop your override again.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting override command")
		key := args[0]

		if !overrideClear && len(args) != 2 {
			return Logger.ErrorfAndReturn("a value is required unless --clear is set")
		}

		spinner, cleanup := startSpinner("Saving override...", verbose)
		defer cleanup()

		projectConfig, err := loadProject()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load project: %v", err)
		}
		environment, err := environmentFlag(projectConfig, overrideEnv)
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
		idx := findRow(rows, key)

		if overrideClear {
			if idx < 0 || !rows[idx].HasOverride() {
				spinner.FinalMSG = color.RedString("✗") + " No override for " + color.YellowString(merge.NormalizeKey(key))
				return nil
			}
			rows[idx].ValueOverride = nil
			rows[idx].IDOverride = ""
		} else {
			value := args[1]
			if idx >= 0 {
				rows[idx].ValueOverride = &value
			} else {
				// No shared secret with this name: the override becomes a
				// personal-only secret invisible to teammates.
				Logger.Debugf("No shared secret %s, creating personal-only secret", key)
				rows = append(rows, merge.MergedRow{
					Pos:           len(rows),
					Key:           key,
					ValueOverride: &value,
				})
			}
		}

		_, count, err := pushRows(cmd.Context(), client, ws, projectConfig.Project.WorkspaceID, environment, rows)
		if err != nil {
			return Logger.ErrorfAndReturn("failed to save override: %v", err)
		}

		entry := audit.LogWithUser("push")
		entry.Environment = environment.String()
		entry.UpdatedCount = 1
		audit.Log(entry)

		action := "set"
		if overrideClear {
			action = "cleared"
		}
		Logger.Infof("Override %s for %s, snapshot %d", action, key, count)
		spinner.FinalMSG = color.GreenString("✓") + " Override " + action + " for " + color.YellowString(merge.NormalizeKey(key)) +
			" in " + color.CyanString(environment.String()) +
			color.HiBlackString(" (version %d)", count)
		return nil
	},
}

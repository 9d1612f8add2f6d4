package cmd

import (
	"fmt"
	"strings"

	"github.com/korulabs/koru/internal/ui"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	pullEnv  string
	pullShow bool
)

func init() {
	pullCmd.Flags().StringVar(&pullEnv, "env", "", "environment to pull (defaults to the project default)")
	pullCmd.Flags().BoolVar(&pullShow, "show", false, "print secret values instead of masking them")
}

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Fetch and decrypt the secrets for one environment",
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting pull command")
		spinner, cleanup := startSpinner("Pulling secrets...", verbose)
		defer cleanup()

		projectConfig, err := loadProject()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load project: %v", err)
		}
		environment, err := environmentFlag(projectConfig, pullEnv)
		if err != nil {
			return Logger.ErrorfAndReturn("%v", err)
		}

		sess, client, _, err := newAuthedClient()
		if err != nil {
			return Logger.ErrorfAndReturn("not logged in: %v", err)
		}

		Logger.Debugf("Fetching %s secrets for workspace %s", environment, projectConfig.Project.WorkspaceID)
		ws, err := fetchWorkingSet(cmd.Context(), client, sess, projectConfig.Project.WorkspaceID, environment)
		if err != nil {
			return Logger.ErrorfAndReturn("failed to fetch secrets: %v", err)
		}

		if len(ws.Rows) == 0 {
			spinner.FinalMSG = color.YellowString("No secrets in " + environment.String())
			return nil
		}

		var message strings.Builder
		message.WriteString(color.GreenString("✓") + fmt.Sprintf(" %d secrets in %s\n", len(ws.Rows), color.CyanString(environment.String())))
		for _, row := range ws.Rows {
			value := row.EffectiveValue()
			if !pullShow {
				value = ui.MaskValue(value)
			}
			marker := "  "
			if row.HasOverride() {
				marker = color.MagentaString("* ")
			}
			message.WriteString(fmt.Sprintf("  %s%s=%s\n", marker, color.YellowString(row.Key), value))
		}
		if !pullShow {
			message.WriteString(color.CyanString("→") + " Use " + color.YellowString("--show") + " to reveal values " +
				ui.Muted.Sprint("* personal override"))
		}

		Logger.Infof("Pulled %d secrets from %s", len(ws.Rows), environment)
		spinner.FinalMSG = message.String()
		return nil
	},
}

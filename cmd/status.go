package cmd

import (
	"errors"
	"strings"

	"github.com/korulabs/koru/internal/configs"
	koruerrors "github.com/korulabs/koru/internal/errors"
	"github.com/korulabs/koru/internal/session"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show login state and the linked project",
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting status command")
		spinner, cleanup := startSpinner("Checking status...", verbose)
		defer cleanup()

		var message strings.Builder

		userConfig, err := configs.LoadUserConfig()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load user config: %v", err)
		}
		message.WriteString("server:  " + color.CyanString(userConfig.Server.URL) + "\n")

		store := session.NewStore(configs.UserKoruSettings.UserDataPath)
		sess, err := store.Load()
		switch {
		case errors.Is(err, koruerrors.ErrNotLoggedIn):
			message.WriteString("account: " + color.RedString("not logged in") + "\n")
		case err != nil:
			return Logger.ErrorfAndReturn("failed to load session: %v", err)
		default:
			message.WriteString("account: " + color.GreenString(sess.Email) + "\n")
		}

		projectConfig, err := loadProject()
		switch {
		case errors.Is(err, koruerrors.ErrProjectNotLinked):
			message.WriteString("project: " + color.RedString("not linked") + "\n" +
				color.CyanString("→") + " Run " + color.YellowString("koru init --workspace <id>") + " to link this directory")
		case err != nil:
			return Logger.ErrorfAndReturn("failed to load project config: %v", err)
		default:
			message.WriteString("project: " + color.GreenString(projectConfig.Project.Name) +
				" " + color.YellowString("("+projectConfig.Project.WorkspaceID+")") + "\n")
			message.WriteString("env:     " + color.CyanString(projectConfig.Environment("")))
		}

		spinner.FinalMSG = message.String()
		return nil
	},
}

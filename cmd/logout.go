package cmd

import (
	"github.com/korulabs/koru/internal/configs"
	"github.com/korulabs/koru/internal/session"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored session and keys from this machine",
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting logout command")
		spinner, cleanup := startSpinner("Logging out...", verbose)
		defer cleanup()

		store := session.NewStore(configs.UserKoruSettings.UserDataPath)
		if err := store.Delete(); err != nil {
			return Logger.ErrorfAndReturn("failed to remove session: %v", err)
		}

		Logger.Infof("Session removed")
		spinner.FinalMSG = color.GreenString("✓") + " Logged out"
		return nil
	},
}

package cmd

import (
	"github.com/korulabs/koru/internal/session"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var passwdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Change your password and re-wrap your encryption keys",
	Long: `Change the account password.

A new proof verifier and a freshly wrapped private-key envelope are submitted
together; the server applies both or neither, so a failure leaves the old
password working.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting passwd command")

		sess, client, _, err := newAuthedClient()
		if err != nil {
			return Logger.ErrorfAndReturn("not logged in: %v", err)
		}

		oldPassword, err := promptPassword("Current password: ")
		if err != nil {
			return Logger.ErrorfAndReturn("%v", err)
		}
		newPassword, err := promptPassword("New password: ")
		if err != nil {
			return Logger.ErrorfAndReturn("%v", err)
		}
		confirm, err := promptPassword("Repeat new password: ")
		if err != nil {
			return Logger.ErrorfAndReturn("%v", err)
		}
		if newPassword != confirm {
			return Logger.ErrorfAndReturn("passwords do not match")
		}

		spinner, cleanup := startSpinner("Changing password...", verbose)
		defer cleanup()

		if err := session.ChangePassword(cmd.Context(), client, sess, oldPassword, newPassword); err != nil {
			spinner.FinalMSG = color.RedString("✗") + " Password change failed: " + err.Error()
			return nil
		}

		Logger.Infof("Password changed for %s", sess.Email)
		spinner.FinalMSG = color.GreenString("✓") + " Password changed"
		return nil
	},
}

package cmd

import (
	"strings"

	"github.com/korulabs/koru/internal/audit"
	"github.com/korulabs/koru/internal/keyring"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a service token for CI and automation",
	Long: `Issue a service token.

The token is a synthetic project member: a fresh keypair is generated, the
project key is wrapped for it, and the private half is embedded in the token
string. Anyone holding the token can decrypt this project's secrets, so
treat it like a password.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting token command")
		spinner, cleanup := startSpinner("Issuing service token...", verbose)
		defer cleanup()

		projectConfig, err := loadProject()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load project: %v", err)
		}

		sess, client, _, err := newAuthedClient()
		if err != nil {
			return Logger.ErrorfAndReturn("not logged in: %v", err)
		}
		workspaceID := projectConfig.Project.WorkspaceID

		projectKey, err := keyring.ObtainProjectKey(cmd.Context(), client, workspaceID, sess.UserID, sess.PublicKey, sess.PrivateKey)
		if err != nil {
			return Logger.ErrorfAndReturn("failed to obtain project key: %v", err)
		}

		token, err := keyring.IssueServiceToken(cmd.Context(), client, workspaceID, projectKey, sess.PrivateKey)
		if err != nil {
			return Logger.ErrorfAndReturn("failed to issue service token: %v", err)
		}

		parsed, err := keyring.ParseServiceToken(token)
		if err != nil {
			return Logger.ErrorfAndReturn("issued token failed to parse: %v", err)
		}

		entry := audit.LogWithUser("token")
		entry.TokenID = parsed.ID
		audit.Log(entry)

		Logger.Infof("Issued service token %s", parsed.ID)
		spinner.FinalMSG = color.GreenString("✓") + " Service token issued " + color.HiBlackString("(id "+parsed.ID+")") + "\n\n" +
			"    " + color.YellowString(token) + "\n\n" +
			color.CyanString("→") + " This is the only time the token is shown. Store it in your CI secrets now.\n" +
			strings.TrimSpace(color.RedString("  Anyone holding it can decrypt this project's secrets."))
		return nil
	},
}

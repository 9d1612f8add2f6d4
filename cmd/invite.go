package cmd

import (
	"github.com/korulabs/koru/internal/audit"
	"github.com/korulabs/koru/internal/keyring"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var inviteCmd = &cobra.Command{
	Use:   "invite <EMAIL>",
	Short: "Grant a workspace member access to this project's secrets",
	Long: `Grant another member access to the project key.

The key is unwrapped locally and re-wrapped under the recipient's public
key; the server only ever stores wrapped copies.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting invite command")
		email := args[0]

		spinner, cleanup := startSpinner("Granting access...", verbose)
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

		Logger.Debugf("Looking up %s in workspace members", email)
		members, err := client.GetMembers(cmd.Context(), workspaceID)
		if err != nil {
			return Logger.ErrorfAndReturn("failed to list members: %v", err)
		}

		var recipientUserID, recipientPublicKey string
		for _, member := range members {
			if member.Email == email {
				recipientUserID = member.UserID
				recipientPublicKey = member.PublicKey
				break
			}
		}
		if recipientPublicKey == "" {
			spinner.FinalMSG = color.RedString("✗") + " " + color.CyanString(email) + " is not a member of this workspace\n" +
				color.CyanString("→") + " They need to sign up before they can be granted access"
			return nil
		}

		projectKey, err := keyring.ObtainProjectKey(cmd.Context(), client, workspaceID, sess.UserID, sess.PublicKey, sess.PrivateKey)
		if err != nil {
			return Logger.ErrorfAndReturn("failed to obtain project key: %v", err)
		}

		grant, err := keyring.GrantAccess(projectKey, recipientUserID, recipientPublicKey, sess.PrivateKey)
		if err != nil {
			return Logger.ErrorfAndReturn("failed to wrap project key: %v", err)
		}
		if err := client.CreateKeyGrant(cmd.Context(), workspaceID, grant); err != nil {
			return Logger.ErrorfAndReturn("failed to submit key grant: %v", err)
		}

		entry := audit.LogWithUser("invite")
		entry.TargetUser = email
		audit.Log(entry)

		Logger.Infof("Granted %s access to workspace %s", email, workspaceID)
		spinner.FinalMSG = color.GreenString("✓") + " Granted " + color.CyanString(email) + " access to this project"
		return nil
	},
}

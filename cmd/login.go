package cmd

import (
	"bufio"
	"os"
	"strings"

	"github.com/korulabs/koru/internal/api"
	"github.com/korulabs/koru/internal/configs"
	"github.com/korulabs/koru/internal/session"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var loginEmail string

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate and unlock your encryption keys",
	Long: `Log in to the Koru server.

The password never leaves this machine: authentication uses a zero-knowledge
proof, and your private key is decrypted locally after the proof succeeds.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting login command")

		userConfig, err := configs.LoadUserConfig()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load user config: %v", err)
		}

		email := loginEmail
		if email == "" {
			email = userConfig.User.Email
		}
		if email == "" {
			cmd.Print("Email: ")
			reader := bufio.NewReader(os.Stdin)
			line, err := reader.ReadString('\n')
			if err != nil {
				return Logger.ErrorfAndReturn("failed to read email: %v", err)
			}
			email = strings.TrimSpace(line)
		}

		password, err := promptPassword("Password: ")
		if err != nil {
			return Logger.ErrorfAndReturn("%v", err)
		}

		spinner, cleanup := startSpinner("Logging in...", verbose)
		defer cleanup()

		client := api.NewClient(userConfig.Server.URL, nil, apiLogger())

		Logger.Debugf("Running password proof exchange for %s", email)
		sess, err := session.Login(cmd.Context(), client, email, password)
		if err != nil {
			spinner.FinalMSG = color.RedString("✗") + " Login failed: " + err.Error()
			return nil
		}

		store := session.NewStore(configs.UserKoruSettings.UserDataPath)
		if err := store.Save(sess); err != nil {
			return Logger.ErrorfAndReturn("failed to persist session: %v", err)
		}

		userConfig.User.Email = email
		if err := configs.SaveUserConfig(userConfig); err != nil {
			return Logger.ErrorfAndReturn("failed to save user config: %v", err)
		}

		Logger.Infof("Login completed for %s", email)
		spinner.FinalMSG = color.GreenString("✓") + " Logged in as " + color.CyanString(email)
		return nil
	},
}

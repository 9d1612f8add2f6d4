package cmd

import (
	logger "github.com/korulabs/koru/internal/logging"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	debug   bool
	Logger  logger.Logger

	RootCmd = &cobra.Command{
		Use:   "koru",
		Short: "Manage end-to-end encrypted team secrets",
		Long: `Koru keeps your team's environment secrets encrypted end to end.

Secrets are encrypted on your machine before they leave it; the server only
ever stores ciphertext and per-member wrapped copies of the project key.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			Logger = logger.Logger{
				Verbose: verbose,
				Debug:   debug,
			}
			Logger.Debugf("Initializing koru command with verbose=%t, debug=%t", verbose, debug)
		},
	}
)

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	RootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")

	RootCmd.AddCommand(initCmd)
	RootCmd.AddCommand(loginCmd)
	RootCmd.AddCommand(logoutCmd)
	RootCmd.AddCommand(passwdCmd)
	RootCmd.AddCommand(statusCmd)
	RootCmd.AddCommand(pullCmd)
	RootCmd.AddCommand(setCmd)
	RootCmd.AddCommand(unsetCmd)
	RootCmd.AddCommand(overrideCmd)
	RootCmd.AddCommand(inviteCmd)
	RootCmd.AddCommand(tokenCmd)
	RootCmd.AddCommand(historyCmd)
	RootCmd.AddCommand(rollbackCmd)
	RootCmd.AddCommand(exportCmd)
}

// GetRootCmd returns the RootCmd for testing.
func GetRootCmd() *cobra.Command {
	return RootCmd
}

// SetLogger sets the logger for testing.
func SetLogger(l logger.Logger) {
	Logger = l
}

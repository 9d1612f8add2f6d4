package cmd

import (
	"fmt"
	"strings"

	"github.com/korulabs/koru/internal/audit"
	"github.com/korulabs/koru/internal/reconcile"
	"github.com/korulabs/koru/internal/snapshot"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var historyLimit int

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "number of audit entries to show")
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the version count and recent operations",
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting history command")
		spinner, cleanup := startSpinner("Loading history...", verbose)
		defer cleanup()

		projectConfig, err := loadProject()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load project: %v", err)
		}

		_, client, _, err := newAuthedClient()
		if err != nil {
			return Logger.ErrorfAndReturn("not logged in: %v", err)
		}

		service := snapshot.NewService(client, reconcile.NewEngine(client))
		count, err := service.Count(cmd.Context(), projectConfig.Project.WorkspaceID)
		if err != nil {
			return Logger.ErrorfAndReturn("failed to fetch version count: %v", err)
		}

		var message strings.Builder
		message.WriteString(color.GreenString("✓") + fmt.Sprintf(" %d versions ", count) +
			color.HiBlackString("(latest is %d)", count) + "\n")

		entries, err := audit.ReadEntries()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to read audit log: %v", err)
		}
		if len(entries) > historyLimit {
			entries = entries[len(entries)-historyLimit:]
		}
		for _, entry := range entries {
			detail := ""
			switch entry.Operation {
			case "invite":
				detail = " " + entry.TargetUser
			case "rollback":
				detail = fmt.Sprintf(" to version %d", entry.Version)
			case "push":
				detail = fmt.Sprintf(" +%d ~%d -%d", entry.AddedCount, entry.UpdatedCount, entry.DeletedCount)
			}
			message.WriteString("  " + color.HiBlackString(entry.Timestamp) + " " +
				color.CyanString(entry.User) + " " + color.YellowString(entry.Operation) + detail + "\n")
		}

		spinner.FinalMSG = strings.TrimRight(message.String(), "\n")
		return nil
	},
}

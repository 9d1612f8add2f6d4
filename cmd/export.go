package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/korulabs/koru/internal/audit"
	"github.com/korulabs/koru/internal/merge"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	exportEnv    string
	exportFormat string
	exportOutput string
)

func init() {
	exportCmd.Flags().StringVar(&exportEnv, "env", "", "environment to export (defaults to the project default)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "dotenv", "output format: dotenv or yaml")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write to a file instead of stdout")
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export decrypted secrets as dotenv or YAML",
	Long: `Export the decrypted secrets of one environment.

Personal overrides take precedence over shared values, matching what you
see in pull. The output contains plaintext secrets; avoid committing it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting export command")
		spinner, cleanup := startSpinner("Exporting secrets...", verbose)
		defer cleanup()

		projectConfig, err := loadProject()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load project: %v", err)
		}
		environment, err := environmentFlag(projectConfig, exportEnv)
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
		merge.Sort(rows, true)

		output, err := renderExport(rows, exportFormat)
		if err != nil {
			return Logger.ErrorfAndReturn("%v", err)
		}

		if exportOutput == "" {
			spinner.FinalMSG = output
			return nil
		}

		// #nosec G306 -- plaintext export is explicitly requested; keep it user-only anyway.
		if err := os.WriteFile(exportOutput, []byte(output), 0600); err != nil {
			return Logger.ErrorfAndReturn("failed to write %s: %v", exportOutput, err)
		}

		entry := audit.LogWithUser("export")
		entry.Environment = environment.String()
		entry.OutputPath = exportOutput
		audit.Log(entry)

		Logger.Infof("Exported %d secrets to %s", len(rows), exportOutput)
		spinner.FinalMSG = color.GreenString("✓") + fmt.Sprintf(" Exported %d secrets to ", len(rows)) +
			color.YellowString(exportOutput)
		return nil
	},
}

// renderExport serializes rows with override precedence applied.
func renderExport(rows []merge.MergedRow, format string) (string, error) {
	switch format {
	case "dotenv":
		var b strings.Builder
		for _, row := range rows {
			if row.Comment != "" {
				b.WriteString("# " + row.Comment + "\n")
			}
			b.WriteString(fmt.Sprintf("%s=%s\n", row.Key, quoteDotenv(row.EffectiveValue())))
		}
		return b.String(), nil
	case "yaml":
		values := make(map[string]string, len(rows))
		for _, row := range rows {
			values[row.Key] = row.EffectiveValue()
		}
		encoded, err := yaml.Marshal(values)
		if err != nil {
			return "", fmt.Errorf("failed to render yaml: %w", err)
		}
		return string(encoded), nil
	default:
		return "", fmt.Errorf("unknown format %q (expected dotenv or yaml)", format)
	}
}

// quoteDotenv quotes values that would break a naive KEY=VALUE parser.
func quoteDotenv(value string) string {
	if strings.ContainsAny(value, " \t\n\"'#") {
		return fmt.Sprintf("%q", value)
	}
	return value
}

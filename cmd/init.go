package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/korulabs/koru/internal/audit"
	"github.com/korulabs/koru/internal/codec"
	"github.com/korulabs/koru/internal/configs"

	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	initWorkspaceID string
	initName        string
	initEnv         string
)

func init() {
	initCmd.Flags().StringVar(&initWorkspaceID, "workspace", "", "workspace id to link this directory to")
	initCmd.Flags().StringVar(&initName, "name", "", "project display name (defaults to the directory name)")
	initCmd.Flags().StringVar(&initEnv, "env", "dev", "default environment for commands run here")

	_ = initCmd.MarkFlagRequired("workspace")
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Link the current directory to a Koru workspace",
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting init command")

		environment, err := codec.ParseEnvironment(initEnv)
		if err != nil {
			return Logger.ErrorfAndReturn("invalid environment: %v", err)
		}

		cwd, err := os.Getwd()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to get working directory: %v", err)
		}

		koruPath := filepath.Join(cwd, ".koru")
		if _, err := os.Stat(filepath.Join(koruPath, "config.toml")); err == nil {
			finalMessage := color.RedString("✗") + " This directory is already linked\n" +
				color.CyanString("→") + " Run " + color.YellowString("koru status") + " to see the current link"
			fmt.Println(finalMessage)
			return nil
		}

		if err := os.MkdirAll(koruPath, 0755); err != nil {
			return Logger.ErrorfAndReturn("failed to create .koru directory: %v", err)
		}

		name := initName
		if name == "" {
			name = filepath.Base(cwd)
		}

		configs.ProjectKoruSettings = &configs.ProjectSettings{
			ProjectName: name,
			ProjectPath: cwd,
			KoruPath:    koruPath,
		}
		projectConfig := &configs.ProjectConfig{
			Project: configs.Project{
				WorkspaceID:        initWorkspaceID,
				Name:               name,
				DefaultEnvironment: environment.String(),
			},
		}
		if err := configs.SaveProjectConfig(projectConfig); err != nil {
			return Logger.ErrorfAndReturn("failed to save project config: %v", err)
		}

		entry := audit.LogWithUser("init")
		entry.WorkspaceID = initWorkspaceID
		audit.Log(entry)

		fmt.Println()
		banner := figure.NewColorFigure("Koru", "alligator2", "green", true)
		banner.Print()
		fmt.Println()

		Logger.Infof("Linked %s to workspace %s", cwd, initWorkspaceID)
		finalMessage := color.GreenString("✓") + " Linked to workspace " + color.YellowString(initWorkspaceID) + "\n" +
			"    created: " + color.YellowString(filepath.Join(".koru", "config.toml")) + "\n" +
			color.CyanString("→") + " Run " + color.YellowString("koru pull") + " to fetch secrets"
		fmt.Println(finalMessage)
		return nil
	},
}

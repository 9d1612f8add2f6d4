// Package cmd contains testing utilities shared between integration tests.
// This file provides common functions for setting up test environments,
// capturing output, and resetting command state between runs.
package cmd

import (
	"bytes"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/korulabs/koru/internal/configs"
	logger "github.com/korulabs/koru/internal/logging"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// setupTestEnvironment sets up the test environment with temporary directories.
func setupTestEnvironment(t *testing.T, tempDir, tempUserDir, originalWd string, originalUserSettings *configs.UserSettings) {
	// Change to temp directory
	if err := os.Chdir(tempDir); err != nil {
		t.Fatalf("Failed to change to temp directory: %v", err)
	}

	// Cleanup function to restore original state
	t.Cleanup(func() {
		if err := os.Chdir(originalWd); err != nil {
			t.Fatalf("Failed to change to original directory: %v", err)
		}
		configs.UserKoruSettings = originalUserSettings
		configs.ProjectKoruSettings = &configs.ProjectSettings{
			ProjectName: "",
			ProjectPath: "",
			KoruPath:    "",
		}
	})

	// Override user settings to use temp directory
	configs.UserKoruSettings = &configs.UserSettings{
		UserConfigsPath: filepath.Join(tempUserDir, "config"),
		UserDataPath:    filepath.Join(tempUserDir, "data"),
	}
}

// captureOutput captures both stdout and stderr during function execution.
func captureOutput(fn func() error) (string, error) {
	// Save original stdout and stderr
	originalStdout := os.Stdout
	originalStderr := os.Stderr

	// Create pipes to capture output
	stdoutReader, stdoutWriter, _ := os.Pipe()
	stderrReader, stderrWriter, _ := os.Pipe()

	// Replace stdout and stderr
	os.Stdout = stdoutWriter
	os.Stderr = stderrWriter

	// Channel to collect output
	outputChan := make(chan string, 2)

	// Start goroutines to read from pipes
	go func() {
		var buf bytes.Buffer
		_, err := io.Copy(&buf, stdoutReader)
		if err != nil {
			log.Fatalf("Failed to run copy command: %s", err)
		}
		outputChan <- buf.String()
	}()

	go func() {
		var buf bytes.Buffer
		_, err := io.Copy(&buf, stderrReader)
		if err != nil {
			log.Fatalf("Failed to run copy command: %s", err)
		}
		outputChan <- buf.String()
	}()

	// Execute the function
	err := fn()

	// Close writers to signal EOF
	stdoutWriter.Close()
	stderrWriter.Close()

	// Restore original stdout and stderr
	os.Stdout = originalStdout
	os.Stderr = originalStderr

	// Collect output
	stdout := <-outputChan
	stderr := <-outputChan

	return stdout + stderr, err
}

// resetFlagState restores a command's flags to their defaults so package-level
// flag variables from a previous run don't leak into the next one.
func resetFlagState(cmd *cobra.Command) {
	if cmd == nil || cmd.Flags() == nil {
		return
	}
	cmd.Flags().VisitAll(func(flag *pflag.Flag) {
		_ = flag.Value.Set(flag.DefValue)
		flag.Changed = false
	})
}

// createTestCommand wraps one of the real subcommands in a fresh root command
// for testing, with the given args and flag state.
func createTestCommand(sub *cobra.Command, args []string, verboseFlag, debugFlag bool) *cobra.Command {
	// Set global flags for the actual command implementations
	verbose = verboseFlag
	debug = debugFlag

	// Initialize the logger with the test flags
	Logger = logger.Logger{
		Verbose: verbose,
		Debug:   debug,
	}

	resetFlagState(sub)

	rootCmd := &cobra.Command{
		Use:   "koru",
		Short: "Manage end-to-end encrypted team secrets",
	}
	rootCmd.AddCommand(sub)
	rootCmd.SetArgs(args)

	return rootCmd
}

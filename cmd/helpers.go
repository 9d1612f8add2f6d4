package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"syscall"
	"time"

	"github.com/korulabs/koru/internal/api"
	"github.com/korulabs/koru/internal/codec"
	"github.com/korulabs/koru/internal/configs"
	koruerrors "github.com/korulabs/koru/internal/errors"
	"github.com/korulabs/koru/internal/keyring"
	"github.com/korulabs/koru/internal/merge"
	"github.com/korulabs/koru/internal/reconcile"
	"github.com/korulabs/koru/internal/session"
	"github.com/korulabs/koru/internal/ui"

	"github.com/briandowns/spinner"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// startSpinner creates and starts a spinner with the given message when not in verbose or debug mode.
// Returns the spinner and a function that should be deferred to clean up.
//
// IMPORTANT: spinner.FinalMSG values do NOT need trailing newlines. The cleanup function
// automatically calls ui.EnsureNewline() on the final message before printing it.
// This ensures consistent output formatting across all commands.
func startSpinner(message string, verbose bool) (*spinner.Spinner, func()) {
	Logger.Debugf("Starting spinner with message: %s", message)
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message

	err := s.Color("cyan")
	if err != nil {
		// If we can't set spinner color, just continue without it.
		Logger.Warnf("Failed to set spinner color: %v", err)
	}

	if !verbose && !debug {
		Logger.Debugf("Starting spinner in non-verbose mode")
		s.Start()
		// Ensure log output is discarded unless in verbose mode.
		log.SetOutput(io.Discard)
	} else {
		Logger.Infof("Running in verbose or debug mode: %s", message)
	}

	cleanup := func() {
		// Restore log output first.
		if !verbose && !debug {
			Logger.Debugf("Restoring log output")
			log.SetOutput(os.Stdout)
		}

		// Ensure final message ends with a newline.
		finalMsg := ""
		if s.FinalMSG != "" {
			finalMsg = ui.EnsureNewline(s.FinalMSG)
			// Clear FinalMSG so s.Stop() doesn't print it.
			s.FinalMSG = ""
		}

		// Stop the spinner first to clear the spinner line.
		if !verbose && !debug {
			Logger.Debugf("Stopping spinner")
			s.Stop()
		}

		// Print final message to stdout (for tests to capture).
		if finalMsg != "" {
			fmt.Print(finalMsg)
		}
	}

	return s, cleanup
}

// apiLogger returns the structured logger the HTTP client writes request
// traces to. Silent unless --debug is set.
func apiLogger() zerolog.Logger {
	if debug {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.Nop()
}

// newAuthedClient loads the stored session and builds an API client whose
// tokens refresh and persist transparently.
func newAuthedClient() (*session.Session, *api.Client, *session.Store, error) {
	userConfig, err := configs.LoadUserConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	store := session.NewStore(configs.UserKoruSettings.UserDataPath)
	sess, err := store.Load()
	if err != nil {
		return nil, nil, nil, err
	}

	tokens := &session.Tokens{Session: sess, Store: store}
	client := api.NewClient(userConfig.Server.URL, tokens, apiLogger())
	tokens.Client = client

	return sess, client, store, nil
}

// loadProject resolves the linked project for the current directory.
func loadProject() (*configs.ProjectConfig, error) {
	if err := configs.InitProjectSettings(); err != nil {
		return nil, err
	}
	projectConfig, err := configs.LoadProjectConfig()
	if err != nil {
		return nil, err
	}
	if projectConfig.Project.WorkspaceID == "" {
		return nil, koruerrors.ErrProjectNotLinked
	}
	return projectConfig, nil
}

// workingSet is everything a command needs to read or edit secrets: the
// decrypted rows, the raw wire records for partial re-encryption, and the
// unwrapped project key.
type workingSet struct {
	Rows          []merge.MergedRow
	Existing      map[string]api.SecretRecord
	ProjectKey    []byte
	SnapshotCount int
}

// fetchWorkingSet pulls and decrypts the current state of one environment.
func fetchWorkingSet(ctx context.Context, client *api.Client, sess *session.Session, workspaceID string, environment codec.Environment) (*workingSet, error) {
	projectKey, err := keyring.ObtainProjectKey(ctx, client, workspaceID, sess.UserID, sess.PublicKey, sess.PrivateKey)
	if err != nil {
		return nil, err
	}
	key := []byte(projectKey)

	records, err := client.GetSecrets(ctx, workspaceID, environment.String())
	if err != nil {
		return nil, err
	}

	existing := make(map[string]api.SecretRecord, len(records))
	for _, record := range records {
		existing[record.ID] = record
	}

	plains, err := codec.DecryptAll(records, key)
	if err != nil {
		return nil, err
	}

	var shared, personal []codec.PlainSecret
	for _, plain := range plains {
		switch plain.Type {
		case codec.Shared:
			shared = append(shared, plain)
		case codec.Personal:
			personal = append(personal, plain)
		}
	}

	count, err := client.GetSnapshotCount(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	return &workingSet{
		Rows:          merge.Merge(shared, personal),
		Existing:      existing,
		ProjectKey:    key,
		SnapshotCount: count,
	}, nil
}

// pushRows reconciles an edited working set against the fetched state and
// returns the confirmed rows and the new snapshot count.
func pushRows(ctx context.Context, client *api.Client, ws *workingSet, workspaceID string, environment codec.Environment, rows []merge.MergedRow) ([]merge.MergedRow, int, error) {
	engine := reconcile.NewEngine(client)
	engine.SetBaseline(workspaceID, ws.Rows, ws.SnapshotCount)

	pushed, err := engine.Push(ctx, reconcile.PushRequest{
		WorkspaceID: workspaceID,
		Environment: environment,
		ProjectKey:  ws.ProjectKey,
		Current:     rows,
		Existing:    ws.Existing,
	})
	if err != nil {
		return nil, 0, err
	}
	return pushed, engine.SnapshotCount(workspaceID), nil
}

// promptPassword reads a password from the terminal without echoing it.
func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %v", err)
	}
	return string(password), nil
}

// environmentFlag resolves the --env flag against the project default.
func environmentFlag(projectConfig *configs.ProjectConfig, flagValue string) (codec.Environment, error) {
	return codec.ParseEnvironment(projectConfig.Environment(flagValue))
}

// findRow returns the index of the row with the given key name, or -1.
// Lookup is case-normalized the same way writes are.
func findRow(rows []merge.MergedRow, key string) int {
	normalized := merge.NormalizeKey(key)
	for i, row := range rows {
		if merge.NormalizeKey(row.Key) == normalized {
			return i
		}
	}
	return -1
}

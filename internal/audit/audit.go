package audit

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/korulabs/koru/internal/configs"
)

// Entry represents a single audit log entry.
type Entry struct {
	Timestamp string `json:"ts"`   // RFC3339 with microseconds.
	User      string `json:"user"` // Email of user performing action.
	Operation string `json:"op"`   // Operation name.

	// Optional fields depending on operation.
	Environment  string `json:"environment,omitempty"`   // For push/pull/rollback/export.
	AddedCount   int    `json:"added_count,omitempty"`   // For push.
	UpdatedCount int    `json:"updated_count,omitempty"` // For push.
	DeletedCount int    `json:"deleted_count,omitempty"` // For push.
	TargetUser   string `json:"target_user,omitempty"`   // For invite.
	TokenID      string `json:"token_id,omitempty"`      // For token issuance.
	Version      int    `json:"version,omitempty"`       // For rollback.
	OutputPath   string `json:"output_path,omitempty"`   // For export.
	WorkspaceID  string `json:"workspace_id,omitempty"`  // For init.
}

// Log appends an entry to the audit log.
// If logging fails, it logs a warning but does not return an error.
// Operations should not fail just because audit logging failed.
func Log(entry Entry) {
	// Set timestamp if not already set.
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format("2006-01-02T15:04:05.000000Z")
	}

	logPath := LogPath()
	if logPath == "" {
		// Project not linked, skip logging.
		return
	}

	// #nosec G306 -- audit log should be readable by team members.
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	_, _ = f.Write(append(data, '\n'))
}

// LogWithUser is a convenience function that populates user fields from config.
func LogWithUser(op string) Entry {
	entry := Entry{Operation: op}

	userConfig, err := configs.LoadUserConfig()
	if err != nil {
		return entry
	}

	entry.User = userConfig.User.Email

	return entry
}

// LogPath returns the path to the audit log file.
// Returns empty string if project is not linked.
func LogPath() string {
	koruPath := configs.ProjectKoruSettings.KoruPath
	if koruPath == "" {
		return ""
	}
	return filepath.Join(koruPath, "audit.jsonl")
}

// ReadEntries reads all entries from the audit log.
// Returns an empty slice if the log doesn't exist.
func ReadEntries() ([]Entry, error) {
	logPath := LogPath()
	if logPath == "" {
		return nil, nil
	}

	data, err := os.ReadFile(logPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return ParseEntries(data)
}

// ParseEntries parses JSON Lines data into audit entries.
// Malformed lines are silently skipped.
func ParseEntries(data []byte) ([]Entry, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var entries []Entry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, scanner.Err()
}

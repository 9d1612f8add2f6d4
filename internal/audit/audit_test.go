package audit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/korulabs/koru/internal/configs"
)

func setupTestProject(t *testing.T) string {
	t.Helper()

	tempDir := t.TempDir()
	koruDir := filepath.Join(tempDir, ".koru")
	if err := os.MkdirAll(koruDir, 0755); err != nil {
		t.Fatalf("Failed to create .koru dir: %v", err)
	}

	originalSettings := configs.ProjectKoruSettings
	configs.ProjectKoruSettings = &configs.ProjectSettings{
		ProjectPath: tempDir,
		KoruPath:    koruDir,
	}
	t.Cleanup(func() {
		configs.ProjectKoruSettings = originalSettings
	})

	return koruDir
}

func TestLog_CreatesFile(t *testing.T) {
	koruDir := setupTestProject(t)

	Log(Entry{
		User:        "test@example.com",
		Operation:   "push",
		Environment: "dev",
		AddedCount:  2,
	})

	logPath := filepath.Join(koruDir, "audit.jsonl")
	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		t.Fatalf("Audit log file was not created")
	}
}

func TestLog_AppendsEntries(t *testing.T) {
	setupTestProject(t)

	Log(Entry{User: "alice@example.com", Operation: "push"})
	Log(Entry{User: "bob@example.com", Operation: "invite", TargetUser: "carol@example.com"})
	Log(Entry{User: "alice@example.com", Operation: "rollback", Version: 3})

	entries, err := ReadEntries()
	if err != nil {
		t.Fatalf("ReadEntries failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[1].Operation != "invite" || entries[1].TargetUser != "carol@example.com" {
		t.Errorf("unexpected second entry: %+v", entries[1])
	}
	if entries[2].Version != 3 {
		t.Errorf("unexpected rollback version: %d", entries[2].Version)
	}
}

func TestLog_SetsTimestamp(t *testing.T) {
	setupTestProject(t)

	Log(Entry{User: "alice@example.com", Operation: "pull"})

	entries, err := ReadEntries()
	if err != nil {
		t.Fatalf("ReadEntries failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Timestamp == "" {
		t.Error("timestamp was not populated")
	}
}

func TestLog_SkipsWhenProjectNotLinked(t *testing.T) {
	originalSettings := configs.ProjectKoruSettings
	configs.ProjectKoruSettings = &configs.ProjectSettings{}
	t.Cleanup(func() {
		configs.ProjectKoruSettings = originalSettings
	})

	// Must not panic or create files anywhere.
	Log(Entry{User: "alice@example.com", Operation: "push"})

	entries, err := ReadEntries()
	if err != nil {
		t.Fatalf("ReadEntries failed: %v", err)
	}
	if entries != nil {
		t.Errorf("expected no entries, got %v", entries)
	}
}

func TestParseEntries_SkipsMalformedLines(t *testing.T) {
	data := []byte(`{"ts":"2026-01-02T03:04:05.000000Z","user":"a@example.com","op":"push"}
not json at all
{"ts":"2026-01-02T03:04:06.000000Z","user":"b@example.com","op":"pull"}
`)

	entries, err := ParseEntries(data)
	if err != nil {
		t.Fatalf("ParseEntries failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Operation != "push" || entries[1].Operation != "pull" {
		t.Errorf("unexpected entries: %+v", entries)
	}
}

func TestReadEntries_MissingLogFile(t *testing.T) {
	setupTestProject(t)

	entries, err := ReadEntries()
	if err != nil {
		t.Fatalf("ReadEntries failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}
}

package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/korulabs/koru/internal/api"
	"github.com/korulabs/koru/internal/codec"
	"github.com/korulabs/koru/internal/crypto"
	koruerrors "github.com/korulabs/koru/internal/errors"
	"github.com/korulabs/koru/internal/merge"
	"github.com/korulabs/koru/internal/reconcile"

	"github.com/rs/zerolog"
)

type historyServer struct {
	mu         sync.Mutex
	snapshots  map[int]api.Snapshot
	count      int
	operations []string
}

func (h *historyServer) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.mu.Lock()
		h.operations = append(h.operations, r.Method+" "+r.URL.Path)
		h.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")

		switch {
		case strings.HasSuffix(r.URL.Path, "/snapshots/count"):
			_ = json.NewEncoder(w).Encode(map[string]int{"count": h.count})
		case strings.Contains(r.URL.Path, "/snapshots/"):
			version, err := strconv.Atoi(r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:])
			if err != nil {
				t.Errorf("bad snapshot path %q", r.URL.Path)
			}
			snap, ok := h.snapshots[version]
			if !ok {
				http.NotFound(w, r)
				return
			}
			_ = json.NewEncoder(w).Encode(snap)
		case strings.HasSuffix(r.URL.Path, "/rollback"):
			_, _ = w.Write([]byte("{}"))
		case r.URL.Path == "/secrets" && r.Method == http.MethodPost:
			var req struct {
				Secrets []api.SecretRecord `json:"secrets"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			for i := range req.Secrets {
				req.Secrets[i].ID = "created"
			}
			_ = json.NewEncoder(w).Encode(map[string][]api.SecretRecord{"secrets": req.Secrets})
		default:
			_, _ = w.Write([]byte("{}"))
		}
	})
}

func newTestService(t *testing.T, server *historyServer) (*Service, *reconcile.Engine) {
	t.Helper()

	httpServer := httptest.NewServer(server.handler(t))
	t.Cleanup(httpServer.Close)
	client := api.NewClient(httpServer.URL, api.StaticToken("token"), zerolog.Nop())
	engine := reconcile.NewEngine(client)
	return NewService(client, engine), engine
}

func testProjectKey(t *testing.T) []byte {
	t.Helper()

	key, err := crypto.NewProjectKey()
	if err != nil {
		t.Fatalf("failed to generate project key: %v", err)
	}
	return []byte(key)
}

func encryptedRecord(t *testing.T, plain codec.PlainSecret, key []byte) api.SecretRecord {
	t.Helper()

	record, err := codec.EncryptRecord(plain, key)
	if err != nil {
		t.Fatalf("failed to encrypt record: %v", err)
	}
	record.ID = plain.ID
	return record
}

func TestRollbackRestoresOlderValueAsNewVersion(t *testing.T) {
	key := testProjectKey(t)

	server := &historyServer{
		count: 5,
		snapshots: map[int]api.Snapshot{
			3: {
				Version:   3,
				CreatedAt: time.Now().Add(-time.Hour),
				SecretVersions: []api.SecretRecord{
					encryptedRecord(t, codec.PlainSecret{
						ID:          "hist-1",
						Environment: codec.Dev,
						Type:        codec.Shared,
						Key:         "A",
						Value:       "older",
					}, key),
				},
			},
		},
	}
	service, engine := newTestService(t, server)

	// The live working set is at version 5 with a newer value.
	engine.SetBaseline("ws1", []merge.MergedRow{
		{Pos: 0, Key: "A", Value: "old", ID: "s1"},
	}, 5)

	rows, err := service.Rollback(context.Background(), RollbackRequest{
		WorkspaceID: "ws1",
		Environment: codec.Dev,
		ProjectKey:  key,
		Version:     3,
	})
	if err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}

	if len(rows) != 1 || rows[0].Value != "older" {
		t.Fatalf("unexpected restored rows: %+v", rows)
	}
	if rows[0].ID != "s1" {
		t.Errorf("restored row must update the live record, got id %q", rows[0].ID)
	}
	if engine.SnapshotCount("ws1") != 6 {
		t.Errorf("rollback must append a version: count is %d, want 6", engine.SnapshotCount("ws1"))
	}

	server.mu.Lock()
	defer server.mu.Unlock()
	var sawUpdate, sawRollback bool
	for _, op := range server.operations {
		if op == "PATCH /secrets" {
			sawUpdate = true
		}
		if strings.HasSuffix(op, "/rollback") {
			sawRollback = true
		}
	}
	if !sawUpdate {
		t.Error("expected the restore to go through the normal update path")
	}
	if !sawRollback {
		t.Error("expected rollback provenance to be recorded")
	}
}

func TestRollbackDropsRowsAddedSinceSnapshot(t *testing.T) {
	key := testProjectKey(t)

	server := &historyServer{
		count: 5,
		snapshots: map[int]api.Snapshot{
			3: {Version: 3, SecretVersions: nil},
		},
	}
	service, engine := newTestService(t, server)

	engine.SetBaseline("ws1", []merge.MergedRow{
		{Pos: 0, Key: "NEWER", Value: "v", ID: "s9"},
	}, 5)

	rows, err := service.Rollback(context.Background(), RollbackRequest{
		WorkspaceID: "ws1",
		Environment: codec.Dev,
		ProjectKey:  key,
		Version:     3,
	})
	if err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected empty working set, got %+v", rows)
	}

	server.mu.Lock()
	defer server.mu.Unlock()
	var sawDelete bool
	for _, op := range server.operations {
		if op == "DELETE /secrets" {
			sawDelete = true
		}
	}
	if !sawDelete {
		t.Error("expected the row added after the snapshot to be deleted")
	}
}

func TestRollbackUnknownVersion(t *testing.T) {
	service, _ := newTestService(t, &historyServer{snapshots: map[int]api.Snapshot{}})

	_, err := service.Rollback(context.Background(), RollbackRequest{
		WorkspaceID: "ws1",
		Environment: codec.Dev,
		ProjectKey:  testProjectKey(t),
		Version:     42,
	})
	if !errors.Is(err, koruerrors.ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}
}

func TestCount(t *testing.T) {
	service, _ := newTestService(t, &historyServer{count: 12})

	count, err := service.Count(context.Background(), "ws1")
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 12 {
		t.Errorf("expected 12, got %d", count)
	}
}

func TestRollbackFiltersOtherEnvironments(t *testing.T) {
	key := testProjectKey(t)

	server := &historyServer{
		count: 2,
		snapshots: map[int]api.Snapshot{
			1: {
				Version: 1,
				SecretVersions: []api.SecretRecord{
					encryptedRecord(t, codec.PlainSecret{
						ID: "d1", Environment: codec.Dev, Type: codec.Shared, Key: "A", Value: "dev-value",
					}, key),
					encryptedRecord(t, codec.PlainSecret{
						ID: "p1", Environment: codec.Prod, Type: codec.Shared, Key: "A", Value: "prod-value",
					}, key),
				},
			},
		},
	}
	service, engine := newTestService(t, server)
	engine.SetBaseline("ws1", nil, 2)

	rows, err := service.Rollback(context.Background(), RollbackRequest{
		WorkspaceID: "ws1",
		Environment: codec.Dev,
		ProjectKey:  key,
		Version:     1,
	})
	if err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}
	if len(rows) != 1 || rows[0].Value != "dev-value" {
		t.Fatalf("expected only the dev record, got %+v", rows)
	}
}

package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sakif/snipbin/internal/model"
	"github.com/sakif/snipbin/internal/store"
	"github.com/sakif/snipbin/internal/store/storetest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return newTestStore(t)
	})
}

func TestPersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "snippets.db")
	ctx := context.Background()

	ts := time.Date(2026, 5, 6, 7, 8, 9, 101112131, time.UTC)
	name := store.Filename(ts)

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	snip := &model.Snippet{Filename: name, Language: "powershell", Code: "Get-ChildItem", Timestamp: ts}
	if err := s.Put(ctx, snip); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := New(dbPath)
	if err != nil {
		t.Fatalf("reopening database: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, name)
	if err != nil {
		t.Fatalf("Get() after reopen error = %v", err)
	}
	if got.Code != "Get-ChildItem" {
		t.Errorf("Code = %q, want %q", got.Code, "Get-ChildItem")
	}
	if !got.Timestamp.Equal(ts) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, ts)
	}
}

package fsstore

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sakif/snipbin/internal/apperror"
	"github.com/sakif/snipbin/internal/model"
	"github.com/sakif/snipbin/internal/store"
	"github.com/sakif/snipbin/internal/store/storetest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
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

func TestPut_OneFilePerRecord(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ts := time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC)
	name := store.Filename(ts)
	snip := &model.Snippet{Filename: name, Language: "bash", Code: "ls", Timestamp: ts}
	if err := s.Put(context.Background(), snip); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, name+".json"))
	if err != nil {
		t.Fatalf("expected one file named by the record key: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("stored document is not valid JSON: %v", err)
	}
	for _, field := range []string{"language", "code", "timestamp"} {
		if _, ok := doc[field]; !ok {
			t.Errorf("stored document missing %q field", field)
		}
	}
}

func TestPut_DoesNotEscapeMarkup(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ts := time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC)
	name := store.Filename(ts)
	snip := &model.Snippet{Filename: name, Language: "javascript", Code: "<b>&</b>", Timestamp: ts}
	if err := s.Put(context.Background(), snip); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, name+".json"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), `<`) {
		t.Errorf("document HTML-escaped the code: %s", data)
	}
}

func TestValidKey_RejectsPathTraversal(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"", "..", "../etc/passwd", `..\x`, "a/b"} {
		if _, err := s.Get(ctx, name); !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("Get(%q) error = %v, want ErrValidation", name, err)
		}
		if err := s.Delete(ctx, name); !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("Delete(%q) error = %v, want ErrValidation", name, err)
		}
	}
}

func TestList_IgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	ts := time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC)
	snip := &model.Snippet{Filename: store.Filename(ts), Language: "sql", Code: "SELECT 1", Timestamp: ts}
	if err := s.Put(ctx, snip); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "README"), []byte("not a record"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	got, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("List() returned %d records, want 1", len(got))
	}
}

// Package storetest holds the contract suite every store backend must
// pass. The flat-file and SQLite backends are required to be observably
// equivalent; running one suite against both is how that equivalence is
// enforced.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/snipbin/internal/apperror"
	"github.com/sakif/snipbin/internal/model"
	"github.com/sakif/snipbin/internal/store"
)

// Factory builds a fresh, empty store for one test. Cleanup is handled by
// the factory (t.Cleanup / t.TempDir).
type Factory func(t *testing.T) store.Store

// trickyCode exercises byte-exact round-tripping: embedded HTML, quotes,
// backslashes and odd whitespace are all content, never markup.
const trickyCode = "<script>alert(\"x&y\")</script>\n\tSELECT * FROM t WHERE a < 2;\r\n'quoted' \\ end"

func newSnippet(filename, language, code string, ts time.Time) *model.Snippet {
	return &model.Snippet{
		Filename:  filename,
		Language:  language,
		Code:      code,
		Timestamp: ts,
	}
}

// Run executes the full contract suite against the backend produced by
// factory.
func Run(t *testing.T, factory Factory) {
	t.Helper()

	ts := time.Date(2026, 3, 14, 9, 26, 53, 589793238, time.UTC)
	key := store.Filename(ts)

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()

		if err := s.Put(ctx, newSnippet(key, "python", trickyCode, ts)); err != nil {
			t.Fatalf("Put() error = %v", err)
		}

		got, err := s.Get(ctx, key)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Code != trickyCode {
			t.Errorf("Code = %q, want byte-exact %q", got.Code, trickyCode)
		}
		if got.Language != "python" {
			t.Errorf("Language = %q, want %q", got.Language, "python")
		}
		if !got.Timestamp.Equal(ts) {
			t.Errorf("Timestamp = %v, want %v", got.Timestamp, ts)
		}
		if got.Filename != key {
			t.Errorf("Filename = %q, want %q", got.Filename, key)
		}
	})

	t.Run("PutDetectsCollision", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()

		first := newSnippet(key, "bash", "echo one", ts)
		if err := s.Put(ctx, first); err != nil {
			t.Fatalf("first Put() error = %v", err)
		}

		err := s.Put(ctx, newSnippet(key, "bash", "echo two", ts))
		if !errors.Is(err, apperror.ErrConflict) {
			t.Fatalf("second Put() error = %v, want ErrConflict", err)
		}

		// The earlier write must survive the rejected collision.
		got, err := s.Get(ctx, key)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Code != "echo one" {
			t.Errorf("Code after rejected collision = %q, want %q", got.Code, "echo one")
		}
	})

	t.Run("GetNotFound", func(t *testing.T) {
		s := factory(t)

		_, err := s.Get(context.Background(), store.Filename(ts.Add(time.Hour)))
		if !errors.Is(err, apperror.ErrNotFound) {
			t.Fatalf("Get() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("ListReturnsEveryRecordOnce", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()

		want := map[string]string{}
		for i := 0; i < 5; i++ {
			stamp := ts.Add(time.Duration(i) * time.Second)
			name := store.Filename(stamp)
			code := "body " + name
			if err := s.Put(ctx, newSnippet(name, "sql", code, stamp)); err != nil {
				t.Fatalf("Put() error = %v", err)
			}
			want[name] = code
		}

		got, err := s.List(ctx)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(got) != len(want) {
			t.Fatalf("List() returned %d records, want %d", len(got), len(want))
		}
		seen := map[string]bool{}
		for _, snip := range got {
			if seen[snip.Filename] {
				t.Errorf("List() returned %q twice", snip.Filename)
			}
			seen[snip.Filename] = true
			if want[snip.Filename] != snip.Code {
				t.Errorf("Code for %q = %q, want %q", snip.Filename, snip.Code, want[snip.Filename])
			}
		}
	})

	t.Run("ListEmpty", func(t *testing.T) {
		s := factory(t)

		got, err := s.List(context.Background())
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("List() on empty store returned %d records", len(got))
		}
	})

	t.Run("UpdatePreservesIdentity", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()

		if err := s.Put(ctx, newSnippet(key, "plaintext", "before", ts)); err != nil {
			t.Fatalf("Put() error = %v", err)
		}

		updated, err := s.Update(ctx, key, "javascript", "after")
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if updated.Filename != key {
			t.Errorf("Filename changed on update: %q", updated.Filename)
		}
		if !updated.Timestamp.Equal(ts) {
			t.Errorf("Timestamp changed on update: %v, want %v", updated.Timestamp, ts)
		}

		got, err := s.Get(ctx, key)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Language != "javascript" || got.Code != "after" {
			t.Errorf("record after update = %q/%q, want javascript/after", got.Language, got.Code)
		}
		if !got.Timestamp.Equal(ts) {
			t.Errorf("stored Timestamp changed on update: %v, want %v", got.Timestamp, ts)
		}
	})

	t.Run("UpdateNotFound", func(t *testing.T) {
		s := factory(t)

		_, err := s.Update(context.Background(), store.Filename(ts.Add(2*time.Hour)), "sql", "x")
		if !errors.Is(err, apperror.ErrNotFound) {
			t.Fatalf("Update() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("DeleteRemovesRecord", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()

		if err := s.Put(ctx, newSnippet(key, "bash", "rm me", ts)); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		if err := s.Delete(ctx, key); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, err := s.Get(ctx, key); !errors.Is(err, apperror.ErrNotFound) {
			t.Fatalf("Get() after delete error = %v, want ErrNotFound", err)
		}
	})

	t.Run("DeleteIsIdempotentToFailure", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()

		if err := s.Put(ctx, newSnippet(key, "bash", "rm me", ts)); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		if err := s.Delete(ctx, key); err != nil {
			t.Fatalf("first Delete() error = %v", err)
		}

		// Repeated delete is NotFound, never a silent success.
		if err := s.Delete(ctx, key); !errors.Is(err, apperror.ErrNotFound) {
			t.Fatalf("second Delete() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("RecreateAfterDelete", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()

		if err := s.Put(ctx, newSnippet(key, "sql", "v1", ts)); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		if err := s.Delete(ctx, key); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if err := s.Put(ctx, newSnippet(key, "sql", "v2", ts)); err != nil {
			t.Fatalf("Put() after delete error = %v", err)
		}
		got, err := s.Get(ctx, key)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Code != "v2" {
			t.Errorf("Code = %q, want %q", got.Code, "v2")
		}
	})
}

// Package store defines the snippet persistence contract and the
// timestamp-derived key format shared by every backend.
//
// Two backends implement the contract — one JSON file per record (fsstore)
// and one row per record in SQLite (sqlitestore). Callers must not be able
// to tell them apart; storetest holds the shared contract suite that both
// run.
package store

import (
	"context"
	"time"

	"github.com/sakif/snipbin/internal/model"
)

// FilenameLayout renders a UTC instant as a filesystem-safe key. It is
// ISO-8601 with the time colons replaced by dashes, at nanosecond
// resolution, so the key stays lexicographically chronological and legal
// as a file name on every platform.
const FilenameLayout = "2006-01-02T15-04-05.000000000Z"

// Filename derives the primary key for a snippet created at t.
func Filename(t time.Time) string {
	return t.UTC().Format(FilenameLayout)
}

// ParseFilename recovers the creation instant encoded in a key.
func ParseFilename(name string) (time.Time, error) {
	return time.Parse(FilenameLayout, name)
}

// Store is the snippet persistence contract.
//
// Put is strictly create-only: a second Put with the same filename returns
// apperror.ErrConflict rather than overwriting. Two independent
// submissions racing on the same timestamp must never silently clobber
// each other; the service layer reacts to the conflict by minting a fresh
// key. Update is the only mutation path and preserves the stored
// timestamp. I/O failures surface as apperror.ErrStorage and are never
// retried here.
type Store interface {
	Put(ctx context.Context, snippet *model.Snippet) error
	Get(ctx context.Context, filename string) (*model.Snippet, error)
	// List returns the full record set in unspecified order. Ordering is
	// the query engine's job.
	List(ctx context.Context) ([]model.Snippet, error)
	Update(ctx context.Context, filename, language, code string) (*model.Snippet, error)
	Delete(ctx context.Context, filename string) error
	Close() error
}

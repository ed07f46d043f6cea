// Package fsstore implements the snippet store on a flat directory: one
// JSON document per record, file name = record key.
//
// Write discipline:
//   - Put opens with O_CREATE|O_EXCL, so a racing create on the same key
//     fails at the filesystem instead of overwriting.
//   - Update writes a temp file in the same directory and renames it into
//     place. Rename is atomic on POSIX, so a concurrent reader sees either
//     the old record or the new one, never a torn write.
//
// Code is stored byte-exact: the JSON encoder runs with HTML escaping off
// so embedded markup-like sequences round-trip unchanged.
package fsstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sakif/snipbin/internal/apperror"
	"github.com/sakif/snipbin/internal/model"
	"github.com/sakif/snipbin/internal/store"
)

var _ store.Store = (*Store)(nil)

// Store persists snippets as individual JSON files under root.
type Store struct {
	root string
}

// record is the on-disk document. The filename is not duplicated inside
// the document; the file name is authoritative.
type record struct {
	Language  string    `json:"language"`
	Code      string    `json:"code"`
	Timestamp time.Time `json:"timestamp"`
}

// New creates the root directory if needed and returns a Store over it.
func New(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, apperror.Storage("init", fmt.Errorf("fsstore: creating root %s: %w", root, err))
	}
	return &Store{root: root}, nil
}

func (s *Store) path(filename string) string {
	return filepath.Join(s.root, filename+".json")
}

// validKey rejects names that could escape the root directory. Keys are
// timestamp-derived upstream, but the store re-checks because filenames
// also arrive from request parameters on Get/Update/Delete.
func validKey(filename string) error {
	if filename == "" {
		return apperror.ValidationFailed("file", "filename is required")
	}
	if strings.ContainsAny(filename, `/\`) || filename == "." || filename == ".." {
		return apperror.ValidationFailed("file", "invalid filename")
	}
	return nil
}

func encode(rec record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Put creates a new record. O_EXCL turns a key collision into
// apperror.ErrConflict instead of a silent overwrite.
func (s *Store) Put(ctx context.Context, snippet *model.Snippet) error {
	if err := validKey(snippet.Filename); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encode(record{
		Language:  snippet.Language,
		Code:      snippet.Code,
		Timestamp: snippet.Timestamp,
	})
	if err != nil {
		return apperror.Storage("put", fmt.Errorf("fsstore: encoding %s: %w", snippet.Filename, err))
	}

	f, err := os.OpenFile(s.path(snippet.Filename), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return apperror.Conflict("snippet", snippet.Filename)
		}
		return apperror.Storage("put", fmt.Errorf("fsstore: creating %s: %w", snippet.Filename, err))
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return apperror.Storage("put", fmt.Errorf("fsstore: writing %s: %w", snippet.Filename, err))
	}
	if err := f.Close(); err != nil {
		return apperror.Storage("put", fmt.Errorf("fsstore: closing %s: %w", snippet.Filename, err))
	}
	return nil
}

func (s *Store) read(filename string) (*model.Snippet, error) {
	data, err := os.ReadFile(s.path(filename))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperror.NotFound("snippet", filename)
		}
		return nil, apperror.Storage("get", fmt.Errorf("fsstore: reading %s: %w", filename, err))
	}

	var rec record
	dec := json.NewDecoder(bytes.NewReader(data))
	// Records have exactly the three fields; anything else is a foreign
	// document that happens to live in our directory.
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rec); err != nil {
		return nil, apperror.Storage("get", fmt.Errorf("fsstore: decoding %s: %w", filename, err))
	}

	return &model.Snippet{
		Filename:  filename,
		Language:  rec.Language,
		Code:      rec.Code,
		Timestamp: rec.Timestamp,
	}, nil
}

// Get returns the record for filename or apperror.ErrNotFound.
func (s *Store) Get(ctx context.Context, filename string) (*model.Snippet, error) {
	if err := validKey(filename); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.read(filename)
}

// List returns every record in the directory, order unspecified.
func (s *Store) List(ctx context.Context) ([]model.Snippet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, apperror.Storage("list", fmt.Errorf("fsstore: reading root %s: %w", s.root, err))
	}

	snippets := make([]model.Snippet, 0, len(entries))
	for _, entry := range entries {
		name, ok := strings.CutSuffix(entry.Name(), ".json")
		if !ok || entry.IsDir() {
			continue
		}
		snip, err := s.read(name)
		if err != nil {
			// A record deleted between ReadDir and read is not an error.
			if errors.Is(err, apperror.ErrNotFound) {
				continue
			}
			return nil, err
		}
		snippets = append(snippets, *snip)
	}
	return snippets, nil
}

// Update rewrites language and code while keeping the stored timestamp.
// The new document lands via rename so readers never see a partial record.
func (s *Store) Update(ctx context.Context, filename, language, code string) (*model.Snippet, error) {
	if err := validKey(filename); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	existing, err := s.read(filename)
	if err != nil {
		return nil, err
	}

	data, err := encode(record{
		Language:  language,
		Code:      code,
		Timestamp: existing.Timestamp,
	})
	if err != nil {
		return nil, apperror.Storage("update", fmt.Errorf("fsstore: encoding %s: %w", filename, err))
	}

	tmp, err := os.CreateTemp(s.root, filename+".tmp-*")
	if err != nil {
		return nil, apperror.Storage("update", fmt.Errorf("fsstore: temp file for %s: %w", filename, err))
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, apperror.Storage("update", fmt.Errorf("fsstore: writing %s: %w", filename, err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, apperror.Storage("update", fmt.Errorf("fsstore: closing %s: %w", filename, err))
	}
	if err := os.Rename(tmp.Name(), s.path(filename)); err != nil {
		os.Remove(tmp.Name())
		return nil, apperror.Storage("update", fmt.Errorf("fsstore: replacing %s: %w", filename, err))
	}

	return &model.Snippet{
		Filename:  filename,
		Language:  language,
		Code:      code,
		Timestamp: existing.Timestamp,
	}, nil
}

// Delete removes the record. Deleting an absent filename is
// apperror.ErrNotFound, never a silent success.
func (s *Store) Delete(ctx context.Context, filename string) error {
	if err := validKey(filename); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(s.path(filename)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return apperror.NotFound("snippet", filename)
		}
		return apperror.Storage("delete", fmt.Errorf("fsstore: removing %s: %w", filename, err))
	}
	return nil
}

// Close is a no-op; the store holds no open handles between calls.
func (s *Store) Close() error {
	return nil
}

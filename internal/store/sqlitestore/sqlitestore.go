// Package sqlitestore implements the snippet store on SQLite, one row per
// record with the timestamp-derived filename as primary key.
//
// The driver is modernc.org/sqlite — a pure Go translation of SQLite, so
// no C toolchain is needed and ":memory:" databases keep the tests fast.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// The driver import registers itself with database/sql under the name
	// "sqlite"; the package is also used directly for its Error type so a
	// primary-key violation can be told apart from other failures.
	sqlite "modernc.org/sqlite"

	"github.com/sakif/snipbin/internal/apperror"
	"github.com/sakif/snipbin/internal/model"
	"github.com/sakif/snipbin/internal/store"
)

var _ store.Store = (*Store)(nil)

// Store wraps a sql.DB connection pool over the snippets table.
type Store struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs the schema
// migration. Use ":memory:" for an ephemeral database in tests.
func New(dbPath string) (*Store, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: opening database: %w", err)
	}
	// A second pool connection to ":memory:" would open a second, empty
	// database; a single connection also sidesteps SQLITE_BUSY between
	// concurrent writers on file-backed databases.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlitestore: pinging database: %w", err)
	}

	// WAL allows reads concurrent with a write, which matters once several
	// requests hit the store at the same time.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlitestore: setting WAL mode: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlitestore: running migrations: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	// Timestamps are stored as RFC 3339 text at nanosecond precision so
	// they round-trip exactly, matching the flat-file backend.
	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS snippets (
			filename  TEXT PRIMARY KEY,
			language  TEXT NOT NULL DEFAULT 'plaintext',
			code      TEXT NOT NULL DEFAULT '',
			timestamp TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating snippets table: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.conn.Close()
}

// isConstraintViolation reports whether err is SQLite refusing a duplicate
// primary key (SQLITE_CONSTRAINT or its PRIMARYKEY/UNIQUE extensions).
func isConstraintViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case 19, 1555, 2067: // SQLITE_CONSTRAINT, _PRIMARYKEY, _UNIQUE
		return true
	}
	return false
}

// Put inserts a new record. A primary-key violation becomes
// apperror.ErrConflict — a racing create must never overwrite.
func (s *Store) Put(ctx context.Context, snippet *model.Snippet) error {
	if snippet.Filename == "" {
		return apperror.ValidationFailed("file", "filename is required")
	}

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO snippets (filename, language, code, timestamp)
		 VALUES (?, ?, ?, ?)`,
		snippet.Filename,
		snippet.Language,
		snippet.Code,
		snippet.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return apperror.Conflict("snippet", snippet.Filename)
		}
		return apperror.Storage("put", fmt.Errorf("sqlitestore: inserting %s: %w", snippet.Filename, err))
	}
	return nil
}

func scanSnippet(row *sql.Row) (*model.Snippet, error) {
	var snip model.Snippet
	var ts string
	if err := row.Scan(&snip.Filename, &snip.Language, &snip.Code, &ts); err != nil {
		return nil, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil, fmt.Errorf("parsing stored timestamp %q: %w", ts, err)
	}
	snip.Timestamp = parsed
	return &snip, nil
}

// Get returns the record for filename or apperror.ErrNotFound.
func (s *Store) Get(ctx context.Context, filename string) (*model.Snippet, error) {
	if filename == "" {
		return nil, apperror.ValidationFailed("file", "filename is required")
	}

	row := s.conn.QueryRowContext(ctx,
		`SELECT filename, language, code, timestamp FROM snippets WHERE filename = ?`,
		filename,
	)
	snip, err := scanSnippet(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("snippet", filename)
		}
		return nil, apperror.Storage("get", fmt.Errorf("sqlitestore: getting %s: %w", filename, err))
	}
	return snip, nil
}

// List returns every row; ordering is left to the query engine.
func (s *Store) List(ctx context.Context) ([]model.Snippet, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT filename, language, code, timestamp FROM snippets`,
	)
	if err != nil {
		return nil, apperror.Storage("list", fmt.Errorf("sqlitestore: listing snippets: %w", err))
	}
	defer rows.Close()

	var snippets []model.Snippet
	for rows.Next() {
		var snip model.Snippet
		var ts string
		if err := rows.Scan(&snip.Filename, &snip.Language, &snip.Code, &ts); err != nil {
			return nil, apperror.Storage("list", fmt.Errorf("sqlitestore: scanning row: %w", err))
		}
		parsed, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, apperror.Storage("list", fmt.Errorf("sqlitestore: parsing timestamp %q: %w", ts, err))
		}
		snip.Timestamp = parsed
		snippets = append(snippets, snip)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Storage("list", fmt.Errorf("sqlitestore: iterating snippets: %w", err))
	}
	if snippets == nil {
		snippets = []model.Snippet{}
	}
	return snippets, nil
}

// Update rewrites language and code. The timestamp column is deliberately
// absent from the SET list, so the creation instant can never drift.
func (s *Store) Update(ctx context.Context, filename, language, code string) (*model.Snippet, error) {
	if filename == "" {
		return nil, apperror.ValidationFailed("file", "filename is required")
	}

	result, err := s.conn.ExecContext(ctx,
		`UPDATE snippets SET language = ?, code = ? WHERE filename = ?`,
		language, code, filename,
	)
	if err != nil {
		return nil, apperror.Storage("update", fmt.Errorf("sqlitestore: updating %s: %w", filename, err))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, apperror.Storage("update", fmt.Errorf("sqlitestore: checking rows affected: %w", err))
	}
	if affected == 0 {
		return nil, apperror.NotFound("snippet", filename)
	}

	return s.Get(ctx, filename)
}

// Delete removes the row for filename; zero rows affected is
// apperror.ErrNotFound so a repeated delete fails loudly.
func (s *Store) Delete(ctx context.Context, filename string) error {
	if filename == "" {
		return apperror.ValidationFailed("file", "filename is required")
	}

	result, err := s.conn.ExecContext(ctx,
		`DELETE FROM snippets WHERE filename = ?`,
		filename,
	)
	if err != nil {
		return apperror.Storage("delete", fmt.Errorf("sqlitestore: deleting %s: %w", filename, err))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperror.Storage("delete", fmt.Errorf("sqlitestore: checking rows affected: %w", err))
	}
	if affected == 0 {
		return apperror.NotFound("snippet", filename)
	}
	return nil
}

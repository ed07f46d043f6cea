// Package service contains the business logic layer: validation, identity
// assignment and orchestration between the HTTP handlers and the store.
//
// The service takes the store.Store interface, not a concrete backend, so
// tests substitute an in-memory store and main picks flat-file or SQLite
// from config without this package changing.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/snipbin/internal/apperror"
	"github.com/sakif/snipbin/internal/model"
	"github.com/sakif/snipbin/internal/query"
	"github.com/sakif/snipbin/internal/store"
)

// MaxCodeLength bounds a single submission at 1 MiB. Snippets are short
// by definition; anything bigger is almost certainly a mistake or abuse.
const MaxCodeLength = 1 << 20

// createAttempts bounds the re-mint loop when two submissions race onto
// the same nanosecond key.
const createAttempts = 3

// SnippetService implements the mutation protocol and the search surface.
type SnippetService struct {
	store  store.Store
	logger *slog.Logger

	// now is swappable in tests to force filename collisions.
	now func() time.Time
}

// NewSnippetService creates a SnippetService over the given store.
func NewSnippetService(st store.Store, logger *slog.Logger) *SnippetService {
	return &SnippetService{
		store:  st,
		logger: logger,
		now:    time.Now,
	}
}

// Create persists a new snippet and returns it with its assigned identity.
//
// The language defaults to plaintext when blank. The code may be the empty
// string but the field must have been present in the request; the handler
// signals that with hasCode. The filename is minted from the current
// instant; if an independent submission already took that key the store
// reports a conflict and a fresh instant is minted, up to createAttempts
// times. The earlier record is never overwritten.
func (s *SnippetService) Create(ctx context.Context, language, code string, hasCode bool) (*model.Snippet, error) {
	if !hasCode {
		return nil, apperror.ValidationFailed("code", "code field is required")
	}
	if len(code) > MaxCodeLength {
		return nil, apperror.ValidationFailed("code",
			fmt.Sprintf("code must be %d bytes or less", MaxCodeLength))
	}

	language = model.NormalizeLanguage(language)

	var lastErr error
	for attempt := 0; attempt < createAttempts; attempt++ {
		ts := s.now().UTC()
		snippet := &model.Snippet{
			Filename:  store.Filename(ts),
			Language:  language,
			Code:      code,
			Timestamp: ts,
		}

		err := s.store.Put(ctx, snippet)
		if err == nil {
			s.logger.Info("snippet created",
				slog.String("filename", snippet.Filename),
				slog.String("language", snippet.Language),
			)
			return snippet, nil
		}
		if !errors.Is(err, apperror.ErrConflict) {
			s.logger.Error("failed to create snippet",
				slog.String("filename", snippet.Filename),
				slog.String("error", err.Error()),
			)
			return nil, fmt.Errorf("creating snippet: %w", err)
		}

		lastErr = err
		s.logger.Warn("filename collision, reminting",
			slog.String("filename", snippet.Filename),
			slog.Int("attempt", attempt+1),
		)
	}

	return nil, fmt.Errorf("creating snippet after %d attempts: %w", createAttempts, lastErr)
}

// Get returns the snippet stored under filename.
func (s *SnippetService) Get(ctx context.Context, filename string) (*model.Snippet, error) {
	if filename == "" {
		return nil, apperror.ValidationFailed("file", "file parameter is required")
	}
	return s.store.Get(ctx, filename)
}

// Update replaces a snippet's language and code. Filename and timestamp
// are immutable; an unknown filename is NotFound.
func (s *SnippetService) Update(ctx context.Context, filename, language, code string) (*model.Snippet, error) {
	if filename == "" {
		return nil, apperror.ValidationFailed("file", "file parameter is required")
	}
	if len(code) > MaxCodeLength {
		return nil, apperror.ValidationFailed("code",
			fmt.Sprintf("code must be %d bytes or less", MaxCodeLength))
	}

	snippet, err := s.store.Update(ctx, filename, model.NormalizeLanguage(language), code)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Error("failed to update snippet",
				slog.String("filename", filename),
				slog.String("error", err.Error()),
			)
		}
		return nil, err
	}

	s.logger.Info("snippet updated", slog.String("filename", filename))
	return snippet, nil
}

// Delete removes the snippet stored under filename. Deleting an unknown
// filename is NotFound, including a repeat of a successful delete.
func (s *SnippetService) Delete(ctx context.Context, filename string) error {
	if filename == "" {
		return apperror.ValidationFailed("file", "file parameter is required")
	}

	if err := s.store.Delete(ctx, filename); err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Error("failed to delete snippet",
				slog.String("filename", filename),
				slog.String("error", err.Error()),
			)
		}
		return err
	}

	s.logger.Info("snippet deleted", slog.String("filename", filename))
	return nil
}

// Search loads the full record set and runs the query engine over it.
func (s *SnippetService) Search(ctx context.Context, q, lang string, order query.Order) ([]model.Snippet, error) {
	snippets, err := s.store.List(ctx)
	if err != nil {
		s.logger.Error("failed to list snippets", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing snippets: %w", err)
	}
	return query.Search(snippets, q, lang, order), nil
}

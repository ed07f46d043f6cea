package apperror

import (
	"errors"
	"io"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("snippet", "2024-01-02T03-04-05.000000000Z"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("code", "code field is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("snippet", "2024-01-02T03-04-05.000000000Z"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "TokenInvalid wraps ErrToken",
			err:       TokenInvalid("csrf token mismatch"),
			target:    ErrToken,
			wantMatch: true,
		},
		{
			name:      "TokenInvalid does NOT match ErrAuth",
			err:       TokenInvalid("csrf token mismatch"),
			target:    ErrAuth,
			wantMatch: false,
		},
		{
			name:      "Unauthenticated wraps ErrAuth",
			err:       Unauthenticated("login required"),
			target:    ErrAuth,
			wantMatch: true,
		},
		{
			name:      "Storage wraps ErrStorage",
			err:       Storage("put", io.ErrClosedPipe),
			target:    ErrStorage,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("snippet", "x"),
			target:    ErrValidation,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("snippet", "abc"),
			wantMessage: "snippet not found: abc",
		},
		{
			name:        "ValidationFailed uses custom message",
			err:         ValidationFailed("code", "code field is required"),
			wantMessage: "code field is required",
		},
		{
			name:        "Conflict message includes resource and id",
			err:         Conflict("snippet", "abc"),
			wantMessage: "snippet already exists: abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	err := NotFound("snippet", "abc")
	if unwrapped := err.Unwrap(); unwrapped != ErrNotFound {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, ErrNotFound)
	}
}

func TestValidationFailedField(t *testing.T) {
	err := ValidationFailed("file", "file parameter is required")
	if err.Field != "file" {
		t.Errorf("Field = %q, want %q", err.Field, "file")
	}
}

package service

import (
	"errors"
	"fmt"
	"testing"

	"ubreader/internal/storage"
)

func TestValidationError(t *testing.T) {
	err := &ValidationError{Field: "limit", Message: "must be at most 100"}
	if got, want := err.Error(), "validation error on field limit: must be at most 100"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	wrapped := fmt.Errorf("search: %w", err)
	if !errors.Is(wrapped, ErrInvalidInput) {
		t.Error("wrapped validation error should match ErrInvalidInput")
	}
	var ve *ValidationError
	if !errors.As(wrapped, &ve) || ve.Field != "limit" {
		t.Errorf("errors.As() = %v, want the limit validation error", ve)
	}
}

func TestWrapError(t *testing.T) {
	if WrapError(nil, "failed to load index") != nil {
		t.Error("WrapError(nil) should be nil")
	}

	tests := []struct {
		name    string
		err     error
		target  error
		wantMsg string
	}{
		{
			name:    "storage not found keeps its identity",
			err:     storage.ErrNotFound,
			target:  storage.ErrNotFound,
			wantMsg: "failed to load index: record not found",
		},
		{
			name:    "build in progress",
			err:     ErrBuildInProgress,
			target:  ErrBuildInProgress,
			wantMsg: "failed to load index: index build already in progress",
		},
		{
			name:    "validation error still reads as invalid input",
			err:     &ValidationError{Field: "page", Message: "must not be negative"},
			target:  ErrInvalidInput,
			wantMsg: "failed to load index: validation error on field page: must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WrapError(tt.err, "failed to load index")
			if got.Error() != tt.wantMsg {
				t.Errorf("WrapError() = %q, want %q", got.Error(), tt.wantMsg)
			}
			if !errors.Is(got, tt.target) {
				t.Errorf("errors.Is(%v, %v) = false", got, tt.target)
			}
		})
	}
}

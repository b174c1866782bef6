package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/JonMunkholm/flowmap/internal/tabular"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{
			name:     "nil error",
			err:      nil,
			wantCode: "",
		},
		{
			name:     "file too large",
			err:      fmt.Errorf("upload flows.csv: %w", ErrFileTooLarge),
			wantCode: "FILE001",
		},
		{
			name:     "http body limit",
			err:      errors.New("http: request body too large"),
			wantCode: "FILE001",
		},
		{
			name:     "malformed csv",
			err:      &tabular.ParseError{Line: 3, Err: tabular.ErrMalformed},
			wantCode: "FILE002",
		},
		{
			name:     "no file",
			err:      ErrNoFile,
			wantCode: "FILE004",
		},
		{
			name:     "unknown entity",
			err:      fmt.Errorf("%w: edges", ErrUnknownEntity),
			wantCode: "VAL001",
		},
		{
			name:     "bad time bucket",
			err:      errors.New(`invalid time bucket "week"`),
			wantCode: "VAL004",
		},
		{
			name:     "invalid id wins over not found",
			err:      fmt.Errorf("invalid project id %q: %w", "x", ErrProjectNotFound),
			wantCode: "PRJ004",
		},
		{
			name:     "project not found",
			err:      ErrProjectNotFound,
			wantCode: "PRJ001",
		},
		{
			name:     "project incomplete",
			err:      ErrProjectIncomplete,
			wantCode: "PRJ002",
		},
		{
			name:     "name required",
			err:      ErrNameRequired,
			wantCode: "PRJ003",
		},
		{
			name:     "import limiter busy",
			err:      ErrTooManyImports,
			wantCode: "UPL001",
		},
		{
			name:     "cancelled",
			err:      fmt.Errorf("build dataset: %w", context.Canceled),
			wantCode: "UPL002",
		},
		{
			name:     "deadline",
			err:      context.DeadlineExceeded,
			wantCode: "UPL003",
		},
		{
			name:     "case insensitive",
			err:      errors.New("dial tcp: CONNECTION REFUSED"),
			wantCode: "DB001",
		},
		{
			name:     "unknown error",
			err:      errors.New("something strange happened"),
			wantCode: "ERR000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrNameRequired)

	expected := "Project name is required (Code: PRJ003). Enter a name for the project"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}

	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error is not user facing", nil, false},
		{"known error is user facing", ErrProjectNotFound, true},
		{"unknown error is not user facing", errors.New("random internal error xyz"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := fmt.Errorf("load project: %w", ErrProjectNotFound)
		userErr := NewUserError(techErr)

		if userErr.Error() != "Project not found" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}
		if !errors.Is(userErr, ErrProjectNotFound) {
			t.Error("Unwrap() should expose the original error")
		}
	})
}

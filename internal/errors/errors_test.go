package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	cause := errors.New("underlying error")

	err := New(MalformedRequest, "empty request", cause)

	if err.Code != MalformedRequest {
		t.Errorf("Code = %v, want %v", err.Code, MalformedRequest)
	}
	if err.Message != "empty request" {
		t.Errorf("Message = %q, want %q", err.Message, "empty request")
	}
}

func TestError_Error(t *testing.T) {
	tests := []struct {
		name      string
		code      ErrorCode
		message   string
		cause     error
		wantParts []string
	}{
		{
			name:      "with cause",
			code:      UnterminatedTag,
			message:   "tag opened at 6 is never closed",
			cause:     errors.New("eof"),
			wantParts: []string{"UNTERMINATED_TAG", "tag opened at 6", "eof"},
		},
		{
			name:      "without cause",
			code:      UnsupportedMethod,
			message:   "unknown request",
			cause:     nil,
			wantParts: []string{"UNSUPPORTED_METHOD", "unknown request"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.code, tt.message, tt.cause).Error()

			for _, part := range tt.wantParts {
				if !strings.Contains(got, part) {
					t.Errorf("Error() = %q, want to contain %q", got, part)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := New(InternalError, "something went wrong", cause)

	if err.Unwrap() != cause {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), cause)
	}

	errNoCause := New(RouteMiss, "no route", nil)
	if errNoCause.Unwrap() != nil {
		t.Errorf("Unwrap() on error without cause should return nil")
	}
}

func TestError_WithDetails(t *testing.T) {
	err := New(UnterminatedTag, "tag never closed", nil)

	result := err.WithDetails(map[string]int{"pos": 6})

	if result != err {
		t.Error("WithDetails should return the same error for chaining")
	}
	if err.Details == nil {
		t.Error("Details should be set")
	}
}

func TestCodeOf(t *testing.T) {
	coded := New(MalformedRequest, "bad request line", nil)
	wrapped := fmt.Errorf("reading connection: %w", coded)

	if got := CodeOf(wrapped); got != MalformedRequest {
		t.Errorf("CodeOf(wrapped) = %q, want %q", got, MalformedRequest)
	}
	if got := CodeOf(errors.New("plain")); got != "" {
		t.Errorf("CodeOf(plain) = %q, want empty", got)
	}
	if !Is(wrapped, MalformedRequest) {
		t.Error("Is(wrapped, MalformedRequest) = false, want true")
	}
	if Is(nil, MalformedRequest) {
		t.Error("Is(nil, ...) should be false")
	}
}

func TestErrorCodes(t *testing.T) {
	codes := []ErrorCode{
		MalformedRequest,
		UnsupportedMethod,
		UnterminatedTag,
		RouteMiss,
		ManifestInvalid,
		ConfigInvalid,
		InternalError,
	}

	seen := make(map[ErrorCode]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %v", code)
		}
		seen[code] = true

		if string(code) == "" {
			t.Error("Error code should not be empty")
		}
	}
}

func TestGetHint(t *testing.T) {
	if GetHint(UnterminatedTag) == "" {
		t.Error("UnterminatedTag should have a hint")
	}
	if GetHint(RouteMiss) != "" {
		t.Error("RouteMiss should have no hint")
	}
}

package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestIsMatchesByCode(t *testing.T) {
	t.Parallel()

	base := New(CodeNotFound, "record not found")
	other := New(CodeNotFound, "different message, same code")
	if !stderrors.Is(other, base) {
		t.Fatal("expected errors with equal codes to match")
	}
	if stderrors.Is(New(CodeTokenInvalid, "nope"), base) {
		t.Fatal("expected errors with different codes not to match")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	t.Parallel()

	cause := stderrors.New("disk on fire")
	wrapped := Wrap(CodeInternal, "write user", cause)
	if !stderrors.Is(wrapped, cause) {
		t.Fatal("expected wrapped error to match its cause")
	}
	if wrapped.Error() != "write user" {
		t.Fatalf("Error() = %q, want %q", wrapped.Error(), "write user")
	}
}

func TestCodeOf(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		err  error
		want Code
	}{
		{name: "direct", err: New(CodeTokenReused, "reused"), want: CodeTokenReused},
		{name: "wrapped in fmt", err: fmt.Errorf("outer: %w", New(CodeNotFound, "missing")), want: CodeNotFound},
		{name: "plain error", err: stderrors.New("plain"), want: CodeUnknown},
		{name: "nil", err: nil, want: CodeUnknown},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := CodeOf(tc.err); got != tc.want {
				t.Fatalf("CodeOf = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		code Code
		want int
	}{
		{CodeInvalidCredentials, http.StatusUnauthorized},
		{CodeTokenExpired, http.StatusUnauthorized},
		{CodeTokenReused, http.StatusUnauthorized},
		{CodeNotFound, http.StatusNotFound},
		{CodeDuplicateIdentity, http.StatusConflict},
		{CodeTaskEmptyTitle, http.StatusBadRequest},
		{CodeTooManyAttempts, http.StatusTooManyRequests},
		{CodeUnknown, http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		if got := tc.code.HTTPStatus(); got != tc.want {
			t.Errorf("%s.HTTPStatus() = %d, want %d", tc.code, got, tc.want)
		}
	}
}

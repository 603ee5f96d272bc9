package errdef

import (
	"errors"
	"testing"
)

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(CodeHTTP, cause, "perform request")

	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to survive errors.Is")
	}
	if got := CodeOf(err); got != CodeHTTP {
		t.Fatalf("expected CodeHTTP, got %q", got)
	}
	if err.Error() != "perform request: connection refused" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestWrapNilReturnsNil(t *testing.T) {
	if err := Wrap(CodeHistory, nil, "encode history"); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestCodeOfUnclassified(t *testing.T) {
	if got := CodeOf(errors.New("plain")); got != CodeUnknown {
		t.Fatalf("expected CodeUnknown, got %q", got)
	}
}

func TestNewFormats(t *testing.T) {
	err := New(CodeDecode, "invalid utf-8 in %s", "body")
	if err.Error() != "invalid utf-8 in body" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"
)

func TestErrorIncludesInternal(t *testing.T) {
	internal := stdErrors.New("boom")
	err := Wrap(internal, "failed")

	if err.Error() != "failed: boom" {
		t.Fatalf("unexpected error string: %s", err.Error())
	}
}

func TestWithInternalCopies(t *testing.T) {
	base := New("TEST", "test", 400)
	with := base.WithInternal(stdErrors.New("oops"))

	if with == base {
		t.Fatal("expected WithInternal to return a copy")
	}

	if base.Internal != nil {
		t.Fatal("expected original error to remain unchanged")
	}

	if with.Internal == nil {
		t.Fatal("expected internal error to be set")
	}
}

func TestWithMessageCopies(t *testing.T) {
	with := ErrPermissionDenied.WithMessage("self-approval is not permitted")

	if with == ErrPermissionDenied {
		t.Fatal("expected WithMessage to return a copy")
	}
	if with.Code != ErrPermissionDenied.Code {
		t.Fatalf("expected code %s, got %s", ErrPermissionDenied.Code, with.Code)
	}
	if with.Message != "self-approval is not permitted" {
		t.Fatalf("unexpected message: %s", with.Message)
	}
	if ErrPermissionDenied.Message == with.Message {
		t.Fatal("expected original message to remain unchanged")
	}
}

func TestFromError(t *testing.T) {
	appErr := ErrNotFound
	if out := FromError(appErr); out != appErr {
		t.Fatal("expected FromError to return the same AppError instance")
	}

	raw := stdErrors.New("raw")
	out := FromError(raw)
	if out.Code != ErrInternalServer.Code {
		t.Fatalf("expected internal server code, got %s", out.Code)
	}
	if out.Internal == nil {
		t.Fatal("expected internal error to be attached")
	}
}

func TestTaxonomyStatusCodes(t *testing.T) {
	cases := map[*AppError]int{
		ErrInvalidArgument:  http.StatusBadRequest,
		ErrNotFound:         http.StatusNotFound,
		ErrPermissionDenied: http.StatusForbidden,
		ErrAlreadyExists:    http.StatusConflict,
	}
	for err, want := range cases {
		if err.StatusCode != want {
			t.Fatalf("%s: expected status %d, got %d", err.Code, want, err.StatusCode)
		}
	}
}

func TestNewInvalidArgument(t *testing.T) {
	err := NewInvalidArgument("approval reason must be provided")
	if err.Code != ErrInvalidArgument.Code {
		t.Fatalf("expected %s, got %s", ErrInvalidArgument.Code, err.Code)
	}
	if err.Message != "approval reason must be provided" {
		t.Fatalf("unexpected message: %s", err.Message)
	}
	if err.StatusCode != ErrInvalidArgument.StatusCode {
		t.Fatalf("unexpected status: %d", err.StatusCode)
	}
}

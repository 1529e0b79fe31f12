package gusparse

import (
	"errors"
	"strings"
	"testing"
)

func TestStatusString(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusSuccess, "Success"},
		{StatusInvalidHandle, "InvalidHandle"},
		{StatusInvalidPointer, "InvalidPointer"},
		{StatusInvalidSize, "InvalidSize"},
		{StatusInvalidValue, "InvalidValue"},
		{StatusNotImplemented, "NotImplemented"},
		{StatusArchMismatch, "ArchMismatch"},
		{StatusMemoryError, "MemoryError"},
		{StatusInternalError, "InternalError"},
		{Status(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestStatusOf(t *testing.T) {
	if StatusOf(nil) != StatusSuccess {
		t.Error("nil error should be Success")
	}
	if StatusOf(errors.New("plain")) != StatusInternalError {
		t.Error("foreign error should be InternalError")
	}
	if StatusOf(errInvalidSize("Op", "bad")) != StatusInvalidSize {
		t.Error("constructor status lost")
	}

	// The outermost status in a chain wins.
	wrapped := &SparseError{Status: StatusMemoryError, Op: "Outer", Message: "outer",
		Err: errInvalidPointer("Inner", "x")}
	if StatusOf(wrapped) != StatusMemoryError {
		t.Errorf("StatusOf(wrapped) = %v", StatusOf(wrapped))
	}
}

func TestSparseErrorMessage(t *testing.T) {
	err := errArchMismatch("NnzCompress", 16)
	msg := err.Error()
	for _, want := range []string{"ArchMismatch", "NnzCompress", "16"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}

	cause := errors.New("out of memory")
	err = errMemory("Malloc", "allocation failed", cause)
	if !errors.Is(err, cause) {
		t.Error("cause not reachable through Unwrap")
	}
	if !strings.Contains(err.Error(), "caused by") {
		t.Errorf("message %q does not mention the cause", err.Error())
	}
}

func TestErrorPredicates(t *testing.T) {
	if !IsMemoryError(errMemory("Op", "m", nil)) {
		t.Error("IsMemoryError false negative")
	}
	if IsMemoryError(errInvalidSize("Op", "m")) {
		t.Error("IsMemoryError false positive")
	}
	for _, err := range []error{
		errInvalidPointer("Op", "p"),
		errInvalidSize("Op", "s"),
		errInvalidValue("Op", "v"),
	} {
		if !IsInvalidArg(err) {
			t.Errorf("IsInvalidArg(%v) = false", err)
		}
	}
	if IsInvalidArg(errInvalidHandle("Op")) {
		t.Error("handle errors are not argument errors")
	}
}

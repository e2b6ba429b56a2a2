package errors

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidInput, "test message: %s", "value")

	if err.Code != ErrCodeInvalidInput {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidInput)
	}

	if err.Message != "test message: value" {
		t.Errorf("Message = %v, want %v", err.Message, "test message: value")
	}

	expected := "INVALID_INPUT: test message: value"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeOperationFailed, cause, "layout pass failed")

	if err.Code != ErrCodeOperationFailed {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeOperationFailed)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	err := New(ErrCodeTimeout, "operation timed out after 5s")

	if !Is(err, ErrCodeTimeout) {
		t.Error("Is(err, ErrCodeTimeout) = false, want true")
	}
	if Is(err, ErrCodeCancelled) {
		t.Error("Is(err, ErrCodeCancelled) = true, want false")
	}
	if Is(errors.New("plain"), ErrCodeTimeout) {
		t.Error("Is(plain, ErrCodeTimeout) = true, want false")
	}
}

func TestIsTimeoutAndCancelled(t *testing.T) {
	timeout := New(ErrCodeTimeout, "deadline exceeded")
	cancelled := New(ErrCodeCancelled, "queue cleared")

	if !IsTimeout(timeout) {
		t.Error("IsTimeout(timeout) = false, want true")
	}
	if IsTimeout(cancelled) {
		t.Error("IsTimeout(cancelled) = true, want false")
	}
	if !IsCancelled(cancelled) {
		t.Error("IsCancelled(cancelled) = false, want true")
	}

	// Wrapped timeouts are still timeouts
	wrapped := Wrap(ErrCodeTimeout, errors.New("inner"), "outer")
	if !IsTimeout(wrapped) {
		t.Error("IsTimeout(wrapped) = false, want true")
	}
}

func TestGetCode(t *testing.T) {
	err := New(ErrCodeNotFound, "container missing")
	if GetCode(err) != ErrCodeNotFound {
		t.Errorf("GetCode = %v, want %v", GetCode(err), ErrCodeNotFound)
	}
	if GetCode(errors.New("plain")) != "" {
		t.Error("GetCode(plain) should be empty")
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeInvalidID, "bad id")
	if UserMessage(err) != "bad id" {
		t.Errorf("UserMessage = %q, want %q", UserMessage(err), "bad id")
	}
	plain := errors.New("plain error")
	if UserMessage(plain) != "plain error" {
		t.Errorf("UserMessage(plain) = %q", UserMessage(plain))
	}
}

package hotbench

import (
	"errors"
	"fmt"
	"testing"
)

func TestStructuredError(t *testing.T) {
	// Test basic error creation
	err := NewError("probe", ErrCodeProbeFailed, "bus scan failed")

	if err.Op != "probe" {
		t.Errorf("Expected Op=probe, got %s", err.Op)
	}

	if err.Code != ErrCodeProbeFailed {
		t.Errorf("Expected Code=ErrCodeProbeFailed, got %s", err.Code)
	}

	expected := "hotbench: bus scan failed (op=probe)"
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}
}

func TestDeviceErrorMessage(t *testing.T) {
	err := NewDeviceError("submit", "dev0", ErrCodeSubmitFailed, "read refused")

	got := err.Error()
	expected := `hotbench: read refused (op=submit, device="dev0")`
	if got != expected {
		t.Errorf("Expected error message %q, got %q", expected, got)
	}
}

func TestWrapError(t *testing.T) {
	inner := fmt.Errorf("queue full")
	err := WrapError("submit", "dev0", ErrCodeSubmitFailed, inner)

	if err.Code != ErrCodeSubmitFailed {
		t.Errorf("Expected Code=ErrCodeSubmitFailed, got %s", err.Code)
	}

	if !errors.Is(err, inner) {
		t.Error("Expected wrapped error to satisfy errors.Is for the inner error")
	}

	if WrapError("submit", "dev0", ErrCodeSubmitFailed, nil) != nil {
		t.Error("Expected WrapError(nil) to return nil")
	}
}

func TestWrapKeepsStructuredChain(t *testing.T) {
	inner := fmt.Errorf("no free tasks")
	first := WrapError("acquire", "", ErrCodePoolExhausted, inner)
	second := WrapError("submit", "dev0", ErrCodePoolExhausted, first)

	if second.Msg != first.Msg {
		t.Errorf("Expected message to carry through, got %q", second.Msg)
	}

	if !errors.Is(second, ErrPoolExhausted) {
		t.Error("Rewrapped error should still match ErrPoolExhausted")
	}
}

func TestPoolExhaustedSentinel(t *testing.T) {
	// Structured error should match the sentinel by code
	structuredErr := &Error{Code: ErrCodePoolExhausted}

	if !errors.Is(structuredErr, ErrPoolExhausted) {
		t.Error("Structured error should match sentinel via errors.Is")
	}

	if ErrPoolExhausted.Error() != "hotbench: no free tasks (op=acquire)" {
		t.Errorf("Expected sentinel error message, got %q", ErrPoolExhausted.Error())
	}

	wrapped := WrapError("submit", "dev0", ErrCodePoolExhausted, ErrPoolExhausted)
	if !errors.Is(wrapped, ErrPoolExhausted) {
		t.Error("Wrapped pool exhaustion should match ErrPoolExhausted")
	}
}

func TestIsCode(t *testing.T) {
	err := NewError("unregister", ErrCodeTeardown, "detach refused")

	if !IsCode(err, ErrCodeTeardown) {
		t.Error("IsCode should return true for matching code")
	}

	if IsCode(err, ErrCodeSubmitFailed) {
		t.Error("IsCode should return false for non-matching code")
	}

	// Test with nil error
	if IsCode(nil, ErrCodeTeardown) {
		t.Error("IsCode should return false for nil error")
	}

	// Test with wrapping through fmt
	wrapped := fmt.Errorf("run: %w", err)
	if !IsCode(wrapped, ErrCodeTeardown) {
		t.Error("IsCode should see through fmt wrapping")
	}
}

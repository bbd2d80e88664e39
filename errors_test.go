package magma

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	sentinels := []error{
		ErrInvalidArgument,
		ErrPayloadTooSmall,
		ErrFormat,
		ErrDecryptionFailed,
		ErrSignatureInvalid,
		ErrUnauthorized,
		ErrEngineClosed,
	}

	for i, a := range sentinels {
		if a == nil || a.Error() == "" {
			t.Fatalf("sentinel %d is empty", i)
		}
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("%v matches %v", a, b)
			}
		}
	}
}

func TestTypedErrors_Is(t *testing.T) {
	inner := fmt.Errorf("recipient chunk: %w", ErrDecryptionFailed)

	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"decryption", &DecryptionError{Op: "decrypt-message", Err: inner}, ErrDecryptionFailed},
		{"signature", &SignatureVerificationError{Op: "verify-signet", Err: ErrSignatureInvalid}, ErrSignatureInvalid},
		{"format", &FormatError{Op: "parse", Err: ErrFormat}, ErrFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.sentinel)
			}

			var me MagmaError
			if !errors.As(tt.err, &me) {
				t.Error("error does not implement MagmaError")
			}
		})
	}
}

func TestDecryptionError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("recipient chunk: %w", ErrDecryptionFailed)
	err := &DecryptionError{Op: "decrypt-message", Err: inner}

	if errors.Unwrap(err) != inner {
		t.Error("Unwrap() did not return the inner error")
	}
	if err.Error() != "decrypt-message: recipient chunk: decryption failed" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestWrapError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		typed  bool
		result string
	}{
		{"nil", nil, false, "ok"},
		{"invalid", fmt.Errorf("%w: salt", ErrInvalidArgument), false, "invalid_argument"},
		{"too small", ErrPayloadTooSmall, false, "payload_too_small"},
		{"format", ErrFormat, true, "format"},
		{"decryption", ErrDecryptionFailed, true, "decryption_failed"},
		{"signature", ErrSignatureInvalid, true, "signature_invalid"},
		{"unauthorized", ErrUnauthorized, false, "unauthorized"},
		{"canceled", context.Canceled, false, "canceled"},
		{"deadline", context.DeadlineExceeded, false, "canceled"},
		{"closed", ErrEngineClosed, false, "closed"},
		{"other", errors.New("boom"), false, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapError("op", tt.err)
			if tt.err == nil {
				if got != nil {
					t.Errorf("wrapError(nil) = %v", got)
				}
			} else if !errors.Is(got, tt.err) {
				t.Errorf("wrapError() lost the cause: %v", got)
			}

			var me MagmaError
			if errors.As(got, &me) != tt.typed {
				t.Errorf("typed = %v, want %v", !tt.typed, tt.typed)
			}
			if label := resultLabel(tt.err); label != tt.result {
				t.Errorf("resultLabel() = %q, want %q", label, tt.result)
			}
		})
	}
}

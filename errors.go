package magma

import (
	"context"
	"errors"
	"fmt"

	"github.com/lavabit/magma-sub003/internal/coreerrors"
)

// Sentinel errors for errors.Is() checks
var (
	// ErrInvalidArgument is returned for nil, empty or wrong-length input.
	ErrInvalidArgument = coreerrors.ErrInvalidArgument

	// ErrPayloadTooSmall is returned when a header is requested for a payload
	// below its kind's minimum size.
	ErrPayloadTooSmall = coreerrors.ErrPayloadTooSmall

	// ErrFormat is returned for malformed binary or armored objects.
	ErrFormat = coreerrors.ErrFormat

	// ErrDecryptionFailed is returned when a key or chunk does not decrypt
	// with the supplied key.
	ErrDecryptionFailed = coreerrors.ErrDecryptionFailed

	// ErrSignatureInvalid is returned when signature verification fails.
	ErrSignatureInvalid = coreerrors.ErrSignatureInvalid

	// ErrUnauthorized is returned when an operation needs private material
	// the supplied object lacks, or when a derived-only kind is generated.
	ErrUnauthorized = coreerrors.ErrUnauthorized

	// ErrEngineClosed is returned when operations are attempted on a closed engine.
	ErrEngineClosed = errors.New("engine has been closed")
)

// MagmaError is implemented by the typed errors of this package.
type MagmaError interface {
	error
	MagmaError() // marker method
}

// DecryptionError reports which operation failed to decrypt.
type DecryptionError struct {
	Op  string // "decrypt-key", "decrypt-message"
	Err error
}

func (e *DecryptionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *DecryptionError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
func (e *DecryptionError) Is(target error) bool {
	return target == ErrDecryptionFailed
}

// MagmaError implements the MagmaError interface.
func (e *DecryptionError) MagmaError() {}

// SignatureVerificationError indicates a forged or tampered object.
type SignatureVerificationError struct {
	Op  string
	Err error
}

func (e *SignatureVerificationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *SignatureVerificationError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
func (e *SignatureVerificationError) Is(target error) bool {
	return target == ErrSignatureInvalid
}

// MagmaError implements the MagmaError interface.
func (e *SignatureVerificationError) MagmaError() {}

// FormatError reports a malformed serialized object.
type FormatError struct {
	Op  string
	Err error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *FormatError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// MagmaError implements the MagmaError interface.
func (e *FormatError) MagmaError() {}

// wrapError converts internal errors to the typed public errors.
// Sentinel classes are preserved so errors.Is() keeps working.
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}

	switch coreerrors.Class(err) {
	case ErrDecryptionFailed:
		return &DecryptionError{Op: op, Err: err}
	case ErrSignatureInvalid:
		return &SignatureVerificationError{Op: op, Err: err}
	case ErrFormat:
		return &FormatError{Op: op, Err: err}
	}
	return err
}

// resultLabel names the outcome of an operation for metrics.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, ErrEngineClosed):
		return "closed"
	}

	switch coreerrors.Class(err) {
	case ErrInvalidArgument:
		return "invalid_argument"
	case ErrPayloadTooSmall:
		return "payload_too_small"
	case ErrFormat:
		return "format"
	case ErrDecryptionFailed:
		return "decryption_failed"
	case ErrSignatureInvalid:
		return "signature_invalid"
	case ErrUnauthorized:
		return "unauthorized"
	}
	return "error"
}

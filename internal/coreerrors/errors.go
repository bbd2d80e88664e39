// Package coreerrors provides the shared failure taxonomy for the PRIME and
// STACIE packages. Every error produced by the core wraps exactly one of the
// sentinels below so that callers can classify it with errors.Is.
package coreerrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is() checks
var (
	// ErrInvalidArgument is returned for nil, empty or wrong-length input
	// (usernames, passwords, salts, nonces, keys, serialized objects).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrPayloadTooSmall is returned when a header is requested for a payload
	// below the minimum legal size of its object kind.
	ErrPayloadTooSmall = errors.New("payload below minimum size")

	// ErrFormat is returned for malformed binary or armored objects and for
	// unknown top-level object tags.
	ErrFormat = errors.New("malformed object")

	// ErrDecryptionFailed is returned when authenticated decryption fails,
	// typically because the wrong key was supplied.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrSignatureInvalid is returned when a signature does not verify
	// against the claimed signer's public key.
	ErrSignatureInvalid = errors.New("signature verification failed")

	// ErrUnauthorized is returned when an operation needs private material
	// the supplied object does not hold, or when a derived-only object kind
	// is constructed directly.
	ErrUnauthorized = errors.New("operation not permitted for this object")
)

// Classes lists the sentinels in taxonomy order.
var Classes = []error{
	ErrInvalidArgument,
	ErrPayloadTooSmall,
	ErrFormat,
	ErrDecryptionFailed,
	ErrSignatureInvalid,
	ErrUnauthorized,
}

// Class returns the taxonomy sentinel err belongs to, or nil if it is not a
// core error.
func Class(err error) error {
	if err == nil {
		return nil
	}
	for _, class := range Classes {
		if errors.Is(err, class) {
			return class
		}
	}
	return nil
}

// Invalid wraps ErrInvalidArgument with a formatted detail message.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// Malformed wraps ErrFormat with a formatted detail message.
func Malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFormat, fmt.Sprintf(format, args...))
}

// Unauthorized wraps ErrUnauthorized with a formatted detail message.
func Unauthorized(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnauthorized, fmt.Sprintf(format, args...))
}

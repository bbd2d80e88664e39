package crypto

import (
	"fmt"

	"github.com/lavabit/magma-sub003/internal/coreerrors"
)

var (
	// ErrInvalidKeySize is returned when the AES key size is invalid.
	ErrInvalidKeySize = fmt.Errorf("%w: invalid key size", coreerrors.ErrInvalidArgument)

	// ErrInvalidNonceSize is returned when the nonce size is invalid.
	ErrInvalidNonceSize = fmt.Errorf("%w: invalid nonce size", coreerrors.ErrInvalidArgument)

	// ErrCiphertextTooShort is returned when a sealed blob cannot hold a tag.
	ErrCiphertextTooShort = fmt.Errorf("%w: ciphertext too short", coreerrors.ErrInvalidArgument)

	// ErrDecryptionFailed is returned when decryption fails.
	ErrDecryptionFailed = coreerrors.ErrDecryptionFailed
)

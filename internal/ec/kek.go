package ec

import (
	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/lavabit/magma-sub003/internal/coreerrors"
	"github.com/lavabit/magma-sub003/internal/crypto"
)

// ComputeKEK derives a 32-byte key-encryption key from the ECDH shared point
// between withPrivate's scalar and withPublic's point. The X coordinate is
// expanded with HKDF-SHA-512 under [crypto.KEKContext], so
// ComputeKEK(a, B) == ComputeKEK(b, A).
func ComputeKEK(withPrivate, withPublic *EncryptionKey) ([]byte, error) {
	if !withPrivate.HasPrivate() {
		return nil, coreerrors.Unauthorized("key agreement needs a private encryption key")
	}
	if withPublic == nil || withPublic.public == nil {
		return nil, coreerrors.Invalid("key agreement needs a public encryption key")
	}

	shared := secp256k1.GenerateSharedSecret(withPrivate.private, withPublic.public)
	defer crypto.Wipe(shared)

	return crypto.DeriveKey(shared, nil, []byte(crypto.KEKContext), crypto.KEKSize)
}

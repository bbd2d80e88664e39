package ec

import (
	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/lavabit/magma-sub003/internal/coreerrors"
	"github.com/lavabit/magma-sub003/internal/crypto"
)

const (
	// ScalarSize is the serialized size of a private encryption scalar.
	ScalarSize = secp256k1.PrivKeyBytesLen
	// CompressedPublicSize is the serialized size of a public encryption key.
	CompressedPublicSize = secp256k1.PubKeyBytesLenCompressed

	maxScalarAttempts = 16
)

// EncryptionKey is a secp256k1 key pair. The private half is optional.
type EncryptionKey struct {
	public  *secp256k1.PublicKey
	private *secp256k1.PrivateKey
}

// GenerateEncryptionKey draws scalars from the context's randomness source
// until one lies in [1, n-1].
func (c *Context) GenerateEncryptionKey() (*EncryptionKey, error) {
	for i := 0; i < maxScalarAttempts; i++ {
		buf, err := crypto.RandomBytes(c.Rand(), ScalarSize)
		if err != nil {
			return nil, err
		}
		key, err := EncryptionKeyFromScalar(buf)
		crypto.Wipe(buf)
		if err == nil {
			return key, nil
		}
	}
	return nil, coreerrors.Invalid("random source produced no valid scalar")
}

// EncryptionKeyFromScalar builds a key pair from a 32-byte big-endian scalar
// d, rejecting d = 0 and d >= n.
func EncryptionKeyFromScalar(b []byte) (*EncryptionKey, error) {
	if len(b) != ScalarSize {
		return nil, coreerrors.Invalid("encryption scalar is %d bytes, want %d", len(b), ScalarSize)
	}

	var s secp256k1.ModNScalar
	if overflow := s.SetByteSlice(b); overflow {
		s.Zero()
		return nil, coreerrors.Invalid("encryption scalar is not below the curve order")
	}
	if s.IsZero() {
		return nil, coreerrors.Invalid("encryption scalar is zero")
	}

	priv := secp256k1.NewPrivateKey(&s)
	s.Zero()
	return &EncryptionKey{public: priv.PubKey(), private: priv}, nil
}

// EncryptionKeyFromPublic parses a 33-byte compressed public key. The
// uncompressed and hybrid encodings are rejected, as are X coordinates with no
// point on the curve.
func EncryptionKeyFromPublic(b []byte) (*EncryptionKey, error) {
	if len(b) != CompressedPublicSize {
		return nil, coreerrors.Invalid("encryption public key is %d bytes, want %d", len(b), CompressedPublicSize)
	}
	if b[0] != secp256k1.PubKeyFormatCompressedEven && b[0] != secp256k1.PubKeyFormatCompressedOdd {
		return nil, coreerrors.Invalid("encryption public key prefix 0x%02x is not compressed", b[0])
	}
	pub, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return nil, coreerrors.Invalid("encryption public key: %v", err)
	}
	return &EncryptionKey{public: pub}, nil
}

// HasPrivate reports whether the key holds its scalar.
func (k *EncryptionKey) HasPrivate() bool {
	return k != nil && k.private != nil
}

// Public returns the compressed public key.
func (k *EncryptionKey) Public() []byte {
	return k.public.SerializeCompressed()
}

// Scalar returns the 32-byte private scalar, or nil for a public-only key.
func (k *EncryptionKey) Scalar() []byte {
	if !k.HasPrivate() {
		return nil
	}
	return k.private.Serialize()
}

// PublicOnly returns the public projection of k.
func (k *EncryptionKey) PublicOnly() *EncryptionKey {
	return &EncryptionKey{public: k.public}
}

// Equal reports whether both keys share the same public point.
func (k *EncryptionKey) Equal(other *EncryptionKey) bool {
	if k == nil || other == nil {
		return k == other
	}
	return k.public.IsEqual(other.public)
}

// Destroy zeroes the private scalar.
func (k *EncryptionKey) Destroy() {
	if k == nil || k.private == nil {
		return
	}
	k.private.Zero()
	k.private = nil
}

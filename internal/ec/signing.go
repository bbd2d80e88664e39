package ec

import (
	"github.com/cloudflare/circl/sign/ed25519"

	"github.com/lavabit/magma-sub003/internal/coreerrors"
	"github.com/lavabit/magma-sub003/internal/crypto"
)

const (
	// SigningSeedSize is the serialized size of a private signing key.
	SigningSeedSize = ed25519.SeedSize
	// SigningPublicSize is the serialized size of a public signing key.
	SigningPublicSize = ed25519.PublicKeySize
	// SignatureSize is the size of a detached signature.
	SignatureSize = ed25519.SignatureSize
)

// SigningKey is an Ed25519 key pair. The private half is optional.
type SigningKey struct {
	public  ed25519.PublicKey
	private ed25519.PrivateKey
}

// GenerateSigningKey creates a fresh signing key pair.
func (c *Context) GenerateSigningKey() (*SigningKey, error) {
	seed, err := crypto.RandomBytes(c.Rand(), SigningSeedSize)
	if err != nil {
		return nil, err
	}
	defer crypto.Wipe(seed)
	return SigningKeyFromSeed(seed)
}

// SigningKeyFromSeed rebuilds a signing key pair from its 32-byte seed.
func SigningKeyFromSeed(seed []byte) (*SigningKey, error) {
	if len(seed) != SigningSeedSize {
		return nil, coreerrors.Invalid("signing seed is %d bytes, want %d", len(seed), SigningSeedSize)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := make(ed25519.PublicKey, SigningPublicSize)
	copy(pub, priv[SigningSeedSize:])
	return &SigningKey{public: pub, private: priv}, nil
}

// SigningKeyFromPublic wraps a 32-byte public signing key.
func SigningKeyFromPublic(pub []byte) (*SigningKey, error) {
	if len(pub) != SigningPublicSize {
		return nil, coreerrors.Invalid("signing public key is %d bytes, want %d", len(pub), SigningPublicSize)
	}
	return &SigningKey{public: append(ed25519.PublicKey(nil), pub...)}, nil
}

// HasPrivate reports whether the key can sign.
func (k *SigningKey) HasPrivate() bool {
	return k != nil && len(k.private) == ed25519.PrivateKeySize
}

// Public returns a copy of the public key bytes.
func (k *SigningKey) Public() []byte {
	return append([]byte(nil), k.public...)
}

// Seed returns a copy of the private seed, or nil for a public-only key.
func (k *SigningKey) Seed() []byte {
	if !k.HasPrivate() {
		return nil
	}
	return append([]byte(nil), k.private.Seed()...)
}

// PublicOnly returns the public projection of k.
func (k *SigningKey) PublicOnly() *SigningKey {
	return &SigningKey{public: k.Public()}
}

// Sign produces a detached signature over msg.
func (k *SigningKey) Sign(msg []byte) ([]byte, error) {
	if !k.HasPrivate() {
		return nil, coreerrors.Unauthorized("signing key holds no private component")
	}
	return ed25519.Sign(k.private, msg), nil
}

// Verify checks a detached signature over msg.
func (k *SigningKey) Verify(msg, sig []byte) error {
	if k == nil || len(k.public) != SigningPublicSize {
		return coreerrors.Invalid("signing public key missing")
	}
	if len(sig) != SignatureSize {
		return coreerrors.Invalid("signature is %d bytes, want %d", len(sig), SignatureSize)
	}
	if !ed25519.Verify(k.public, msg, sig) {
		return coreerrors.ErrSignatureInvalid
	}
	return nil
}

// Equal reports whether both keys share the same public half.
func (k *SigningKey) Equal(other *SigningKey) bool {
	if k == nil || other == nil {
		return k == other
	}
	return crypto.Equal(k.public, other.public)
}

// Destroy wipes the private half. The key stays usable for verification.
func (k *SigningKey) Destroy() {
	if k == nil {
		return
	}
	crypto.Wipe(k.private)
	k.private = nil
}

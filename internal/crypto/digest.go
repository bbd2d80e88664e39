package crypto

import (
	"crypto/hmac"
	"crypto/sha512"
	"hash"
)

// Digest returns the SHA-512 digest of the concatenated parts.
func Digest(parts ...[]byte) []byte {
	h := sha512.New()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(make([]byte, 0, DigestSize))
}

// HMAC returns the HMAC-SHA-512 of the concatenated parts under key.
func HMAC(key []byte, parts ...[]byte) []byte {
	mac := hmac.New(sha512.New, key)
	for _, p := range parts {
		mac.Write(p)
	}
	return mac.Sum(make([]byte, 0, DigestSize))
}

// Hasher is a reusable SHA-512 state for iterated digests.
type Hasher struct {
	h hash.Hash
}

// NewHasher returns a fresh Hasher.
func NewHasher() *Hasher {
	return &Hasher{h: sha512.New()}
}

// Sum digests the concatenated parts and writes the result into dst[:0].
// dst may alias one of the parts.
func (h *Hasher) Sum(dst []byte, parts ...[]byte) []byte {
	h.h.Reset()
	for _, p := range parts {
		h.h.Write(p)
	}
	return h.h.Sum(dst[:0])
}

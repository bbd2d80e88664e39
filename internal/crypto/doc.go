// Package crypto is the primitive provider consumed by the STACIE and PRIME
// packages. It wraps the standard digest, MAC, AEAD and KDF constructions
// behind size-checked helpers so that callers never handle a cipher.Block or
// hash.Hash directly.
//
// # Algorithm Suite
//
//   - SHA-512: deterministic 512-bit digest used by every STACIE round and
//     for signet fingerprints.
//
//   - HMAC-SHA-512: keyed digest used for realm key derivation.
//
//   - AES-256-GCM: authenticated encryption for wrapped keys and message
//     chunks. Provides confidentiality and integrity.
//
//   - HKDF-SHA-512 (RFC 5869): derives key-encryption keys from ECDH shared
//     secrets with domain separation.
//
// # Critical Security Notes
//
// AES-GCM nonces MUST be unique for each encryption with the same key. Use
// [RandomBytes] to draw a fresh nonce for every [Seal] call.
//
// Buffers holding key material should be released with [Wipe] on every exit
// path, including error returns:
//
//	key, err := crypto.DeriveKey(secret, nil, info, crypto.AESKeySize)
//	if err != nil {
//	    return err
//	}
//	defer crypto.Wipe(key)
//
// # Randomness
//
// [Reader] returns the process CSPRNG. Tests may substitute a deterministic
// source with [SetRandReaderForTesting].
package crypto

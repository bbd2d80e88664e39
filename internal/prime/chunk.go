package prime

import (
	"io"

	"github.com/lavabit/magma-sub003/internal/codec"
	"github.com/lavabit/magma-sub003/internal/coreerrors"
	"github.com/lavabit/magma-sub003/internal/crypto"
	"github.com/lavabit/magma-sub003/internal/ec"
)

// Chunk is one element of a message: *EphemeralChunk, *EncryptedChunk or
// *SignatureChunk.
type Chunk interface {
	Type() uint8
	Data() []byte
}

// EphemeralChunk carries the message's one-time public encryption key,
// optionally signed by the author.
type EphemeralChunk struct {
	key       *ec.EncryptionKey
	signature []byte
}

// NewEphemeralChunk wraps ephemeral, signing its compressed public key with
// signer when one is given.
func NewEphemeralChunk(signer *ec.SigningKey, ephemeral *ec.EncryptionKey) (*EphemeralChunk, error) {
	if ephemeral == nil {
		return nil, coreerrors.Invalid("nil ephemeral key")
	}
	c := &EphemeralChunk{key: ephemeral}
	if signer != nil {
		sig, err := signer.Sign(ephemeral.Public())
		if err != nil {
			return nil, err
		}
		c.signature = sig
	}
	return c, nil
}

func parseEphemeralChunk(data []byte) (*EphemeralChunk, error) {
	key, err := ec.EncryptionKeyFromPublic(data[:ec.CompressedPublicSize])
	if err != nil {
		return nil, coreerrors.Malformed("ephemeral chunk: %v", err)
	}
	c := &EphemeralChunk{key: key}
	if len(data) > ec.CompressedPublicSize {
		c.signature = data[ec.CompressedPublicSize:]
	}
	return c, nil
}

// Type returns ChunkEphemeral.
func (c *EphemeralChunk) Type() uint8 { return codec.ChunkEphemeral }

// Data returns the public key followed by the optional signature.
func (c *EphemeralChunk) Data() []byte {
	return append(c.key.Public(), c.signature...)
}

// Key returns the ephemeral encryption key.
func (c *EphemeralChunk) Key() *ec.EncryptionKey { return c.key }

// Signed reports whether the chunk carries an author signature.
func (c *EphemeralChunk) Signed() bool { return len(c.signature) > 0 }

// Verify checks the author signature over the ephemeral public key.
func (c *EphemeralChunk) Verify(signer *ec.SigningKey) error {
	if !c.Signed() {
		return coreerrors.ErrSignatureInvalid
	}
	return signer.Verify(c.key.Public(), c.signature)
}

// EncryptedChunk is a body sealed to one reader: nonce || ciphertext || tag.
type EncryptedChunk struct {
	typ     uint8
	payload []byte
}

// SealChunk encrypts plaintext for recipient under the KEK shared between the
// ephemeral private key and the recipient's public key. The AAD binds the
// chunk type and the ephemeral public key.
func SealChunk(typ uint8, ephemeral, recipient *ec.EncryptionKey, plaintext []byte, r io.Reader) (*EncryptedChunk, error) {
	if typ != codec.ChunkRecipient && typ != codec.ChunkAuthor {
		return nil, coreerrors.Invalid("chunk type %d is not an encrypted chunk", typ)
	}
	kek, err := ec.ComputeKEK(ephemeral, recipient)
	if err != nil {
		return nil, err
	}
	defer crypto.Wipe(kek)

	nonce, err := crypto.RandomBytes(r, crypto.AESNonceSize)
	if err != nil {
		return nil, err
	}
	payload, err := crypto.EncryptAES(kek, plaintext, nonce, chunkAAD(typ, ephemeral))
	if err != nil {
		return nil, err
	}
	return &EncryptedChunk{typ: typ, payload: payload}, nil
}

// Type returns ChunkRecipient or ChunkAuthor.
func (c *EncryptedChunk) Type() uint8 { return c.typ }

// Data returns nonce || ciphertext || tag.
func (c *EncryptedChunk) Data() []byte { return c.payload }

// Open decrypts the chunk with the reader's private key and the message's
// ephemeral public key.
func (c *EncryptedChunk) Open(reader, ephemeral *ec.EncryptionKey) ([]byte, error) {
	kek, err := ec.ComputeKEK(reader, ephemeral)
	if err != nil {
		return nil, err
	}
	defer crypto.Wipe(kek)
	return crypto.DecryptAES(kek, c.payload, chunkAAD(c.typ, ephemeral))
}

func chunkAAD(typ uint8, ephemeral *ec.EncryptionKey) []byte {
	return append([]byte{typ}, ephemeral.Public()...)
}

// SignatureChunk is a detached author signature over the encoded chunks that
// precede it.
type SignatureChunk struct {
	signature []byte
}

// SignChunks signs the encoded prefix of a message.
func SignChunks(signer *ec.SigningKey, encodedPrefix []byte) (*SignatureChunk, error) {
	sig, err := signer.Sign(encodedPrefix)
	if err != nil {
		return nil, err
	}
	return &SignatureChunk{signature: sig}, nil
}

// Type returns ChunkSignature.
func (c *SignatureChunk) Type() uint8 { return codec.ChunkSignature }

// Data returns the signature.
func (c *SignatureChunk) Data() []byte { return c.signature }

// Verify checks the signature over the encoded prefix.
func (c *SignatureChunk) Verify(signer *ec.SigningKey, encodedPrefix []byte) error {
	return signer.Verify(encodedPrefix, c.signature)
}

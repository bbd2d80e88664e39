package prime

import (
	"errors"
	"fmt"

	"github.com/lavabit/magma-sub003/internal/codec"
	"github.com/lavabit/magma-sub003/internal/coreerrors"
	"github.com/lavabit/magma-sub003/internal/crypto"
	"github.com/lavabit/magma-sub003/internal/ec"
)

// Message is a sealed body: an ephemeral chunk, the recipient's encrypted
// chunk, an optional author copy and an optional signature.
type Message struct {
	fields []codec.Field
}

// Opened is the result of MessageDecrypt.
type Opened struct {
	Body []byte
	// Signed is set when the message carries author signatures.
	Signed bool
	// Verified is set when those signatures checked out against the supplied
	// author signet.
	Verified bool
	// AuthorCopy is set when the body came from the author's chunk.
	AuthorCopy bool
}

// MaxBodyLen is the largest body a message chunk can carry: the 3-byte
// chunk length less the AES-GCM nonce and tag.
const MaxBodyLen = 1<<24 - 1 - crypto.AESNonceSize - crypto.AESTagSize

// MessageEncrypt seals body for recipient. Every author key is optional:
// authorEncryption adds a chunk the author can open later, and
// authorSigning signs the ephemeral key and the whole chunk sequence.
// Randomness is read from ctx. Bodies longer than MaxBodyLen are rejected
// before any key is generated.
func MessageEncrypt(ctx *ec.Context, authorSigning *ec.SigningKey, authorEncryption *ec.EncryptionKey, recipient *Signet, body []byte) (*Message, error) {
	if recipient == nil {
		return nil, coreerrors.Invalid("nil recipient signet")
	}
	if len(body) > MaxBodyLen {
		return nil, coreerrors.Invalid("body is %d bytes, limit %d", len(body), MaxBodyLen)
	}
	if ctx == nil {
		ctx = ec.Default()
	}

	ephemeral, err := ctx.GenerateEncryptionKey()
	if err != nil {
		return nil, err
	}
	defer ephemeral.Destroy()

	eph, err := NewEphemeralChunk(authorSigning, ephemeral)
	if err != nil {
		return nil, err
	}
	chunks := []Chunk{eph}

	sealed, err := SealChunk(codec.ChunkRecipient, ephemeral, recipient.Encryption(), body, ctx.Rand())
	if err != nil {
		return nil, err
	}
	chunks = append(chunks, sealed)

	if authorEncryption != nil {
		own, err := SealChunk(codec.ChunkAuthor, ephemeral, authorEncryption.PublicOnly(), body, ctx.Rand())
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, own)
	}

	fields := chunkFields(chunks)
	if authorSigning != nil {
		prefix, err := codec.EncodeFields(codec.KindMessage, fields)
		if err != nil {
			return nil, err
		}
		sig, err := SignChunks(authorSigning, prefix)
		if err != nil {
			return nil, err
		}
		fields = append(fields, codec.Field{Type: sig.Type(), Data: sig.Data()})
	}
	return &Message{fields: fields}, nil
}

// MessageDecrypt opens msg with key, the recipient's or the author's. When
// author is given, the ephemeral and chunk signatures must verify against it.
func MessageDecrypt(msg *Message, key *Key, author *Signet) (*Opened, error) {
	if msg == nil || key == nil {
		return nil, coreerrors.Invalid("message and key are required")
	}
	if !key.encryption.HasPrivate() {
		return nil, coreerrors.Unauthorized("key holds no private encryption key")
	}

	eph, err := msg.Ephemeral()
	if err != nil {
		return nil, err
	}

	opened := &Opened{}
	found := false
	for _, typ := range []uint8{codec.ChunkRecipient, codec.ChunkAuthor} {
		chunk, ok := msg.encrypted(typ)
		if !ok {
			continue
		}
		body, err := chunk.Open(key.encryption, eph.Key())
		if errors.Is(err, coreerrors.ErrDecryptionFailed) {
			continue
		}
		if err != nil {
			return nil, err
		}
		opened.Body = body
		opened.AuthorCopy = typ == codec.ChunkAuthor
		found = true
		break
	}
	if !found {
		return nil, fmt.Errorf("%w: no chunk opens with this key", coreerrors.ErrDecryptionFailed)
	}

	sig, hasSig := codec.Find(msg.fields, codec.ChunkSignature)
	opened.Signed = eph.Signed() || hasSig

	if author != nil {
		if err := eph.Verify(author.Signing()); err != nil {
			crypto.Wipe(opened.Body)
			return nil, fmt.Errorf("ephemeral signature: %w", coreerrors.ErrSignatureInvalid)
		}
		if !hasSig {
			crypto.Wipe(opened.Body)
			return nil, fmt.Errorf("message signature: %w: missing", coreerrors.ErrSignatureInvalid)
		}
		prefix, err := preimage(codec.KindMessage, msg.fields, codec.ChunkSignature)
		if err != nil {
			return nil, err
		}
		if err := (&SignatureChunk{signature: sig}).Verify(author.Signing(), prefix); err != nil {
			crypto.Wipe(opened.Body)
			return nil, fmt.Errorf("message signature: %w", err)
		}
		opened.Verified = true
	}
	return opened, nil
}

func messageFromFields(fields []codec.Field) (*Message, error) {
	msg := &Message{fields: fields}
	if _, err := msg.Ephemeral(); err != nil {
		return nil, err
	}
	return msg, nil
}

// Kind returns KindMessage.
func (m *Message) Kind() codec.Kind { return codec.KindMessage }

func (m *Message) fieldList() []codec.Field { return m.fields }

// Ephemeral returns the message's ephemeral chunk.
func (m *Message) Ephemeral() (*EphemeralChunk, error) {
	data, ok := codec.Find(m.fields, codec.ChunkEphemeral)
	if !ok {
		return nil, coreerrors.Malformed("message has no ephemeral chunk")
	}
	return parseEphemeralChunk(data)
}

// Chunks returns the known chunks in order. Unknown chunk types are skipped.
func (m *Message) Chunks() ([]Chunk, error) {
	var out []Chunk
	for _, f := range m.fields {
		switch f.Type {
		case codec.ChunkEphemeral:
			eph, err := parseEphemeralChunk(f.Data)
			if err != nil {
				return nil, err
			}
			out = append(out, eph)
		case codec.ChunkRecipient, codec.ChunkAuthor:
			out = append(out, &EncryptedChunk{typ: f.Type, payload: f.Data})
		case codec.ChunkSignature:
			out = append(out, &SignatureChunk{signature: f.Data})
		}
	}
	return out, nil
}

func (m *Message) encrypted(typ uint8) (*EncryptedChunk, bool) {
	data, ok := codec.Find(m.fields, typ)
	if !ok {
		return nil, false
	}
	return &EncryptedChunk{typ: typ, payload: data}, true
}

func chunkFields(chunks []Chunk) []codec.Field {
	fields := make([]codec.Field, len(chunks))
	for i, c := range chunks {
		fields[i] = codec.Field{Type: c.Type(), Data: c.Data()}
	}
	return fields
}

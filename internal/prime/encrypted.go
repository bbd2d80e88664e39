package prime

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/lavabit/magma-sub003/internal/codec"
	"github.com/lavabit/magma-sub003/internal/coreerrors"
	"github.com/lavabit/magma-sub003/internal/crypto"
	"github.com/lavabit/magma-sub003/internal/stacie"
)

// EncryptedKey is an org or user key wrapped under a realm key. It does not
// record which realm key was used.
type EncryptedKey struct {
	kind       codec.Kind
	nonce      []byte
	ciphertext []byte
	fields     []codec.Field
}

// KeyEncrypt wraps key under protection, a 64-byte STACIE realm key. The
// cipher key is the realm cipher key; the AAD binds the realm initialization
// vector and the encrypted kind's tag. Nonces are read from r, or from the
// process CSPRNG when r is nil.
func KeyEncrypt(protection []byte, key *Key, r io.Reader) (*EncryptedKey, error) {
	if key == nil {
		return nil, coreerrors.Invalid("nil key")
	}
	kind, err := encryptedKind(key.kind)
	if err != nil {
		return nil, err
	}
	cipherKey, aad, err := wrapParams(protection, kind)
	if err != nil {
		return nil, err
	}
	defer crypto.Wipe(cipherKey, aad)

	plaintext, err := codec.Encode(key.kind, key.fields)
	if err != nil {
		return nil, err
	}
	defer crypto.Wipe(plaintext)

	nonce, err := crypto.RandomBytes(r, crypto.AESNonceSize)
	if err != nil {
		return nil, err
	}
	ciphertext, err := crypto.Seal(cipherKey, nonce, plaintext, aad)
	if err != nil {
		return nil, err
	}

	return &EncryptedKey{
		kind:       kind,
		nonce:      nonce,
		ciphertext: ciphertext,
		fields: []codec.Field{
			{Type: codec.FieldNonce, Data: nonce},
			{Type: codec.FieldCiphertext, Data: ciphertext},
		},
	}, nil
}

// KeyDecrypt unwraps enc with protection. A mismatched protection key fails
// with ErrDecryptionFailed.
func KeyDecrypt(protection []byte, enc *EncryptedKey) (*Key, error) {
	if enc == nil {
		return nil, coreerrors.Invalid("nil encrypted key")
	}
	cipherKey, aad, err := wrapParams(protection, enc.kind)
	if err != nil {
		return nil, err
	}
	defer crypto.Wipe(cipherKey, aad)

	plaintext, err := crypto.Open(cipherKey, enc.nonce, enc.ciphertext, aad)
	if err != nil {
		return nil, err
	}
	defer crypto.Wipe(plaintext)

	kind, fields, err := codec.Decode(plaintext)
	if err != nil {
		return nil, fmt.Errorf("wrapped key: %w", err)
	}
	if want, _ := plainKind(enc.kind); kind != want {
		return nil, coreerrors.Malformed("%v wraps a %v", enc.kind, kind)
	}
	return keyFromFields(kind, cloneFields(fields))
}

func encryptedKeyFromFields(kind codec.Kind, fields []codec.Field) (*EncryptedKey, error) {
	nonce, _ := codec.Find(fields, codec.FieldNonce)
	ciphertext, _ := codec.Find(fields, codec.FieldCiphertext)
	return &EncryptedKey{kind: kind, nonce: nonce, ciphertext: ciphertext, fields: fields}, nil
}

// Kind returns KindOrgKeyEncrypted or KindUserKeyEncrypted.
func (e *EncryptedKey) Kind() codec.Kind { return e.kind }

func (e *EncryptedKey) fieldList() []codec.Field { return e.fields }

func wrapParams(protection []byte, kind codec.Kind) (cipherKey, aad []byte, err error) {
	if len(protection) != stacie.KeyLength {
		return nil, nil, coreerrors.Invalid("protection key is %d bytes, want %d", len(protection), stacie.KeyLength)
	}
	schema, err := codec.Lookup(kind)
	if err != nil {
		return nil, nil, err
	}
	iv, err := stacie.RealmInitVectorDerive(protection)
	if err != nil {
		return nil, nil, err
	}
	cipherKey, err = stacie.RealmCipherKeyDerive(protection)
	if err != nil {
		return nil, nil, err
	}
	return cipherKey, binary.BigEndian.AppendUint16(iv, schema.Tag), nil
}

func encryptedKind(kind codec.Kind) (codec.Kind, error) {
	switch kind {
	case codec.KindOrgKey:
		return codec.KindOrgKeyEncrypted, nil
	case codec.KindUserKey:
		return codec.KindUserKeyEncrypted, nil
	}
	return codec.KindUnknown, coreerrors.Invalid("cannot encrypt a %v", kind)
}

func plainKind(kind codec.Kind) (codec.Kind, error) {
	switch kind {
	case codec.KindOrgKeyEncrypted:
		return codec.KindOrgKey, nil
	case codec.KindUserKeyEncrypted:
		return codec.KindUserKey, nil
	}
	return codec.KindUnknown, coreerrors.Invalid("%v is not an encrypted kind", kind)
}

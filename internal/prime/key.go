package prime

import (
	"github.com/lavabit/magma-sub003/internal/codec"
	"github.com/lavabit/magma-sub003/internal/coreerrors"
	"github.com/lavabit/magma-sub003/internal/crypto"
	"github.com/lavabit/magma-sub003/internal/ec"
)

// Key is an org or user key pair holding private signing and encryption
// material.
type Key struct {
	kind       codec.Kind
	signing    *ec.SigningKey
	encryption *ec.EncryptionKey
	fields     []codec.Field
}

// GenerateKey allocates a fresh org or user key. Signet, request and
// encrypted kinds are only reachable through derivation and fail with
// ErrUnauthorized.
func GenerateKey(ctx *ec.Context, kind codec.Kind) (*Key, error) {
	switch kind {
	case codec.KindOrgKey, codec.KindUserKey:
	case codec.KindOrgSignet, codec.KindUserSigningRequest, codec.KindUserSignet,
		codec.KindOrgKeyEncrypted, codec.KindUserKeyEncrypted:
		return nil, coreerrors.Unauthorized("%v objects are derived, not generated", kind)
	default:
		return nil, coreerrors.Invalid("cannot generate a %v", kind)
	}
	if ctx == nil {
		ctx = ec.Default()
	}

	signing, err := ctx.GenerateSigningKey()
	if err != nil {
		return nil, err
	}
	encryption, err := ctx.GenerateEncryptionKey()
	if err != nil {
		signing.Destroy()
		return nil, err
	}

	return &Key{
		kind:       kind,
		signing:    signing,
		encryption: encryption,
		fields: []codec.Field{
			{Type: codec.FieldSigningKey, Data: signing.Seed()},
			{Type: encryptionField(kind), Data: encryption.Scalar()},
		},
	}, nil
}

func keyFromFields(kind codec.Kind, fields []codec.Field) (*Key, error) {
	seed, _ := codec.Find(fields, codec.FieldSigningKey)
	scalar, _ := codec.Find(fields, encryptionField(kind))

	signing, err := ec.SigningKeyFromSeed(seed)
	if err != nil {
		wipeFields(fields)
		return nil, coreerrors.Malformed("%v signing key: %v", kind, err)
	}
	encryption, err := ec.EncryptionKeyFromScalar(scalar)
	if err != nil {
		signing.Destroy()
		wipeFields(fields)
		return nil, coreerrors.Malformed("%v encryption key: %v", kind, err)
	}
	return &Key{kind: kind, signing: signing, encryption: encryption, fields: fields}, nil
}

// wipeFields zeroes field data the caller owns.
func wipeFields(fields []codec.Field) {
	for _, f := range fields {
		crypto.Wipe(f.Data)
	}
}

// encryptionField returns the field type carrying the encryption key; org and
// user objects number it differently.
func encryptionField(kind codec.Kind) uint8 {
	switch kind {
	case codec.KindOrgKey, codec.KindOrgSignet, codec.KindOrgKeyEncrypted:
		return codec.FieldOrgEncryption
	default:
		return codec.FieldEncryptionKey
	}
}

// Kind returns KindOrgKey or KindUserKey.
func (k *Key) Kind() codec.Kind { return k.kind }

func (k *Key) fieldList() []codec.Field { return k.fields }

// IsOrg reports whether k is an organizational key.
func (k *Key) IsOrg() bool { return k.kind == codec.KindOrgKey }

// Signing returns the signing key pair.
func (k *Key) Signing() *ec.SigningKey { return k.signing }

// Encryption returns the encryption key pair.
func (k *Key) Encryption() *ec.EncryptionKey { return k.encryption }

// HasPrivate reports whether the key still holds its private halves.
func (k *Key) HasPrivate() bool {
	return k != nil && k.signing.HasPrivate() && k.encryption.HasPrivate()
}

// Destroy wipes the private material. The key cannot be used afterwards.
func (k *Key) Destroy() {
	if k == nil {
		return
	}
	for _, f := range k.fields {
		crypto.Wipe(f.Data)
	}
	k.signing.Destroy()
	k.encryption.Destroy()
}

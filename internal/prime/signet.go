package prime

import (
	"fmt"

	"github.com/lavabit/magma-sub003/internal/codec"
	"github.com/lavabit/magma-sub003/internal/coreerrors"
	"github.com/lavabit/magma-sub003/internal/crypto"
	"github.com/lavabit/magma-sub003/internal/ec"
)

// Signet is the public projection of a key: an org signet, a user signing
// request, or an issued user signet.
type Signet struct {
	kind       codec.Kind
	signing    *ec.SigningKey
	encryption *ec.EncryptionKey
	fields     []codec.Field
}

// SignetGenerate derives the public object for key. An org key yields a
// self-signed org signet. A user key yields a signing request with no
// predecessor, since a user signet needs an issuer.
func SignetGenerate(key *Key) (*Signet, error) {
	if key == nil {
		return nil, coreerrors.Invalid("nil key")
	}
	switch key.kind {
	case codec.KindOrgKey:
		return orgSignet(key)
	case codec.KindUserKey:
		return RequestGenerate(key, nil)
	default:
		return nil, coreerrors.Invalid("cannot derive a signet from a %v", key.kind)
	}
}

func orgSignet(key *Key) (*Signet, error) {
	fields := []codec.Field{
		{Type: codec.FieldSigningKey, Data: key.signing.Public()},
		{Type: codec.FieldOrgEncryption, Data: key.encryption.Public()},
	}
	sig, err := signFields(key.signing, codec.KindOrgSignet, fields)
	if err != nil {
		return nil, err
	}
	fields = append(fields, codec.Field{Type: codec.FieldOrgSignature, Data: sig})

	return &Signet{
		kind:       codec.KindOrgSignet,
		signing:    key.signing.PublicOnly(),
		encryption: key.encryption.PublicOnly(),
		fields:     fields,
	}, nil
}

func signetFromFields(kind codec.Kind, fields []codec.Field) (*Signet, error) {
	pub, _ := codec.Find(fields, codec.FieldSigningKey)
	encPub, _ := codec.Find(fields, encryptionField(kind))

	signing, err := ec.SigningKeyFromPublic(pub)
	if err != nil {
		return nil, coreerrors.Malformed("%v signing key: %v", kind, err)
	}
	encryption, err := ec.EncryptionKeyFromPublic(encPub)
	if err != nil {
		return nil, coreerrors.Malformed("%v encryption key: %v", kind, err)
	}
	return &Signet{kind: kind, signing: signing, encryption: encryption, fields: fields}, nil
}

// Kind returns KindOrgSignet, KindUserSigningRequest or KindUserSignet.
func (s *Signet) Kind() codec.Kind { return s.kind }

func (s *Signet) fieldList() []codec.Field { return s.fields }

// IsRequest reports whether s is an unsigned user signing request.
func (s *Signet) IsRequest() bool { return s.kind == codec.KindUserSigningRequest }

// HasCustody reports whether s carries a predecessor's custody signature.
func (s *Signet) HasCustody() bool {
	if s.kind == codec.KindOrgSignet {
		return false
	}
	_, ok := codec.Find(s.fields, codec.FieldCustodySignature)
	return ok
}

// Signing returns the public signing key.
func (s *Signet) Signing() *ec.SigningKey { return s.signing }

// Encryption returns the public encryption key.
func (s *Signet) Encryption() *ec.EncryptionKey { return s.encryption }

// Fingerprint returns the unpadded base64url SHA-512 digest of the binary
// signet.
func (s *Signet) Fingerprint() (string, error) {
	data, err := Encode(s, Binary)
	if err != nil {
		return "", err
	}
	return crypto.ToBase64URL(crypto.Digest(data)), nil
}

// SignetVerify checks every signature s carries.
//
// Org signets are checked against their own signing key. Requests and user
// signets are checked for their self-signature and, when predecessor is
// given, for a custody signature by it. User signets also need issuer, an org
// key or org signet, whose key must have produced the org signature.
func SignetVerify(s *Signet, issuer, predecessor Object) error {
	if s == nil {
		return coreerrors.Invalid("nil signet")
	}

	switch s.kind {
	case codec.KindOrgSignet:
		return verifyField(s.signing, s.kind, s.fields, codec.FieldOrgSignature, "org self-signature")

	case codec.KindUserSigningRequest, codec.KindUserSignet:
		if err := verifyField(s.signing, s.kind, s.fields, codec.FieldUserSignature, "user self-signature"); err != nil {
			return err
		}
		if predecessor != nil {
			prev, err := signingOf(predecessor, false)
			if err != nil {
				return err
			}
			if err := verifyField(prev, s.kind, s.fields, codec.FieldCustodySignature, "custody signature"); err != nil {
				return err
			}
		}
		if s.kind == codec.KindUserSignet {
			if issuer == nil {
				return coreerrors.Invalid("user signet verification needs an issuer")
			}
			org, err := signingOf(issuer, true)
			if err != nil {
				return err
			}
			return verifyField(org, s.kind, s.fields, codec.FieldIssuerSignature, "org signature")
		}
		return nil

	default:
		return coreerrors.Invalid("cannot verify a %v", s.kind)
	}
}

// signingOf returns the signing key of a key or signet. When org is set the
// object must be organizational.
func signingOf(obj Object, org bool) (*ec.SigningKey, error) {
	switch v := obj.(type) {
	case nil:
		return nil, coreerrors.Invalid("nil signer")
	case *Key:
		if v == nil {
			return nil, coreerrors.Invalid("nil key")
		}
		if org != (v.kind == codec.KindOrgKey) {
			return nil, coreerrors.Invalid("unexpected %v", v.kind)
		}
		return v.signing, nil
	case *Signet:
		if v == nil {
			return nil, coreerrors.Invalid("nil signet")
		}
		if org != (v.kind == codec.KindOrgSignet) {
			return nil, coreerrors.Invalid("unexpected %v", v.kind)
		}
		return v.signing, nil
	default:
		return nil, coreerrors.Invalid("a %v carries no signing key", obj.Kind())
	}
}

func signFields(signer *ec.SigningKey, kind codec.Kind, fields []codec.Field) ([]byte, error) {
	msg, err := codec.EncodeFields(kind, fields)
	if err != nil {
		return nil, err
	}
	return signer.Sign(msg)
}

// verifyField checks the signature in field typ over the fields before it.
func verifyField(signer *ec.SigningKey, kind codec.Kind, fields []codec.Field, typ uint8, what string) error {
	sig, ok := codec.Find(fields, typ)
	if !ok {
		return fmt.Errorf("%s: %w: missing", what, coreerrors.ErrSignatureInvalid)
	}
	msg, err := preimage(kind, fields, typ)
	if err != nil {
		return err
	}
	if err := signer.Verify(msg, sig); err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}

package magma

import (
	"go.uber.org/zap"

	"github.com/lavabit/magma-sub003/internal/codec"
	"github.com/lavabit/magma-sub003/internal/prime"
	"github.com/lavabit/magma-sub003/internal/stacie"
)

type (
	// Key is an org or user key pair.
	Key = prime.Key
	// Signet is an org signet, a user signing request or a user signet.
	Signet = prime.Signet
	// EncryptedKey is a key sealed under a realm cipher key.
	EncryptedKey = prime.EncryptedKey
	// Message is a sealed mail body.
	Message = prime.Message
	// Opened is a decrypted message body and its signature status.
	Opened = prime.Opened
	// Object is any of the above.
	Object = prime.Object
	// Kind identifies an object type.
	Kind = codec.Kind
	// Format selects binary or armored serialization.
	Format = codec.Format
	// Unpacked is a field-by-field view of a serialized object.
	Unpacked = codec.Unpacked
)

// Object kinds.
const (
	KindOrgSignet          = codec.KindOrgSignet
	KindOrgKey             = codec.KindOrgKey
	KindOrgKeyEncrypted    = codec.KindOrgKeyEncrypted
	KindUserSigningRequest = codec.KindUserSigningRequest
	KindUserSignet         = codec.KindUserSignet
	KindUserKey            = codec.KindUserKey
	KindUserKeyEncrypted   = codec.KindUserKeyEncrypted
	KindMessage            = codec.KindMessage
)

// Serialization formats.
const (
	Binary  = codec.Binary
	Armored = codec.Armored
)

// GenerateKey creates an org or user key. Other kinds are derived from keys
// and fail with ErrUnauthorized or ErrInvalidArgument.
func (e *Engine) GenerateKey(kind Kind) (*Key, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	key, err := prime.GenerateKey(e.ec, kind)
	if err != nil {
		return nil, e.finish("generate-key", err, zap.Stringer("kind", kind))
	}
	return key, e.finish("generate-key", nil, zap.Stringer("kind", kind))
}

// Signet returns the public half of key: an org signet for an org key, or an
// unchained signing request for a user key.
func (e *Engine) Signet(key *Key) (*Signet, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	s, err := prime.SignetGenerate(key)
	if err != nil {
		return nil, e.finish("signet", err)
	}
	return s, e.finish("signet", nil, zap.Stringer("kind", s.Kind()))
}

// Request builds a signing request for a user key. predecessor, the key being
// replaced, may be nil.
func (e *Engine) Request(key, predecessor *Key) (*Signet, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	s, err := prime.RequestGenerate(key, predecessor)
	if err != nil {
		return nil, e.finish("request", err)
	}
	return s, e.finish("request", nil, zap.Bool("custody", s.HasCustody()))
}

// SignRequest issues a user signet. Only an org key with its private signing
// key may sign.
func (e *Engine) SignRequest(request *Signet, org *Key) (*Signet, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	s, err := prime.RequestSign(request, present(org))
	if err != nil {
		return nil, e.finish("sign-request", err)
	}
	fp, _ := s.Fingerprint()
	return s, e.finish("sign-request", nil, zap.String("fingerprint", fp))
}

// VerifySignet checks the signatures s carries. issuer is the org key or org
// signet a user signet must chain to; predecessor, when given, must hold the
// custody signature. Either may be nil where the signet kind allows it.
func (e *Engine) VerifySignet(s *Signet, issuer, predecessor Object) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	return e.finish("verify-signet", prime.SignetVerify(s, present(issuer), present(predecessor)))
}

// EncryptKey seals key under a 64-byte realm key (see RealmKey).
func (e *Engine) EncryptKey(realmKey []byte, key *Key) (*EncryptedKey, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	enc, err := prime.KeyEncrypt(realmKey, key, e.ec.Rand())
	if err != nil {
		return nil, e.finish("encrypt-key", err)
	}
	return enc, e.finish("encrypt-key", nil, zap.Stringer("kind", enc.Kind()))
}

// DecryptKey recovers a key sealed by EncryptKey.
func (e *Engine) DecryptKey(realmKey []byte, enc *EncryptedKey) (*Key, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	key, err := prime.KeyDecrypt(realmKey, enc)
	if err != nil {
		return nil, e.finish("decrypt-key", err)
	}
	return key, e.finish("decrypt-key", nil, zap.Stringer("kind", key.Kind()))
}

// Encode serializes obj.
func (e *Engine) Encode(obj Object, format Format) ([]byte, error) {
	data, err := prime.Encode(present(obj), format)
	if err != nil {
		return nil, e.finish("encode", err)
	}
	return data, nil
}

// Parse decodes an object of any kind.
func (e *Engine) Parse(data []byte, format Format) (Object, error) {
	obj, err := prime.Parse(data, format)
	if err != nil {
		return nil, e.finish("parse", err, zap.Stringer("format", format))
	}
	return obj, nil
}

// Armor wraps a binary object in its PEM envelope.
func (e *Engine) Armor(data []byte) ([]byte, error) {
	out, err := codec.Armor(data)
	return out, wrapError("armor", err)
}

// Unarmor strips the PEM envelope from an armored object.
func (e *Engine) Unarmor(text []byte) ([]byte, error) {
	out, err := codec.Unarmor(text)
	return out, wrapError("unarmor", err)
}

// Unpack lists the fields of a binary or armored object without validating
// them.
func (e *Engine) Unpack(data []byte) (*Unpacked, error) {
	u, err := codec.Unpack(data)
	return u, wrapError("unpack", err)
}

// DetectFormat reports whether data looks armored or binary.
func DetectFormat(data []byte) Format {
	return codec.Detect(data)
}

// SaltLength, NonceLength and ShardLength are the sizes NewSalt, NewNonce and
// NewShard produce.
const (
	SaltLength  = stacie.SaltLength
	NonceLength = stacie.NonceLength
	ShardLength = stacie.ShardLength
)

// present maps typed nil pointers to a nil interface.
func present(obj Object) Object {
	switch v := obj.(type) {
	case *Key:
		if v == nil {
			return nil
		}
	case *Signet:
		if v == nil {
			return nil
		}
	case *EncryptedKey:
		if v == nil {
			return nil
		}
	case *Message:
		if v == nil {
			return nil
		}
	}
	return obj
}

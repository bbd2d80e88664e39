package prime

import (
	"github.com/lavabit/magma-sub003/internal/codec"
	"github.com/lavabit/magma-sub003/internal/coreerrors"
)

// Format selects the serialized representation of an object.
type Format = codec.Format

// Serialized representations.
const (
	Binary  = codec.Binary
	Armored = codec.Armored
)

// Object is any PRIME object: *Key, *Signet, *EncryptedKey or *Message.
type Object interface {
	Kind() codec.Kind
	fieldList() []codec.Field
}

// Encode serializes obj in the requested format.
func Encode(obj Object, format Format) ([]byte, error) {
	if obj == nil {
		return nil, coreerrors.Invalid("nil object")
	}
	return codec.Marshal(obj.Kind(), obj.fieldList(), format)
}

// Parse decodes an object of any kind.
func Parse(data []byte, format Format) (Object, error) {
	if len(data) == 0 {
		return nil, coreerrors.Invalid("empty object")
	}
	kind, fields, err := codec.Unmarshal(data, format)
	if err != nil {
		return nil, err
	}
	// Armored secret kinds are already private copies.
	if s, _ := codec.Lookup(kind); format != codec.Armored || !s.Secret {
		fields = cloneFields(fields)
	}

	switch kind {
	case codec.KindOrgKey, codec.KindUserKey:
		return keyFromFields(kind, fields)
	case codec.KindOrgSignet, codec.KindUserSigningRequest, codec.KindUserSignet:
		return signetFromFields(kind, fields)
	case codec.KindOrgKeyEncrypted, codec.KindUserKeyEncrypted:
		return encryptedKeyFromFields(kind, fields)
	case codec.KindMessage:
		return messageFromFields(fields)
	default:
		return nil, coreerrors.Malformed("unsupported object kind %v", kind)
	}
}

// ParseKey decodes an org or user key.
func ParseKey(data []byte, format Format) (*Key, error) {
	obj, err := Parse(data, format)
	if err != nil {
		return nil, err
	}
	key, ok := obj.(*Key)
	if !ok {
		return nil, coreerrors.Invalid("object is a %v, not a key", obj.Kind())
	}
	return key, nil
}

// ParseSignet decodes an org signet, user signing request or user signet.
func ParseSignet(data []byte, format Format) (*Signet, error) {
	obj, err := Parse(data, format)
	if err != nil {
		return nil, err
	}
	signet, ok := obj.(*Signet)
	if !ok {
		return nil, coreerrors.Invalid("object is a %v, not a signet", obj.Kind())
	}
	return signet, nil
}

// ParseEncryptedKey decodes a wrapped org or user key.
func ParseEncryptedKey(data []byte, format Format) (*EncryptedKey, error) {
	obj, err := Parse(data, format)
	if err != nil {
		return nil, err
	}
	enc, ok := obj.(*EncryptedKey)
	if !ok {
		return nil, coreerrors.Invalid("object is a %v, not an encrypted key", obj.Kind())
	}
	return enc, nil
}

// ParseMessage decodes a sealed message.
func ParseMessage(data []byte, format Format) (*Message, error) {
	obj, err := Parse(data, format)
	if err != nil {
		return nil, err
	}
	msg, ok := obj.(*Message)
	if !ok {
		return nil, coreerrors.Invalid("object is a %v, not a message", obj.Kind())
	}
	return msg, nil
}

func cloneFields(fields []codec.Field) []codec.Field {
	return codec.CloneFields(fields)
}

// preimage returns the encoded fields that precede field typ.
func preimage(kind codec.Kind, fields []codec.Field, typ uint8) ([]byte, error) {
	return codec.EncodeFields(kind, codec.Preceding(fields, typ))
}

package codec

import (
	"github.com/lavabit/magma-sub003/internal/coreerrors"
	"github.com/lavabit/magma-sub003/internal/crypto"
)

// Format selects the serialized representation of an object.
type Format int

const (
	// Binary is the raw header and field stream.
	Binary Format = iota
	// Armored is the binary form inside a PEM block.
	Armored
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case Binary:
		return "binary"
	case Armored:
		return "armored"
	default:
		return "unknown"
	}
}

// Encode validates fields against kind's schema and writes a binary object.
func Encode(kind Kind, fields []Field) ([]byte, error) {
	s, err := Lookup(kind)
	if err != nil {
		return nil, err
	}
	if err := checkFields(s, fields); err != nil {
		return nil, coreerrors.Invalid("%v", err)
	}

	n := payloadLen(s, fields)
	out, err := appendHeader(make([]byte, 0, s.HeaderLen()+n), s, n)
	if err != nil {
		return nil, err
	}
	return appendFields(out, s, fields)
}

// Decode parses a binary object. The input must hold exactly one object.
// The returned fields alias data.
func Decode(data []byte) (Kind, []Field, error) {
	h, err := HeaderRead(data)
	if err != nil {
		return KindUnknown, nil, err
	}
	if len(data) != h.Len()+h.PayloadLen {
		return KindUnknown, nil, coreerrors.Malformed("%d trailing bytes after %s", len(data)-h.Len()-h.PayloadLen, h.Schema.Name)
	}

	fields, err := splitFields(h.Schema, data[h.Len():])
	if err != nil {
		return KindUnknown, nil, err
	}
	if err := checkFields(h.Schema, fields); err != nil {
		return KindUnknown, nil, err
	}
	return h.Kind(), fields, nil
}

// Marshal encodes an object in the requested format. For secret kinds the
// intermediate binary form is wiped once armored.
func Marshal(kind Kind, fields []Field, format Format) ([]byte, error) {
	data, err := Encode(kind, fields)
	if err != nil {
		return nil, err
	}
	switch format {
	case Binary:
		return data, nil
	case Armored:
		return armorOwned(data)
	default:
		return nil, coreerrors.Invalid("unknown format %d", format)
	}
}

// Unmarshal decodes an object in the given format. Binary input is aliased
// by the returned fields. Armored secret kinds come back as private copies
// and the decoded buffer is wiped.
func Unmarshal(data []byte, format Format) (Kind, []Field, error) {
	switch format {
	case Binary:
		return Decode(data)
	case Armored:
		bin, err := Unarmor(data)
		if err != nil {
			return KindUnknown, nil, err
		}
		return decodeOwned(bin)
	default:
		return KindUnknown, nil, coreerrors.Invalid("unknown format %d", format)
	}
}

// armorOwned armors a buffer the caller is done with, wiping it afterwards
// when it holds a secret kind.
func armorOwned(data []byte) ([]byte, error) {
	if h, err := HeaderRead(data); err == nil && h.Schema.Secret {
		defer crypto.Wipe(data)
	}
	return Armor(data)
}

// decodeOwned decodes a buffer the caller is done with. Secret kinds are
// returned as private copies and the buffer is wiped.
func decodeOwned(bin []byte) (Kind, []Field, error) {
	kind, fields, err := Decode(bin)
	if h, herr := HeaderRead(bin); herr == nil && h.Schema.Secret {
		if err == nil {
			fields = CloneFields(fields)
		}
		crypto.Wipe(bin)
	}
	return kind, fields, err
}

// CloneFields deep-copies fields so they no longer alias a decode buffer.
func CloneFields(fields []Field) []Field {
	out := make([]Field, len(fields))
	for i, f := range fields {
		out[i] = Field{Type: f.Type, Data: append([]byte(nil), f.Data...)}
	}
	return out
}

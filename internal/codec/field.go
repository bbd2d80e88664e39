package codec

import (
	"github.com/lavabit/magma-sub003/internal/coreerrors"
)

// Field is one typed entry of an object payload. Unknown types are kept as
// opaque data so they survive a decode/encode round trip.
type Field struct {
	Type uint8
	Data []byte
}

// Find returns the first field of type typ.
func Find(fields []Field, typ uint8) ([]byte, bool) {
	for _, f := range fields {
		if f.Type == typ {
			return f.Data, true
		}
	}
	return nil, false
}

// Preceding returns the fields that come before the first field of type typ.
// It returns every field when typ is absent.
func Preceding(fields []Field, typ uint8) []Field {
	for i, f := range fields {
		if f.Type == typ {
			return fields[:i]
		}
	}
	return fields
}

// EncodeFields serializes fields as a bare field stream for kind, without a
// header. Signatures are computed over this form.
func EncodeFields(kind Kind, fields []Field) ([]byte, error) {
	s, err := Lookup(kind)
	if err != nil {
		return nil, err
	}
	return appendFields(make([]byte, 0, payloadLen(s, fields)), s, fields)
}

func payloadLen(s *Schema, fields []Field) int {
	n := 0
	for _, f := range fields {
		n += 1 + s.FieldLenWidth + len(f.Data)
	}
	return n
}

func appendFields(dst []byte, s *Schema, fields []Field) ([]byte, error) {
	for _, f := range fields {
		if len(f.Data) > s.MaxFieldLen() {
			return nil, coreerrors.Invalid("%s field %d is %d bytes, maximum %d", s.Name, f.Type, len(f.Data), s.MaxFieldLen())
		}
		dst = append(dst, f.Type)
		dst = appendUint(dst, uint64(len(f.Data)), s.FieldLenWidth)
		dst = append(dst, f.Data...)
	}
	return dst, nil
}

// splitFields breaks a payload into fields without checking them against the
// schema's field rules.
func splitFields(s *Schema, payload []byte) ([]Field, error) {
	var fields []Field
	for off := 0; off < len(payload); {
		if len(payload)-off < 1+s.FieldLenWidth {
			return nil, coreerrors.Malformed("%s field header truncated at offset %d", s.Name, off)
		}
		typ := payload[off]
		n := int(readUint(payload[off+1:], s.FieldLenWidth))
		off += 1 + s.FieldLenWidth
		if n > len(payload)-off {
			return nil, coreerrors.Malformed("%s field %d declares %d bytes, %d remain", s.Name, typ, n, len(payload)-off)
		}
		fields = append(fields, Field{Type: typ, Data: payload[off : off+n : off+n]})
		off += n
	}
	return fields, nil
}

// checkFields applies the schema's field rules: known fields ascend, appear
// once, have a legal size, and required fields are present. Unknown field
// types are skipped.
func checkFields(s *Schema, fields []Field) error {
	seen := make(map[uint8]bool, len(s.Fields))
	last := -1
	for _, f := range fields {
		spec, known := s.Field(f.Type)
		if !known {
			continue
		}
		if int(f.Type) <= last {
			return coreerrors.Malformed("%s field %s out of order", s.Name, spec.Name)
		}
		if !spec.Accepts(len(f.Data)) {
			return coreerrors.Malformed("%s field %s has illegal size %d", s.Name, spec.Name, len(f.Data))
		}
		last = int(f.Type)
		seen[f.Type] = true
	}
	for _, spec := range s.Fields {
		if spec.Required && !seen[spec.Type] {
			return coreerrors.Malformed("%s missing required field %s", s.Name, spec.Name)
		}
	}
	return nil
}

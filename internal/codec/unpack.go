package codec

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// UnpackedField is one field reported by Unpack.
type UnpackedField struct {
	Type uint8
	Name string
	Data []byte
}

// Unpacked is a kind-agnostic view of an object.
type Unpacked struct {
	Kind       Kind
	Format     Format
	PayloadLen int
	Fields     []UnpackedField
}

// Unpack identifies the kind of a binary or armored object and lists its
// fields by name. Field rules are not enforced, so objects a strict Decode
// rejects can still be inspected.
func Unpack(data []byte) (*Unpacked, error) {
	format := Detect(data)
	if format == Armored {
		bin, err := Unarmor(data)
		if err != nil {
			return nil, err
		}
		data = bin
	}

	h, err := HeaderRead(data)
	if err != nil {
		return nil, err
	}
	fields, err := splitFields(h.Schema, data[h.Len():h.Len()+h.PayloadLen])
	if err != nil {
		return nil, err
	}

	out := &Unpacked{Kind: h.Kind(), Format: format, PayloadLen: h.PayloadLen}
	for _, f := range fields {
		name := "unknown"
		if spec, ok := h.Schema.Field(f.Type); ok {
			name = spec.Name
		}
		out.Fields = append(out.Fields, UnpackedField{Type: f.Type, Name: name, Data: f.Data})
	}
	return out, nil
}

// String renders a diagnostic dump, one line per field.
func (u *Unpacked) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s, %d payload bytes)\n", u.Kind, u.Format, u.PayloadLen)
	for _, f := range u.Fields {
		fmt.Fprintf(&b, "  %3d %-18s %4d  %s\n", f.Type, f.Name, len(f.Data), preview(f.Data))
	}
	return b.String()
}

func preview(data []byte) string {
	const limit = 16
	if len(data) <= limit {
		return hex.EncodeToString(data)
	}
	return hex.EncodeToString(data[:limit]) + "..."
}

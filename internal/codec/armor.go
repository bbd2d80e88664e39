package codec

import (
	"bytes"
	"encoding/pem"

	"github.com/lavabit/magma-sub003/internal/coreerrors"
)

var armorBegin = []byte("-----BEGIN ")

// Armor wraps a binary object in a PEM block labelled with its kind.
func Armor(data []byte) ([]byte, error) {
	h, err := HeaderRead(data)
	if err != nil {
		return nil, err
	}
	if len(data) != h.Len()+h.PayloadLen {
		return nil, coreerrors.Malformed("%d trailing bytes after %s", len(data)-h.Len()-h.PayloadLen, h.Schema.Name)
	}
	return pem.EncodeToMemory(&pem.Block{Type: h.Schema.Label, Bytes: data}), nil
}

// Unarmor returns the binary object inside a PEM block. The block label must
// name the embedded object kind, and nothing but whitespace may surround it.
func Unarmor(text []byte) ([]byte, error) {
	text = bytes.TrimLeft(text, " \t\r\n")
	if !bytes.HasPrefix(text, armorBegin) {
		return nil, coreerrors.Malformed("no armored object found")
	}
	block, rest := pem.Decode(text)
	if block == nil {
		return nil, coreerrors.Malformed("no armored object found")
	}
	if len(bytes.TrimSpace(rest)) != 0 {
		return nil, coreerrors.Malformed("trailing data after armored object")
	}
	if len(block.Headers) != 0 {
		return nil, coreerrors.Malformed("armored object carries headers")
	}

	s, err := LookupLabel(block.Type)
	if err != nil {
		return nil, err
	}
	h, err := HeaderRead(block.Bytes)
	if err != nil {
		return nil, err
	}
	if h.Schema != s {
		return nil, coreerrors.Malformed("armor label %q wraps a %s", block.Type, h.Schema.Name)
	}
	return block.Bytes, nil
}

// IsArmored reports whether data looks like an armored object.
func IsArmored(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), armorBegin)
}

// Detect returns the format data appears to be in.
func Detect(data []byte) Format {
	if IsArmored(data) {
		return Armored
	}
	return Binary
}

package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/lavabit/magma-sub003/internal/coreerrors"
)

// Header is a parsed object header.
type Header struct {
	Schema     *Schema
	PayloadLen int
}

// Kind returns the object kind named by the header.
func (h Header) Kind() Kind {
	return h.Schema.Kind
}

// Len returns the encoded header size.
func (h Header) Len() int {
	return h.Schema.HeaderLen()
}

// HeaderWrite encodes the header for a payload of payloadLen bytes. Payloads
// below the kind's minimum fail with ErrPayloadTooSmall.
func HeaderWrite(kind Kind, payloadLen int) ([]byte, error) {
	s, err := Lookup(kind)
	if err != nil {
		return nil, err
	}
	return appendHeader(make([]byte, 0, s.HeaderLen()), s, payloadLen)
}

func appendHeader(dst []byte, s *Schema, payloadLen int) ([]byte, error) {
	if payloadLen < s.MinPayload {
		return nil, fmt.Errorf("%w: %s payload is %d bytes, minimum %d",
			coreerrors.ErrPayloadTooSmall, s.Name, payloadLen, s.MinPayload)
	}
	if payloadLen > s.MaxPayload {
		return nil, coreerrors.Invalid("%s payload is %d bytes, maximum %d", s.Name, payloadLen, s.MaxPayload)
	}

	dst = binary.BigEndian.AppendUint16(dst, s.Tag)
	return appendUint(dst, uint64(payloadLen), s.SizeWidth), nil
}

// HeaderRead parses the header at the start of data and checks the declared
// payload size against the kind's bounds and the bytes available.
func HeaderRead(data []byte) (Header, error) {
	if len(data) < 2 {
		return Header{}, coreerrors.Malformed("object is %d bytes, too short for a header", len(data))
	}

	s, err := LookupTag(binary.BigEndian.Uint16(data))
	if err != nil {
		return Header{}, err
	}
	if len(data) < s.HeaderLen() {
		return Header{}, coreerrors.Malformed("%s header truncated", s.Name)
	}

	size := int(readUint(data[2:], s.SizeWidth))
	if size < s.MinPayload {
		return Header{}, coreerrors.Malformed("%s declares %d payload bytes, minimum %d", s.Name, size, s.MinPayload)
	}
	if available := len(data) - s.HeaderLen(); size > available {
		return Header{}, coreerrors.Malformed("%s declares %d payload bytes, %d present", s.Name, size, available)
	}
	return Header{Schema: s, PayloadLen: size}, nil
}

func appendUint(dst []byte, v uint64, width int) []byte {
	for i := width - 1; i >= 0; i-- {
		dst = append(dst, byte(v>>(8*i)))
	}
	return dst
}

func readUint(b []byte, width int) uint64 {
	var v uint64
	for i := 0; i < width; i++ {
		v = v<<8 | uint64(b[i])
	}
	return v
}

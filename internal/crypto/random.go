package crypto

import (
	"crypto/rand"
	"fmt"
	"io"
)

// randReader is the random source used for key generation and nonces.
// It defaults to nil (which uses crypto/rand) but can be overridden for testing.
var randReader io.Reader

// Reader returns the configured random source.
func Reader() io.Reader {
	if randReader != nil {
		return randReader
	}
	return rand.Reader
}

// RandomBytes returns n bytes read from r, or from [Reader] when r is nil.
func RandomBytes(r io.Reader, n int) ([]byte, error) {
	if r == nil {
		r = Reader()
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("read random bytes: %w", err)
	}
	return b, nil
}

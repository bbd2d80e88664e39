package crypto

import (
	"crypto/subtle"

	"github.com/awnumar/memguard"
)

// Wipe overwrites each buffer with zeros.
func Wipe(bufs ...[]byte) {
	for _, b := range bufs {
		if len(b) > 0 {
			memguard.WipeBytes(b)
		}
	}
}

// Equal reports whether a and b are equal in constant time.
func Equal(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

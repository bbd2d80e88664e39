package crypto

import "io"

// SetRandReaderForTesting replaces the process reader returned by Reader,
// making key generation and nonces reproducible. It returns a function that
// restores the previous reader.
func SetRandReaderForTesting(r io.Reader) func() {
	original := randReader
	randReader = r
	return func() { randReader = original }
}

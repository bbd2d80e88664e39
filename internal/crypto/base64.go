package crypto

import (
	"encoding/base64"
)

// ToBase64URL encodes bytes to URL-safe base64 without padding, the form
// signet fingerprints are printed in.
func ToBase64URL(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

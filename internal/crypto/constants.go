package crypto

const (
	// KEKContext is the HKDF info string used when deriving key-encryption
	// keys from ECDH shared secrets.
	KEKContext = "magma:prime:kek:v1"

	// DigestSize is the size of a SHA-512 digest in bytes.
	DigestSize = 64

	// AESKeySize is the size of an AES-256 key in bytes.
	AESKeySize = 32
	// AESNonceSize is the size of an AES-GCM nonce in bytes.
	AESNonceSize = 12
	// AESTagSize is the size of an AES-GCM authentication tag in bytes.
	AESTagSize = 16

	// KEKSize is the size of a derived key-encryption key in bytes.
	KEKSize = AESKeySize
)

// AlgsCiphersuite is the canonical string representation of the algorithm suite.
var AlgsCiphersuite = "ED25519:SECP256K1:AES-256-GCM:HKDF-SHA-512:STACIE-SHA-512"

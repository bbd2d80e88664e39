package stacie

const (
	// MinRounds is the floor for every round count.
	MinRounds = 8
	// MaxRounds is the base round count for a one-character password.
	MaxRounds = 0x00800000
	// RoundsCeiling is the largest round count; the round counter is 24 bits.
	RoundsCeiling = 0x00FFFFFF

	// KeyLength is the size of seeds, master keys, password keys and realm keys.
	KeyLength = 64
	// SaltLength is the required size of an account salt.
	SaltLength = 64
	// NonceLength is the required size of a login nonce.
	NonceLength = 64
	// ShardLength is the required size of a server-held realm shard.
	ShardLength = 64
	// TokenLength is the size of verification and login tokens.
	TokenLength = 64

	// RealmInitVectorLength is the size of the realm initialization vector.
	RealmInitVectorLength = 16
	// RealmTagKeyLength is the size of the realm tag key.
	RealmTagKeyLength = 16
	// RealmCipherKeyLength is the size of the realm cipher key.
	RealmCipherKeyLength = 32
)

const (
	verificationLabel = "verification"
	ephemeralLabel    = "ephemeral"
)

package stacie

import (
	"github.com/lavabit/magma-sub003/internal/coreerrors"
	"github.com/lavabit/magma-sub003/internal/crypto"
)

// RealmKeyDerive scopes masterKey to realm:
//
//	realm key = HMAC-SHA-512(masterKey, frame(realm)) XOR shard
func RealmKeyDerive(masterKey []byte, realm string, shard []byte) ([]byte, error) {
	if len(masterKey) != KeyLength {
		return nil, coreerrors.Invalid("master key is %d bytes, want %d", len(masterKey), KeyLength)
	}
	if realm == "" {
		return nil, coreerrors.Invalid("realm label is empty")
	}
	if len(shard) != ShardLength {
		return nil, coreerrors.Invalid("shard is %d bytes, want %d", len(shard), ShardLength)
	}

	key := crypto.HMAC(masterKey, frame([]byte(realm)))
	for i := range key {
		key[i] ^= shard[i]
	}
	return key, nil
}

// RealmInitVectorDerive returns the first 16 bytes of a realm key.
func RealmInitVectorDerive(realmKey []byte) ([]byte, error) {
	return realmSlice(realmKey, 0, RealmInitVectorLength)
}

// RealmTagKeyDerive returns bytes 16 to 32 of a realm key.
func RealmTagKeyDerive(realmKey []byte) ([]byte, error) {
	return realmSlice(realmKey, RealmInitVectorLength, RealmInitVectorLength+RealmTagKeyLength)
}

// RealmCipherKeyDerive returns the last 32 bytes of a realm key.
func RealmCipherKeyDerive(realmKey []byte) ([]byte, error) {
	return realmSlice(realmKey, KeyLength-RealmCipherKeyLength, KeyLength)
}

func realmSlice(realmKey []byte, from, to int) ([]byte, error) {
	if len(realmKey) != KeyLength {
		return nil, coreerrors.Invalid("realm key is %d bytes, want %d", len(realmKey), KeyLength)
	}
	out := make([]byte, to-from)
	copy(out, realmKey[from:to])
	return out, nil
}

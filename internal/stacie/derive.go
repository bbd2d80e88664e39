package stacie

import (
	"encoding/binary"

	"github.com/lavabit/magma-sub003/internal/coreerrors"
	"github.com/lavabit/magma-sub003/internal/crypto"
)

// SeedExtract stretches the credentials into the 64-byte seed.
func SeedExtract(rounds uint32, username, password, salt []byte) ([]byte, error) {
	if err := checkCredentials(rounds, username, password, salt); err != nil {
		return nil, err
	}

	tail := credentialTail(username, password, salt)
	defer crypto.Wipe(tail)

	h := crypto.NewHasher()
	state := h.Sum(make([]byte, 0, KeyLength), tail)
	return iterate(h, state, rounds, nil, tail), nil
}

// HashedKeyDerive applies the round function seeded from base instead of from
// the credentials alone. Chaining it (seed to master key, master key to
// password key) yields a hierarchy where a lower key does not expose the one
// above it.
func HashedKeyDerive(base []byte, rounds uint32, username, password, salt []byte) ([]byte, error) {
	if len(base) != KeyLength {
		return nil, coreerrors.Invalid("base key is %d bytes, want %d", len(base), KeyLength)
	}
	if err := checkCredentials(rounds, username, password, salt); err != nil {
		return nil, err
	}

	tail := credentialTail(username, password, salt)
	defer crypto.Wipe(tail)

	state := make([]byte, KeyLength)
	copy(state, base)
	return iterate(crypto.NewHasher(), state, rounds, base, tail), nil
}

// HashedTokenDerive derives a token from base. A nil nonce yields the
// long-lived verification token; a 64-byte nonce yields a one-time login
// token.
func HashedTokenDerive(base, username, salt, nonce []byte) ([]byte, error) {
	if len(base) != KeyLength {
		return nil, coreerrors.Invalid("base key is %d bytes, want %d", len(base), KeyLength)
	}
	if len(username) == 0 {
		return nil, coreerrors.Invalid("username is empty")
	}
	if len(salt) != SaltLength {
		return nil, coreerrors.Invalid("salt is %d bytes, want %d", len(salt), SaltLength)
	}

	label := verificationLabel
	if nonce != nil {
		if len(nonce) != NonceLength {
			return nil, coreerrors.Invalid("nonce is %d bytes, want %d", len(nonce), NonceLength)
		}
		label = ephemeralLabel
	}

	user := frame(username)
	defer crypto.Wipe(user)

	return crypto.Digest(frame([]byte(label)), base, user, salt, nonce), nil
}

// iterate runs the round function in place over state:
//
//	state = SHA-512(state || base || tail || counter)
//
// with a 24-bit big-endian counter running from 0 to rounds-1.
func iterate(h *crypto.Hasher, state []byte, rounds uint32, base, tail []byte) []byte {
	var counter [3]byte
	for i := uint32(0); i < rounds; i++ {
		counter[0] = byte(i >> 16)
		counter[1] = byte(i >> 8)
		counter[2] = byte(i)
		state = h.Sum(state, state, base, tail, counter[:])
	}
	return state
}

func checkCredentials(rounds uint32, username, password, salt []byte) error {
	if rounds < MinRounds || rounds > RoundsCeiling {
		return coreerrors.Invalid("rounds %d outside [%d, %d]", rounds, MinRounds, RoundsCeiling)
	}
	if len(username) == 0 {
		return coreerrors.Invalid("username is empty")
	}
	if len(password) == 0 {
		return coreerrors.Invalid("password is empty")
	}
	if len(salt) != SaltLength {
		return coreerrors.Invalid("salt is %d bytes, want %d", len(salt), SaltLength)
	}
	return nil
}

// credentialTail returns frame(username) || frame(password) || salt.
func credentialTail(username, password, salt []byte) []byte {
	out := make([]byte, 0, 8+len(username)+len(password)+len(salt))
	out = appendFrame(out, username)
	out = appendFrame(out, password)
	return append(out, salt...)
}

func frame(b []byte) []byte {
	return appendFrame(make([]byte, 0, 4+len(b)), b)
}

func appendFrame(dst, b []byte) []byte {
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(b)))
	return append(dst, b...)
}

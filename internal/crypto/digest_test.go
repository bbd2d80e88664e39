package crypto

import (
	"bytes"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"testing"
)

func TestDigest_MatchesSHA512(t *testing.T) {
	// SHA-512("abc"), FIPS 180-2 appendix C.
	want, _ := hex.DecodeString("ddaf35a193617abacc417349ae20413112e6fa4e89a97ea20a9eeee64b55d39a" +
		"2192992a274fc1a836ba3c23a3feebbd454d4423643ce80e2a9ac94fa54ca49f")

	if got := Digest([]byte("abc")); !bytes.Equal(got, want) {
		t.Errorf("Digest(abc) = %x, want %x", got, want)
	}

	// Parts are concatenated.
	if got := Digest([]byte("a"), []byte("bc")); !bytes.Equal(got, want) {
		t.Errorf("Digest(a, bc) = %x, want %x", got, want)
	}

	if len(Digest()) != sha512.Size {
		t.Errorf("Digest() length = %d, want %d", len(Digest()), sha512.Size)
	}
}

func TestHMAC_KeySensitivity(t *testing.T) {
	a := HMAC([]byte("key-a"), []byte("realm"))
	b := HMAC([]byte("key-b"), []byte("realm"))

	if len(a) != DigestSize {
		t.Fatalf("HMAC() length = %d, want %d", len(a), DigestSize)
	}
	if bytes.Equal(a, b) {
		t.Error("HMAC() output does not depend on the key")
	}
	if !bytes.Equal(a, HMAC([]byte("key-a"), []byte("re"), []byte("alm"))) {
		t.Error("HMAC() parts are not concatenated")
	}
}

func TestDeriveKey(t *testing.T) {
	secret := bytes.Repeat([]byte{0x42}, 32)

	k1, err := DeriveKey(secret, nil, []byte(KEKContext), KEKSize)
	if err != nil {
		t.Fatalf("DeriveKey() error = %v", err)
	}
	k2, err := DeriveKey(secret, nil, []byte(KEKContext), KEKSize)
	if err != nil {
		t.Fatalf("DeriveKey() error = %v", err)
	}
	if !bytes.Equal(k1, k2) {
		t.Error("DeriveKey() is not deterministic")
	}

	k3, err := DeriveKey(secret, nil, []byte("other-context"), KEKSize)
	if err != nil {
		t.Fatalf("DeriveKey() error = %v", err)
	}
	if bytes.Equal(k1, k3) {
		t.Error("DeriveKey() ignores the info parameter")
	}

	if _, err := DeriveKey(nil, nil, []byte(KEKContext), KEKSize); !errors.Is(err, ErrInvalidKeySize) {
		t.Errorf("DeriveKey(nil) error = %v, want ErrInvalidKeySize", err)
	}
}

func TestWipe(t *testing.T) {
	a := []byte{1, 2, 3}
	b := []byte{4, 5}
	Wipe(a, nil, b)

	if !bytes.Equal(a, []byte{0, 0, 0}) || !bytes.Equal(b, []byte{0, 0}) {
		t.Errorf("Wipe() left data behind: %v %v", a, b)
	}
}

func TestEqual(t *testing.T) {
	if !Equal([]byte("abc"), []byte("abc")) {
		t.Error("Equal() = false for identical input")
	}
	if Equal([]byte("abc"), []byte("abd")) {
		t.Error("Equal() = true for different input")
	}
	if Equal([]byte("abc"), []byte("ab")) {
		t.Error("Equal() = true for different lengths")
	}
}

func TestRandomBytes_UsesTestingReader(t *testing.T) {
	restore := SetRandReaderForTesting(bytes.NewReader(bytes.Repeat([]byte{0xAB}, 8)))
	defer restore()

	got, err := RandomBytes(nil, 8)
	if err != nil {
		t.Fatalf("RandomBytes() error = %v", err)
	}
	if !bytes.Equal(got, bytes.Repeat([]byte{0xAB}, 8)) {
		t.Errorf("RandomBytes() = %x", got)
	}

	if _, err := RandomBytes(nil, 1); err == nil {
		t.Error("RandomBytes() on exhausted reader should fail")
	}
}

func TestHasher_MatchesDigest(t *testing.T) {
	h := NewHasher()
	state := make([]byte, DigestSize)
	copy(state, Digest([]byte("seed")))

	want := Digest(state, []byte("tail"))
	got := h.Sum(state, state, []byte("tail"))
	if !bytes.Equal(got, want) {
		t.Errorf("Hasher.Sum() = %x, want %x", got, want)
	}
	if &got[0] != &state[0] {
		t.Error("Hasher.Sum() did not reuse dst")
	}
}

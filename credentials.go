package magma

import (
	"context"

	"go.uber.org/zap"

	"github.com/lavabit/magma-sub003/internal/coreerrors"
	"github.com/lavabit/magma-sub003/internal/crypto"
	"github.com/lavabit/magma-sub003/internal/stacie"
)

// Credentials are the STACIE values derived from a username and password.
// The server stores only the salt and VerificationToken; the client keeps
// MasterKey for realm derivation and discards the rest.
type Credentials struct {
	Rounds            uint32
	MasterKey         []byte
	PasswordKey       []byte
	VerificationToken []byte
}

// Destroy zeroes the derived key material.
func (c *Credentials) Destroy() {
	if c == nil {
		return
	}
	crypto.Wipe(c.MasterKey, c.PasswordKey, c.VerificationToken)
}

// Register derives the account credentials for username and password. salt
// must be SaltLength bytes; see NewSalt.
func (e *Engine) Register(ctx context.Context, username, password string, salt []byte) (*Credentials, error) {
	creds, err := derive(ctx, e, "register", func() (*Credentials, error) {
		return e.credentials(username, password, salt)
	}, (*Credentials).Destroy)
	if err != nil {
		return nil, e.finish("register", err, zap.String("username", username))
	}
	return creds, e.finish("register", nil, zap.String("username", username), zap.Uint32("rounds", creds.Rounds))
}

func (e *Engine) credentials(username, password string, salt []byte) (*Credentials, error) {
	u, p := []byte(username), []byte(password)
	defer crypto.Wipe(p)

	rounds, err := stacie.RoundsCalculate(p, e.bonus)
	if err != nil {
		return nil, err
	}

	seed, err := stacie.SeedExtract(rounds, u, p, salt)
	if err != nil {
		return nil, err
	}
	defer crypto.Wipe(seed)

	master, err := stacie.HashedKeyDerive(seed, rounds, u, p, salt)
	if err != nil {
		return nil, err
	}
	passwordKey, err := stacie.HashedKeyDerive(master, rounds, u, p, salt)
	if err != nil {
		crypto.Wipe(master)
		return nil, err
	}
	token, err := stacie.HashedTokenDerive(passwordKey, u, salt, nil)
	if err != nil {
		crypto.Wipe(master, passwordKey)
		return nil, err
	}

	return &Credentials{
		Rounds:            rounds,
		MasterKey:         master,
		PasswordKey:       passwordKey,
		VerificationToken: token,
	}, nil
}

// LoginToken repeats the client side of a login: it derives the verification
// token again and binds it to the server's nonce.
func (e *Engine) LoginToken(ctx context.Context, username, password string, salt, nonce []byte) ([]byte, error) {
	if len(nonce) != stacie.NonceLength {
		return nil, e.finish("login-token", coreerrors.Invalid("nonce must be %d bytes, got %d", stacie.NonceLength, len(nonce)))
	}

	token, err := derive(ctx, e, "login-token", func() ([]byte, error) {
		creds, err := e.credentials(username, password, salt)
		if err != nil {
			return nil, err
		}
		defer creds.Destroy()
		return stacie.HashedTokenDerive(creds.VerificationToken, []byte(username), salt, nonce)
	}, func(b []byte) { crypto.Wipe(b) })
	if err != nil {
		return nil, e.finish("login-token", err, zap.String("username", username))
	}
	return token, e.finish("login-token", nil, zap.String("username", username))
}

// VerifyLogin checks a login token on the server against the stored
// verification token. The comparison is constant time.
func (e *Engine) VerifyLogin(verificationToken []byte, username string, salt, nonce, token []byte) (bool, error) {
	if err := e.checkOpen(); err != nil {
		return false, err
	}
	if len(token) != stacie.TokenLength {
		return false, e.finish("verify-login", coreerrors.Invalid("token must be %d bytes, got %d", stacie.TokenLength, len(token)))
	}
	if len(nonce) != stacie.NonceLength {
		return false, e.finish("verify-login", coreerrors.Invalid("nonce must be %d bytes, got %d", stacie.NonceLength, len(nonce)))
	}

	want, err := stacie.HashedTokenDerive(verificationToken, []byte(username), salt, nonce)
	if err != nil {
		return false, e.finish("verify-login", err)
	}
	defer crypto.Wipe(want)

	ok := crypto.Equal(want, token)
	_ = e.finish("verify-login", nil, zap.String("username", username), zap.Bool("match", ok))
	return ok, nil
}

// RealmKey is a realm key and its sub-keys.
type RealmKey struct {
	Key        []byte
	CipherKey  []byte
	InitVector []byte
	TagKey     []byte
}

// Destroy zeroes the realm key and its sub-keys.
func (r *RealmKey) Destroy() {
	if r == nil {
		return
	}
	crypto.Wipe(r.Key, r.CipherKey, r.InitVector, r.TagKey)
}

// RealmKey derives the key for realm from the master key and the
// server-held shard. Key protects encrypted keys; see EncryptKey.
func (e *Engine) RealmKey(masterKey []byte, realm string, shard []byte) (*RealmKey, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}

	key, err := stacie.RealmKeyDerive(masterKey, realm, shard)
	if err != nil {
		return nil, e.finish("realm-key", err, zap.String("realm", realm))
	}
	rk := &RealmKey{Key: key}
	// Sub-key derivation cannot fail on a key RealmKeyDerive produced.
	rk.CipherKey, _ = stacie.RealmCipherKeyDerive(key)
	rk.InitVector, _ = stacie.RealmInitVectorDerive(key)
	rk.TagKey, _ = stacie.RealmTagKeyDerive(key)
	return rk, e.finish("realm-key", nil, zap.String("realm", realm))
}

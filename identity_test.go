package magma

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

type identity struct {
	org       *Key
	orgSignet *Signet
	user      *Key
	signet    *Signet
}

func issue(t *testing.T, e *Engine) identity {
	t.Helper()

	org, err := e.GenerateKey(KindOrgKey)
	if err != nil {
		t.Fatalf("GenerateKey(org) error = %v", err)
	}
	orgSignet, err := e.Signet(org)
	if err != nil {
		t.Fatalf("Signet(org) error = %v", err)
	}
	user, err := e.GenerateKey(KindUserKey)
	if err != nil {
		t.Fatalf("GenerateKey(user) error = %v", err)
	}
	request, err := e.Request(user, nil)
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	signet, err := e.SignRequest(request, org)
	if err != nil {
		t.Fatalf("SignRequest() error = %v", err)
	}
	return identity{org: org, orgSignet: orgSignet, user: user, signet: signet}
}

func TestEngine_Issuance(t *testing.T) {
	e := newTestEngine(t)
	id := issue(t, e)

	if id.orgSignet.Kind() != KindOrgSignet {
		t.Errorf("Signet(org).Kind() = %v", id.orgSignet.Kind())
	}
	if id.signet.Kind() != KindUserSignet {
		t.Errorf("SignRequest().Kind() = %v", id.signet.Kind())
	}

	if err := e.VerifySignet(id.orgSignet, nil, nil); err != nil {
		t.Errorf("VerifySignet(org signet) error = %v", err)
	}
	// The org key and its signet are interchangeable as issuers.
	for name, issuer := range map[string]Object{"org key": id.org, "org signet": id.orgSignet} {
		if err := e.VerifySignet(id.signet, issuer, nil); err != nil {
			t.Errorf("VerifySignet(issuer %s) error = %v", name, err)
		}
	}

	other, err := e.GenerateKey(KindOrgKey)
	if err != nil {
		t.Fatal(err)
	}
	err = e.VerifySignet(id.signet, other, nil)
	if !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("VerifySignet(wrong issuer) error = %v, want ErrSignatureInvalid", err)
	}
	var sve *SignatureVerificationError
	if !errors.As(err, &sve) || sve.Op != "verify-signet" {
		t.Errorf("error = %#v, want *SignatureVerificationError for verify-signet", err)
	}
}

func TestEngine_SignRequestNeedsOrgKey(t *testing.T) {
	e := newTestEngine(t)
	id := issue(t, e)

	request, err := e.Request(id.user, nil)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := e.SignRequest(request, id.user); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("SignRequest(user key) error = %v, want ErrUnauthorized", err)
	}
	var none *Key
	if _, err := e.SignRequest(request, none); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("SignRequest(nil) error = %v, want ErrUnauthorized", err)
	}
}

func TestEngine_Rotation(t *testing.T) {
	e := newTestEngine(t)
	id := issue(t, e)

	next, err := e.GenerateKey(KindUserKey)
	if err != nil {
		t.Fatal(err)
	}
	request, err := e.Request(next, id.user)
	if err != nil {
		t.Fatalf("Request(predecessor) error = %v", err)
	}
	signet, err := e.SignRequest(request, id.org)
	if err != nil {
		t.Fatal(err)
	}
	if !signet.HasCustody() {
		t.Fatal("rotated signet carries no custody signature")
	}

	if err := e.VerifySignet(signet, id.orgSignet, id.signet); err != nil {
		t.Errorf("VerifySignet(predecessor signet) error = %v", err)
	}
	var none *Signet
	if err := e.VerifySignet(signet, id.orgSignet, none); err != nil {
		t.Errorf("VerifySignet(typed nil predecessor) error = %v", err)
	}
	if err := e.VerifySignet(signet, id.orgSignet, next); !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("VerifySignet(wrong predecessor) error = %v, want ErrSignatureInvalid", err)
	}
}

func TestEngine_EncryptedKeyStorage(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	salt, err := e.NewSalt()
	if err != nil {
		t.Fatal(err)
	}
	shard, err := e.NewShard()
	if err != nil {
		t.Fatal(err)
	}
	creds, err := e.Register(ctx, testUsername, testPassword, salt)
	if err != nil {
		t.Fatal(err)
	}
	defer creds.Destroy()

	realm, err := e.RealmKey(creds.MasterKey, "mail", shard)
	if err != nil {
		t.Fatal(err)
	}
	defer realm.Destroy()

	user, err := e.GenerateKey(KindUserKey)
	if err != nil {
		t.Fatal(err)
	}
	enc, err := e.EncryptKey(realm.Key, user)
	if err != nil {
		t.Fatalf("EncryptKey() error = %v", err)
	}
	if enc.Kind() != KindUserKeyEncrypted {
		t.Errorf("EncryptKey().Kind() = %v", enc.Kind())
	}

	stored, err := e.Encode(enc, Armored)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(stored), "BEGIN ENCRYPTED USER KEY") {
		t.Errorf("armored key = %q", stored)
	}

	obj, err := e.Parse(stored, Armored)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	loaded, ok := obj.(*EncryptedKey)
	if !ok {
		t.Fatalf("Parse() = %T, want *EncryptedKey", obj)
	}

	key, err := e.DecryptKey(realm.Key, loaded)
	if err != nil {
		t.Fatalf("DecryptKey() error = %v", err)
	}
	if !key.Signing().Equal(user.Signing()) || !key.Encryption().Equal(user.Encryption()) {
		t.Error("DecryptKey() returned a different key")
	}

	other, err := e.RealmKey(creds.MasterKey, "other", shard)
	if err != nil {
		t.Fatal(err)
	}
	_, err = e.DecryptKey(other.Key, loaded)
	var de *DecryptionError
	if !errors.As(err, &de) || !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("DecryptKey(other realm) error = %v, want *DecryptionError", err)
	}
}

func TestEngine_Mail(t *testing.T) {
	e := newTestEngine(t)
	id := issue(t, e)

	author, err := e.GenerateKey(KindUserKey)
	if err != nil {
		t.Fatal(err)
	}
	authorRequest, err := e.Request(author, nil)
	if err != nil {
		t.Fatal(err)
	}
	authorSignet, err := e.SignRequest(authorRequest, id.org)
	if err != nil {
		t.Fatal(err)
	}

	body := []byte("Subject: hello\r\n\r\nsealed body")

	tests := []struct {
		name         string
		author       *Key
		authorSignet *Signet
		wantSigned   bool
		wantVerified bool
	}{
		{"anonymous", nil, nil, false, false},
		{"signed unverified", author, nil, true, false},
		{"signed verified", author, authorSignet, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := e.EncryptMessage(tt.author, id.signet, body)
			if err != nil {
				t.Fatalf("EncryptMessage() error = %v", err)
			}
			data, err := e.Encode(msg, Binary)
			if err != nil {
				t.Fatal(err)
			}
			obj, err := e.Parse(data, Binary)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}

			opened, err := e.DecryptMessage(obj.(*Message), id.user, tt.authorSignet)
			if err != nil {
				t.Fatalf("DecryptMessage() error = %v", err)
			}
			if !bytes.Equal(opened.Body, body) {
				t.Errorf("Body = %q", opened.Body)
			}
			if opened.Signed != tt.wantSigned || opened.Verified != tt.wantVerified {
				t.Errorf("Signed, Verified = %v, %v; want %v, %v", opened.Signed, opened.Verified, tt.wantSigned, tt.wantVerified)
			}
		})
	}
}

func TestEngine_MailWrongKey(t *testing.T) {
	e := newTestEngine(t)
	id := issue(t, e)

	msg, err := e.EncryptMessage(nil, id.signet, []byte("body"))
	if err != nil {
		t.Fatal(err)
	}
	stranger, err := e.GenerateKey(KindUserKey)
	if err != nil {
		t.Fatal(err)
	}

	_, err = e.DecryptMessage(msg, stranger, nil)
	var de *DecryptionError
	if !errors.As(err, &de) || de.Op != "decrypt-message" {
		t.Errorf("DecryptMessage(stranger) error = %v, want *DecryptionError", err)
	}
}

func TestEngine_ArmorAndUnpack(t *testing.T) {
	e := newTestEngine(t)
	id := issue(t, e)

	bin, err := e.Encode(id.signet, Binary)
	if err != nil {
		t.Fatal(err)
	}
	armored, err := e.Armor(bin)
	if err != nil {
		t.Fatalf("Armor() error = %v", err)
	}
	if !strings.HasPrefix(string(armored), "-----BEGIN USER SIGNET-----") {
		t.Errorf("Armor() = %q", armored)
	}
	back, err := e.Unarmor(armored)
	if err != nil {
		t.Fatalf("Unarmor() error = %v", err)
	}
	if !bytes.Equal(back, bin) {
		t.Error("Unarmor(Armor(x)) != x")
	}

	u, err := e.Unpack(armored)
	if err != nil {
		t.Fatalf("Unpack() error = %v", err)
	}
	if u.Kind != KindUserSignet || u.Format != Armored || len(u.Fields) != 4 {
		t.Errorf("Unpack() = %v %v with %d fields", u.Kind, u.Format, len(u.Fields))
	}

	_, err = e.Parse(bin[:len(bin)-1], Binary)
	var fe *FormatError
	if !errors.As(err, &fe) || !errors.Is(err, ErrFormat) {
		t.Errorf("Parse(truncated) error = %v, want *FormatError", err)
	}
	if _, err := e.Unarmor([]byte("not armor")); !errors.Is(err, ErrFormat) {
		t.Errorf("Unarmor(garbage) error = %v, want ErrFormat", err)
	}
	if _, err := e.Encode(nil, Binary); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Encode(nil) error = %v, want ErrInvalidArgument", err)
	}
}

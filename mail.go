package magma

import (
	"go.uber.org/zap"

	"github.com/lavabit/magma-sub003/internal/ec"
	"github.com/lavabit/magma-sub003/internal/prime"
)

// EncryptMessage seals body for recipient, a user signet or signing request.
// author may be nil for an anonymous message. When given, the author's key
// signs the message and a second chunk lets the author read it back.
func (e *Engine) EncryptMessage(author *Key, recipient *Signet, body []byte) (*Message, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}

	var signing *ec.SigningKey
	var encryption *ec.EncryptionKey
	if author != nil {
		signing, encryption = author.Signing(), author.Encryption()
	}

	msg, err := prime.MessageEncrypt(e.ec, signing, encryption, recipient, body)
	if err != nil {
		return nil, e.finish("encrypt-message", err)
	}
	return msg, e.finish("encrypt-message", nil,
		zap.Int("body_len", len(body)),
		zap.Bool("signed", author != nil),
	)
}

// DecryptMessage opens msg with the recipient's or author's key. When author
// is given, a missing or bad signature fails with ErrSignatureInvalid;
// otherwise the signatures are reported in Opened.Signed and left unchecked.
func (e *Engine) DecryptMessage(msg *Message, key *Key, author *Signet) (*Opened, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}

	opened, err := prime.MessageDecrypt(msg, key, author)
	if err != nil {
		return nil, e.finish("decrypt-message", err)
	}
	return opened, e.finish("decrypt-message", nil,
		zap.Bool("signed", opened.Signed),
		zap.Bool("verified", opened.Verified),
		zap.Bool("author_copy", opened.AuthorCopy),
	)
}

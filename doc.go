// Package magma is the cryptographic core of the magma mail platform: the
// STACIE password-derived key hierarchy and the PRIME object protocol for
// keys, signets and sealed messages.
//
// An [Engine] bundles the randomness source, logger, metrics and derivation
// worker pool that the operations share.
//
// Registration and login:
//
//	engine, err := magma.New(magma.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Close()
//
//	salt, _ := engine.NewSalt()
//	creds, err := engine.Register(ctx, "ladar", password, salt)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer creds.Destroy()
//	// Persist salt and creds.VerificationToken.
//
// Issuing a user signet:
//
//	org, _ := engine.GenerateKey(magma.KindOrgKey)
//	user, _ := engine.GenerateKey(magma.KindUserKey)
//	request, _ := engine.Request(user, nil)
//	signet, err := engine.SignRequest(request, org)
//
// Sending mail:
//
//	msg, err := engine.EncryptMessage(author, signet, body)
//	data, _ := engine.Encode(msg, magma.Armored)
//
// STACIE derivations are deliberately slow. They run on a bounded pool of
// worker goroutines and honor context cancellation; a cancelled caller gets
// ctx.Err() while the abandoned worker wipes its result.
package magma

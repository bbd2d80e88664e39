package prime

import (
	"github.com/lavabit/magma-sub003/internal/codec"
	"github.com/lavabit/magma-sub003/internal/coreerrors"
)

// RequestGenerate builds a signing request for a user key. When predecessor,
// the user key being rotated out, is given, it countersigns the new public
// keys so a verifier can follow the chain of custody.
func RequestGenerate(key *Key, predecessor *Key) (*Signet, error) {
	if key == nil || key.kind != codec.KindUserKey {
		return nil, coreerrors.Invalid("signing requests need a user key")
	}
	if !key.signing.HasPrivate() {
		return nil, coreerrors.Unauthorized("user key holds no private signing key")
	}

	fields := []codec.Field{
		{Type: codec.FieldSigningKey, Data: key.signing.Public()},
		{Type: codec.FieldEncryptionKey, Data: key.encryption.Public()},
	}

	if predecessor != nil {
		if predecessor.kind != codec.KindUserKey {
			return nil, coreerrors.Invalid("predecessor must be a user key, got %v", predecessor.kind)
		}
		custody, err := signFields(predecessor.signing, codec.KindUserSigningRequest, fields)
		if err != nil {
			return nil, err
		}
		fields = append(fields, codec.Field{Type: codec.FieldCustodySignature, Data: custody})
	}

	self, err := signFields(key.signing, codec.KindUserSigningRequest, fields)
	if err != nil {
		return nil, err
	}
	fields = append(fields, codec.Field{Type: codec.FieldUserSignature, Data: self})

	return &Signet{
		kind:       codec.KindUserSigningRequest,
		signing:    key.signing.PublicOnly(),
		encryption: key.encryption.PublicOnly(),
		fields:     fields,
	}, nil
}

// RequestSign issues a user signet from request. issuer must be an org key
// holding its private signing key; anything else fails with ErrUnauthorized.
// The request's self-signature is checked before it is countersigned.
func RequestSign(request *Signet, issuer Object) (*Signet, error) {
	if request == nil || request.kind != codec.KindUserSigningRequest {
		return nil, coreerrors.Invalid("expected a user signing request")
	}
	org, ok := issuer.(*Key)
	if !ok || org == nil || org.kind != codec.KindOrgKey {
		return nil, coreerrors.Unauthorized("requests can only be signed by an org key")
	}
	if !org.signing.HasPrivate() {
		return nil, coreerrors.Unauthorized("org key holds no private signing key")
	}
	if err := SignetVerify(request, nil, nil); err != nil {
		return nil, err
	}

	fields := cloneFields(request.fields)
	sig, err := signFields(org.signing, codec.KindUserSignet, fields)
	if err != nil {
		return nil, err
	}
	fields = append(fields, codec.Field{Type: codec.FieldIssuerSignature, Data: sig})

	return &Signet{
		kind:       codec.KindUserSignet,
		signing:    request.signing,
		encryption: request.encryption,
		fields:     fields,
	}, nil
}

package codec

import (
	"github.com/lavabit/magma-sub003/internal/coreerrors"
)

// Kind identifies a PRIME object type.
type Kind uint8

// Object kinds.
const (
	KindUnknown Kind = iota
	KindOrgSignet
	KindOrgKey
	KindOrgKeyEncrypted
	KindUserSigningRequest
	KindUserSignet
	KindUserKey
	KindUserKeyEncrypted
	KindMessage
)

// String returns the kind name.
func (k Kind) String() string {
	if s, ok := schemas[k]; ok {
		return s.Name
	}
	return "unknown"
}

// FieldSpec describes one known field of an object kind.
type FieldSpec struct {
	Type     uint8
	Name     string
	Sizes    []int // allowed exact sizes; empty means any size >= MinSize
	MinSize  int
	Required bool
}

// Accepts reports whether n is a legal data length for the field.
func (f FieldSpec) Accepts(n int) bool {
	if len(f.Sizes) == 0 {
		return n >= f.MinSize
	}
	for _, size := range f.Sizes {
		if n == size {
			return true
		}
	}
	return false
}

// Schema is the wire description of one object kind.
type Schema struct {
	Kind          Kind
	Name          string
	Tag           uint16
	Label         string
	SizeWidth     int
	FieldLenWidth int
	Secret        bool // holds private key material
	MinPayload    int
	MaxPayload    int
	Fields        []FieldSpec
}

// HeaderLen is the encoded header size for the kind.
func (s *Schema) HeaderLen() int {
	return 2 + s.SizeWidth
}

// MaxFieldLen is the largest data length a field length prefix can carry.
func (s *Schema) MaxFieldLen() int {
	return 1<<(8*s.FieldLenWidth) - 1
}

// Field returns the spec for a field type, if it is known.
func (s *Schema) Field(typ uint8) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Type == typ {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Field and chunk type numbers.
const (
	FieldSigningKey    uint8 = 1
	FieldEncryptionKey uint8 = 2 // user objects
	FieldOrgEncryption uint8 = 3 // org objects
	FieldOrgSignature  uint8 = 4 // org signet self-signature

	FieldCustodySignature uint8 = 3 // request/user signet
	FieldUserSignature    uint8 = 4
	FieldIssuerSignature  uint8 = 5

	FieldNonce      uint8 = 1 // encrypted keys
	FieldCiphertext uint8 = 2

	ChunkEphemeral uint8 = 1
	ChunkRecipient uint8 = 35
	ChunkAuthor    uint8 = 36
	ChunkSignature uint8 = 49
)

const (
	smallSizeWidth = 3
	largeSizeWidth = 4
	smallFieldLen  = 1
	largeFieldLen  = 3

	seedSize       = 32
	signingPubSize = 32
	encPubSize     = 33
	signatureSize  = 64
	nonceSize      = 12
	tagSize        = 16

	// A wrapped key holds a binary OrgKey/UserKey (5-byte header + 68) and a tag.
	wrappedKeyMin = 5 + 68 + tagSize
)

var (
	privateKeyFields = func(encType uint8) []FieldSpec {
		return []FieldSpec{
			{Type: FieldSigningKey, Name: "signing-private", Sizes: []int{seedSize}, Required: true},
			{Type: encType, Name: "encryption-private", Sizes: []int{seedSize}, Required: true},
		}
	}

	encryptedKeyFields = []FieldSpec{
		{Type: FieldNonce, Name: "nonce", Sizes: []int{nonceSize}, Required: true},
		{Type: FieldCiphertext, Name: "ciphertext", MinSize: wrappedKeyMin, Required: true},
	}

	requestFields = []FieldSpec{
		{Type: FieldSigningKey, Name: "signing-public", Sizes: []int{signingPubSize}, Required: true},
		{Type: FieldEncryptionKey, Name: "encryption-public", Sizes: []int{encPubSize}, Required: true},
		{Type: FieldCustodySignature, Name: "custody-signature", Sizes: []int{signatureSize}},
		{Type: FieldUserSignature, Name: "user-signature", Sizes: []int{signatureSize}, Required: true},
	}
)

var schemas = map[Kind]*Schema{
	KindOrgSignet: {
		Name: "org-signet", Tag: 1776, Label: "ORGANIZATIONAL SIGNET",
		SizeWidth: smallSizeWidth, FieldLenWidth: smallFieldLen, MinPayload: 135,
		Fields: []FieldSpec{
			{Type: FieldSigningKey, Name: "signing-public", Sizes: []int{signingPubSize}, Required: true},
			{Type: FieldOrgEncryption, Name: "encryption-public", Sizes: []int{encPubSize}, Required: true},
			{Type: FieldOrgSignature, Name: "self-signature", Sizes: []int{signatureSize}, Required: true},
		},
	},
	KindOrgKey: {
		Name: "org-key", Tag: 1952, Label: "ORGANIZATIONAL KEY",
		SizeWidth: smallSizeWidth, FieldLenWidth: smallFieldLen, Secret: true, MinPayload: 68,
		Fields: privateKeyFields(FieldOrgEncryption),
	},
	KindOrgKeyEncrypted: {
		Name: "org-key-encrypted", Tag: 1947, Label: "ENCRYPTED ORGANIZATIONAL KEY",
		SizeWidth: smallSizeWidth, FieldLenWidth: smallFieldLen, MinPayload: 105,
		Fields: encryptedKeyFields,
	},
	KindUserSigningRequest: {
		Name: "user-signing-request", Tag: 1215, Label: "USER SIGNING REQUEST",
		SizeWidth: smallSizeWidth, FieldLenWidth: smallFieldLen, MinPayload: 135,
		Fields: requestFields,
	},
	KindUserSignet: {
		Name: "user-signet", Tag: 1789, Label: "USER SIGNET",
		SizeWidth: smallSizeWidth, FieldLenWidth: smallFieldLen, MinPayload: 201,
		Fields: append(append([]FieldSpec(nil), requestFields...),
			FieldSpec{Type: FieldIssuerSignature, Name: "org-signature", Sizes: []int{signatureSize}, Required: true}),
	},
	KindUserKey: {
		Name: "user-key", Tag: 2013, Label: "USER KEY",
		SizeWidth: smallSizeWidth, FieldLenWidth: smallFieldLen, Secret: true, MinPayload: 68,
		Fields: privateKeyFields(FieldEncryptionKey),
	},
	KindUserKeyEncrypted: {
		Name: "user-key-encrypted", Tag: 1976, Label: "ENCRYPTED USER KEY",
		SizeWidth: smallSizeWidth, FieldLenWidth: smallFieldLen, MinPayload: 105,
		Fields: encryptedKeyFields,
	},
	KindMessage: {
		Name: "message", Tag: 1847, Label: "ENCRYPTED MESSAGE",
		SizeWidth: largeSizeWidth, FieldLenWidth: largeFieldLen, MinPayload: 69,
		Fields: []FieldSpec{
			{Type: ChunkEphemeral, Name: "ephemeral", Sizes: []int{encPubSize, encPubSize + signatureSize}, Required: true},
			{Type: ChunkRecipient, Name: "recipient-body", MinSize: nonceSize + tagSize, Required: true},
			{Type: ChunkAuthor, Name: "author-body", MinSize: nonceSize + tagSize},
			{Type: ChunkSignature, Name: "signature", Sizes: []int{signatureSize}},
		},
	},
}

func init() {
	for kind, s := range schemas {
		s.Kind = kind
		s.MaxPayload = 1<<(8*s.SizeWidth) - 1
	}
}

// Kinds lists every known kind in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindOrgSignet, KindOrgKey, KindOrgKeyEncrypted, KindUserSigningRequest,
		KindUserSignet, KindUserKey, KindUserKeyEncrypted, KindMessage,
	}
}

// Lookup returns the schema for kind.
func Lookup(kind Kind) (*Schema, error) {
	s, ok := schemas[kind]
	if !ok {
		return nil, coreerrors.Invalid("unknown object kind %d", kind)
	}
	return s, nil
}

// LookupTag returns the schema whose tag is tag.
func LookupTag(tag uint16) (*Schema, error) {
	for _, s := range schemas {
		if s.Tag == tag {
			return s, nil
		}
	}
	return nil, coreerrors.Malformed("unknown object tag %d", tag)
}

// LookupLabel returns the schema whose armor label is label.
func LookupLabel(label string) (*Schema, error) {
	for _, s := range schemas {
		if s.Label == label {
			return s, nil
		}
	}
	return nil, coreerrors.Malformed("unknown armor label %q", label)
}

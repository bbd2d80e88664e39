package codec

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/lavabit/magma-sub003/internal/coreerrors"
)

func filled(n int, b byte) []byte {
	return bytes.Repeat([]byte{b}, n)
}

func orgKeyFields() []Field {
	return []Field{
		{Type: FieldSigningKey, Data: filled(32, 0x01)},
		{Type: FieldOrgEncryption, Data: filled(32, 0x02)},
	}
}

func userSignetFields() []Field {
	return []Field{
		{Type: FieldSigningKey, Data: filled(32, 0x01)},
		{Type: FieldEncryptionKey, Data: append([]byte{0x02}, filled(32, 0x03)...)},
		{Type: FieldUserSignature, Data: filled(64, 0x04)},
		{Type: FieldIssuerSignature, Data: filled(64, 0x05)},
	}
}

func TestHeaderWrite_OrgKeyMinimum(t *testing.T) {
	if _, err := HeaderWrite(KindOrgKey, 34); !errors.Is(err, coreerrors.ErrPayloadTooSmall) {
		t.Errorf("HeaderWrite(OrgKey, 34) error = %v, want ErrPayloadTooSmall", err)
	}

	got, err := HeaderWrite(KindOrgKey, 68)
	if err != nil {
		t.Fatalf("HeaderWrite(OrgKey, 68) error = %v", err)
	}
	want := []byte{0x07, 0xA0, 0x00, 0x00, 0x44}
	if !bytes.Equal(got, want) {
		t.Errorf("HeaderWrite(OrgKey, 68) = % x, want % x", got, want)
	}
}

func TestHeaderWrite_Minimums(t *testing.T) {
	for _, kind := range Kinds() {
		t.Run(kind.String(), func(t *testing.T) {
			s, err := Lookup(kind)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := HeaderWrite(kind, s.MinPayload-1); !errors.Is(err, coreerrors.ErrPayloadTooSmall) {
				t.Errorf("below minimum error = %v, want ErrPayloadTooSmall", err)
			}
			header, err := HeaderWrite(kind, s.MinPayload)
			if err != nil {
				t.Fatalf("at minimum error = %v", err)
			}
			if len(header) != 2+s.SizeWidth {
				t.Errorf("header length = %d, want %d", len(header), 2+s.SizeWidth)
			}
		})
	}
}

func TestHeaderWrite_MessageWidth(t *testing.T) {
	got, err := HeaderWrite(KindMessage, 0x01000000)
	if err != nil {
		t.Fatalf("HeaderWrite() error = %v", err)
	}
	want := []byte{0x07, 0x37, 0x01, 0x00, 0x00, 0x00}
	if !bytes.Equal(got, want) {
		t.Errorf("HeaderWrite(Message) = % x, want % x", got, want)
	}

	if _, err := HeaderWrite(KindOrgKey, 0x01000000); !errors.Is(err, coreerrors.ErrInvalidArgument) {
		t.Errorf("oversized OrgKey error = %v, want ErrInvalidArgument", err)
	}
}

func TestHeaderRead_Errors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"one byte", []byte{0x07}},
		{"unknown tag", []byte{0xFF, 0xFF, 0x00, 0x00, 0x44}},
		{"truncated size", []byte{0x07, 0xA0, 0x00}},
		{"below minimum", []byte{0x07, 0xA0, 0x00, 0x00, 0x22}},
		{"payload missing", []byte{0x07, 0xA0, 0x00, 0x00, 0x44, 0x01}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := HeaderRead(tt.data); !errors.Is(err, coreerrors.ErrFormat) {
				t.Errorf("HeaderRead() error = %v, want ErrFormat", err)
			}
		})
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		kind   Kind
		fields []Field
	}{
		{"org key", KindOrgKey, orgKeyFields()},
		{"user signet", KindUserSignet, userSignetFields()},
		{"message", KindMessage, []Field{
			{Type: ChunkEphemeral, Data: append([]byte{0x03}, filled(32, 0x09)...)},
			{Type: ChunkRecipient, Data: filled(300, 0x0A)},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Encode(tt.kind, tt.fields)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			kind, fields, err := Decode(data)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if kind != tt.kind {
				t.Errorf("Decode() kind = %v, want %v", kind, tt.kind)
			}
			again, err := Encode(kind, fields)
			if err != nil {
				t.Fatalf("re-Encode() error = %v", err)
			}
			if !bytes.Equal(data, again) {
				t.Error("binary round trip is not byte-identical")
			}
		})
	}
}

func TestEncode_OrgKeyExactBytes(t *testing.T) {
	data, err := Encode(KindOrgKey, orgKeyFields())
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 5+68 {
		t.Fatalf("length = %d, want 73", len(data))
	}
	if !bytes.Equal(data[:7], []byte{0x07, 0xA0, 0x00, 0x00, 0x44, 0x01, 0x20}) {
		t.Errorf("prefix = % x", data[:7])
	}
	if !bytes.Equal(data[39:41], []byte{0x03, 0x20}) {
		t.Errorf("second field header = % x", data[39:41])
	}
}

func TestDecode_SkipsUnknownFields(t *testing.T) {
	fields := orgKeyFields()
	withUnknown := []Field{fields[0], {Type: 200, Data: []byte("future extension")}, fields[1]}

	data, err := Encode(KindOrgKey, withUnknown)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	_, decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(decoded) != 3 || decoded[1].Type != 200 {
		t.Fatalf("Decode() fields = %+v", decoded)
	}
	if got, _ := Find(decoded, FieldOrgEncryption); !bytes.Equal(got, filled(32, 0x02)) {
		t.Error("known field after unknown field was not parsed")
	}
	again, _ := Encode(KindOrgKey, decoded)
	if !bytes.Equal(again, data) {
		t.Error("unknown field did not survive re-encoding")
	}
}

func TestDecode_FieldRules(t *testing.T) {
	fields := orgKeyFields()
	build := func(fs []Field) []byte {
		s, _ := Lookup(KindOrgKey)
		payload, _ := appendFields(nil, s, fs)
		out, _ := appendHeader(nil, s, len(payload))
		return append(out, payload...)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"out of order", build([]Field{fields[1], fields[0]})},
		{"duplicate", build([]Field{fields[0], fields[0], fields[1]})},
		{"wrong size", build([]Field{fields[0], {Type: FieldOrgEncryption, Data: filled(33, 0x02)}, {Type: 9, Data: filled(1, 0)}})},
		{"missing required", build([]Field{fields[0], {Type: 9, Data: filled(32, 0)}})},
		{"trailing bytes", append(build(fields), 0x00)},
		{"field overruns payload", append([]byte{0x07, 0xA0, 0x00, 0x00, 0x44, 0x01, 0xFF}, filled(66, 0)...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := Decode(tt.data); !errors.Is(err, coreerrors.ErrFormat) {
				t.Errorf("Decode() error = %v, want ErrFormat", err)
			}
		})
	}
}

func TestEncode_RejectsInvalidFields(t *testing.T) {
	_, err := Encode(KindOrgKey, orgKeyFields()[:1])
	if !errors.Is(err, coreerrors.ErrInvalidArgument) {
		t.Errorf("Encode(missing field) error = %v, want ErrInvalidArgument", err)
	}
	if _, err := Encode(KindUnknown, nil); !errors.Is(err, coreerrors.ErrInvalidArgument) {
		t.Errorf("Encode(KindUnknown) error = %v, want ErrInvalidArgument", err)
	}
}

func TestArmor_RoundTrip(t *testing.T) {
	data, err := Encode(KindUserSignet, userSignetFields())
	if err != nil {
		t.Fatal(err)
	}

	armored, err := Armor(data)
	if err != nil {
		t.Fatalf("Armor() error = %v", err)
	}
	if !strings.HasPrefix(string(armored), "-----BEGIN USER SIGNET-----\n") {
		t.Errorf("Armor() = %q", armored)
	}
	for _, line := range strings.Split(strings.TrimSpace(string(armored)), "\n") {
		if len(line) > 64 {
			t.Errorf("armored line is %d columns", len(line))
		}
	}

	bin, err := Unarmor(armored)
	if err != nil {
		t.Fatalf("Unarmor() error = %v", err)
	}
	if !bytes.Equal(bin, data) {
		t.Error("Unarmor(Armor(x)) != x")
	}

	again, _ := Armor(bin)
	if !bytes.Equal(again, armored) {
		t.Error("Armor(Unarmor(x)) != x")
	}

	kind, _, err := Unmarshal(append([]byte("\n  "), armored...), Armored)
	if err != nil || kind != KindUserSignet {
		t.Errorf("Unmarshal(Armored) = %v, %v", kind, err)
	}
}

func TestUnarmor_Errors(t *testing.T) {
	data, _ := Encode(KindOrgKey, orgKeyFields())
	armored, _ := Armor(data)
	relabelled := strings.Replace(string(armored), "ORGANIZATIONAL KEY", "USER KEY", 2)
	unknown := strings.Replace(string(armored), "ORGANIZATIONAL KEY", "SOMETHING ELSE", 2)

	tests := []struct {
		name string
		text string
	}{
		{"no block", "not armored"},
		{"label mismatch", relabelled},
		{"unknown label", unknown},
		{"trailing garbage", string(armored) + "junk"},
		{"leading text", "forwarded by mallory\n" + string(armored)},
		{"leading text after whitespace", "\n  note: " + string(armored)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Unarmor([]byte(tt.text)); !errors.Is(err, coreerrors.ErrFormat) {
				t.Errorf("Unarmor() error = %v, want ErrFormat", err)
			}
		})
	}
}

func TestUnarmor_LeadingWhitespace(t *testing.T) {
	data, _ := Encode(KindUserSignet, userSignetFields())
	armored, _ := Armor(data)

	tests := []struct {
		name   string
		prefix string
	}{
		{"none", ""},
		{"newline and spaces", "\n  "},
		{"tabs and carriage returns", "\t\r\n\t"},
		{"indented", "    "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bin, err := Unarmor(append([]byte(tt.prefix), armored...))
			if err != nil {
				t.Fatalf("Unarmor() error = %v", err)
			}
			if !bytes.Equal(bin, data) {
				t.Error("Unarmor() returned different bytes")
			}
		})
	}
}

func TestOwnedBuffers_SecretKindsWiped(t *testing.T) {
	tests := []struct {
		name      string
		kind      Kind
		fields    []Field
		wantWiped bool
	}{
		{"org key", KindOrgKey, orgKeyFields(), true},
		{"user signet", KindUserSignet, userSignetFields(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name+"/decode", func(t *testing.T) {
			bin, err := Encode(tt.kind, tt.fields)
			if err != nil {
				t.Fatal(err)
			}
			orig := append([]byte(nil), bin...)

			kind, fields, err := decodeOwned(bin)
			if err != nil || kind != tt.kind {
				t.Fatalf("decodeOwned() = %v, %v", kind, err)
			}
			for i, f := range fields {
				if !bytes.Equal(f.Data, tt.fields[i].Data) {
					t.Errorf("field %d data changed", f.Type)
				}
			}
			if wiped := bytes.Equal(bin, make([]byte, len(bin))); wiped != tt.wantWiped {
				t.Errorf("buffer wiped = %v, want %v", wiped, tt.wantWiped)
			}
			if !tt.wantWiped && !bytes.Equal(bin, orig) {
				t.Error("public buffer modified")
			}
		})

		t.Run(tt.name+"/armor", func(t *testing.T) {
			bin, err := Encode(tt.kind, tt.fields)
			if err != nil {
				t.Fatal(err)
			}
			orig := append([]byte(nil), bin...)

			armored, err := armorOwned(bin)
			if err != nil {
				t.Fatalf("armorOwned() error = %v", err)
			}
			back, err := Unarmor(armored)
			if err != nil || !bytes.Equal(back, orig) {
				t.Fatalf("Unarmor(armorOwned(x)) = %v", err)
			}
			if wiped := bytes.Equal(bin, make([]byte, len(bin))); wiped != tt.wantWiped {
				t.Errorf("buffer wiped = %v, want %v", wiped, tt.wantWiped)
			}
		})
	}
}

func TestUnpack(t *testing.T) {
	fields := append(userSignetFields(), Field{Type: 77, Data: []byte{1, 2, 3}})
	data, err := Encode(KindUserSignet, fields)
	if err != nil {
		t.Fatal(err)
	}
	armored, _ := Armor(data)

	for name, input := range map[string][]byte{"binary": data, "armored": armored} {
		t.Run(name, func(t *testing.T) {
			u, err := Unpack(input)
			if err != nil {
				t.Fatalf("Unpack() error = %v", err)
			}
			if u.Kind != KindUserSignet {
				t.Errorf("Kind = %v", u.Kind)
			}
			if len(u.Fields) != 5 {
				t.Fatalf("fields = %d, want 5", len(u.Fields))
			}
			if u.Fields[0].Name != "signing-public" || u.Fields[4].Name != "unknown" {
				t.Errorf("field names = %q, %q", u.Fields[0].Name, u.Fields[4].Name)
			}
			if !strings.Contains(u.String(), "org-signature") {
				t.Errorf("String() = %q", u.String())
			}
		})
	}

	if _, err := Unpack([]byte{0x00, 0x01, 0x00}); !errors.Is(err, coreerrors.ErrFormat) {
		t.Errorf("Unpack(unknown tag) error = %v, want ErrFormat", err)
	}
}

func TestLookup(t *testing.T) {
	for _, kind := range Kinds() {
		s, err := Lookup(kind)
		if err != nil {
			t.Fatalf("Lookup(%v) error = %v", kind, err)
		}
		if byTag, _ := LookupTag(s.Tag); byTag != s {
			t.Errorf("LookupTag(%d) mismatch", s.Tag)
		}
		if byLabel, _ := LookupLabel(s.Label); byLabel != s {
			t.Errorf("LookupLabel(%q) mismatch", s.Label)
		}
	}
}

package strtranscode

import (
	"bytes"
	"testing"

	canonerrors "github.com/wippyai/canon-abi/errors"
)

func TestValidateUTF8_Valid(t *testing.T) {
	cases := []string{"", "hello", "héllo", "日本語", "\U0001F600"}
	for _, s := range cases {
		if err := ValidateUTF8(nil, []byte(s)); err != nil {
			t.Errorf("ValidateUTF8(%q) = %v, want nil", s, err)
		}
	}
}

func TestValidateUTF8_Invalid(t *testing.T) {
	tests := []struct {
		name string
		b    []byte
	}{
		{"truncated 2-byte", []byte{0xC2}},
		{"truncated 3-byte", []byte{0xE0, 0xA0}},
		{"overlong encoding", []byte{0xC0, 0x80}},
		{"encoded surrogate", []byte{0xED, 0xA0, 0x80}},
		{"lone continuation byte", []byte{0x80}},
		{"out of range", []byte{0xF4, 0x90, 0x80, 0x80}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUTF8([]string{"s"}, tt.b)
			if err == nil {
				t.Fatal("expected InvalidUTF8 error, got nil")
			}
			ce, ok := err.(*canonerrors.Error)
			if !ok || ce.Kind != canonerrors.KindInvalidUTF8 {
				t.Errorf("err = %v, want InvalidUTF8", err)
			}
		})
	}
}

func TestToUTF16LE_RoundTripsThroughFromUTF16LE(t *testing.T) {
	cases := []string{"", "hello", "héllo", "日本語", "\U0001F600 surrogate pair"}
	for _, s := range cases {
		data, units, err := ToUTF16LE(nil, s)
		if err != nil {
			t.Fatalf("ToUTF16LE(%q) error: %v", s, err)
		}
		if len(data) != units*2 {
			t.Errorf("len(data) = %d, want %d (units*2)", len(data), units*2)
		}
		got := FromUTF16LE(data)
		if got != s {
			t.Errorf("round trip = %q, want %q", got, s)
		}
	}
}

func TestToUTF16LE_RejectsInvalidUTF8(t *testing.T) {
	_, _, err := ToUTF16LE([]string{"s"}, string([]byte{0xFF, 0xFE}))
	if err == nil {
		t.Fatal("expected error for invalid UTF-8 input")
	}
	ce, ok := err.(*canonerrors.Error)
	if !ok || ce.Kind != canonerrors.KindInvalidUTF8 {
		t.Errorf("err = %v, want InvalidUTF8", err)
	}
}

// Lone surrogate: preserved as U+FFFD on lift; symmetric re-lower to UTF-16
// yields the single code unit FFFD (bytes FD FF).
func TestFromUTF16LE_LoneSurrogateBecomesReplacementChar(t *testing.T) {
	loneHighSurrogate := []byte{0x00, 0xD8} // U+D800, little-endian, unpaired
	got := FromUTF16LE(loneHighSurrogate)
	want := "�"
	if got != want {
		t.Errorf("FromUTF16LE(lone surrogate) = %q, want %q", got, want)
	}

	reencoded, _, err := ToUTF16LE(nil, got)
	if err != nil {
		t.Fatalf("re-lowering replacement char failed: %v", err)
	}
	wantBytes := []byte{0xFD, 0xFF} // U+FFFD little-endian
	if !bytes.Equal(reencoded, wantBytes) {
		t.Errorf("re-lowered bytes = % X, want % X", reencoded, wantBytes)
	}
}

func TestFromUTF16LE_SurrogatePair(t *testing.T) {
	// U+1F600 (grinning face) encodes as the surrogate pair D83D DE00.
	data := []byte{0x3D, 0xD8, 0x00, 0xDE}
	got := FromUTF16LE(data)
	want := "\U0001F600"
	if got != want {
		t.Errorf("FromUTF16LE(surrogate pair) = %q, want %q", got, want)
	}
}

func TestEncoding_String(t *testing.T) {
	tests := []struct {
		e    Encoding
		want string
	}{
		{UTF8, "utf8"},
		{UTF16LE, "utf16le"},
		{Latin1UTF16, "latin1+utf16"},
	}
	for _, tt := range tests {
		if got := tt.e.String(); got != tt.want {
			t.Errorf("%v.String() = %q, want %q", tt.e, got, tt.want)
		}
	}
}

func TestEncoding_Alignment(t *testing.T) {
	if UTF8.Alignment() != 1 {
		t.Errorf("UTF8.Alignment() = %d, want 1", UTF8.Alignment())
	}
	if UTF16LE.Alignment() != 2 {
		t.Errorf("UTF16LE.Alignment() = %d, want 2", UTF16LE.Alignment())
	}
	if Latin1UTF16.Alignment() != 2 {
		t.Errorf("Latin1UTF16.Alignment() = %d, want 2", Latin1UTF16.Alignment())
	}
}

func TestLatin1UTF16Tag_RoundTrips(t *testing.T) {
	tests := []struct {
		length  uint32
		isUTF16 bool
	}{
		{0, false},
		{0, true},
		{12345, false},
		{12345, true},
	}
	for _, tt := range tests {
		tagged := EncodeLatin1UTF16Tag(tt.length, tt.isUTF16)
		gotLen, gotUTF16 := DecodeLatin1UTF16Tag(tagged)
		if gotLen != tt.length || gotUTF16 != tt.isUTF16 {
			t.Errorf("round trip (%d,%v) -> tag %#x -> (%d,%v)", tt.length, tt.isUTF16, tagged, gotLen, gotUTF16)
		}
	}
}

func TestLatin1_ReturnsUnsupported(t *testing.T) {
	if _, err := FromLatin1([]byte{0x41}); err == nil {
		t.Fatal("expected Unsupported error from FromLatin1")
	} else if ce := err.(*canonerrors.Error); ce.Kind != canonerrors.KindUnsupported {
		t.Errorf("Kind = %v, want Unsupported", ce.Kind)
	}

	if _, err := ToLatin1("A"); err == nil {
		t.Fatal("expected Unsupported error from ToLatin1")
	} else if ce := err.(*canonerrors.Error); ce.Kind != canonerrors.KindUnsupported {
		t.Errorf("Kind = %v, want Unsupported", ce.Kind)
	}
}

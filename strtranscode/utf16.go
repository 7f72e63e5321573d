package strtranscode

import (
	"encoding/binary"
	"unicode/utf16"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	canonerrors "github.com/wippyai/canon-abi/errors"
)

// le16 is the shared UTF-16LE encoding used for the encode direction. No BOM
// is written or expected; the canonical ABI's wire format has no BOM.
var le16 = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// ToUTF16LE transcodes a host UTF-8 string into UTF-16LE wire bytes,
// returning the code-unit count alongside the bytes -- the canonical ABI's
// string length operand is in code units, not bytes, for this encoding.
//
// s is validated as strict UTF-8 first: a host string is an ordinary Go
// string, which carries no compile-time guarantee of well-formedness, so
// lower must not assume it. Once validated, golang.org/x/text's UTF-16LE
// encoder performs the transcode; a well-formed Go string can only contain
// Unicode scalar values, so the encoder cannot itself encounter (and
// therefore cannot reject) an unpaired surrogate on this path.
func ToUTF16LE(path []string, s string) ([]byte, int, error) {
	if err := ValidateUTF8(path, []byte(s)); err != nil {
		return nil, 0, err
	}

	out, _, err := transform.String(le16.NewEncoder(), s)
	if err != nil {
		return nil, 0, canonerrors.InvalidUTF8(path, 0)
	}
	return []byte(out), len(out) / 2, nil
}

// FromUTF16LE transcodes UTF-16LE wire bytes into a host UTF-8 string. It
// never fails: an unpaired surrogate is replaced with U+FFFD rather than
// rejected, matching the lift path's lenient string policy. b's length is
// assumed even; the caller computes the byte length from a code-unit count
// it already validated against the guest memory bound.
//
// This direction intentionally does not go through golang.org/x/text: its
// decoder's behavior for an unpaired surrogate is not part of its documented
// contract, whereas unicode/utf16.Decode's replacement-on-unpaired-surrogate
// behavior is a stdlib guarantee this function depends on.
func FromUTF16LE(b []byte) string {
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
	return string(utf16.Decode(units))
}

// FromLatin1 and ToLatin1 are the latin1 half of the latin1+utf16 encoding.
// This engine does not implement Latin-1 transcoding; callers must fail
// closed with Unsupported rather than silently mis-decode.

func FromLatin1(b []byte) (string, error) {
	return "", canonerrors.Unsupported(canonerrors.PhaseTranscode, "latin1 string sub-encoding of latin1+utf16 is not implemented")
}

func ToLatin1(s string) ([]byte, error) {
	return nil, canonerrors.Unsupported(canonerrors.PhaseTranscode, "latin1 string sub-encoding of latin1+utf16 is not implemented")
}

package strtranscode

import (
	"unicode/utf8"

	"github.com/wippyai/canon-abi/errors"
)

// ValidateUTF8 performs strict UTF-8 validation, rejecting any ill-formed
// byte sequence at its byte offset: an overlong encoding, an encoded
// surrogate, a codepoint beyond U+10FFFF, or a truncated trailing sequence.
// Go's unicode/utf8 decoder already rejects exactly these cases by
// construction -- DecodeRune reports RuneError with a 1-byte width for any
// of them -- so this is a validating walk over the stdlib decoder rather
// than a hand-rolled one.
func ValidateUTF8(path []string, b []byte) error {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size == 1 {
			return errors.InvalidUTF8(path, i)
		}
		i += size
	}
	return nil
}

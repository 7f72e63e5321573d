// Package strtranscode converts string payloads between their guest wire
// representation and the host's native UTF-8 Go string.
//
// Three wire encodings are modeled: utf8 (byte-for-byte), utf16le (2-byte
// little-endian code units), and latin1+utf16 (a tagged union of the two,
// selected per string by the high bit of its length operand). UTF-8
// validation on the way in is strict: an overlong encoding, an encoded
// surrogate, a codepoint past U+10FFFF, or a truncated sequence is rejected
// at its byte offset. UTF-16 decoding is lenient: an unpaired surrogate is
// replaced with U+FFFD rather than rejected, so lifting a UTF-16 string never
// fails on malformed code units -- only the subsequent re-lower can
// observably diverge from the original bytes.
package strtranscode

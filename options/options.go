package options

import (
	"fmt"

	"github.com/wippyai/canon-abi/errors"
	"github.com/wippyai/canon-abi/strtranscode"
)

// OptionKind identifies which canonical option a RawOption carries.
type OptionKind uint8

const (
	OptionMemory OptionKind = iota
	OptionRealloc
	OptionPostReturn
	OptionStringEncoding
)

func (k OptionKind) String() string {
	switch k {
	case OptionMemory:
		return "memory"
	case OptionRealloc:
		return "realloc"
	case OptionPostReturn:
		return "post-return"
	case OptionStringEncoding:
		return "string-encoding"
	default:
		return "unknown"
	}
}

// RawOption is one option as declared on a canonical function, before
// resolution. Index is meaningful for Memory/Realloc/PostReturn; Encoding is
// meaningful for StringEncoding.
type RawOption struct {
	Kind     OptionKind
	Index    uint32
	Encoding strtranscode.Encoding
}

// Resolved is the per-call options value threaded through lift/lower. A nil
// index means the corresponding option was not declared.
type Resolved struct {
	MemoryIndex     *uint32
	ReallocIndex    *uint32
	PostReturnIndex *uint32
	StringEncoding  strtranscode.Encoding
}

// Resolve compresses a canonical function's declared options into a
// Resolved value. Declaring the same option kind twice is rejected as
// BadOptions regardless of whether the two declarations agree; the
// canonical ABI has no notion of a redundant-but-consistent duplicate.
// String encoding defaults to UTF-8 if never declared.
func Resolve(raw []RawOption) (Resolved, error) {
	res := Resolved{StringEncoding: strtranscode.UTF8}
	var seen [OptionStringEncoding + 1]bool

	for _, r := range raw {
		if int(r.Kind) >= len(seen) {
			return Resolved{}, errors.BadOptions(fmt.Sprintf("unknown option kind %d", r.Kind))
		}
		if seen[r.Kind] {
			return Resolved{}, errors.BadOptions(fmt.Sprintf("duplicate %s option", r.Kind))
		}
		seen[r.Kind] = true

		switch r.Kind {
		case OptionMemory:
			idx := r.Index
			res.MemoryIndex = &idx
		case OptionRealloc:
			idx := r.Index
			res.ReallocIndex = &idx
		case OptionPostReturn:
			idx := r.Index
			res.PostReturnIndex = &idx
		case OptionStringEncoding:
			res.StringEncoding = r.Encoding
		}
	}

	return res, nil
}

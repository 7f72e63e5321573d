package valtype

import (
	"sync"

	"github.com/wippyai/canon-abi/errors"
)

// ABI is the size/alignment pair the flat-layout table in the spec assigns
// to a ValType.
type ABI struct {
	Size  uint32
	Align uint32
}

// DiscSize is the fixed wire width of a variant/option/result discriminant.
// Unlike a general Component Model implementation (which packs the
// discriminant into 1, 2, or 4 bytes depending on case count), this engine's
// flat-layout table mandates a constant 4-byte i32 discriminant regardless
// of case count.
const DiscSize uint32 = 4

// Calculator computes ABI(t) per the size/alignment rules, caching results
// by the ValType's identity so that repeated calculator calls for a
// composite type used across many calls do not re-walk the type tree.
// Calculator is safe for concurrent use.
type Calculator struct {
	cache sync.Map // ValType -> ABI; only comparable ValTypes are cached
}

// NewCalculator returns a ready-to-use Calculator.
func NewCalculator() *Calculator {
	return &Calculator{}
}

// AlignUp rounds offset up to the next multiple of align. align of 0 is
// treated as 1 so callers that have already validated align != 0 are not
// forced to special-case it twice; BadType is the caller's responsibility
// to raise for a genuinely zero-alignment type.
func AlignUp(offset, align uint32) uint32 {
	if align == 0 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}

// AlignUp64 is AlignUp over 64-bit cursors, used by callers walking a
// multi-field layout whose running offset must be checked for overflow
// before it is ever truncated to a uint32 guest address.
func AlignUp64(offset, align uint64) uint64 {
	if align == 0 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}

// ABI computes (size, alignment) for t. It returns BadType for streams,
// futures, error-context (not part of this closed sum at all, so they
// simply cannot be constructed) and for any composite whose computed
// alignment would be zero, which cannot occur for the shapes implemented
// here but is guarded defensively: alignment 0 is always a bug, never a
// valid input.
func (c *Calculator) ABI(t ValType) (ABI, error) {
	if cached, ok := c.cache.Load(t); ok {
		return cached.(ABI), nil
	}

	a, err := c.compute(t)
	if err != nil {
		return ABI{}, err
	}
	if a.Align == 0 {
		return ABI{}, errors.BadType(errors.PhaseABI, nil, "computed alignment is zero")
	}

	c.cache.Store(t, a)
	return a, nil
}

func (c *Calculator) compute(t ValType) (ABI, error) {
	switch v := t.(type) {
	case Bool, U8, S8:
		return ABI{Size: 1, Align: 1}, nil
	case U16, S16:
		return ABI{Size: 2, Align: 2}, nil
	case U32, S32, F32, Char:
		return ABI{Size: 4, Align: 4}, nil
	case U64, S64, F64:
		return ABI{Size: 8, Align: 8}, nil
	case String:
		return ABI{Size: 8, Align: 4}, nil // (offset: i32, length: i32)
	case List:
		return ABI{Size: 8, Align: 4}, nil // (offset: i32, length: i32)
	case *Record:
		return c.record(v.Fields)
	case *Tuple:
		return c.tuple(v.Elems)
	case *Variant:
		return c.variant(v.Cases)
	case *Enum:
		return c.enum(len(v.Labels))
	case *Flags:
		return c.flags(len(v.Labels))
	case Option:
		return c.option(v.Inner)
	case Result:
		return c.result(v.OK, v.Err)
	case Own, Borrow:
		return ABI{Size: 4, Align: 4}, nil
	default:
		return ABI{}, errors.BadType(errors.PhaseABI, nil, "unimplemented ValType (stream/future/error-context are not part of this engine)")
	}
}

func (c *Calculator) record(fields []Field) (ABI, error) {
	offset := uint32(0)
	maxAlign := uint32(1)

	for _, f := range fields {
		fa, err := c.ABI(f.Type)
		if err != nil {
			return ABI{}, err
		}
		offset = AlignUp(offset, fa.Align)
		offset += fa.Size
		if fa.Align > maxAlign {
			maxAlign = fa.Align
		}
	}

	return ABI{Size: AlignUp(offset, maxAlign), Align: maxAlign}, nil
}

func (c *Calculator) tuple(elems []ValType) (ABI, error) {
	// A tuple's layout is identical to a record's: sequential fields, each
	// aligned to its own alignment, struct size padded to struct alignment.
	fields := make([]Field, len(elems))
	for i, e := range elems {
		fields[i] = Field{Type: e}
	}
	return c.record(fields)
}

func (c *Calculator) variant(cases []Case) (ABI, error) {
	maxAlign := DiscSize
	maxSize := uint32(0)

	for _, cs := range cases {
		if cs.Type == nil {
			continue
		}
		ca, err := c.ABI(cs.Type)
		if err != nil {
			return ABI{}, err
		}
		if ca.Align > maxAlign {
			maxAlign = ca.Align
		}
		if ca.Size > maxSize {
			maxSize = ca.Size
		}
	}

	payloadOffset := AlignUp(DiscSize, maxAlign)
	return ABI{Size: AlignUp(payloadOffset+maxSize, maxAlign), Align: maxAlign}, nil
}

func (c *Calculator) enum(numCases int) (ABI, error) {
	_ = numCases
	return ABI{Size: 4, Align: 4}, nil // discriminant only, i32 per the flat-layout table
}

func (c *Calculator) flags(numLabels int) (ABI, error) {
	words := (numLabels + 31) / 32 // ceil(N/32); 0 labels -> 0 words -> size 0
	return ABI{Size: uint32(words) * 4, Align: 4}, nil
}

func (c *Calculator) option(inner ValType) (ABI, error) {
	return c.variant([]Case{{Label: "none"}, {Label: "some", Type: inner}})
}

func (c *Calculator) result(ok, errType ValType) (ABI, error) {
	return c.variant([]Case{{Label: "ok", Type: ok}, {Label: "err", Type: errType}})
}

// WordCount returns the number of little-endian i32 words a Flags value of
// numLabels labels occupies, i.e. ceil(numLabels / 32).
func WordCount(numLabels int) int {
	return (numLabels + 31) / 32
}

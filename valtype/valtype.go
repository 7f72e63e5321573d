// Package valtype implements the Component Model's value-type system: the
// closed sum over type shapes (ValType) the engine lifts and lowers, plus
// the ABI size/alignment calculator.
//
// ValType is deliberately not bound to any binary or text format parser —
// component binary loading/parsing is an external collaborator (see the
// root package doc). Embedders construct ValType trees directly; this
// package only computes their wire layout.
package valtype

import "fmt"

// ValType is the closed sum over value-type shapes described by the
// Component Model. Every concrete shape below implements it; the sealed
// method prevents external packages from adding new shapes, matching
// "Types are acyclic... recursion over the type tree terminates."
type ValType interface {
	Kind() Kind
	valType()
}

type (
	Bool   struct{}
	U8     struct{}
	S8     struct{}
	U16    struct{}
	S16    struct{}
	U32    struct{}
	S32    struct{}
	U64    struct{}
	S64    struct{}
	F32    struct{}
	F64    struct{}
	Char   struct{}
	String struct{}
)

func (Bool) valType()   {}
func (U8) valType()     {}
func (S8) valType()     {}
func (U16) valType()    {}
func (S16) valType()    {}
func (U32) valType()    {}
func (S32) valType()    {}
func (U64) valType()    {}
func (S64) valType()    {}
func (F32) valType()    {}
func (F64) valType()    {}
func (Char) valType()   {}
func (String) valType() {}

func (Bool) Kind() Kind   { return KindBool }
func (U8) Kind() Kind     { return KindU8 }
func (S8) Kind() Kind     { return KindS8 }
func (U16) Kind() Kind    { return KindU16 }
func (S16) Kind() Kind    { return KindS16 }
func (U32) Kind() Kind    { return KindU32 }
func (S32) Kind() Kind    { return KindS32 }
func (U64) Kind() Kind    { return KindU64 }
func (S64) Kind() Kind    { return KindS64 }
func (F32) Kind() Kind    { return KindF32 }
func (F64) Kind() Kind    { return KindF64 }
func (Char) Kind() Kind   { return KindChar }
func (String) Kind() Kind { return KindString }

// List is a variable-length homogeneous sequence.
type List struct {
	Elem ValType
}

func (List) valType()  {}
func (List) Kind() Kind { return KindList }

// Field is one (label, ValType) pair of a Record, in declaration order.
type Field struct {
	Label string
	Type  ValType
}

// Record is an ordered sequence of uniquely-labeled fields.
//
// Record implements ValType on a pointer receiver, not a value receiver: its
// Fields slice makes the value type uncomparable, and ValType identity is
// used as a cache key (see Calculator), so every Record must be constructed
// as a pointer (&Record{...}).
type Record struct {
	Fields []Field
}

func (*Record) valType()   {}
func (*Record) Kind() Kind { return KindRecord }

// Tuple is an ordered sequence of positional fields. See Record for why this
// is pointer-identified.
type Tuple struct {
	Elems []ValType
}

func (*Tuple) valType()   {}
func (*Tuple) Kind() Kind { return KindTuple }

// Case is one (label, optional ValType) pair of a Variant; its index in
// Variant.Cases is its discriminant.
type Case struct {
	Label string
	Type  ValType // nil if the case carries no payload
}

// Variant is a discriminated union over an ordered sequence of cases. See
// Record for why this is pointer-identified.
type Variant struct {
	Cases []Case
}

func (*Variant) valType()   {}
func (*Variant) Kind() Kind { return KindVariant }

// Enum is a discriminant-only variant: an ordered sequence of unique labels.
// See Record for why this is pointer-identified.
type Enum struct {
	Labels []string
}

func (*Enum) valType()   {}
func (*Enum) Kind() Kind { return KindEnum }

// Flags is a positional bitset over an ordered sequence of unique labels.
// See Record for why this is pointer-identified.
type Flags struct {
	Labels []string
}

func (*Flags) valType()   {}
func (*Flags) Kind() Kind { return KindFlags }

// Option is sugar for a two-case variant {none, some(inner)}.
type Option struct {
	Inner ValType
}

func (Option) valType()  {}
func (Option) Kind() Kind { return KindOption }

// Result is sugar for a two-case variant {ok(ok), err(err)}; either payload
// may be absent (unit).
type Result struct {
	OK  ValType // nil if the ok case carries no payload
	Err ValType // nil if the err case carries no payload
}

func (Result) valType()  {}
func (Result) Kind() Kind { return KindResult }

// Own is a transferable 32-bit handle into the resource table for the
// resource type identified by TypeIdx.
type Own struct {
	TypeIdx uint32
}

func (Own) valType()  {}
func (Own) Kind() Kind { return KindOwn }

// Borrow is a non-transferable 32-bit handle reference, valid only for the
// duration of the call that received it.
type Borrow struct {
	TypeIdx uint32
}

func (Borrow) valType()  {}
func (Borrow) Kind() Kind { return KindBorrow }

// Describe renders a ValType for diagnostics; it is not a parser round-trip
// format.
func Describe(t ValType) string {
	switch v := t.(type) {
	case List:
		return fmt.Sprintf("list<%s>", Describe(v.Elem))
	case Option:
		return fmt.Sprintf("option<%s>", Describe(v.Inner))
	case Own:
		return fmt.Sprintf("own<%d>", v.TypeIdx)
	case Borrow:
		return fmt.Sprintf("borrow<%d>", v.TypeIdx)
	default:
		return t.Kind().String()
	}
}

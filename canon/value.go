package canon

// Value is a host-side value produced by Lift and consumed by Lower: a
// closed sum over every shape a ValType can describe. It is kept as
// concrete tagged structs rather than bound through reflection to an
// arbitrary caller-supplied Go type, so that round-tripped values support
// ordinary structural comparison (reflect.DeepEqual).
type Value interface {
	value()
}

type (
	Bool bool
	U8   uint8
	I8   int8
	U16  uint16
	I16  int16
	U32  uint32
	I32  int32
	U64  uint64
	I64  int64
	F32  float32
	F64  float64
	Char rune
	Str  string
)

func (Bool) value() {}
func (U8) value()   {}
func (I8) value()   {}
func (U16) value()  {}
func (I16) value()  {}
func (U32) value()  {}
func (I32) value()  {}
func (U64) value()  {}
func (I64) value()  {}
func (F32) value()  {}
func (F64) value()  {}
func (Char) value() {}
func (Str) value()  {}

// List is an ordered, homogeneous sequence.
type List struct {
	Elems []Value
}

func (List) value() {}

// Record is an ordered sequence of field values, parallel to its ValType's
// Fields -- labels aren't repeated here since callers always hold the
// ValType alongside the Value.
type Record struct {
	Fields []Value
}

func (Record) value() {}

// Tuple is an ordered sequence of positional element values.
type Tuple struct {
	Elems []Value
}

func (Tuple) value() {}

// Variant is a discriminated union: Discriminant selects the case; Payload
// is nil if that case carries no payload.
type Variant struct {
	Discriminant uint32
	Payload      Value
}

func (Variant) value() {}

// Option is a two-case Variant's sugar: Discriminant 0 is none (Payload
// nil), 1 is some.
type Option struct {
	Discriminant uint32
	Payload      Value
}

func (Option) value() {}

// Result is a two-case Variant's sugar: Discriminant 0 is ok, 1 is err;
// either side's Payload may be nil (a unit case).
type Result struct {
	Discriminant uint32
	Payload      Value
}

func (Result) value() {}

// Enum is a discriminant-only value.
type Enum uint32

func (Enum) value() {}

// Flags is a positional bitset, exactly ⌈N/32⌉ little-endian words.
type Flags []uint32

func (Flags) value() {}

// Own is a transferable resource handle.
type Own uint32

func (Own) value() {}

// Borrow is a non-transferable resource handle reference.
type Borrow uint32

func (Borrow) value() {}

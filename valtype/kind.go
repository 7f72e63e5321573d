package valtype

// Kind identifies the shape of a ValType without requiring a type switch at
// every call site; every ValType implementation reports its own Kind.
type Kind uint8

const (
	KindBool Kind = iota
	KindU8
	KindS8
	KindU16
	KindS16
	KindU32
	KindS32
	KindU64
	KindS64
	KindF32
	KindF64
	KindChar
	KindString
	KindList
	KindRecord
	KindTuple
	KindVariant
	KindEnum
	KindFlags
	KindOption
	KindResult
	KindOwn
	KindBorrow
)

var kindNames = [...]string{
	KindBool:    "bool",
	KindU8:      "u8",
	KindS8:      "s8",
	KindU16:     "u16",
	KindS16:     "s16",
	KindU32:     "u32",
	KindS32:     "s32",
	KindU64:     "u64",
	KindS64:     "s64",
	KindF32:     "f32",
	KindF64:     "f64",
	KindChar:    "char",
	KindString:  "string",
	KindList:    "list",
	KindRecord:  "record",
	KindTuple:   "tuple",
	KindVariant: "variant",
	KindEnum:    "enum",
	KindFlags:   "flags",
	KindOption:  "option",
	KindResult:  "result",
	KindOwn:     "own",
	KindBorrow:  "borrow",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsPrimitive reports whether k is a fixed-width scalar (bool .. char),
// excluding string, which is primitive-ish but variable-width.
func (k Kind) IsPrimitive() bool {
	return k <= KindChar
}

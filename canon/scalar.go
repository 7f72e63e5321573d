package canon

import (
	"math"
	"unicode/utf8"

	"github.com/wippyai/canon-abi/errors"
	"github.com/wippyai/canon-abi/valtype"
)

// appendPath returns a new path slice with label appended, never aliasing
// the caller's backing array.
func appendPath(path []string, label string) []string {
	next := make([]string, len(path), len(path)+1)
	copy(next, path)
	return append(next, label)
}

// scalarFromOperand converts a single core operand into the Value a scalar
// (non-string, non-list, non-composite) ValType expects it to represent.
// For narrow integers the low bits are taken; bool is operand != 0.
func scalarFromOperand(t valtype.ValType, operand uint64, path []string) (Value, error) {
	switch t.(type) {
	case valtype.Bool:
		return Bool(operand != 0), nil
	case valtype.U8:
		return U8(uint8(operand)), nil
	case valtype.S8:
		return I8(int8(uint8(operand))), nil
	case valtype.U16:
		return U16(uint16(operand)), nil
	case valtype.S16:
		return I16(int16(uint16(operand))), nil
	case valtype.U32:
		return U32(uint32(operand)), nil
	case valtype.S32:
		return I32(int32(uint32(operand))), nil
	case valtype.U64:
		return U64(operand), nil
	case valtype.S64:
		return I64(int64(operand)), nil
	case valtype.F32:
		return F32(math.Float32frombits(uint32(operand))), nil
	case valtype.F64:
		return F64(math.Float64frombits(operand)), nil
	case valtype.Char:
		r := rune(uint32(operand))
		if !utf8.ValidRune(r) {
			return nil, errors.New(errors.PhaseLift, errors.KindTypeMismatch).
				Path(path...).GoType("i32").WitType("char").
				Detail("operand %#x is not a valid Unicode scalar value", uint32(operand)).Build()
		}
		return Char(r), nil
	case valtype.Own:
		return Own(uint32(operand)), nil
	case valtype.Borrow:
		return Borrow(uint32(operand)), nil
	default:
		return nil, errors.BadType(errors.PhaseLift, path, "not a scalar ValType: "+valtype.Describe(t))
	}
}

// operandFromScalar is scalarFromOperand's inverse: it packs a Value
// already known to match t's scalar shape into a single core operand.
func operandFromScalar(t valtype.ValType, v Value, path []string) (uint64, error) {
	switch t.(type) {
	case valtype.Bool:
		b, ok := v.(Bool)
		if !ok {
			return 0, typeMismatch(path, v, "bool")
		}
		if b {
			return 1, nil
		}
		return 0, nil
	case valtype.U8:
		n, ok := v.(U8)
		if !ok {
			return 0, typeMismatch(path, v, "u8")
		}
		return uint64(n), nil
	case valtype.S8:
		n, ok := v.(I8)
		if !ok {
			return 0, typeMismatch(path, v, "s8")
		}
		return uint64(uint8(n)), nil
	case valtype.U16:
		n, ok := v.(U16)
		if !ok {
			return 0, typeMismatch(path, v, "u16")
		}
		return uint64(n), nil
	case valtype.S16:
		n, ok := v.(I16)
		if !ok {
			return 0, typeMismatch(path, v, "s16")
		}
		return uint64(uint16(n)), nil
	case valtype.U32:
		n, ok := v.(U32)
		if !ok {
			return 0, typeMismatch(path, v, "u32")
		}
		return uint64(n), nil
	case valtype.S32:
		n, ok := v.(I32)
		if !ok {
			return 0, typeMismatch(path, v, "s32")
		}
		return uint64(uint32(n)), nil
	case valtype.U64:
		n, ok := v.(U64)
		if !ok {
			return 0, typeMismatch(path, v, "u64")
		}
		return uint64(n), nil
	case valtype.S64:
		n, ok := v.(I64)
		if !ok {
			return 0, typeMismatch(path, v, "s64")
		}
		return uint64(n), nil
	case valtype.F32:
		n, ok := v.(F32)
		if !ok {
			return 0, typeMismatch(path, v, "f32")
		}
		return uint64(math.Float32bits(float32(n))), nil
	case valtype.F64:
		n, ok := v.(F64)
		if !ok {
			return 0, typeMismatch(path, v, "f64")
		}
		return math.Float64bits(float64(n)), nil
	case valtype.Char:
		c, ok := v.(Char)
		if !ok {
			return 0, typeMismatch(path, v, "char")
		}
		if !utf8.ValidRune(rune(c)) {
			return 0, errors.New(errors.PhaseLower, errors.KindTypeMismatch).
				Path(path...).WitType("char").
				Detail("value %#x is not a valid Unicode scalar value", uint32(c)).Build()
		}
		return uint64(uint32(c)), nil
	case valtype.Own:
		n, ok := v.(Own)
		if !ok {
			return 0, typeMismatch(path, v, "own")
		}
		return uint64(n), nil
	case valtype.Borrow:
		n, ok := v.(Borrow)
		if !ok {
			return 0, typeMismatch(path, v, "borrow")
		}
		return uint64(n), nil
	default:
		return 0, errors.BadType(errors.PhaseLower, path, "not a scalar ValType: "+valtype.Describe(t))
	}
}

func typeMismatch(path []string, v Value, witType string) error {
	return errors.TypeMismatch(errors.PhaseLower, path, goTypeName(v), witType)
}

func goTypeName(v Value) string {
	if v == nil {
		return "<nil>"
	}
	switch v.(type) {
	case Bool:
		return "canon.Bool"
	case U8:
		return "canon.U8"
	case I8:
		return "canon.I8"
	case U16:
		return "canon.U16"
	case I16:
		return "canon.I16"
	case U32:
		return "canon.U32"
	case I32:
		return "canon.I32"
	case U64:
		return "canon.U64"
	case I64:
		return "canon.I64"
	case F32:
		return "canon.F32"
	case F64:
		return "canon.F64"
	case Char:
		return "canon.Char"
	case Str:
		return "canon.Str"
	case List:
		return "canon.List"
	case Record:
		return "canon.Record"
	case Tuple:
		return "canon.Tuple"
	case Variant:
		return "canon.Variant"
	case Option:
		return "canon.Option"
	case Result:
		return "canon.Result"
	case Enum:
		return "canon.Enum"
	case Flags:
		return "canon.Flags"
	case Own:
		return "canon.Own"
	case Borrow:
		return "canon.Borrow"
	default:
		return "canon.Value"
	}
}

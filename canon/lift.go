package canon

import (
	"strconv"

	"github.com/wippyai/canon-abi/errors"
	"github.com/wippyai/canon-abi/memory"
	"github.com/wippyai/canon-abi/options"
	"github.com/wippyai/canon-abi/strtranscode"
	"github.com/wippyai/canon-abi/valtype"
)

// Lift translates core operands into a host Value. A scalar ValType
// consumes a single operand; string and list consume two (offset, length);
// every other composite consumes a single operand: an offset into guest
// memory where its flat layout begins.
func Lift(operands []uint64, t valtype.ValType, mem *memory.Arbitrator, opts options.Resolved) (Value, error) {
	l := &lifter{mem: mem, opts: opts, abi: valtype.NewCalculator()}
	v, _, err := l.liftTop(t, operands, nil)
	return v, err
}

type lifter struct {
	mem  *memory.Arbitrator
	opts options.Resolved
	abi  *valtype.Calculator
}

func (l *lifter) liftTop(t valtype.ValType, operands []uint64, path []string) (Value, int, error) {
	switch {
	case isScalar(t):
		if len(operands) < 1 {
			return nil, 0, errors.TypeMismatch(errors.PhaseLift, path, "<missing operand>", valtype.Describe(t))
		}
		v, err := scalarFromOperand(t, operands[0], path)
		return v, 1, err

	case t.Kind() == valtype.KindString:
		if len(operands) < 2 {
			return nil, 0, errors.TypeMismatch(errors.PhaseLift, path, "<missing operand>", "string")
		}
		v, err := l.liftString(uint32(operands[0]), uint32(operands[1]), path)
		return v, 2, err

	case t.Kind() == valtype.KindList:
		if len(operands) < 2 {
			return nil, 0, errors.TypeMismatch(errors.PhaseLift, path, "<missing operand>", "list")
		}
		lt := t.(valtype.List)
		v, err := l.liftListAt(uint32(operands[0]), uint32(operands[1]), lt.Elem, path)
		return v, 2, err

	case t.Kind() == valtype.KindEnum:
		// Enum's wire width is a single i32, like a primitive, even though
		// it is not one of valtype's scalar ValType kinds.
		if len(operands) < 1 {
			return nil, 0, errors.TypeMismatch(errors.PhaseLift, path, "<missing operand>", "enum")
		}
		et := t.(*valtype.Enum)
		disc := uint32(operands[0])
		if disc >= uint32(len(et.Labels)) {
			return nil, 0, errors.InvalidDiscriminant(errors.PhaseLift, path, disc, uint32(len(et.Labels))-1)
		}
		return Enum(disc), 1, nil

	default:
		// record, tuple, variant, option, result, flags: single pointer operand.
		if len(operands) < 1 {
			return nil, 0, errors.TypeMismatch(errors.PhaseLift, path, "<missing operand>", valtype.Describe(t))
		}
		v, err := l.liftAt(uint32(operands[0]), t, path)
		return v, 1, err
	}
}

// liftAt recursively decodes t's flat layout starting at offset.
func (l *lifter) liftAt(offset uint32, t valtype.ValType, path []string) (Value, error) {
	switch {
	case isScalar(t):
		return readScalarAt(l.mem, t, offset, path)

	case t.Kind() == valtype.KindString:
		ptr, err := l.mem.ReadU32(errors.PhaseLift, path, offset)
		if err != nil {
			return nil, err
		}
		length, err := l.mem.ReadU32(errors.PhaseLift, path, offset+4)
		if err != nil {
			return nil, err
		}
		return l.liftString(ptr, length, path)

	case t.Kind() == valtype.KindList:
		lt := t.(valtype.List)
		ptr, err := l.mem.ReadU32(errors.PhaseLift, path, offset)
		if err != nil {
			return nil, err
		}
		length, err := l.mem.ReadU32(errors.PhaseLift, path, offset+4)
		if err != nil {
			return nil, err
		}
		return l.liftListAt(ptr, length, lt.Elem, path)
	}

	switch v := t.(type) {
	case *valtype.Record:
		return l.liftFieldsAt(offset, v.Fields, path)
	case *valtype.Tuple:
		return l.liftTupleAt(offset, v.Elems, path)
	case *valtype.Variant:
		disc, payload, err := l.liftVariantAt(offset, v.Cases, path)
		if err != nil {
			return nil, err
		}
		return Variant{Discriminant: disc, Payload: payload}, nil
	case *valtype.Enum:
		disc, err := l.mem.ReadU32(errors.PhaseLift, path, offset)
		if err != nil {
			return nil, err
		}
		if disc >= uint32(len(v.Labels)) {
			return nil, errors.InvalidDiscriminant(errors.PhaseLift, path, disc, uint32(len(v.Labels))-1)
		}
		return Enum(disc), nil
	case *valtype.Flags:
		return l.liftFlagsAt(offset, len(v.Labels), path)
	case valtype.Option:
		disc, payload, err := l.liftVariantAt(offset, []valtype.Case{{Label: "none"}, {Label: "some", Type: v.Inner}}, path)
		if err != nil {
			return nil, err
		}
		return Option{Discriminant: disc, Payload: payload}, nil
	case valtype.Result:
		disc, payload, err := l.liftVariantAt(offset, []valtype.Case{{Label: "ok", Type: v.OK}, {Label: "err", Type: v.Err}}, path)
		if err != nil {
			return nil, err
		}
		return Result{Discriminant: disc, Payload: payload}, nil
	default:
		return nil, errors.BadType(errors.PhaseLift, path, "unimplemented ValType: "+valtype.Describe(t))
	}
}

func (l *lifter) liftFieldsAt(offset uint32, fields []valtype.Field, path []string) (Value, error) {
	vals, err := l.liftSequenceAt(offset, fieldTypes(fields), path, func(i int) string { return fields[i].Label })
	if err != nil {
		return nil, err
	}
	return Record{Fields: vals}, nil
}

func (l *lifter) liftTupleAt(offset uint32, elems []valtype.ValType, path []string) (Value, error) {
	vals, err := l.liftSequenceAt(offset, elems, path, func(i int) string {
		return elemLabel(i)
	})
	if err != nil {
		return nil, err
	}
	return Tuple{Elems: vals}, nil
}

// liftSequenceAt walks types in declaration order, aligning and advancing
// the cursor before each one and recursively lifting it. Shared by record
// and tuple decoding, which have identical layouts.
func (l *lifter) liftSequenceAt(offset uint32, types []valtype.ValType, path []string, label func(i int) string) ([]Value, error) {
	cursor := uint64(offset)
	vals := make([]Value, len(types))
	for i, ft := range types {
		fa, err := l.abi.ABI(ft)
		if err != nil {
			return nil, err
		}
		cursor = valtype.AlignUp64(cursor, uint64(fa.Align))
		fieldPath := appendPath(path, label(i))
		fOff, err := check64(errors.PhaseLift, fieldPath, l.mem, cursor, uint64(fa.Size))
		if err != nil {
			return nil, err
		}
		v, err := l.liftAt(fOff, ft, fieldPath)
		if err != nil {
			return nil, err
		}
		vals[i] = v
		cursor += uint64(fa.Size)
	}
	return vals, nil
}

// liftVariantAt reads the i32 discriminant at offset, then (if the selected
// case carries a payload) recursively lifts it from the aligned payload
// area.
func (l *lifter) liftVariantAt(offset uint32, cases []valtype.Case, path []string) (uint32, Value, error) {
	disc, err := l.mem.ReadU32(errors.PhaseLift, path, offset)
	if err != nil {
		return 0, nil, err
	}
	if disc >= uint32(len(cases)) {
		return 0, nil, errors.InvalidDiscriminant(errors.PhaseLift, path, disc, uint32(len(cases))-1)
	}

	cs := cases[disc]
	if cs.Type == nil {
		return disc, nil, nil
	}

	maxAlign := valtype.DiscSize
	for _, c := range cases {
		if c.Type == nil {
			continue
		}
		ca, err := l.abi.ABI(c.Type)
		if err != nil {
			return 0, nil, err
		}
		if ca.Align > maxAlign {
			maxAlign = ca.Align
		}
	}
	payloadOffset := valtype.AlignUp(valtype.DiscSize, maxAlign)

	casePath := appendPath(path, cs.Label)
	payloadAddr, err := check64(errors.PhaseLift, casePath, l.mem, uint64(offset)+uint64(payloadOffset), 0)
	if err != nil {
		return 0, nil, err
	}
	payload, err := l.liftAt(payloadAddr, cs.Type, casePath)
	if err != nil {
		return 0, nil, err
	}
	return disc, payload, nil
}

func (l *lifter) liftFlagsAt(offset uint32, numLabels int, path []string) (Value, error) {
	words := valtype.WordCount(numLabels)
	out := make(Flags, words)
	for i := 0; i < words; i++ {
		w, err := l.mem.ReadU32(errors.PhaseLift, path, offset+uint32(i*4))
		if err != nil {
			return nil, err
		}
		out[i] = w
	}
	return out, nil
}

// liftString validates/transcodes length bytes (or, for the 16-bit
// encodings, length code units) at ptr into a host string, per the
// resolved string encoding.
func (l *lifter) liftString(ptr, length uint32, path []string) (Value, error) {
	switch l.opts.StringEncoding {
	case strtranscode.UTF8:
		b, err := l.mem.Read(errors.PhaseLift, path, ptr, length)
		if err != nil {
			return nil, err
		}
		if err := strtranscode.ValidateUTF8(path, b); err != nil {
			return nil, err
		}
		return Str(string(b)), nil

	case strtranscode.UTF16LE:
		b, err := l.mem.Read(errors.PhaseLift, path, ptr, length*2)
		if err != nil {
			return nil, err
		}
		return Str(strtranscode.FromUTF16LE(b)), nil

	case strtranscode.Latin1UTF16:
		actualLen, isUTF16 := strtranscode.DecodeLatin1UTF16Tag(length)
		if isUTF16 {
			b, err := l.mem.Read(errors.PhaseLift, path, ptr, actualLen*2)
			if err != nil {
				return nil, err
			}
			return Str(strtranscode.FromUTF16LE(b)), nil
		}
		b, err := l.mem.Read(errors.PhaseLift, path, ptr, actualLen)
		if err != nil {
			return nil, err
		}
		s, err := strtranscode.FromLatin1(b)
		if err != nil {
			return nil, err
		}
		return Str(s), nil

	default:
		return nil, errors.BadOptions("unknown string encoding")
	}
}

// liftListAt lifts length elements of elemType starting at ptr, aligning and
// advancing the cursor before each one. On a partial failure no cleanup is
// required here: lift only reads guest memory, it never allocates, so there
// is nothing in guest state to release; already-lifted Go values are simply
// discarded by the caller along with the error.
func (l *lifter) liftListAt(ptr, length uint32, elemType valtype.ValType, path []string) (Value, error) {
	elemABI, err := l.abi.ABI(elemType)
	if err != nil {
		return nil, err
	}

	cursor := uint64(ptr)
	elems := make([]Value, length)
	for i := uint32(0); i < length; i++ {
		cursor = valtype.AlignUp64(cursor, uint64(elemABI.Align))
		elemPath := appendPath(path, elemLabel(int(i)))
		off, err := check64(errors.PhaseLift, elemPath, l.mem, cursor, uint64(elemABI.Size))
		if err != nil {
			return nil, err
		}
		v, err := l.liftAt(off, elemType, elemPath)
		if err != nil {
			return nil, err
		}
		elems[i] = v
		cursor += uint64(elemABI.Size)
	}
	return List{Elems: elems}, nil
}

func fieldTypes(fields []valtype.Field) []valtype.ValType {
	out := make([]valtype.ValType, len(fields))
	for i, f := range fields {
		out[i] = f.Type
	}
	return out
}

func elemLabel(i int) string {
	return "[" + strconv.Itoa(i) + "]"
}

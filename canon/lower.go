package canon

import (
	"go.uber.org/zap"

	"github.com/wippyai/canon-abi/errors"
	"github.com/wippyai/canon-abi/memory"
	"github.com/wippyai/canon-abi/options"
	"github.com/wippyai/canon-abi/strtranscode"
	"github.com/wippyai/canon-abi/valtype"
)

// Lower translates a host Value into guest memory and core operands,
// mirroring Lift's per-Kind dispatch. On a partial failure the allocations
// already made for this call are released (best-effort); when one of them
// could not be freed, a GuestLeak warning is attached to the returned error
// rather than silently swallowing the leak.
func Lower(v Value, t valtype.ValType, mem *memory.Arbitrator, opts options.Resolved) ([]uint64, Telemetry, error) {
	lw := &lowerer{mem: mem, opts: opts, abi: valtype.NewCalculator(), allocs: newAllocationList()}
	defer lw.allocs.release()

	operands, err := lw.lowerTop(v, t, nil)
	tel := Telemetry{AllocCount: lw.allocs.count(), BytesWritten: lw.bytesWritten, MaxDepth: lw.maxDepth}
	if err != nil {
		if leaked := lw.allocs.freeAll(mem); leaked > 0 {
			Logger().Warn("guest allocation(s) could not be freed after a failed lower",
				zap.Int("leaked", leaked),
				zap.Error(err),
			)
			if ce, ok := err.(*errors.Error); ok {
				err = ce.WithWarning("%d guest allocation(s) could not be freed after a failed lower", leaked)
			}
		}
		return nil, tel, err
	}
	return operands, tel, nil
}

type lowerer struct {
	mem          *memory.Arbitrator
	opts         options.Resolved
	abi          *valtype.Calculator
	allocs       *allocationList
	bytesWritten int
	depth        int
	maxDepth     int
}

func (lw *lowerer) enter() {
	lw.depth++
	if lw.depth > lw.maxDepth {
		lw.maxDepth = lw.depth
	}
}

func (lw *lowerer) leave() {
	lw.depth--
}

func (lw *lowerer) alloc(phase errors.Phase, size, align uint32) (uint32, error) {
	ptr, err := lw.mem.Allocate(phase, 0, 0, align, size)
	if err != nil {
		return 0, err
	}
	lw.allocs.add(ptr, size, align)
	return ptr, nil
}

func (lw *lowerer) lowerTop(v Value, t valtype.ValType, path []string) ([]uint64, error) {
	lw.enter()
	defer lw.leave()

	switch {
	case isScalar(t):
		operand, err := operandFromScalar(t, v, path)
		if err != nil {
			return nil, err
		}
		return []uint64{operand}, nil

	case t.Kind() == valtype.KindEnum:
		et := t.(*valtype.Enum)
		e, ok := v.(Enum)
		if !ok {
			return nil, typeMismatch(path, v, "enum")
		}
		if uint32(e) >= uint32(len(et.Labels)) {
			return nil, errors.InvalidDiscriminant(errors.PhaseLower, path, uint32(e), uint32(len(et.Labels))-1)
		}
		return []uint64{uint64(e)}, nil

	case t.Kind() == valtype.KindString:
		ptr, lengthOperand, err := lw.lowerString(v, path)
		if err != nil {
			return nil, err
		}
		return []uint64{uint64(ptr), uint64(lengthOperand)}, nil

	case t.Kind() == valtype.KindList:
		lt := t.(valtype.List)
		list, ok := v.(List)
		if !ok {
			return nil, typeMismatch(path, v, "list")
		}
		ptr, err := lw.lowerListAt(list.Elems, lt.Elem, path)
		if err != nil {
			return nil, err
		}
		return []uint64{uint64(ptr), uint64(len(list.Elems))}, nil

	default:
		ab, err := lw.abi.ABI(t)
		if err != nil {
			return nil, err
		}
		ptr, err := lw.alloc(errors.PhaseLower, ab.Size, ab.Align)
		if err != nil {
			return nil, err
		}
		if err := lw.lowerAt(ptr, t, v, path); err != nil {
			return nil, err
		}
		return []uint64{uint64(ptr)}, nil
	}
}

// lowerAt recursively writes v's flat layout for t starting at offset.
func (lw *lowerer) lowerAt(offset uint32, t valtype.ValType, v Value, path []string) error {
	lw.enter()
	defer lw.leave()

	switch {
	case isScalar(t):
		if err := writeScalarAt(lw.mem, t, offset, v, path); err != nil {
			return err
		}
		lw.bytesWritten += scalarWidth(t)
		return nil

	case t.Kind() == valtype.KindString:
		ptr, lengthOperand, err := lw.lowerString(v, path)
		if err != nil {
			return err
		}
		if err := lw.mem.WriteU32(errors.PhaseLower, path, offset, ptr); err != nil {
			return err
		}
		if err := lw.mem.WriteU32(errors.PhaseLower, path, offset+4, lengthOperand); err != nil {
			return err
		}
		lw.bytesWritten += 8
		return nil

	case t.Kind() == valtype.KindList:
		lt := t.(valtype.List)
		list, ok := v.(List)
		if !ok {
			return typeMismatch(path, v, "list")
		}
		ptr, err := lw.lowerListAt(list.Elems, lt.Elem, path)
		if err != nil {
			return err
		}
		if err := lw.mem.WriteU32(errors.PhaseLower, path, offset, ptr); err != nil {
			return err
		}
		if err := lw.mem.WriteU32(errors.PhaseLower, path, offset+4, uint32(len(list.Elems))); err != nil {
			return err
		}
		lw.bytesWritten += 8
		return nil

	case t.Kind() == valtype.KindEnum:
		et := t.(*valtype.Enum)
		e, ok := v.(Enum)
		if !ok {
			return typeMismatch(path, v, "enum")
		}
		if uint32(e) >= uint32(len(et.Labels)) {
			return errors.InvalidDiscriminant(errors.PhaseLower, path, uint32(e), uint32(len(et.Labels))-1)
		}
		if err := lw.mem.WriteU32(errors.PhaseLower, path, offset, uint32(e)); err != nil {
			return err
		}
		lw.bytesWritten += 4
		return nil
	}

	switch tv := t.(type) {
	case *valtype.Record:
		rec, ok := v.(Record)
		if !ok {
			return typeMismatch(path, v, "record")
		}
		return lw.lowerSequenceAt(offset, fieldTypes(tv.Fields), rec.Fields, path, func(i int) string { return tv.Fields[i].Label })
	case *valtype.Tuple:
		tup, ok := v.(Tuple)
		if !ok {
			return typeMismatch(path, v, "tuple")
		}
		return lw.lowerSequenceAt(offset, tv.Elems, tup.Elems, path, elemLabel)
	case *valtype.Variant:
		vr, ok := v.(Variant)
		if !ok {
			return typeMismatch(path, v, "variant")
		}
		return lw.lowerVariantAt(offset, tv.Cases, vr.Discriminant, vr.Payload, path)
	case *valtype.Flags:
		fl, ok := v.(Flags)
		if !ok {
			return typeMismatch(path, v, "flags")
		}
		return lw.lowerFlagsAt(offset, tv.Labels, fl, path)
	case valtype.Option:
		opt, ok := v.(Option)
		if !ok {
			return typeMismatch(path, v, "option")
		}
		return lw.lowerVariantAt(offset, []valtype.Case{{Label: "none"}, {Label: "some", Type: tv.Inner}}, opt.Discriminant, opt.Payload, path)
	case valtype.Result:
		res, ok := v.(Result)
		if !ok {
			return typeMismatch(path, v, "result")
		}
		return lw.lowerVariantAt(offset, []valtype.Case{{Label: "ok", Type: tv.OK}, {Label: "err", Type: tv.Err}}, res.Discriminant, res.Payload, path)
	default:
		return errors.BadType(errors.PhaseLower, path, "unimplemented ValType: "+valtype.Describe(t))
	}
}

func (lw *lowerer) lowerSequenceAt(offset uint32, types []valtype.ValType, vals []Value, path []string, label func(i int) string) error {
	if len(vals) != len(types) {
		return errors.New(errors.PhaseLower, errors.KindTypeMismatch).
			Path(path...).Detail("value has %d field(s), type has %d", len(vals), len(types)).Build()
	}

	cursor := uint64(offset)
	for i, ft := range types {
		fa, err := lw.abi.ABI(ft)
		if err != nil {
			return err
		}
		cursor = valtype.AlignUp64(cursor, uint64(fa.Align))
		fieldPath := appendPath(path, label(i))
		fOff, err := check64(errors.PhaseLower, fieldPath, lw.mem, cursor, uint64(fa.Size))
		if err != nil {
			return err
		}
		if err := lw.lowerAt(fOff, ft, vals[i], fieldPath); err != nil {
			return err
		}
		cursor += uint64(fa.Size)
	}
	return nil
}

func (lw *lowerer) lowerVariantAt(offset uint32, cases []valtype.Case, disc uint32, payload Value, path []string) error {
	if disc >= uint32(len(cases)) {
		return errors.InvalidDiscriminant(errors.PhaseLower, path, disc, uint32(len(cases))-1)
	}
	if err := lw.mem.WriteU32(errors.PhaseLower, path, offset, disc); err != nil {
		return err
	}
	lw.bytesWritten += 4

	cs := cases[disc]
	if cs.Type == nil {
		return nil
	}

	maxAlign := valtype.DiscSize
	for _, c := range cases {
		if c.Type == nil {
			continue
		}
		ca, err := lw.abi.ABI(c.Type)
		if err != nil {
			return err
		}
		if ca.Align > maxAlign {
			maxAlign = ca.Align
		}
	}
	payloadOffset := valtype.AlignUp(valtype.DiscSize, maxAlign)

	casePath := appendPath(path, cs.Label)
	payloadAddr, err := check64(errors.PhaseLower, casePath, lw.mem, uint64(offset)+uint64(payloadOffset), 0)
	if err != nil {
		return err
	}
	return lw.lowerAt(payloadAddr, cs.Type, payload, casePath)
}

func (lw *lowerer) lowerFlagsAt(offset uint32, labels []string, fl Flags, path []string) error {
	want := valtype.WordCount(len(labels))
	if len(fl) != want {
		return errors.New(errors.PhaseLower, errors.KindTypeMismatch).
			Path(path...).Detail("flags value has %d word(s), want %d", len(fl), want).Build()
	}
	for i, w := range fl {
		if err := lw.mem.WriteU32(errors.PhaseLower, path, offset+uint32(i*4), w); err != nil {
			return err
		}
		lw.bytesWritten += 4
	}
	return nil
}

// lowerString computes the wire size for v's encoding, allocates it, copies
// the transcoded bytes, and returns (ptr, length-in-units).
func (lw *lowerer) lowerString(v Value, path []string) (uint32, uint32, error) {
	s, ok := v.(Str)
	if !ok {
		return 0, 0, typeMismatch(path, v, "string")
	}

	switch lw.opts.StringEncoding {
	case strtranscode.UTF8:
		b := []byte(s)
		if err := strtranscode.ValidateUTF8(path, b); err != nil {
			return 0, 0, err
		}
		ptr, err := lw.alloc(errors.PhaseLower, uint32(len(b)), 1)
		if err != nil {
			return 0, 0, err
		}
		if len(b) > 0 {
			if err := lw.mem.Write(errors.PhaseLower, path, ptr, b); err != nil {
				return 0, 0, err
			}
		}
		lw.bytesWritten += len(b)
		return ptr, uint32(len(b)), nil

	case strtranscode.UTF16LE:
		b, units, err := strtranscode.ToUTF16LE(path, string(s))
		if err != nil {
			return 0, 0, err
		}
		ptr, err := lw.alloc(errors.PhaseLower, uint32(len(b)), 2)
		if err != nil {
			return 0, 0, err
		}
		if len(b) > 0 {
			if err := lw.mem.Write(errors.PhaseLower, path, ptr, b); err != nil {
				return 0, 0, err
			}
		}
		lw.bytesWritten += len(b)
		return ptr, uint32(units), nil

	case strtranscode.Latin1UTF16:
		// This engine never produces the latin1 sub-encoding on lower (see
		// strtranscode.ToLatin1 / the open-question log); always emit the
		// UTF-16 sub-mode, tagged accordingly.
		b, units, err := strtranscode.ToUTF16LE(path, string(s))
		if err != nil {
			return 0, 0, err
		}
		ptr, err := lw.alloc(errors.PhaseLower, uint32(len(b)), 2)
		if err != nil {
			return 0, 0, err
		}
		if len(b) > 0 {
			if err := lw.mem.Write(errors.PhaseLower, path, ptr, b); err != nil {
				return 0, 0, err
			}
		}
		lw.bytesWritten += len(b)
		return ptr, strtranscode.EncodeLatin1UTF16Tag(uint32(units), true), nil

	default:
		return 0, 0, errors.BadOptions("unknown string encoding")
	}
}

// lowerListAt computes the list's total size by simulating the same
// align_up/cursor walk used to read one back, allocates once, then lowers
// each element into its slot in ascending index order.
func (lw *lowerer) lowerListAt(elems []Value, elemType valtype.ValType, path []string) (uint32, error) {
	elemABI, err := lw.abi.ABI(elemType)
	if err != nil {
		return 0, err
	}

	cursor := uint64(0)
	offsets := make([]uint64, len(elems))
	for i := range elems {
		cursor = valtype.AlignUp64(cursor, uint64(elemABI.Align))
		offsets[i] = cursor
		cursor += uint64(elemABI.Size)
	}
	totalSize := cursor

	if totalSize > uint64(^uint32(0)) {
		return 0, errors.OutOfBounds(errors.PhaseLower, path, totalSize, 0, uint64(lw.mem.MemSize()))
	}

	align := elemABI.Align
	if align == 0 {
		align = 1
	}
	base, err := lw.alloc(errors.PhaseLower, uint32(totalSize), align)
	if err != nil {
		return 0, err
	}

	for i, elemVal := range elems {
		elemPath := appendPath(path, elemLabel(i))
		off, err := check64(errors.PhaseLower, elemPath, lw.mem, uint64(base)+offsets[i], uint64(elemABI.Size))
		if err != nil {
			return 0, err
		}
		if err := lw.lowerAt(off, elemType, elemVal, elemPath); err != nil {
			return 0, err
		}
	}
	return base, nil
}

func scalarWidth(t valtype.ValType) int {
	switch t.(type) {
	case valtype.Bool, valtype.U8, valtype.S8:
		return 1
	case valtype.U16, valtype.S16:
		return 2
	case valtype.U64, valtype.S64, valtype.F64:
		return 8
	default:
		return 4
	}
}

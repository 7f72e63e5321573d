package canon

import (
	"github.com/wippyai/canon-abi/errors"
	"github.com/wippyai/canon-abi/memory"
	"github.com/wippyai/canon-abi/valtype"
)

// readScalarAt reads a scalar ValType's wire representation from guest
// memory at offset and converts it into a Value, at the width its ABI
// assigns it (1/2/4/8 bytes).
func readScalarAt(mem *memory.Arbitrator, t valtype.ValType, offset uint32, path []string) (Value, error) {
	switch t.(type) {
	case valtype.Bool, valtype.U8, valtype.S8:
		b, err := mem.ReadU8(errors.PhaseLift, path, offset)
		if err != nil {
			return nil, err
		}
		return scalarFromOperand(t, uint64(b), path)
	case valtype.U16, valtype.S16:
		u, err := mem.ReadU16(errors.PhaseLift, path, offset)
		if err != nil {
			return nil, err
		}
		return scalarFromOperand(t, uint64(u), path)
	case valtype.U32, valtype.S32, valtype.F32, valtype.Char, valtype.Own, valtype.Borrow:
		u, err := mem.ReadU32(errors.PhaseLift, path, offset)
		if err != nil {
			return nil, err
		}
		return scalarFromOperand(t, uint64(u), path)
	case valtype.U64, valtype.S64, valtype.F64:
		u, err := mem.ReadU64(errors.PhaseLift, path, offset)
		if err != nil {
			return nil, err
		}
		return scalarFromOperand(t, u, path)
	default:
		return nil, errors.BadType(errors.PhaseLift, path, "not a scalar ValType: "+valtype.Describe(t))
	}
}

// writeScalarAt is readScalarAt's inverse: it writes v's wire
// representation into guest memory at offset per t's width.
func writeScalarAt(mem *memory.Arbitrator, t valtype.ValType, offset uint32, v Value, path []string) error {
	operand, err := operandFromScalar(t, v, path)
	if err != nil {
		return err
	}
	switch t.(type) {
	case valtype.Bool, valtype.U8, valtype.S8:
		return mem.WriteU8(errors.PhaseLower, path, offset, uint8(operand))
	case valtype.U16, valtype.S16:
		return mem.WriteU16(errors.PhaseLower, path, offset, uint16(operand))
	case valtype.U32, valtype.S32, valtype.F32, valtype.Char, valtype.Own, valtype.Borrow:
		return mem.WriteU32(errors.PhaseLower, path, offset, uint32(operand))
	case valtype.U64, valtype.S64, valtype.F64:
		return mem.WriteU64(errors.PhaseLower, path, offset, operand)
	default:
		return errors.BadType(errors.PhaseLower, path, "not a scalar ValType: "+valtype.Describe(t))
	}
}

// isScalar reports whether t consumes a single core operand / in-place
// memory slot rather than a (offset, length) pair or a pointer indirection.
func isScalar(t valtype.ValType) bool {
	switch t.(type) {
	case valtype.Bool, valtype.U8, valtype.S8, valtype.U16, valtype.S16,
		valtype.U32, valtype.S32, valtype.U64, valtype.S64,
		valtype.F32, valtype.F64, valtype.Char, valtype.Own, valtype.Borrow:
		return true
	default:
		return false
	}
}

// check64 validates a 64-bit cursor/length pair against the guest's actual
// memory size before any byte is touched. Cursor arithmetic is done in 64
// bits so a cursor that has walked past the uint32 range is caught here
// rather than silently truncated into an in-bounds-looking offset.
func check64(phase errors.Phase, path []string, mem *memory.Arbitrator, cursor, length uint64) (uint32, error) {
	memSize := uint64(mem.MemSize())
	if cursor > memSize || cursor+length > memSize {
		return 0, errors.OutOfBounds(phase, path, cursor, length, memSize)
	}
	return uint32(cursor), nil
}

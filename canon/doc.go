// Package canon implements the canonical ABI's core translation: Lift reads
// core operands and guest memory into a host Value tree; Lower writes a
// host Value tree into guest memory and produces core operands. Both are
// recursive traversals driven by a valtype.ValType, built against a tagged
// Value sum instead of reflection into a caller-supplied Go struct.
//
// A scalar ValType (every primitive, enum, own, borrow) consumes a single
// core operand. string and list consume two (offset, length). Every other
// composite (record, tuple, variant, option, result, flags) consumes a
// single operand: an i32 offset into guest memory where its flat layout
// (computed by valtype.Calculator) begins -- this engine never attempts to
// pack a composite's fields across multiple flat operand slots the way a
// full Component Model implementation's flattening algorithm would for a
// composite under the flat-parameter limit; it always takes the general,
// always-correct memory-indirection path.
package canon

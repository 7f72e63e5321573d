package memory

// Memory represents the guest's linear memory. Implementations are provided
// by the embedder (the execution engine); this package only bounds and
// sequences access to it.
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	ReadU8(offset uint32) (uint8, error)
	ReadU16(offset uint32) (uint16, error)
	ReadU32(offset uint32) (uint32, error)
	ReadU64(offset uint32) (uint64, error)
	WriteU8(offset uint32, value uint8) error
	WriteU16(offset uint32, value uint16) error
	WriteU32(offset uint32, value uint32) error
	WriteU64(offset uint32, value uint64) error
}

// MemorySizer reports the current size of the guest's linear memory, in
// bytes. A guest's memory can only grow, and may grow during re-entrant
// calls (e.g. inside Realloc), so callers must re-query Size rather than
// cache it across a call that might re-enter the guest.
type MemorySizer interface {
	Size() uint32
}

// Allocator is a runtime-provided allocator used when a canonical function's
// options carry no guest realloc export. It is independent of any guest
// module and is typically backed by a bump or free-list allocator over a
// scratch region the runtime owns.
type Allocator interface {
	Alloc(size, align uint32) (uint32, error)
	Free(ptr, size, align uint32)
}

// Realloc matches the guest-exported realloc function's signature: given an
// existing allocation (oldPtr/oldSize, or oldSize 0 for a fresh allocation),
// align, and the desired new size, it returns the new allocation's offset,
// or 0 to signal failure. newSize 0 is a free; implementations may return 0
// unconditionally in that case.
type Realloc func(oldPtr, oldSize, align, newSize uint32) (uint32, error)

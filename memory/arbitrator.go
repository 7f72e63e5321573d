package memory

import "github.com/wippyai/canon-abi/errors"

// Arbitrator bounds guest linear-memory access and dispatches allocation for
// a single memory (index 0; multi-memory is a Non-goal of this engine, so
// the memory_index parameter the source carries is dropped from this type's
// surface — a future multi-memory embedding constructs one Arbitrator per
// memory instead).
//
// An Arbitrator is not safe for concurrent use by itself: lift/lower must
// not share one across goroutines without external synchronization, since
// Allocate may re-enter the guest (running its exported realloc), and the
// guest's memory may be resized or relocated by that call.
type Arbitrator struct {
	mem     Memory
	sizer   MemorySizer
	realloc Realloc  // bound guest realloc, or nil
	alloc   Allocator // runtime fallback allocator, or nil
}

// NewArbitrator constructs an Arbitrator over mem/sizer. realloc and alloc
// are both optional; Allocate fails with AllocFailed if neither is set and a
// non-zero allocation is requested.
func NewArbitrator(mem Memory, sizer MemorySizer, realloc Realloc, alloc Allocator) *Arbitrator {
	return &Arbitrator{mem: mem, sizer: sizer, realloc: realloc, alloc: alloc}
}

// Validate reports whether [offset, offset+length) lies within the guest's
// current memory size. Arithmetic is performed in 64 bits so that a
// pathological offset/length pair near the uint32 boundary cannot wrap
// around before the comparison happens. offset == size with length == 0 is
// valid (the empty access just past the end of memory).
func (a *Arbitrator) Validate(offset, length uint64) bool {
	size := uint64(a.sizer.Size())
	if offset > size {
		return false
	}
	end := offset + length
	return end <= size
}

// MemSize returns the guest's current memory size, in bytes. Callers doing
// their own 64-bit cursor arithmetic (e.g. walking a record's fields) use
// this to detect overflow before ever truncating an offset to uint32.
func (a *Arbitrator) MemSize() uint32 {
	return a.sizer.Size()
}

func (a *Arbitrator) boundsCheck(phase errors.Phase, path []string, offset, length uint32) error {
	if !a.Validate(uint64(offset), uint64(length)) {
		return errors.OutOfBounds(phase, path, uint64(offset), uint64(length), uint64(a.sizer.Size()))
	}
	return nil
}

// Read returns length bytes starting at offset, after a bounds check.
func (a *Arbitrator) Read(phase errors.Phase, path []string, offset, length uint32) ([]byte, error) {
	if err := a.boundsCheck(phase, path, offset, length); err != nil {
		return nil, err
	}
	b, err := a.mem.Read(offset, length)
	if err != nil {
		return nil, errors.GuestTrap(phase, err)
	}
	return b, nil
}

// Write copies data into guest memory starting at offset, after a bounds
// check against len(data).
func (a *Arbitrator) Write(phase errors.Phase, path []string, offset uint32, data []byte) error {
	if err := a.boundsCheck(phase, path, offset, uint32(len(data))); err != nil {
		return err
	}
	if err := a.mem.Write(offset, data); err != nil {
		return errors.GuestTrap(phase, err)
	}
	return nil
}

// ReadU8/ReadU16/ReadU32/ReadU64 and their Write counterparts are bounds-
// checked wrappers over the underlying Memory's fixed-width accessors.

func (a *Arbitrator) ReadU8(phase errors.Phase, path []string, offset uint32) (uint8, error) {
	if err := a.boundsCheck(phase, path, offset, 1); err != nil {
		return 0, err
	}
	v, err := a.mem.ReadU8(offset)
	if err != nil {
		return 0, errors.GuestTrap(phase, err)
	}
	return v, nil
}

func (a *Arbitrator) ReadU16(phase errors.Phase, path []string, offset uint32) (uint16, error) {
	if err := a.boundsCheck(phase, path, offset, 2); err != nil {
		return 0, err
	}
	v, err := a.mem.ReadU16(offset)
	if err != nil {
		return 0, errors.GuestTrap(phase, err)
	}
	return v, nil
}

func (a *Arbitrator) ReadU32(phase errors.Phase, path []string, offset uint32) (uint32, error) {
	if err := a.boundsCheck(phase, path, offset, 4); err != nil {
		return 0, err
	}
	v, err := a.mem.ReadU32(offset)
	if err != nil {
		return 0, errors.GuestTrap(phase, err)
	}
	return v, nil
}

func (a *Arbitrator) ReadU64(phase errors.Phase, path []string, offset uint32) (uint64, error) {
	if err := a.boundsCheck(phase, path, offset, 8); err != nil {
		return 0, err
	}
	v, err := a.mem.ReadU64(offset)
	if err != nil {
		return 0, errors.GuestTrap(phase, err)
	}
	return v, nil
}

func (a *Arbitrator) WriteU8(phase errors.Phase, path []string, offset uint32, v uint8) error {
	if err := a.boundsCheck(phase, path, offset, 1); err != nil {
		return err
	}
	if err := a.mem.WriteU8(offset, v); err != nil {
		return errors.GuestTrap(phase, err)
	}
	return nil
}

func (a *Arbitrator) WriteU16(phase errors.Phase, path []string, offset uint32, v uint16) error {
	if err := a.boundsCheck(phase, path, offset, 2); err != nil {
		return err
	}
	if err := a.mem.WriteU16(offset, v); err != nil {
		return errors.GuestTrap(phase, err)
	}
	return nil
}

func (a *Arbitrator) WriteU32(phase errors.Phase, path []string, offset uint32, v uint32) error {
	if err := a.boundsCheck(phase, path, offset, 4); err != nil {
		return err
	}
	if err := a.mem.WriteU32(offset, v); err != nil {
		return errors.GuestTrap(phase, err)
	}
	return nil
}

func (a *Arbitrator) WriteU64(phase errors.Phase, path []string, offset uint32, v uint64) error {
	if err := a.boundsCheck(phase, path, offset, 8); err != nil {
		return err
	}
	if err := a.mem.WriteU64(offset, v); err != nil {
		return errors.GuestTrap(phase, err)
	}
	return nil
}

// Allocate requests a new_size-byte, align-aligned allocation, optionally
// resizing/relocating an existing oldPtr/oldSize allocation. It invokes the
// guest's bound realloc if one was supplied, else falls back to the runtime
// allocator. No lock is held across the (possibly guest-reentrant) realloc
// call; callers must not assume any other guest memory state survives it.
//
// newSize == 0 is a free-only call: a returned offset of 0 is success, not
// failure, in that case.
func (a *Arbitrator) Allocate(phase errors.Phase, oldPtr, oldSize, align, newSize uint32) (uint32, error) {
	if align == 0 {
		return 0, errors.BadType(phase, nil, "allocate called with zero alignment")
	}

	switch {
	case a.realloc != nil:
		ptr, err := a.realloc(oldPtr, oldSize, align, newSize)
		if err != nil {
			return 0, errors.GuestTrap(phase, err)
		}
		if ptr == 0 && newSize != 0 {
			return 0, errors.AllocFailed(phase, newSize, align)
		}
		return ptr, nil
	case a.alloc != nil:
		if newSize == 0 {
			if oldSize != 0 {
				a.alloc.Free(oldPtr, oldSize, align)
			}
			return 0, nil
		}
		ptr, err := a.alloc.Alloc(newSize, align)
		if err != nil {
			return 0, errors.AllocFailed(phase, newSize, align)
		}
		if oldSize != 0 {
			a.alloc.Free(oldPtr, oldSize, align)
		}
		return ptr, nil
	default:
		if newSize == 0 {
			return 0, nil
		}
		return 0, errors.AllocFailed(phase, newSize, align)
	}
}

// Free releases a previously allocated region on a best-effort basis, used
// when a lower operation fails partway through and must release the outer
// allocation. It never returns an error: if neither a bound realloc nor a
// runtime allocator supports freeing, the allocation is leaked and the
// reported bool is false so callers can attach a GuestLeak warning to the
// primary error instead.
func (a *Arbitrator) Free(ptr, size, align uint32) bool {
	if size == 0 {
		return true
	}
	switch {
	case a.realloc != nil:
		_, err := a.realloc(ptr, size, align, 0)
		return err == nil
	case a.alloc != nil:
		a.alloc.Free(ptr, size, align)
		return true
	}
	return false
}

package canon

import (
	"sync"

	"github.com/wippyai/canon-abi/memory"
)

var allocationListPool = sync.Pool{
	New: func() any { return &allocationList{allocations: make([]allocation, 0, 8)} },
}

// allocation records one guest allocation made while lowering a value, so
// it can be released if a later step of the same lower fails.
type allocation struct {
	ptr, size, align uint32
}

// allocationList tracks every allocation made during a single Lower call.
// It is pooled so repeated lower calls don't repeatedly allocate the
// backing slice, capped at maxPooledAllocationCapacity so one unusually
// large lower doesn't pin an oversized slice in the pool forever.
type allocationList struct {
	allocations []allocation
}

const maxPooledAllocationCapacity = 128

func newAllocationList() *allocationList {
	al := allocationListPool.Get().(*allocationList)
	al.allocations = al.allocations[:0]
	return al
}

func (al *allocationList) add(ptr, size, align uint32) {
	al.allocations = append(al.allocations, allocation{ptr, size, align})
}

func (al *allocationList) count() int {
	return len(al.allocations)
}

// release returns al to the pool, unless its backing slice grew unusually
// large, in which case it's left for the garbage collector instead.
func (al *allocationList) release() {
	if cap(al.allocations) > maxPooledAllocationCapacity {
		return
	}
	al.allocations = al.allocations[:0]
	allocationListPool.Put(al)
}

// freeAll releases every tracked allocation in reverse order (most recently
// allocated first, mirroring stack unwind order), used when a lower fails
// partway through. It reports how many allocations could not be freed
// through either a bound realloc or a runtime allocator, so the caller can
// decide whether to attach a GuestLeak warning.
func (al *allocationList) freeAll(mem *memory.Arbitrator) (leaked int) {
	for i := len(al.allocations) - 1; i >= 0; i-- {
		a := al.allocations[i]
		if !mem.Free(a.ptr, a.size, a.align) {
			leaked++
		}
	}
	return leaked
}

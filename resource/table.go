package resource

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/canon-abi/errors"
)

// DefaultMaxHandles bounds table growth so TableFull is reachable in
// practice; it is large enough that no real embedding should hit it.
const DefaultMaxHandles = 1 << 20

type entry struct {
	active        bool
	typeIndex     uint32
	ownerInstance uint32
	destructor    Destructor
	hostData      any
	borrowCount   uint32
}

// Table is the resource handle table for one runtime instance, or, for a
// multi-instance embedding, shared across instances. It is safe for
// concurrent use.
type Table struct {
	mu           sync.RWMutex
	entries      []entry
	cursor       int
	maxHandles   int
	ownerHandles map[uint32][]Handle
}

// NewTable returns an empty Table with DefaultMaxHandles capacity.
func NewTable() *Table {
	return NewTableWithCapacity(DefaultMaxHandles)
}

// NewTableWithCapacity returns an empty Table capped at maxHandles live
// handles; exceeding it surfaces TableFull.
func NewTableWithCapacity(maxHandles int) *Table {
	return &Table{
		entries:      make([]entry, 0, 64),
		maxHandles:   maxHandles,
		ownerHandles: make(map[uint32][]Handle),
	}
}

// New allocates a handle for typeIndex, owned by ownerInstance. destructor
// and hostData are both optional. The slot is found by scanning from a
// rotating cursor over existing entries before growing the table, so
// reused handles are not biased toward the most recently freed slot.
func (t *Table) New(typeIndex, ownerInstance uint32, destructor Destructor, hostData any) (Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := entry{
		active:        true,
		typeIndex:     typeIndex,
		ownerInstance: ownerInstance,
		destructor:    destructor,
		hostData:      hostData,
	}

	if n := len(t.entries); n > 0 {
		for i := 0; i < n; i++ {
			idx := (t.cursor + i) % n
			if !t.entries[idx].active {
				t.entries[idx] = e
				t.cursor = (idx + 1) % n
				h := Handle(idx + 1)
				t.ownerHandles[ownerInstance] = append(t.ownerHandles[ownerInstance], h)
				return h, nil
			}
		}
	}

	if len(t.entries) >= t.maxHandles {
		return 0, errors.TableFull()
	}

	t.entries = append(t.entries, e)
	h := Handle(len(t.entries))
	t.ownerHandles[ownerInstance] = append(t.ownerHandles[ownerInstance], h)
	return h, nil
}

func (t *Table) lookup(handle Handle) (entry, int, bool) {
	if handle == 0 {
		return entry{}, 0, false
	}
	idx := int(handle) - 1
	if idx < 0 || idx >= len(t.entries) || !t.entries[idx].active {
		return entry{}, 0, false
	}
	return t.entries[idx], idx, true
}

// Get returns the host_data payload for an active handle.
func (t *Table) Get(handle Handle) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, _, ok := t.lookup(handle)
	if !ok {
		return nil, false
	}
	return e.hostData, true
}

// TypeIndex returns the type index a handle was created with.
func (t *Table) TypeIndex(handle Handle) (uint32, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, _, ok := t.lookup(handle)
	if !ok {
		return 0, false
	}
	return e.typeIndex, true
}

// Rep returns a handle's representation value. Currently this is the
// identity function of the handle itself; a future version could instead
// derive it from the resource's hostData.
func (t *Table) Rep(handle Handle) (uint32, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if _, _, ok := t.lookup(handle); !ok {
		return 0, errors.InvalidHandle(uint32(handle))
	}
	return uint32(handle), nil
}

// Borrow increments a handle's outstanding-borrow count, blocking Drop
// until every borrow is returned.
func (t *Table) Borrow(handle Handle) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, idx, ok := t.lookup(handle)
	if !ok {
		return errors.InvalidHandle(uint32(handle))
	}
	t.entries[idx].borrowCount++
	return nil
}

// ReturnBorrow decrements a handle's outstanding-borrow count.
func (t *Table) ReturnBorrow(handle Handle) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, idx, ok := t.lookup(handle)
	if !ok || e.borrowCount == 0 {
		return errors.InvalidHandle(uint32(handle))
	}
	t.entries[idx].borrowCount--
	return nil
}

// Drop invalidates handle, owned by callingInstance's perspective. The
// table lock is released before any destructor runs, since a destructor may
// re-enter the guest; no lock is ever held across that call. A destructor
// is only invoked when callingInstance matches the handle's own owner --
// cross-instance destructor invocation is logged and skipped. A destructor
// that returns an error (a guest trap) is caught, logged, and discarded;
// the handle is freed regardless.
func (t *Table) Drop(handle Handle, callingInstance uint32) error {
	t.mu.Lock()
	e, idx, ok := t.lookup(handle)
	if !ok {
		t.mu.Unlock()
		return errors.InvalidHandle(uint32(handle))
	}
	if e.borrowCount > 0 {
		t.mu.Unlock()
		return errors.InvalidHandle(uint32(handle)).WithWarning("handle has %d outstanding borrow(s)", e.borrowCount)
	}

	if d, ok := e.hostData.(Dropper); ok {
		d.Drop()
	}

	t.entries[idx] = entry{}
	t.removeFromOwnerLocked(e.ownerInstance, handle)
	t.mu.Unlock()

	if e.destructor == nil {
		return nil
	}
	if callingInstance != e.ownerInstance {
		Logger().Warn("skipping cross-instance destructor invocation",
			zap.Uint32("handle", uint32(handle)),
			zap.Uint32("owner_instance", e.ownerInstance),
			zap.Uint32("calling_instance", callingInstance),
		)
		return nil
	}

	if err := e.destructor(uint32(handle)); err != nil {
		Logger().Warn("destructor trapped; handle freed anyway",
			zap.Uint32("handle", uint32(handle)),
			zap.Error(err),
		)
	}
	return nil
}

func (t *Table) removeFromOwnerLocked(owner uint32, handle Handle) {
	list := t.ownerHandles[owner]
	for i, h := range list {
		if h == handle {
			t.ownerHandles[owner] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// TeardownInstance drops every handle currently owned by instance, in LIFO
// order (most-recently-created first), as required at component instance
// teardown. It returns every error encountered; a destructor trap does not
// stop the remaining drops from proceeding.
func (t *Table) TeardownInstance(instance uint32) []error {
	t.mu.RLock()
	handles := append([]Handle(nil), t.ownerHandles[instance]...)
	t.mu.RUnlock()

	var errs []error
	for i := len(handles) - 1; i >= 0; i-- {
		if err := t.Drop(handles[i], instance); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Len returns the number of currently active handles.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, e := range t.entries {
		if e.active {
			n++
		}
	}
	return n
}

// Close tears down every instance's handles. It is intended for process
// shutdown or test cleanup, not per-instance teardown (use
// TeardownInstance for that).
func (t *Table) Close() []error {
	t.mu.RLock()
	owners := make([]uint32, 0, len(t.ownerHandles))
	for o := range t.ownerHandles {
		owners = append(owners, o)
	}
	t.mu.RUnlock()

	var errs []error
	for _, o := range owners {
		errs = append(errs, t.TeardownInstance(o)...)
	}
	return errs
}

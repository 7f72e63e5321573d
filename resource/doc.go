// Package resource implements the canonical ABI's resource handle table:
// allocation, lookup, borrow tracking, and destruction of the opaque u32
// handles own<T>/borrow<T> values carry.
//
// Handle 0 is reserved and never returned by New. New reuses an inactive
// slot by scanning from a rotating cursor rather than always popping the
// most recently freed slot, so repeated churn does not bias reuse toward
// the same handful of handles. Each active handle is also tracked on its
// owner instance's list so TeardownInstance can drop every handle belonging
// to an instance in LIFO order when that instance goes away.
//
// Drop never holds the table lock while invoking a destructor: the
// destructor is an external collaborator (it may re-enter the guest), and
// the concurrency model forbids holding a lock across that re-entry. A
// destructor that returns an error (traps) is caught and discarded; the
// handle is freed regardless. A destructor is only invoked when the calling
// instance matches the handle's owner -- cross-instance destructor
// invocation is logged and skipped, not an error.
package resource

package canon

import "github.com/wippyai/canon-abi/resource"

// ResourceNew, ResourceDrop, and ResourceRep are the engine's three
// resource-table entry points, thin wrappers over a *resource.Table that
// give the canonical ABI's own/borrow plumbing a stable surface independent
// of the resource package's own constructor/method names.
//
// own/borrow values themselves are lifted/lowered as opaque u32 handles by
// Lift/Lower's pass-through handling; these entry points back the separate
// resource.new/resource.drop/resource.rep canonical built-ins, not the
// lift/lower of an own<T>/borrow<T> field.

// ResourceNew allocates a handle for typeIndex, owned by ownerInstance.
func ResourceNew(tbl *resource.Table, typeIndex, ownerInstance uint32, destructor resource.Destructor, hostData any) (uint32, error) {
	h, err := tbl.New(typeIndex, ownerInstance, destructor, hostData)
	return uint32(h), err
}

// ResourceDrop invalidates handle, invoking its destructor if owned by
// callingInstance.
func ResourceDrop(tbl *resource.Table, handle, callingInstance uint32) error {
	return tbl.Drop(resource.Handle(handle), callingInstance)
}

// ResourceRep returns handle's representation value.
func ResourceRep(tbl *resource.Table, handle uint32) (uint32, error) {
	return tbl.Rep(resource.Handle(handle))
}

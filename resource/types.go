package resource

// Handle is an opaque reference to a resource in a Table. Handle 0 is
// reserved and always invalid.
type Handle uint32

// Destructor is the host-side callback invoked when a resource's owning
// handle is dropped, if the resource's type declared one. It receives the
// handle's representation value (currently the identity function of the
// handle itself). A non-nil error is treated as a guest trap: caught,
// logged, and discarded -- the handle is freed either way.
type Destructor func(rep uint32) error

// Dropper is optionally implemented by a handle's host_data payload for
// synchronous host-side cleanup run in addition to (not instead of) any
// registered Destructor.
type Dropper interface {
	Drop()
}

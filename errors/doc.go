// Package errors provides the structured error type for the canonical ABI engine.
//
// Errors are categorized by Phase (where in the lift/lower pipeline the error
// occurred) and Kind (the taxonomy entry from the error handling design). The
// Error type carries rich context: a field path, core/ValType names, and a
// cause chain.
//
// Use the Builder for ad hoc construction:
//
//	err := errors.New(errors.PhaseLift, errors.KindTypeMismatch).
//		Path("items", "[3]").
//		GoType("i64").
//		WitType("u32").
//		Detail("narrow read truncates value").
//		Build()
//
// Or use a convenience constructor for the common cases:
//
//	err := errors.TypeMismatch(errors.PhaseLift, path, "i32", "s64")
//	err := errors.OutOfBounds(errors.PhaseLift, path, offset, length, memSize)
//
// GuestLeak is not its own Kind; it is recorded as a Warning attached to the
// primary error via Error.WithWarning, matching the propagation policy: the
// primary error is still returned, with the leak noted alongside it.
//
// All errors implement the standard error interface and support errors.Is.
package errors

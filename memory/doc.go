// Package memory implements the canonical ABI's memory arbitrator: bounded,
// offset-based access to a single guest linear memory (memory index 0; see
// the package's Non-goals note), plus allocator dispatch for lift/lower.
//
// Arbitrator wraps a Memory and, optionally, a Realloc callback bound to the
// guest's exported realloc function. Cursor arithmetic for bounds checks is
// always performed in 64 bits so that a 32-bit offset/length pair cannot
// wrap around before the comparison happens.
package memory

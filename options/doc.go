// Package options resolves a canonical function's declared options --
// memory, realloc, post-return, and string-encoding -- into a single
// Resolved value threaded through one lift/lower call, rather than read from
// global state. A duplicate of the same option kind is rejected with
// BadOptions; string encoding defaults to UTF-8 if never specified.
package options

package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in the lift/lower pipeline the error occurred.
type Phase string

const (
	PhaseABI       Phase = "abi"       // type model / size-alignment calculation
	PhaseLift      Phase = "lift"      // guest -> host
	PhaseLower     Phase = "lower"     // host -> guest
	PhaseMemory    Phase = "memory"    // linear memory arbitration
	PhaseResource  Phase = "resource"  // resource table operations
	PhaseOptions   Phase = "options"   // canonical-options resolution
	PhaseTranscode Phase = "transcode" // string encoding conversion
)

// Kind categorizes the error per the engine's error taxonomy.
type Kind string

const (
	KindTypeMismatch        Kind = "type_mismatch"
	KindBadType             Kind = "bad_type"
	KindBadOptions          Kind = "bad_options"
	KindOutOfBounds         Kind = "out_of_bounds"
	KindAllocFailed         Kind = "alloc_failed"
	KindGuestTrap           Kind = "guest_trap"
	KindInvalidDiscriminant Kind = "invalid_discriminant"
	KindInvalidUTF8         Kind = "invalid_utf8"
	KindInvalidUTF16        Kind = "invalid_utf16"
	KindTableFull           Kind = "table_full"
	KindInvalidHandle       Kind = "invalid_handle"
	KindUnsupported         Kind = "unsupported"
)

// Error is the structured error type used throughout the engine.
type Error struct {
	Value   any
	Cause   error
	Warning string // set only for GuestLeak-style non-fatal diagnostics attached to a primary error
	Phase   Phase
	Kind    Kind
	GoType  string
	WitType string
	Detail  string
	Path    []string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.GoType != "" || e.WitType != "" {
		b.WriteString(": ")
		switch {
		case e.GoType != "" && e.WitType != "":
			b.WriteString("core type ")
			b.WriteString(e.GoType)
			b.WriteString(", ValType ")
			b.WriteString(e.WitType)
		case e.GoType != "":
			b.WriteString("core type ")
			b.WriteString(e.GoType)
		default:
			b.WriteString("ValType ")
			b.WriteString(e.WitType)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.WitType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Warning != "" {
		b.WriteString(" (warning: ")
		b.WriteString(e.Warning)
		b.WriteByte(')')
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by phase and kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// WithWarning attaches a non-fatal diagnostic (e.g. GuestLeak) to an otherwise
// fatal error without changing its Kind; the primary error is still returned.
func (e *Error) WithWarning(format string, args ...any) *Error {
	clone := *e
	clone.Warning = fmt.Sprintf(format, args...)
	return &clone
}

// Builder provides structured error construction.
type Builder struct {
	err Error
}

// New creates a new error builder.
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

func (b *Builder) WitType(t string) *Builder {
	b.err.WitType = t
	return b
}

func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns.

// TypeMismatch creates a core-operand/ValType mismatch error.
func TypeMismatch(phase Phase, path []string, coreType, witType string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindTypeMismatch,
		Path:    path,
		GoType:  coreType,
		WitType: witType,
	}
}

// BadType creates an error for a zero-alignment or unimplemented ValType.
func BadType(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindBadType,
		Path:   path,
		Detail: detail,
	}
}

// BadOptions creates an error for conflicting or missing canonical options.
func BadOptions(detail string) *Error {
	return &Error{
		Phase:  PhaseOptions,
		Kind:   KindBadOptions,
		Detail: detail,
	}
}

// OutOfBounds creates a guest memory access violation error.
func OutOfBounds(phase Phase, path []string, offset, length uint64, memSize uint64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("access [%d, %d) exceeds memory size %d", offset, offset+length, memSize),
		Value:  offset,
	}
}

// AllocFailed creates an allocator failure error.
func AllocFailed(phase Phase, size, align uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocFailed,
		Detail: fmt.Sprintf("failed to allocate %d bytes (align %d)", size, align),
	}
}

// GuestTrap wraps a re-entrant guest call's trap/exception.
func GuestTrap(phase Phase, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindGuestTrap,
		Detail: "guest realloc or destructor trapped",
		Cause:  cause,
	}
}

// InvalidDiscriminant creates an invalid discriminant error for variant/enum/option/result.
func InvalidDiscriminant(phase Phase, path []string, disc uint32, maxValid uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidDiscriminant,
		Path:   path,
		Detail: fmt.Sprintf("discriminant %d out of range (max %d)", disc, maxValid),
		Value:  disc,
	}
}

// InvalidUTF8 creates a strict UTF-8 validation error.
func InvalidUTF8(path []string, byteOffset int) *Error {
	return &Error{
		Phase:  PhaseTranscode,
		Kind:   KindInvalidUTF8,
		Path:   path,
		Detail: fmt.Sprintf("invalid UTF-8 sequence at byte %d", byteOffset),
	}
}

// InvalidUTF16 creates a strict UTF-16 validation error (reserved for future
// fatal UTF-16 modes; lone surrogates are replaced, not rejected, per spec).
func InvalidUTF16(path []string, unitOffset int) *Error {
	return &Error{
		Phase:  PhaseTranscode,
		Kind:   KindInvalidUTF16,
		Path:   path,
		Detail: fmt.Sprintf("invalid UTF-16 sequence at unit %d", unitOffset),
	}
}

// TableFull creates a resource-table exhaustion error.
func TableFull() *Error {
	return &Error{
		Phase:  PhaseResource,
		Kind:   KindTableFull,
		Detail: "no free handle slot available",
	}
}

// InvalidHandle creates an error for a zero, out-of-range, or inactive handle.
func InvalidHandle(handle uint32) *Error {
	return &Error{
		Phase:  PhaseResource,
		Kind:   KindInvalidHandle,
		Detail: fmt.Sprintf("handle %d is invalid or inactive", handle),
		Value:  handle,
	}
}

// Unsupported creates an unsupported-operation error (e.g. stream, future,
// error-context, or the latin1 half of latin1+utf16).
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

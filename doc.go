// Package canonabi is the Canonical ABI engine of a WebAssembly Component
// Model runtime: the subsystem that translates values between a guest
// linear-memory module and the host-side representation defined by the
// Component Model's type system.
//
// # Architecture Overview
//
// The engine is organized into packages with distinct responsibilities,
// ordered leaves-first:
//
//	valtype/       Closed sum over value-type shapes; size/alignment calculator
//	memory/        Bounded access to guest linear memory; guest allocator dispatch
//	strtranscode/  UTF-8 <-> UTF-16LE conversion with strict validation
//	canon/         Recursive lift/lower translation driven by the type model
//	resource/      Allocation, lookup, destruction of opaque resource handles
//	options/       Per-call canonical-options resolution
//	errors/        Structured error types shared by every package above
//
// # Scope
//
// This module specifies and implements lift/lower semantics and the
// resource-handle table. Component binary loading/parsing, core module
// instantiation, the guest execution engine, compiled-code emission, file
// I/O, and a CLI are external collaborators and are deliberately not part
// of this module: it is a library, not a server, and has no wire protocol.
//
// # Quick Start
//
//	calc := valtype.NewCalculator()
//	layout, err := calc.ABI(recordType)
//
//	opts, err := options.Resolve(rawOptions)
//
//	arb := memory.NewArbitrator(guestMemory, guestMemory, reallocFn, nil)
//	v, err := canon.Lift(operands, recordType, arb, opts)
//
//	operands, telemetry, err := canon.Lower(v, recordType, arb, opts)
//
// # Thread Safety
//
// valtype.Calculator is safe for concurrent use (its cache is a sync.Map).
// canon.Lift and canon.Lower keep no state between calls (Lower only borrows
// a tracking list from a package-level sync.Pool and may log through the
// package logger); they read and write guest memory through the given
// memory.Arbitrator. Callers may invoke them concurrently from
// different goroutines as long as each invocation's memory.Arbitrator is
// not shared across concurrent calls (linear memory access within one call
// must happen in declaration order, per the concurrency model).
// resource.Table is internally synchronized.
package canonabi

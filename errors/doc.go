// Package errors provides structured error types for the Disposable library.
//
// Errors are categorized by Phase (which disposal path failed) and Kind
// (error category). The Error type includes the registry category and index
// of the offending child, a cause chain, and any sibling faults suppressed
// by best-effort draining.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseSync, errors.KindReleaseFault).
//		Category(errors.CategoryImmediate).
//		Index(2).
//		Cause(closeErr).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.ReleaseFault(errors.PhaseSync, errors.CategoryImmediate, 2, closeErr)
//	err := errors.Canceled(errors.PhaseAsync, ctx.Err(), remaining)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors

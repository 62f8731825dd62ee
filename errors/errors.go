package errors

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/multierr"
)

// Phase indicates which disposal path the error occurred on
type Phase string

const (
	PhaseRegister  Phase = "register"      // resource registration
	PhaseSync      Phase = "dispose_sync"  // synchronous drain
	PhaseAsync     Phase = "dispose_async" // asynchronous drain
	PhaseWait      Phase = "wait"          // completion wait
	PhaseFinalizer Phase = "finalizer"     // runtime reclamation
	PhaseHost      Phase = "host"          // host destroy notification
)

// Kind categorizes the error
type Kind string

const (
	// KindReleaseFault marks a child resource whose release failed.
	KindReleaseFault Kind = "release_fault"

	// KindCanceled marks a drain aborted by its cancellation token.
	// Children not yet released at that point remain unreleased.
	KindCanceled Kind = "canceled"

	// KindBlockedAsync marks a synchronous drain that refused to block on
	// an asynchronous child's release (strict mode).
	KindBlockedAsync Kind = "blocked_async"

	// KindInvalidResource marks a registration of a value that satisfies
	// no release capability.
	KindInvalidResource Kind = "invalid_resource"
)

// Category names the registry category a child resource belongs to.
type Category string

const (
	CategoryImmediate Category = "immediate"
	CategoryNested    Category = "nested"
	CategoryAsync     Category = "async"
)

// Error is the structured error type used throughout the library.
//
// A drain surfaces at most one Error to the caller: the first fault
// encountered. Faults from later siblings are retained on Suppressed so
// nothing is lost, but callers only ever handle one representative error.
type Error struct {
	Cause      error
	Suppressed error
	Phase      Phase
	Kind       Kind
	Category   Category
	Index      int // registration index within the category, -1 if not applicable
	Leaked     int // children left unreleased by a canceled drain
	GoType     string
	Detail     string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Category != "" {
		b.WriteString(" at ")
		b.WriteString(string(e.Category))
		if e.Index >= 0 {
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(e.Index))
			b.WriteByte(']')
		}
	}

	if e.GoType != "" {
		b.WriteString(": Go type ")
		b.WriteString(e.GoType)
	}

	if e.Detail != "" {
		if e.GoType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Leaked > 0 {
		fmt.Fprintf(&b, " (%d unreleased)", e.Leaked)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	if n := len(multierr.Errors(e.Suppressed)); n > 0 {
		fmt.Fprintf(&b, " (+%d suppressed)", n)
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Suppress records sibling faults that were absorbed by best-effort
// draining. It returns the receiver for chaining.
func (e *Error) Suppress(errs ...error) *Error {
	e.Suppressed = multierr.Append(e.Suppressed, multierr.Combine(errs...))
	return e
}

// SuppressedErrors returns the absorbed sibling faults, oldest first.
func (e *Error) SuppressedErrors() []error {
	return multierr.Errors(e.Suppressed)
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
			Index: -1,
		},
	}
}

// Category sets the registry category
func (b *Builder) Category(c Category) *Builder {
	b.err.Category = c
	return b
}

// Index sets the registration index within the category
func (b *Builder) Index(i int) *Builder {
	b.err.Index = i
	return b
}

// GoType sets the Go type name of the offending resource
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Leaked sets the count of children left unreleased
func (b *Builder) Leaked(n int) *Builder {
	b.err.Leaked = n
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// ReleaseFault wraps a child's release failure with its position in the
// registry.
func ReleaseFault(phase Phase, category Category, index int, cause error) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindReleaseFault,
		Category: category,
		Index:    index,
		Cause:    cause,
	}
}

// Canceled creates a cancellation error. leaked counts the children that
// were never released because the drain stopped early.
func Canceled(phase Phase, cause error, leaked int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindCanceled,
		Index:  -1,
		Leaked: leaked,
		Cause:  cause,
	}
}

// BlockedAsync creates a strict-mode refusal to block on an asynchronous
// child from a synchronous drain.
func BlockedAsync(phase Phase, index int) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindBlockedAsync,
		Category: CategoryAsync,
		Index:    index,
		Detail:   "synchronous release of an asynchronous resource refused in strict mode",
	}
}

// InvalidResource creates a registration error for a value that satisfies
// no release capability.
func InvalidResource(v any) *Error {
	return &Error{
		Phase:  PhaseRegister,
		Kind:   KindInvalidResource,
		Index:  -1,
		GoType: fmt.Sprintf("%T", v),
		Detail: "value is not Disposable, AsyncDisposable, or Coordinator",
	}
}

package disposable

import (
	"context"
	"reflect"

	"github.com/Azzazelloqq/Disposable/errors"
)

// Disposable is a resource with an immediate, possibly blocking, release.
// Dispose must be safe to call from any goroutine.
type Disposable interface {
	Dispose() error
}

// AsyncDisposable is a resource with a cancellable asynchronous release.
// The context is the cancellation token; implementations should honor it
// at their own suspension points.
type AsyncDisposable interface {
	DisposeAsync(ctx context.Context) error
}

// Coordinator is a resource that is itself a composite: it owns further
// children, exposes both release shapes, and makes disposal observable.
// *Composite satisfies Coordinator, as does any type embedding one.
type Coordinator interface {
	Disposable
	AsyncDisposable

	// IsDisposed reports whether release has begun. Non-blocking.
	IsDisposed() bool

	// Done returns a channel closed the instant release begins.
	Done() <-chan struct{}
}

// Action adapts a plain closure to Disposable. A nil Action is a no-op.
type Action func()

func (a Action) Dispose() error {
	if a != nil {
		a()
	}
	return nil
}

// Func adapts an error-returning closure to Disposable.
type Func func() error

func (f Func) Dispose() error {
	if f == nil {
		return nil
	}
	return f()
}

// AsyncFunc adapts a context-aware closure to AsyncDisposable.
type AsyncFunc func(ctx context.Context) error

func (f AsyncFunc) DisposeAsync(ctx context.Context) error {
	if f == nil {
		return nil
	}
	return f(ctx)
}

// DisposeAll releases every non-nil resource in order. All resources are
// attempted even when one fails; the first fault is returned after the
// full pass.
func DisposeAll(resources ...Disposable) error {
	var first error
	for _, r := range resources {
		if isNil(r) {
			continue
		}
		if err := r.Dispose(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// DisposeAllAsync releases every non-nil resource in order via its
// asynchronous path. The context is checked before each resource; on
// cancellation the remaining resources are left unreleased and a
// cancellation error is returned.
func DisposeAllAsync(ctx context.Context, resources ...AsyncDisposable) error {
	var first error
	for i, r := range resources {
		if err := ctx.Err(); err != nil {
			return errors.Canceled(errors.PhaseAsync, err, len(resources)-i)
		}
		if isNil(r) {
			continue
		}
		if err := r.DisposeAsync(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// isNil reports whether v is nil, including a typed nil stored in an
// interface. Registering or releasing a nil resource is a legal no-op.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Func, reflect.Map, reflect.Slice, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}

package disposable

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Azzazelloqq/Disposable/errors"
)

// Composite aggregates heterogeneous child resources and releases them
// exactly once, in registration order within each category, isolating
// per-child failures.
//
// Ownership is strictly tree shaped: a resource must be registered into at
// most one composite. A Composite is itself a Coordinator, so composites
// nest to arbitrary depth.
//
// All methods are safe for concurrent use. The mutex guards only mutation
// and snapshot of the category slices; it is never held during release
// calls, so a child registering a grandchild during its own release cannot
// deadlock.
type Composite struct {
	state State

	mu        sync.Mutex
	disposed  bool
	immediate []Disposable
	nested    []Coordinator
	async     []AsyncDisposable
	unmanaged []func()

	strict bool
}

// Option configures a Composite.
type Option func(*Composite)

// WithCapacity pre-sizes the category slices to avoid reallocation churn
// under high registration volume.
func WithCapacity(n int) Option {
	return func(c *Composite) {
		if n <= 0 {
			return
		}
		c.immediate = make([]Disposable, 0, n)
		c.nested = make([]Coordinator, 0, n)
		c.async = make([]AsyncDisposable, 0, n)
	}
}

// WithStrictSync makes Dispose surface a blocked_async error for each
// asynchronous child instead of blocking on its release. The children in
// question are left unreleased; hosts enabling strict mode are asserting
// that synchronous disposal of asynchronous resources is a bug to fix.
func WithStrictSync() Option {
	return func(c *Composite) {
		c.strict = true
	}
}

// NewComposite creates an empty composite.
func NewComposite(opts ...Option) *Composite {
	c := &Composite{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Add registers child resources. Any number may be registered per call;
// the whole batch takes a single lock acquisition. The category of each
// resource is inferred from its capability: Coordinator first, then
// AsyncDisposable, then Disposable.
// Plain func() and func() error values register as immediate resources.
// Nil resources are ignored.
//
// A batch containing a value with no release capability is rejected as a
// whole with an invalid_resource error; nothing from it is registered.
//
// If the composite is already disposed, the incoming resources are
// released before Add returns rather than silently dropped: immediate and
// nested resources synchronously, asynchronous resources via the blocking
// adaptation (diagnosed with a warning, or refused in strict mode). The
// first release fault is returned.
func (c *Composite) Add(resources ...any) error {
	var imm []Disposable
	var nest []Coordinator
	var asy []AsyncDisposable

	for _, r := range resources {
		if isNil(r) {
			continue
		}
		switch v := r.(type) {
		case Coordinator:
			nest = append(nest, v)
		case AsyncDisposable:
			asy = append(asy, v)
		case Disposable:
			imm = append(imm, v)
		case func():
			imm = append(imm, Action(v))
		case func() error:
			imm = append(imm, Func(v))
		default:
			return errors.InvalidResource(r)
		}
	}

	c.mu.Lock()
	if !c.disposed {
		c.immediate = append(c.immediate, imm...)
		c.nested = append(c.nested, nest...)
		c.async = append(c.async, asy...)
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	// Late registration: the owner has already torn down, so releasing the
	// incoming resources now is the only way to avoid leaking them.
	d := &drain{phase: errors.PhaseRegister}
	c.drainSync(d, imm, nest, asy)
	return d.err()
}

// AddUnmanaged registers a cleanup function that touches no other managed
// object, making it safe to run from a finalizer. Unmanaged cleanups run
// after the managed drain on explicit disposal, and are the only release
// actions performed on the finalizer path. If the composite is already
// disposed, fn runs before AddUnmanaged returns.
func (c *Composite) AddUnmanaged(fn func()) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	if !c.disposed {
		c.unmanaged = append(c.unmanaged, fn)
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	fn()
}

// Dispose releases every child synchronously. Exactly one caller across
// all goroutines performs the drain; every other call, concurrent or
// later, is a silent no-op returning nil.
//
// Categories drain in order: immediate, nested (via their synchronous
// release), then asynchronous children through a blocking adaptation of
// their release. Blocking on an asynchronous release defeats its purpose,
// so each adaptation is diagnosed with a structured warning; under
// WithStrictSync it becomes a blocked_async error and the child is left
// unreleased.
//
// Every child is attempted even when one fails. The first fault is
// returned after the full drain, with later faults retained on it as
// suppressed errors.
func (c *Composite) Dispose() error {
	if !c.state.Begin() {
		return nil
	}
	imm, nest, asy, unm := c.snapshot()

	d := &drain{phase: errors.PhaseSync}
	c.drainSync(d, imm, nest, asy)
	for _, fn := range unm {
		fn()
	}
	return d.err()
}

// DisposeAsync releases every child, honoring ctx as the cancellation
// token. Exactly one caller performs the drain; every other call is a
// silent no-op returning nil.
//
// Asynchronous children may own further asynchronous children, so the
// nested and async categories drain first through their asynchronous
// paths with ctx threaded through; immediate children are quick and
// deterministic and drain last.
//
// ctx is checked before each child's release, not pre-emptively in the
// middle of one. If it has fired, the drain aborts with a canceled error
// carrying the count of children left unreleased. The disposed flag was
// already claimed, so those children can never be drained by a later
// call: cancellation mid-drain leaks them. The leak is logged, never
// silent. Unmanaged cleanups touch no other managed object, so they run
// even on an aborted drain.
func (c *Composite) DisposeAsync(ctx context.Context) error {
	if !c.state.Begin() {
		return nil
	}
	imm, nest, asy, unm := c.snapshot()

	d := &drain{phase: errors.PhaseAsync}
	remaining := len(imm) + len(nest) + len(asy)

	for i, n := range nest {
		if err := ctx.Err(); err != nil {
			return c.abort(d, err, remaining, unm)
		}
		remaining--
		d.fault(errors.CategoryNested, i, n.DisposeAsync(ctx))
	}
	for i, a := range asy {
		if err := ctx.Err(); err != nil {
			return c.abort(d, err, remaining, unm)
		}
		remaining--
		d.fault(errors.CategoryAsync, i, a.DisposeAsync(ctx))
	}
	for i, r := range imm {
		if err := ctx.Err(); err != nil {
			return c.abort(d, err, remaining, unm)
		}
		remaining--
		d.fault(errors.CategoryImmediate, i, r.Dispose())
	}
	for _, fn := range unm {
		fn()
	}
	return d.err()
}

// IsDisposed reports whether release has begun.
func (c *Composite) IsDisposed() bool {
	return c.state.IsDisposed()
}

// Done returns a channel closed the instant release begins.
func (c *Composite) Done() <-chan struct{} {
	return c.state.Done()
}

// WaitDisposed blocks until release has begun or ctx is done.
func (c *Composite) WaitDisposed(ctx context.Context) error {
	return c.state.WaitDisposed(ctx)
}

// Len returns the number of registered children across all categories.
func (c *Composite) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.immediate) + len(c.nested) + len(c.async)
}

// snapshot atomically swaps the category slices out for nil under the
// mutex, so a concurrent Add during the drain sees the disposed flag and
// releases its resources itself, and no resource can be drained twice.
func (c *Composite) snapshot() (imm []Disposable, nest []Coordinator, asy []AsyncDisposable, unm []func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disposed = true
	imm, c.immediate = c.immediate, nil
	nest, c.nested = c.nested, nil
	asy, c.async = c.async, nil
	unm, c.unmanaged = c.unmanaged, nil
	return imm, nest, asy, unm
}

// drainSync releases the given children in the synchronous category order:
// immediate, nested, then async through the blocking adaptation.
func (c *Composite) drainSync(d *drain, imm []Disposable, nest []Coordinator, asy []AsyncDisposable) {
	for i, r := range imm {
		d.fault(errors.CategoryImmediate, i, r.Dispose())
	}
	for i, n := range nest {
		d.fault(errors.CategoryNested, i, n.Dispose())
	}
	for i, a := range asy {
		if c.strict {
			d.record(errors.BlockedAsync(d.phase, i))
			continue
		}
		Logger().Warn("blocking on asynchronous release in synchronous dispose",
			zap.String("phase", string(d.phase)),
			zap.Int("index", i),
			zap.String("resource", fmt.Sprintf("%T", a)))
		d.fault(errors.CategoryAsync, i, a.DisposeAsync(context.Background()))
	}
}

// abort finishes a canceled asynchronous drain. Unmanaged cleanups are
// finalizer-safe, so they still run; the managed children still unreleased
// are lost: the disposed flag is already claimed, so no later call can
// reach them.
func (c *Composite) abort(d *drain, cause error, leaked int, unm []func()) error {
	for _, fn := range unm {
		fn()
	}
	Logger().Error("asynchronous dispose canceled, children leaked",
		zap.Int("leaked", leaked),
		zap.Error(cause))
	e := errors.Canceled(errors.PhaseAsync, cause, leaked)
	if faults := d.all(); len(faults) > 0 {
		e.Suppress(faults...)
	}
	return e
}

// drain accumulates release faults, keeping the first as the
// representative error and the rest as suppressed siblings.
type drain struct {
	phase errors.Phase
	first *errors.Error
	rest  []error
}

func (d *drain) fault(category errors.Category, index int, cause error) {
	if cause == nil {
		return
	}
	d.record(errors.ReleaseFault(d.phase, category, index, cause))
}

func (d *drain) record(e *errors.Error) {
	if d.first == nil {
		d.first = e
		return
	}
	Logger().Warn("suppressed release fault", zap.Error(e))
	d.rest = append(d.rest, e)
}

func (d *drain) all() []error {
	if d.first == nil {
		return nil
	}
	return append([]error{d.first}, d.rest...)
}

func (d *drain) err() error {
	if d.first == nil {
		return nil
	}
	if len(d.rest) > 0 {
		d.first.Suppress(d.rest...)
	}
	return d.first
}

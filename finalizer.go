package disposable

import (
	"runtime"

	"go.uber.org/zap"
)

// AttachFinalizer registers a last-resort reclamation hook: if c becomes
// unreachable without having been disposed, the runtime claims the same
// Begin gate and runs only the unmanaged cleanups. Managed children are
// skipped, since other managed objects may already have been finalized in
// unspecified order, and are counted in a leak warning. Explicit disposal
// remains the contract; the finalizer is best-effort leak mitigation.
//
// If explicit Dispose or DisposeAsync won the gate first, the finalizer
// does nothing.
func AttachFinalizer(c *Composite) {
	runtime.SetFinalizer(c, (*Composite).finalize)
}

// finalize is the unmanaged-only release path.
func (c *Composite) finalize() {
	if !c.state.Begin() {
		return
	}
	imm, nest, asy, unm := c.snapshot()
	for _, fn := range unm {
		fn()
	}
	if leaked := len(imm) + len(nest) + len(asy); leaked > 0 {
		Logger().Warn("finalizer reclaimed composite with unreleased children",
			zap.Int("leaked", leaked))
	}
}

package disposable

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Azzazelloqq/Disposable/errors"
)

// State is the exactly-once disposal transition shared by every owner of
// sub-resources. The zero value is ready to use.
//
// The flag moves from undisposed to disposed exactly once, no matter how
// many goroutines race to claim it. The cancellation signal and the nested
// registry are created lazily with an atomic create-if-absent swap, so
// first access is safe under concurrency.
type State struct {
	disposed atomic.Bool
	done     atomic.Pointer[chan struct{}]
	children atomic.Pointer[Composite]
}

// Begin atomically claims the undisposed-to-disposed transition. It returns
// true for exactly one caller across all goroutines; every other call
// returns false immediately with no side effect. The cancellation signal
// fires the instant the claim succeeds, and the winner drains the nested
// registry if one was attached. Drain faults are logged, not returned, so
// the claim result stays unambiguous.
func (s *State) Begin() bool {
	if !s.disposed.CompareAndSwap(false, true) {
		return false
	}
	close(s.signal())
	if c := s.children.Load(); c != nil {
		if err := c.Dispose(); err != nil {
			Logger().Warn("nested registry drain failed", zap.Error(err))
		}
	}
	return true
}

// IsDisposed reports whether release has begun. Non-blocking snapshot.
func (s *State) IsDisposed() bool {
	return s.disposed.Load()
}

// Done returns the cancellation signal: a one-shot broadcast channel closed
// the instant Begin succeeds. Receiving on it after the fact completes
// immediately, so late subscribers never miss the wakeup.
func (s *State) Done() <-chan struct{} {
	return s.signal()
}

// Children returns the registry of resources attached to this owner,
// creating it on first use. The registry is created at most once and is
// drained by the Begin winner at the transition instant. A registry first
// requested after the transition comes back already disposed, so late
// registrations release immediately instead of leaking.
func (s *State) Children() *Composite {
	c := s.children.Load()
	if c == nil {
		c = NewComposite()
		if !s.children.CompareAndSwap(nil, c) {
			c = s.children.Load()
		}
	}
	// Begin loads the registry after claiming the flag, and this check loads
	// the flag after publishing the registry, so at least one side sees the
	// other and no attached resource escapes the drain.
	if s.IsDisposed() && !c.IsDisposed() {
		if err := c.Dispose(); err != nil {
			Logger().Warn("nested registry drain failed", zap.Error(err))
		}
	}
	return c
}

// WaitDisposed blocks until release has begun or ctx is done. It returns
// nil when disposal happened; already-disposed owners complete without
// blocking. A fired ctx surfaces as a cancellation error distinct from a
// release fault; use context.WithTimeout for a bounded wait.
func (s *State) WaitDisposed(ctx context.Context) error {
	if s.IsDisposed() {
		return nil
	}
	select {
	case <-s.Done():
		return nil
	case <-ctx.Done():
		return errors.Canceled(errors.PhaseWait, ctx.Err(), 0)
	}
}

func (s *State) signal() chan struct{} {
	if ch := s.done.Load(); ch != nil {
		return *ch
	}
	ch := make(chan struct{})
	if s.done.CompareAndSwap(nil, &ch) {
		return ch
	}
	return *s.done.Load()
}

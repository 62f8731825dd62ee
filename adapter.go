package disposable

import "go.uber.org/zap"

// HostAdapter bridges an external destroy notification into a
// coordinator's release path. The host environment promises at most one
// OnHostDestroyed call per owner; the adapter tolerates zero calls
// (explicit disposal happened first) and defends against repeats anyway.
//
// The destroyed flag is distinct from the target's disposal state because
// the host-destroy event and the release event are observable
// independently: a target disposed explicitly has still not been destroyed
// by the host.
type HostAdapter struct {
	target    Coordinator
	destroyed State
}

// NewHostAdapter creates an adapter releasing target on host destroy.
func NewHostAdapter(target Coordinator) *HostAdapter {
	return &HostAdapter{target: target}
}

// OnHostDestroyed handles the host's destroy notification. The first call
// performs a full synchronous release of the target; if explicit disposal
// already happened, all release logic is skipped. Later calls are no-ops.
//
// Host destroy notifications have no error channel, so release faults are
// logged rather than returned.
func (a *HostAdapter) OnHostDestroyed() {
	if !a.destroyed.Begin() {
		return
	}
	if a.target == nil || a.target.IsDisposed() {
		return
	}
	if err := a.target.Dispose(); err != nil {
		Logger().Error("release on host destroy failed", zap.Error(err))
	}
}

// HostDestroyed reports whether the destroy notification has been seen.
func (a *HostAdapter) HostDestroyed() bool {
	return a.destroyed.IsDisposed()
}

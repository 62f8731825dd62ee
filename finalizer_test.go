package disposable

import (
	"runtime"
	"sync/atomic"
	"testing"
)

func TestFinalize_UnmanagedOnly(t *testing.T) {
	var managed, unmanaged atomic.Int32
	c := NewComposite()
	if err := c.Add(Action(func() { managed.Add(1) })); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	c.AddUnmanaged(func() { unmanaged.Add(1) })

	c.finalize()

	if unmanaged.Load() != 1 {
		t.Fatalf("Expected unmanaged cleanup to run, got %d", unmanaged.Load())
	}
	if managed.Load() != 0 {
		t.Fatal("Finalizer path must not release managed children")
	}
	if !c.IsDisposed() {
		t.Fatal("Finalize claims the disposed flag")
	}

	// The gate is claimed: explicit dispose afterwards is a no-op and the
	// managed children stay leaked.
	if err := c.Dispose(); err != nil {
		t.Fatalf("Dispose after finalize must be a no-op, got %v", err)
	}
	if managed.Load() != 0 {
		t.Fatal("Managed children must not be released after finalize won the gate")
	}
}

func TestFinalize_ExplicitDisposeWins(t *testing.T) {
	var managed, unmanaged atomic.Int32
	c := NewComposite()
	if err := c.Add(Action(func() { managed.Add(1) })); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	c.AddUnmanaged(func() { unmanaged.Add(1) })

	if err := c.Dispose(); err != nil {
		t.Fatalf("Dispose failed: %v", err)
	}
	c.finalize()

	if managed.Load() != 1 {
		t.Fatalf("Expected 1 managed release, got %d", managed.Load())
	}
	if unmanaged.Load() != 1 {
		t.Fatalf("Expected 1 unmanaged cleanup, got %d", unmanaged.Load())
	}
}

func TestAttachFinalizer_ExplicitDisposeStillExact(t *testing.T) {
	var releases atomic.Int32
	c := NewComposite()
	if err := c.Add(Action(func() { releases.Add(1) })); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	AttachFinalizer(c)

	if err := c.Dispose(); err != nil {
		t.Fatalf("Dispose failed: %v", err)
	}

	// Even if the finalizer fires later, the gate was claimed by the
	// explicit call.
	runtime.GC()
	runtime.GC()

	if releases.Load() != 1 {
		t.Fatalf("Expected exactly 1 release, got %d", releases.Load())
	}
}

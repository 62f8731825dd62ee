package disposable

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestHostAdapter_DestroyReleasesTarget(t *testing.T) {
	var releases atomic.Int32
	target := NewComposite()
	if err := target.Add(Action(func() { releases.Add(1) })); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	a := NewHostAdapter(target)
	a.OnHostDestroyed()

	if releases.Load() != 1 {
		t.Fatalf("Expected 1 release, got %d", releases.Load())
	}
	if !a.HostDestroyed() {
		t.Fatal("Expected HostDestroyed")
	}
	if !target.IsDisposed() {
		t.Fatal("Expected target disposed")
	}
}

func TestHostAdapter_DoubleNotifyNoOp(t *testing.T) {
	var releases atomic.Int32
	target := NewComposite()
	if err := target.Add(Action(func() { releases.Add(1) })); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	a := NewHostAdapter(target)

	const goroutines = 16
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.OnHostDestroyed()
		}()
	}
	wg.Wait()

	if releases.Load() != 1 {
		t.Fatalf("Expected 1 release across concurrent notifications, got %d", releases.Load())
	}
}

func TestHostAdapter_ExplicitDisposeFirst(t *testing.T) {
	var releases atomic.Int32
	target := NewComposite()
	if err := target.Add(Action(func() { releases.Add(1) })); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	a := NewHostAdapter(target)

	if err := target.Dispose(); err != nil {
		t.Fatalf("Dispose failed: %v", err)
	}
	a.OnHostDestroyed()

	if releases.Load() != 1 {
		t.Fatalf("Destroy notification after explicit dispose must skip release, got %d", releases.Load())
	}
	if !a.HostDestroyed() {
		t.Fatal("The destroyed flag must fire even when release is skipped")
	}
}

func TestHostAdapter_NilTarget(t *testing.T) {
	a := NewHostAdapter(nil)
	a.OnHostDestroyed()
	a.OnHostDestroyed()

	if !a.HostDestroyed() {
		t.Fatal("Expected HostDestroyed")
	}
}

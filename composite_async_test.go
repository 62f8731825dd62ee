package disposable

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"testing"

	"github.com/Azzazelloqq/Disposable/errors"
)

func TestComposite_AsyncCategoryOrder(t *testing.T) {
	rec := &recorder{}
	c := NewComposite()

	nested := NewComposite()
	if err := nested.Add(&syncRes{rec, "nested", nil}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	// Registered immediate first, async second, nested last: the async
	// drain must still release nested, then async, then immediate.
	if err := c.Add(&syncRes{rec, "immediate", nil}, &asyncRes{rec, "async", nil}, nested); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := c.DisposeAsync(context.Background()); err != nil {
		t.Fatalf("DisposeAsync failed: %v", err)
	}

	expectOrder(t, rec.names(), []string{"nested", "async", "immediate"})
}

func TestComposite_AsyncCanceledBeforeStart(t *testing.T) {
	rec := &recorder{}
	c := NewComposite()

	if err := c.Add(&asyncRes{rec, "a", nil}, &asyncRes{rec, "b", nil}, &syncRes{rec, "c", nil}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.DisposeAsync(ctx)
	if err == nil {
		t.Fatal("Expected cancellation error")
	}
	if !stderrors.Is(err, errors.Canceled(errors.PhaseAsync, nil, 0)) {
		t.Fatalf("Expected async/canceled error, got %v", err)
	}
	if len(rec.names()) != 0 {
		t.Fatalf("No child may be released after pre-start cancellation, got %v", rec.names())
	}

	var de *errors.Error
	if !stderrors.As(err, &de) {
		t.Fatalf("Expected structured error, got %T", err)
	}
	if de.Leaked != 3 {
		t.Fatalf("Expected 3 leaked children, got %d", de.Leaked)
	}
	if !c.IsDisposed() {
		t.Fatal("A canceled drain still claims the disposed flag")
	}
}

func TestComposite_AsyncCanceledMidway(t *testing.T) {
	rec := &recorder{}
	c := NewComposite()
	ctx, cancel := context.WithCancel(context.Background())

	if err := c.Add(
		AsyncFunc(func(context.Context) error {
			rec.add("first")
			cancel()
			return nil
		}),
		&asyncRes{rec, "second", nil},
		&syncRes{rec, "third", nil},
	); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	err := c.DisposeAsync(ctx)
	if !stderrors.Is(err, errors.Canceled(errors.PhaseAsync, nil, 0)) {
		t.Fatalf("Expected async/canceled error, got %v", err)
	}
	expectOrder(t, rec.names(), []string{"first"})

	var de *errors.Error
	if !stderrors.As(err, &de) {
		t.Fatalf("Expected structured error, got %T", err)
	}
	if de.Leaked != 2 {
		t.Fatalf("Expected 2 leaked children, got %d", de.Leaked)
	}

	// The flag is claimed; the leaked children are unreachable forever.
	if err := c.DisposeAsync(context.Background()); err != nil {
		t.Fatalf("Second drain must be a no-op, got %v", err)
	}
	expectOrder(t, rec.names(), []string{"first"})
}

func TestComposite_AsyncCanceledRunsUnmanaged(t *testing.T) {
	rec := &recorder{}
	var unmanaged atomic.Int32
	c := NewComposite()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := c.Add(&asyncRes{rec, "a", nil}, &asyncRes{rec, "b", nil}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	c.AddUnmanaged(func() { unmanaged.Add(1) })

	err := c.DisposeAsync(ctx)
	if !stderrors.Is(err, errors.Canceled(errors.PhaseAsync, nil, 0)) {
		t.Fatalf("Expected async/canceled error, got %v", err)
	}
	if unmanaged.Load() != 1 {
		t.Fatal("Unmanaged cleanups must run even on a canceled drain")
	}

	// Leaked counts managed children only; the unmanaged cleanup ran.
	var de *errors.Error
	if !stderrors.As(err, &de) {
		t.Fatalf("Expected structured error, got %T", err)
	}
	if de.Leaked != 2 {
		t.Fatalf("Expected 2 leaked children, got %d", de.Leaked)
	}
	if len(rec.names()) != 0 {
		t.Fatalf("No managed child may be released, got %v", rec.names())
	}
}

func TestComposite_AsyncFaultIsolation(t *testing.T) {
	rec := &recorder{}
	boom := stderrors.New("boom")
	c := NewComposite()

	if err := c.Add(&asyncRes{rec, "a", boom}, &asyncRes{rec, "b", nil}, &syncRes{rec, "c", nil}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	err := c.DisposeAsync(context.Background())
	if !stderrors.Is(err, boom) {
		t.Fatalf("Expected fault to unwrap to a's error, got %v", err)
	}
	expectOrder(t, rec.names(), []string{"a", "b", "c"})
}

func TestComposite_AsyncCanceledSuppressesPriorFaults(t *testing.T) {
	rec := &recorder{}
	boom := stderrors.New("boom")
	c := NewComposite()
	ctx, cancel := context.WithCancel(context.Background())

	if err := c.Add(
		AsyncFunc(func(context.Context) error {
			rec.add("first")
			cancel()
			return boom
		}),
		&asyncRes{rec, "second", nil},
	); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	err := c.DisposeAsync(ctx)
	var de *errors.Error
	if !stderrors.As(err, &de) {
		t.Fatalf("Expected structured error, got %T", err)
	}
	if de.Kind != errors.KindCanceled {
		t.Fatalf("Expected canceled representative, got %v", de.Kind)
	}

	suppressed := de.SuppressedErrors()
	if len(suppressed) != 1 {
		t.Fatalf("Expected the prior fault suppressed, got %d", len(suppressed))
	}
	if !stderrors.Is(suppressed[0], boom) {
		t.Fatalf("Expected suppressed fault to unwrap to boom, got %v", suppressed[0])
	}
}

func TestComposite_AsyncContextThreaded(t *testing.T) {
	type ctxKey struct{}
	c := NewComposite()
	var seen any

	if err := c.Add(AsyncFunc(func(ctx context.Context) error {
		seen = ctx.Value(ctxKey{})
		return nil
	})); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	ctx := context.WithValue(context.Background(), ctxKey{}, "token")
	if err := c.DisposeAsync(ctx); err != nil {
		t.Fatalf("DisposeAsync failed: %v", err)
	}
	if seen != "token" {
		t.Fatal("Cancellation token was not threaded through to the child")
	}
}

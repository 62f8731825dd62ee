// Package disposable provides a resource-teardown coordinator: exactly-once,
// thread-safe release of a heterogeneous set of owned resources,
// synchronously or asynchronously, with cancellation support, partial-failure
// tolerance, and observability of completion.
//
// # Architecture Overview
//
// The library is organized into a small set of packages:
//
//	disposable/          Root package: capability interfaces, State, Composite,
//	│                    host adapter, finalizer hook, collection helpers
//	├── errors/          Structured error types (phase/kind taxonomy)
//	└── testbed/         Scenario-driven disposal trees for tests and the CLI
//
// # Capabilities
//
// A registrable resource satisfies one of three capability interfaces:
//
//	Disposable       Dispose() error                      immediate release
//	AsyncDisposable  DisposeAsync(ctx) error              cancellable async release
//	Coordinator      both, plus IsDisposed/Done           nested composite
//
// # Quick Start
//
// Register resources into a Composite and dispose once:
//
//	c := disposable.NewComposite()
//	c.Add(conn, cache, workerPool)
//
//	// later, from any goroutine; only the first call does the work
//	if err := c.DisposeAsync(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Composites nest: a Composite registered into another drains its own
// children when the parent drains.
//
// # Exactly-Once Semantics
//
// Every owner of sub-resources carries a State, an atomic undisposed-to-
// disposed transition. Begin succeeds for exactly one caller regardless of
// how many goroutines race; redundant release requests are silent no-ops.
// The moment Begin succeeds, the Done channel closes, releasing anyone
// blocked in WaitDisposed.
//
// # Ordering and Failure Isolation
//
// Release order is registration order within each category, never
// dependency order. Synchronous drains release immediate children first,
// then nested, then asynchronous children through a blocking adaptation
// (diagnosed with a warning, since blocking on an asynchronous release
// defeats its purpose). Asynchronous drains release nested children first,
// then asynchronous, then immediate.
//
// A child's release fault never prevents sibling release: every child is
// attempted. The first fault is surfaced; later faults ride along as
// suppressed errors.
//
// # Cancellation
//
// The context passed to DisposeAsync is checked before each child's
// release. Cancelling it aborts the drain with a canceled error; children
// not yet released are leaked, because the disposed flag was already
// claimed and no second drain can happen. The leak is logged, never silent.
//
// # Thread Safety
//
// All exported types are safe for concurrent use. The registry mutex is
// held only for mutation and snapshot, never across a child's release, so
// releases may register grandchildren without deadlock.
//
// # Logging
//
// The package logs diagnostics through go.uber.org/zap and is silent by
// default. Call SetLogger to receive warnings about blocking adaptations,
// suppressed faults, and leaked children.
package disposable

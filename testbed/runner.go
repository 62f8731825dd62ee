package testbed

import (
	"context"
	"errors"
	"sync"
	"time"

	disposable "github.com/Azzazelloqq/Disposable"
)

// Event reports one simulated resource release.
type Event struct {
	Name    string
	Kind    Kind
	Err     error
	Elapsed time.Duration
}

// Report summarizes a drain.
type Report struct {
	Scenario string
	Mode     Mode
	Total    int     // leaf resources in the tree
	Events   []Event // releases in the order they happened
	Err      error   // representative drain error, nil on clean drain
	Elapsed  time.Duration
}

// Released returns the names of released resources in release order.
func (r *Report) Released() []string {
	names := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		if e.Err == nil {
			names = append(names, e.Name)
		}
	}
	return names
}

// Failed returns the events whose release faulted.
func (r *Report) Failed() []Event {
	var failed []Event
	for _, e := range r.Events {
		if e.Err != nil {
			failed = append(failed, e)
		}
	}
	return failed
}

// Runner builds a scenario's resource tree and drains it once.
type Runner struct {
	scenario *Scenario
	observer func(Event)

	mu     sync.Mutex
	events []Event
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithObserver streams each release event as it happens. The callback runs
// on the draining goroutine and must not block for long.
func WithObserver(fn func(Event)) RunnerOption {
	return func(r *Runner) {
		r.observer = fn
	}
}

// NewRunner creates a runner for the given scenario.
func NewRunner(s *Scenario, opts ...RunnerOption) *Runner {
	r := &Runner{scenario: s}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run builds the tree and drains it according to the scenario mode.
func (r *Runner) Run(ctx context.Context) *Report {
	root := r.newComposite()
	r.build(root, r.scenario.Resources)

	start := time.Now()
	var err error
	switch r.scenario.Mode {
	case ModeAsync:
		drainCtx := ctx
		if r.scenario.Timeout > 0 {
			var cancel context.CancelFunc
			drainCtx, cancel = context.WithTimeout(ctx, r.scenario.Timeout.Std())
			defer cancel()
		}
		err = root.DisposeAsync(drainCtx)
	default:
		err = root.Dispose()
	}

	r.mu.Lock()
	events := make([]Event, len(r.events))
	copy(events, r.events)
	r.mu.Unlock()

	return &Report{
		Scenario: r.scenario.Name,
		Mode:     r.scenario.Mode,
		Total:    r.scenario.Total(),
		Events:   events,
		Err:      err,
		Elapsed:  time.Since(start),
	}
}

func (r *Runner) newComposite() *disposable.Composite {
	if r.scenario.Strict {
		return disposable.NewComposite(disposable.WithStrictSync())
	}
	return disposable.NewComposite()
}

func (r *Runner) build(c *disposable.Composite, specs []ResourceSpec) {
	for _, spec := range specs {
		switch spec.Kind {
		case KindAsync:
			_ = c.Add(&fakeAsync{runner: r, spec: spec})
		case KindComposite:
			child := r.newComposite()
			r.build(child, spec.Children)
			_ = c.Add(child)
		default:
			_ = c.Add(&fakeImmediate{runner: r, spec: spec})
		}
	}
}

func (r *Runner) record(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	if r.observer != nil {
		r.observer(e)
	}
}

// fakeImmediate simulates a resource with blocking release.
type fakeImmediate struct {
	runner *Runner
	spec   ResourceSpec
}

func (f *fakeImmediate) Dispose() error {
	start := time.Now()
	if f.spec.Delay > 0 {
		time.Sleep(f.spec.Delay.Std())
	}
	var err error
	if f.spec.Fail != "" {
		err = errors.New(f.spec.Fail)
	}
	f.runner.record(Event{Name: f.spec.Name, Kind: KindImmediate, Err: err, Elapsed: time.Since(start)})
	return err
}

// fakeAsync simulates a resource with cancellable asynchronous release.
type fakeAsync struct {
	runner *Runner
	spec   ResourceSpec
}

func (f *fakeAsync) DisposeAsync(ctx context.Context) error {
	start := time.Now()
	if f.spec.Delay > 0 {
		t := time.NewTimer(f.spec.Delay.Std())
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			err := ctx.Err()
			f.runner.record(Event{Name: f.spec.Name, Kind: KindAsync, Err: err, Elapsed: time.Since(start)})
			return err
		}
	}
	var err error
	if f.spec.Fail != "" {
		err = errors.New(f.spec.Fail)
	}
	f.runner.record(Event{Name: f.spec.Name, Kind: KindAsync, Err: err, Elapsed: time.Since(start)})
	return err
}

package store

import (
	"context"
	"sync"
)

// Tasks tracks in-flight asynchronous work. The zero value is not
// usable; construct with NewTasks. Package-level Task, StartTask, and
// AllTasks delegate to a shared default tracker; independent test runs
// or server requests can construct isolated trackers instead.
type Tasks struct {
	mu    sync.Mutex
	count int

	// quiet is closed whenever count is zero and replaced on the next
	// increment.
	quiet chan struct{}
}

// NewTasks creates an idle tracker.
func NewTasks() *Tasks {
	quiet := make(chan struct{})
	close(quiet)
	return &Tasks{quiet: quiet}
}

// Start increments the in-flight count and returns the matching
// decrement. The returned function is idempotent and must be called
// once the unit of work settles, success or failure.
func (t *Tasks) Start() (done func()) {
	t.mu.Lock()
	t.count++
	if t.count == 1 {
		t.quiet = make(chan struct{})
	}
	t.mu.Unlock()
	statTasks.Add(1)

	var once sync.Once
	return func() {
		once.Do(func() {
			statTasks.Add(-1)
			t.mu.Lock()
			t.count--
			if t.count == 0 {
				close(t.quiet)
			}
			t.mu.Unlock()
		})
	}
}

// Len reports the current in-flight count.
func (t *Tasks) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

// Wait blocks until the in-flight count reaches zero, re-checking
// after every wakeup so tasks started while waiting are included, or
// until ctx is done.
func (t *Tasks) Wait(ctx context.Context) error {
	for {
		t.mu.Lock()
		if t.count == 0 {
			t.mu.Unlock()
			return nil
		}
		quiet := t.quiet
		t.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-quiet:
		}
	}
}

// Go runs fn on a new goroutine, tracked for the duration of the call.
func (t *Tasks) Go(fn func()) {
	done := t.Start()
	go func() {
		defer done()
		fn()
	}()
}

// defaultTasks is the process-wide tracker used by the package-level
// helpers.
var defaultTasks = NewTasks()

// DefaultTasks returns the process-wide tracker.
func DefaultTasks() *Tasks { return defaultTasks }

// Task runs fn bracketed by the default tracker's in-flight count and
// returns its result. The count is decremented even if fn panics.
func Task[R any](fn func() (R, error)) (R, error) {
	return TaskIn(defaultTasks, fn)
}

// TaskIn is Task against an explicit tracker.
func TaskIn[R any](t *Tasks, fn func() (R, error)) (R, error) {
	done := t.Start()
	defer done()
	return fn()
}

// StartTask increments the default tracker's in-flight count and
// returns the matching decrement, for code that cannot be expressed as
// a single callable.
func StartTask() (done func()) {
	return defaultTasks.Start()
}

// AllTasks blocks until the default tracker is quiescent: every task
// started before the call, and every task transitively spawned by one
// before quiescence is observed, has settled.
func AllTasks(ctx context.Context) error {
	return defaultTasks.Wait(ctx)
}

package store

import "sync"

// Computed is a read-only store whose value is derived from one or
// more source stores. While it has listeners it stays subscribed to
// every source, recomputes synchronously on any source notification,
// and notifies its own listeners only when the derived value changes.
// Without listeners it is disabled: it holds no source subscriptions
// and no memoized value, and Get recomputes on demand.
type Computed[T any] struct {
	baseStore

	mu    sync.RWMutex
	value T
	valid bool

	deps    []Dependency
	compute func() T
	unbinds []func()

	subs        registry[T]
	notifyHooks hooks[*NotifyEvent]

	equal func(T, T) bool
}

// NewComputed creates a computed store deriving its value from the
// given source stores. compute must be pure over the sources' current
// values, reading them with their Get methods; deps lists every store
// it reads, in order. The derivation does not run until the computed
// store gains its first listener.
func NewComputed[T any](deps []Dependency, compute func() T) *Computed[T] {
	c := &Computed[T]{
		baseStore: newBaseStore(),
		deps:      deps,
		compute:   compute,
	}
	c.lc.addStart(c.activate)
	c.lc.addStop(c.deactivate)
	return c
}

// Get returns the derived value. While the computed store is active
// the memoized value is returned; otherwise the derivation runs on
// demand.
func (c *Computed[T]) Get() T {
	c.mu.RLock()
	if c.valid {
		defer c.mu.RUnlock()
		return c.value
	}
	c.mu.RUnlock()
	return c.runCompute()
}

// Subscribe registers fn, invokes it immediately once with the current
// derived value, and returns an unsubscribe function. The first
// subscriber activates the computed store and, transitively, its
// sources.
func (c *Computed[T]) Subscribe(fn func(value T)) func() {
	unbind := c.Listen(fn)
	invoke(fn, c.Get())
	return unbind
}

// Listen registers fn without an immediate invocation.
func (c *Computed[T]) Listen(fn func(value T)) func() {
	return c.addListener(fn)
}

// OnNotify registers an interception hook invoked after a
// recomputation produced a new value, before listeners are informed.
// Returns an unbind function.
func (c *Computed[T]) OnNotify(fn func(*NotifyEvent)) func() {
	id := c.notifyHooks.add(fn)
	return func() { c.notifyHooks.remove(id) }
}

// WithEquals configures a custom equality function used to decide
// whether a recomputation produced a new value.
func (c *Computed[T]) WithEquals(fn func(T, T) bool) *Computed[T] {
	c.equal = fn
	return c
}

// activate subscribes to every source and computes the initial value.
func (c *Computed[T]) activate() {
	for _, dep := range c.deps {
		c.unbinds = append(c.unbinds, dep.listenChange(c.onSourceChange))
	}

	value := c.runCompute()
	c.mu.Lock()
	c.value = value
	c.valid = true
	c.mu.Unlock()
}

// deactivate releases the sources and drops the memoized value.
func (c *Computed[T]) deactivate() {
	for _, unbind := range c.unbinds {
		unbind()
	}
	c.unbinds = nil

	var zero T
	c.mu.Lock()
	c.value = zero
	c.valid = false
	c.mu.Unlock()
}

// onSourceChange recomputes and notifies listeners if the derived
// value changed.
func (c *Computed[T]) onSourceChange() {
	next := c.runCompute()

	c.mu.Lock()
	if !c.valid {
		c.mu.Unlock()
		return
	}
	if c.equals(c.value, next) {
		c.mu.Unlock()
		return
	}
	c.value = next
	c.mu.Unlock()

	if !c.notifyHooks.dispatch(&NotifyEvent{}) {
		return
	}
	c.subs.notify(next)
}

// runCompute runs the derivation with panic isolation: a panicking
// derivation is routed to ErrorHandler and the zero value is returned,
// leaving registry state intact.
func (c *Computed[T]) runCompute() (result T) {
	defer func() {
		if rec := recover(); rec != nil {
			ErrorHandler(rec)
		}
	}()
	return c.compute()
}

func (c *Computed[T]) equals(a, b T) bool {
	if c.equal != nil {
		return c.equal(a, b)
	}
	return defaultEquals(a, b)
}

func (c *Computed[T]) addListener(fn func(T)) func() {
	id := c.subs.add(fn, nil)
	c.lc.listenerAdded()
	statListeners.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() {
			if c.subs.remove(id) {
				statListeners.Add(-1)
				c.lc.listenerRemoved()
			}
		})
	}
}

func (c *Computed[T]) listenChange(fn func()) func() {
	return c.addListener(func(T) { fn() })
}

func (c *Computed[T]) keep() func() {
	return c.Listen(func(T) {})
}

func (c *Computed[T]) reset() {
	statListeners.Add(-int64(c.subs.count()))
	c.subs.clear()
	c.notifyHooks.clear()
	c.actions.clear()
	c.lc.reset()
	c.lc.addStart(c.activate)
	c.lc.addStop(c.deactivate)
}

var (
	_ Store      = (*Computed[int])(nil)
	_ Dependency = (*Computed[int])(nil)
)

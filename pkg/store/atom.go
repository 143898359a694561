package store

import "sync"

// Atom is a single-value reactive container. The value is replaced
// wholesale on Set; it is never mutated key by key.
type Atom[T any] struct {
	baseStore

	mu    sync.RWMutex
	value T

	subs        registry[T]
	setHooks    hooks[*SetEvent[T]]
	notifyHooks hooks[*NotifyEvent]

	// equal determines whether a Set carries a new value. If nil,
	// defaultEquals is used.
	equal func(T, T) bool
}

// NewAtom creates an atom holding initial.
func NewAtom[T any](initial T) *Atom[T] {
	return &Atom[T]{
		baseStore: newBaseStore(),
		value:     initial,
	}
}

// Get returns the current value.
func (a *Atom[T]) Get() T {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.value
}

// Set replaces the stored value and notifies listeners. Setting a
// value equal to the current one is a no-op. OnSet hooks run before
// the value changes and may abort the mutation; OnNotify hooks run
// after the value changes and may suppress only the notification.
func (a *Atom[T]) Set(value T) {
	a.mu.Lock()
	if a.equals(a.value, value) {
		a.mu.Unlock()
		return
	}
	a.mu.Unlock()

	ev := &SetEvent[T]{NewValue: value}
	if !a.setHooks.dispatch(ev) {
		return
	}

	a.mu.Lock()
	a.value = ev.NewValue
	next := a.value
	a.mu.Unlock()

	if !a.notifyHooks.dispatch(&NotifyEvent{}) {
		return
	}
	a.subs.notify(next)
}

// Update atomically derives the next value from the current one.
func (a *Atom[T]) Update(fn func(T) T) {
	a.mu.RLock()
	current := a.value
	a.mu.RUnlock()
	a.Set(fn(current))
}

// Subscribe registers fn, invokes it immediately once with the current
// value, and returns an unsubscribe function.
func (a *Atom[T]) Subscribe(fn func(value T)) func() {
	unbind := a.Listen(fn)
	invoke(fn, a.Get())
	return unbind
}

// Listen registers fn without an immediate invocation and returns an
// unsubscribe function.
func (a *Atom[T]) Listen(fn func(value T)) func() {
	return a.addListener(fn, nil)
}

// OnSet registers an interception hook invoked before every mutation.
// Returns an unbind function.
func (a *Atom[T]) OnSet(fn func(*SetEvent[T])) func() {
	id := a.setHooks.add(fn)
	return func() { a.setHooks.remove(id) }
}

// OnNotify registers an interception hook invoked after a mutation,
// before listeners are informed. Returns an unbind function.
func (a *Atom[T]) OnNotify(fn func(*NotifyEvent)) func() {
	id := a.notifyHooks.add(fn)
	return func() { a.notifyHooks.remove(id) }
}

// WithEquals configures a custom equality function used by Set to
// detect redundant writes.
func (a *Atom[T]) WithEquals(fn func(T, T) bool) *Atom[T] {
	a.equal = fn
	return a
}

func (a *Atom[T]) equals(x, y T) bool {
	if a.equal != nil {
		return a.equal(x, y)
	}
	return defaultEquals(x, y)
}

func (a *Atom[T]) addListener(fn func(T), filter func(T) bool) func() {
	id := a.subs.add(fn, filter)
	a.lc.listenerAdded()
	statListeners.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() {
			if a.subs.remove(id) {
				statListeners.Add(-1)
				a.lc.listenerRemoved()
			}
		})
	}
}

func (a *Atom[T]) listenChange(fn func()) func() {
	return a.addListener(func(T) { fn() }, nil)
}

func (a *Atom[T]) keep() func() {
	return a.Listen(func(T) {})
}

func (a *Atom[T]) reset() {
	statListeners.Add(-int64(a.subs.count()))
	a.subs.clear()
	a.setHooks.clear()
	a.notifyHooks.clear()
	a.actions.clear()
	a.lc.reset()
}

var (
	_ Store      = (*Atom[int])(nil)
	_ Dependency = (*Atom[int])(nil)
)

package store

import "sync"

// SetEvent is passed to OnSet hooks before a mutation is applied.
// Key is set for Map.SetKey/DeleteKey mutations and Path for
// DeepMap mutations; both are zero for whole-value sets.
// NewValue is the value the store will hold if no hook aborts.
type SetEvent[T any] struct {
	NewValue T
	Key      string
	Path     Path

	aborted bool
}

// Abort cancels the pending mutation. The store's value is left
// unchanged and no notification occurs.
func (e *SetEvent[T]) Abort() { e.aborted = true }

func (e *SetEvent[T]) isAborted() bool { return e.aborted }

// NotifyEvent is passed to OnNotify hooks after a mutation is applied
// but before listeners are informed. Key and Path identify the change
// the same way they do on SetEvent.
type NotifyEvent struct {
	Key  string
	Path Path

	aborted bool
}

// Abort suppresses the pending notification. The store's internal
// value has already changed at this point and stays changed; only the
// listener notification is dropped.
func (e *NotifyEvent) Abort() { e.aborted = true }

func (e *NotifyEvent) isAborted() bool { return e.aborted }

// abortable is implemented by every interception event.
type abortable interface{ isAborted() bool }

// hookEntry is one registered interception callback.
type hookEntry[E abortable] struct {
	id uint64
	fn func(E)
}

// hooks is the ordered per-store, per-hook-point callback registry.
type hooks[E abortable] struct {
	mu      sync.Mutex
	entries []hookEntry[E]
}

func (h *hooks[E]) add(fn func(E)) uint64 {
	id := nextID()
	h.mu.Lock()
	h.entries = append(h.entries, hookEntry[E]{id: id, fn: fn})
	h.mu.Unlock()
	return id
}

func (h *hooks[E]) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, e := range h.entries {
		if e.id == id {
			h.entries = append(h.entries[:i], h.entries[i+1:]...)
			return
		}
	}
}

func (h *hooks[E]) clear() {
	h.mu.Lock()
	h.entries = nil
	h.mu.Unlock()
}

// dispatch invokes the hooks in registration order, stopping early if
// one aborts the event. Reports whether the triggering operation may
// proceed.
func (h *hooks[E]) dispatch(ev E) bool {
	h.mu.Lock()
	snapshot := make([]hookEntry[E], len(h.entries))
	copy(snapshot, h.entries)
	h.mu.Unlock()

	for _, e := range snapshot {
		e.fn(ev)
		if ev.isAborted() {
			return false
		}
	}
	return true
}

// ActionEvent is passed to OnAction hooks once per action execution,
// before the action's function runs. Shared is a mutable bag visible
// to every hook of that single execution.
type ActionEvent struct {
	// ID uniquely identifies this execution.
	ID uint64

	// Name is the action name given to Action.
	Name string

	// Shared carries state between hooks of the same execution.
	Shared map[string]any

	mu      sync.Mutex
	onError []func(error)
	onEnd   []func()
	settled bool
}

func (e *ActionEvent) isAborted() bool { return false }

// OnError registers a handler invoked if the action's function returns
// an error or panics.
func (e *ActionEvent) OnError(fn func(error)) {
	e.mu.Lock()
	e.onError = append(e.onError, fn)
	e.mu.Unlock()
}

// OnEnd registers a handler invoked exactly once after the action
// settles, success or failure, after any OnError handlers.
func (e *ActionEvent) OnEnd(fn func()) {
	e.mu.Lock()
	e.onEnd = append(e.onEnd, fn)
	e.mu.Unlock()
}

// fireError routes err to the registered error handlers.
func (e *ActionEvent) fireError(err error) {
	e.mu.Lock()
	handlers := make([]func(error), len(e.onError))
	copy(handlers, e.onError)
	e.mu.Unlock()
	for _, fn := range handlers {
		fn(err)
	}
}

// fireEnd runs the end handlers. Idempotent.
func (e *ActionEvent) fireEnd() {
	e.mu.Lock()
	if e.settled {
		e.mu.Unlock()
		return
	}
	e.settled = true
	handlers := make([]func(), len(e.onEnd))
	copy(handlers, e.onEnd)
	e.mu.Unlock()
	for _, fn := range handlers {
		fn()
	}
}

// OnAction registers fn to be invoked once per execution of any action
// bound to s, before the action's function runs. Returns an unbind
// function.
func OnAction(s Store, fn func(*ActionEvent)) func() {
	h := s.actionHooks()
	id := h.add(fn)
	return func() { h.remove(id) }
}

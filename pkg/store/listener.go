package store

import (
	"log/slog"
	"sync"
)

// DebugMode enables diagnostic logging throughout the store package.
// This should be set at startup and not changed during runtime.
var DebugMode bool

// ErrorHandler receives values recovered from panicking listener and
// derivation callbacks. A panicking callback never prevents the
// remaining listeners of the same notification pass from running; the
// recovered value is routed here instead. Replaceable for tests or for
// hosts that want panics to crash.
var ErrorHandler = func(recovered any) {
	slog.Default().Error("store: listener panic", "recovered", recovered)
}

// listenerEntry is one registered callback, optionally gated by a
// payload filter (used for key- and path-filtered listeners).
type listenerEntry[P any] struct {
	id     uint64
	fn     func(P)
	filter func(P) bool
}

// registry is the ordered subscriber set shared by every store kind.
// Listeners are notified in registration order over a snapshot taken
// at the start of the pass, so callbacks may add or remove listeners
// without corrupting the pass in progress.
type registry[P any] struct {
	mu      sync.Mutex
	entries []listenerEntry[P]
}

// add registers fn and returns its listener ID. A nil filter means the
// listener receives every notification.
func (r *registry[P]) add(fn func(P), filter func(P) bool) uint64 {
	id := nextID()
	r.mu.Lock()
	r.entries = append(r.entries, listenerEntry[P]{id: id, fn: fn, filter: filter})
	r.mu.Unlock()
	return id
}

// remove unregisters the listener with the given ID. Reports whether
// the listener was still registered. Removal preserves registration
// order of the remaining entries.
func (r *registry[P]) remove(id uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if e.id == id {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return true
		}
	}
	return false
}

// count reports the number of registered listeners.
func (r *registry[P]) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// clear drops every registered listener.
func (r *registry[P]) clear() {
	r.mu.Lock()
	r.entries = nil
	r.mu.Unlock()
}

// notify invokes every listener registered at the start of the pass,
// in registration order. Filtered entries whose filter rejects the
// payload are skipped. Panics are isolated per callback.
func (r *registry[P]) notify(payload P) {
	r.mu.Lock()
	snapshot := make([]listenerEntry[P], len(r.entries))
	copy(snapshot, r.entries)
	r.mu.Unlock()

	for _, e := range snapshot {
		if e.filter != nil && !e.filter(payload) {
			continue
		}
		invoke(e.fn, payload)
		statNotifications.Add(1)
	}
}

// invoke runs fn with panic isolation.
func invoke[P any](fn func(P), payload P) {
	defer func() {
		if rec := recover(); rec != nil {
			ErrorHandler(rec)
		}
	}()
	fn(payload)
}

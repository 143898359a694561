package store

import (
	"sync"
	"time"
)

// StopDelay is how long a store stays active after its last listener
// leaves before its stop handlers run. A new listener arriving within
// the window cancels the pending stop with no observable flicker.
// Tests may shorten it; change it only at startup otherwise.
var StopDelay = time.Second

// Cleanup is a function returned by a mount handler to tear down
// whatever the handler set up. It runs when the store deactivates.
type Cleanup func()

// lifecycleState tracks whether a store currently has observers.
type lifecycleState int

const (
	// stateDisabled means the store has no listeners and its mount
	// side effects are torn down.
	stateDisabled lifecycleState = iota

	// stateActive means the store has at least one listener and its
	// start handlers have run.
	stateActive

	// stateStopping means the last listener left and the deactivation
	// timer is pending.
	stateStopping
)

// hookFn is one registered lifecycle handler.
type hookFn struct {
	id uint64
	fn func()
}

// lifecycle tracks active-listener transitions for one store and owns
// the debounced deactivation timer.
type lifecycle struct {
	mu         sync.Mutex
	state      lifecycleState
	live       int
	startHooks []hookFn
	stopHooks  []hookFn
	stopTimer  *time.Timer
	stopSeq    uint64
}

func (l *lifecycle) addStart(fn func()) uint64 {
	id := nextID()
	l.mu.Lock()
	l.startHooks = append(l.startHooks, hookFn{id: id, fn: fn})
	l.mu.Unlock()
	return id
}

func (l *lifecycle) addStop(fn func()) uint64 {
	id := nextID()
	l.mu.Lock()
	l.stopHooks = append(l.stopHooks, hookFn{id: id, fn: fn})
	l.mu.Unlock()
	return id
}

func (l *lifecycle) removeStart(id uint64) {
	l.mu.Lock()
	l.startHooks = removeHook(l.startHooks, id)
	l.mu.Unlock()
}

func (l *lifecycle) removeStop(id uint64) {
	l.mu.Lock()
	l.stopHooks = removeHook(l.stopHooks, id)
	l.mu.Unlock()
}

func removeHook(hooks []hookFn, id uint64) []hookFn {
	for i, h := range hooks {
		if h.id == id {
			return append(hooks[:i], hooks[i+1:]...)
		}
	}
	return hooks
}

// active reports whether the store currently counts as mounted.
// A store in the stop window is still mounted.
func (l *lifecycle) active() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state != stateDisabled
}

// listenerAdded records a new listener. On the 0->1 transition the
// start handlers run synchronously, in registration order. A listener
// arriving during the stop window cancels the pending stop without
// re-running the start handlers.
func (l *lifecycle) listenerAdded() {
	l.mu.Lock()
	l.live++
	switch l.state {
	case stateStopping:
		l.cancelStopLocked()
		l.state = stateActive
		l.mu.Unlock()
		return
	case stateActive:
		l.mu.Unlock()
		return
	}
	l.state = stateActive
	hooks := snapshotHooks(l.startHooks)
	l.mu.Unlock()

	statMounted.Add(1)
	for _, h := range hooks {
		h.fn()
	}
}

// listenerRemoved records a departed listener. When the live count
// reaches zero the stop handlers are scheduled after StopDelay.
func (l *lifecycle) listenerRemoved() {
	l.mu.Lock()
	if l.live > 0 {
		l.live--
	}
	if l.live > 0 || l.state != stateActive {
		l.mu.Unlock()
		return
	}
	l.state = stateStopping
	l.stopSeq++
	seq := l.stopSeq
	l.stopTimer = time.AfterFunc(StopDelay, func() {
		l.fireStop(seq)
	})
	l.mu.Unlock()
}

// fireStop runs the stop handlers if the timer that scheduled it is
// still current.
func (l *lifecycle) fireStop(seq uint64) {
	l.mu.Lock()
	if l.state != stateStopping || l.stopSeq != seq {
		l.mu.Unlock()
		return
	}
	l.state = stateDisabled
	l.stopTimer = nil
	hooks := snapshotHooks(l.stopHooks)
	l.mu.Unlock()

	statMounted.Add(-1)
	for _, h := range hooks {
		h.fn()
	}
}

// cancelStopLocked stops a pending deactivation timer. Caller holds mu.
func (l *lifecycle) cancelStopLocked() {
	if l.stopTimer != nil {
		l.stopTimer.Stop()
		l.stopTimer = nil
	}
}

// reset forcibly deactivates the store, bypassing the stop delay. Stop
// handlers run if the store was mounted. All lifecycle hooks are
// dropped afterward. Intended for test isolation via CleanStores.
func (l *lifecycle) reset() {
	l.mu.Lock()
	l.cancelStopLocked()
	wasMounted := l.state != stateDisabled
	hooks := snapshotHooks(l.stopHooks)
	l.state = stateDisabled
	l.live = 0
	l.stopSeq++
	l.startHooks = nil
	l.stopHooks = nil
	l.mu.Unlock()

	if wasMounted {
		statMounted.Add(-1)
		for _, h := range hooks {
			h.fn()
		}
	}
}

func snapshotHooks(hooks []hookFn) []hookFn {
	out := make([]hookFn, len(hooks))
	copy(out, hooks)
	return out
}

// OnStart registers fn to run synchronously the moment the store's
// listener count transitions from zero to one. Returns an unbind
// function.
func OnStart(s Store, fn func()) func() {
	lc := s.lifecycle()
	id := lc.addStart(fn)
	return func() { lc.removeStart(id) }
}

// OnStop registers fn to run once the store's listener count returns
// to zero and StopDelay elapses with no new listener. Returns an
// unbind function.
func OnStop(s Store, fn func()) func() {
	lc := s.lifecycle()
	id := lc.addStop(fn)
	return func() { lc.removeStop(id) }
}

// OnMount registers fn as a start handler and treats its returned
// Cleanup, if any, as the matching stop handler. If the store is
// already mounted, fn runs immediately. Returns an unbind function.
func OnMount(s Store, fn func() Cleanup) func() {
	lc := s.lifecycle()

	var mu sync.Mutex
	var cleanup Cleanup

	start := func() {
		c := fn()
		mu.Lock()
		cleanup = c
		mu.Unlock()
	}
	stop := func() {
		mu.Lock()
		c := cleanup
		cleanup = nil
		mu.Unlock()
		if c != nil {
			c()
		}
	}

	startID := lc.addStart(start)
	stopID := lc.addStop(stop)

	if lc.active() {
		start()
	}

	return func() {
		lc.removeStart(startID)
		lc.removeStop(stopID)
	}
}

// KeepMount registers a permanent no-op listener, holding the store
// active without a real consumer. Used by tests and server-side
// rendering. Returns the unsubscribe function for the hidden listener.
func KeepMount(s Store) func() {
	return s.keep()
}

// CleanStores forcibly removes all listeners and hooks from the given
// stores and resets their lifecycle state, bypassing the stop delay.
// Stop handlers of mounted stores run immediately. Intended only for
// test isolation.
func CleanStores(stores ...Store) {
	for _, s := range stores {
		if s != nil {
			s.reset()
		}
	}
}

package store

import (
	"slices"
	"sync"
)

// mapChange is the notification payload for Map listeners. An empty
// key means the whole value was replaced.
type mapChange[V any] struct {
	value map[string]V
	key   string
}

// Map is a reactive container for a flat string-keyed object. Writes
// copy the underlying map, so values handed to listeners and returned
// by Get stay stable snapshots.
type Map[V any] struct {
	baseStore

	mu    sync.RWMutex
	value map[string]V

	subs        registry[mapChange[V]]
	setHooks    hooks[*SetEvent[map[string]V]]
	notifyHooks hooks[*NotifyEvent]

	equal func(V, V) bool
}

// NewMap creates a map store holding initial. A nil initial becomes an
// empty map.
func NewMap[V any](initial map[string]V) *Map[V] {
	if initial == nil {
		initial = map[string]V{}
	}
	return &Map[V]{
		baseStore: newBaseStore(),
		value:     initial,
	}
}

// Get returns the current value as a read-only snapshot.
func (m *Map[V]) Get() map[string]V {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.value
}

// GetKey returns the value stored under key.
func (m *Map[V]) GetKey(key string) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.value[key]
	return v, ok
}

// Set replaces the whole value and notifies listeners with an empty
// changed key, meaning no single key changed. Replacing with an equal
// map is a no-op.
func (m *Map[V]) Set(value map[string]V) {
	if value == nil {
		value = map[string]V{}
	}
	m.mu.Lock()
	if defaultEquals(m.value, value) {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	ev := &SetEvent[map[string]V]{NewValue: value}
	if !m.setHooks.dispatch(ev) {
		return
	}

	m.mu.Lock()
	m.value = ev.NewValue
	next := m.value
	m.mu.Unlock()

	m.notify(next, "")
}

// SetKey assigns value under key. Assigning a value equal to the
// current one is a no-op. Listeners are notified with the changed key.
func (m *Map[V]) SetKey(key string, value V) {
	m.mu.RLock()
	current, exists := m.value[key]
	m.mu.RUnlock()
	if exists && m.equals(current, value) {
		return
	}

	m.mutateKey(key, func(next map[string]V) {
		next[key] = value
	})
}

// DeleteKey removes key from the stored object. Removing an absent key
// is a no-op.
func (m *Map[V]) DeleteKey(key string) {
	m.mu.RLock()
	_, exists := m.value[key]
	m.mu.RUnlock()
	if !exists {
		return
	}

	m.mutateKey(key, func(next map[string]V) {
		delete(next, key)
	})
}

// mutateKey copies the current value, applies apply to the copy, and
// runs the mutation through the set and notify hooks.
func (m *Map[V]) mutateKey(key string, apply func(next map[string]V)) {
	m.mu.RLock()
	next := make(map[string]V, len(m.value)+1)
	for k, v := range m.value {
		next[k] = v
	}
	m.mu.RUnlock()
	apply(next)

	ev := &SetEvent[map[string]V]{NewValue: next, Key: key}
	if !m.setHooks.dispatch(ev) {
		return
	}

	m.mu.Lock()
	m.value = ev.NewValue
	applied := m.value
	m.mu.Unlock()

	m.notify(applied, key)
}

func (m *Map[V]) notify(value map[string]V, key string) {
	if !m.notifyHooks.dispatch(&NotifyEvent{Key: key}) {
		return
	}
	m.subs.notify(mapChange[V]{value: value, key: key})
}

// Subscribe registers fn, invokes it immediately once with the current
// value and an empty changed key, and returns an unsubscribe function.
func (m *Map[V]) Subscribe(fn func(value map[string]V, key string)) func() {
	unbind := m.Listen(fn)
	invoke(func(c mapChange[V]) { fn(c.value, c.key) }, mapChange[V]{value: m.Get()})
	return unbind
}

// Listen registers fn without an immediate invocation. The changed key
// is empty when the whole value was replaced.
func (m *Map[V]) Listen(fn func(value map[string]V, key string)) func() {
	return m.addListener(fn, nil)
}

// ListenKeys registers fn against the given keys. fn fires at most
// once per mutation: when the changed key is one of keys, or on a
// whole-value replace.
func (m *Map[V]) ListenKeys(keys []string, fn func(value map[string]V, key string)) func() {
	watched := slices.Clone(keys)
	return m.addListener(fn, func(c mapChange[V]) bool {
		return c.key == "" || slices.Contains(watched, c.key)
	})
}

// SubscribeKeys is ListenKeys with an immediate invocation, matching
// the Subscribe/Listen pairing.
func (m *Map[V]) SubscribeKeys(keys []string, fn func(value map[string]V, key string)) func() {
	unbind := m.ListenKeys(keys, fn)
	invoke(func(c mapChange[V]) { fn(c.value, c.key) }, mapChange[V]{value: m.Get()})
	return unbind
}

// OnSet registers an interception hook invoked before every mutation.
// The event's Key is set for SetKey and DeleteKey mutations. Returns
// an unbind function.
func (m *Map[V]) OnSet(fn func(*SetEvent[map[string]V])) func() {
	id := m.setHooks.add(fn)
	return func() { m.setHooks.remove(id) }
}

// OnNotify registers an interception hook invoked after a mutation,
// before listeners are informed. Returns an unbind function.
func (m *Map[V]) OnNotify(fn func(*NotifyEvent)) func() {
	id := m.notifyHooks.add(fn)
	return func() { m.notifyHooks.remove(id) }
}

// WithEquals configures a custom per-value equality function used by
// SetKey to detect redundant writes.
func (m *Map[V]) WithEquals(fn func(V, V) bool) *Map[V] {
	m.equal = fn
	return m
}

func (m *Map[V]) equals(a, b V) bool {
	if m.equal != nil {
		return m.equal(a, b)
	}
	return defaultEquals(a, b)
}

func (m *Map[V]) addListener(fn func(map[string]V, string), filter func(mapChange[V]) bool) func() {
	id := m.subs.add(func(c mapChange[V]) { fn(c.value, c.key) }, filter)
	m.lc.listenerAdded()
	statListeners.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() {
			if m.subs.remove(id) {
				statListeners.Add(-1)
				m.lc.listenerRemoved()
			}
		})
	}
}

func (m *Map[V]) listenChange(fn func()) func() {
	return m.addListener(func(map[string]V, string) { fn() }, nil)
}

func (m *Map[V]) keep() func() {
	return m.Listen(func(map[string]V, string) {})
}

func (m *Map[V]) reset() {
	statListeners.Add(-int64(m.subs.count()))
	m.subs.clear()
	m.setHooks.clear()
	m.notifyHooks.clear()
	m.actions.clear()
	m.lc.reset()
}

var (
	_ Store      = (*Map[int])(nil)
	_ Dependency = (*Map[int])(nil)
)

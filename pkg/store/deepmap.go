package store

import "sync"

// deepChange is the notification payload for DeepMap listeners. A nil
// path means the whole value was replaced.
type deepChange struct {
	value map[string]any
	path  Path
}

// DeepMap is a reactive container for arbitrarily nested objects and
// arrays with path-level notification granularity. Nested containers
// are map[string]any and []any. Writes clone only the spine of
// containers from the root down to the target, so unrelated branches
// keep their prior identity.
type DeepMap struct {
	baseStore

	mu    sync.RWMutex
	value map[string]any

	subs        registry[deepChange]
	setHooks    hooks[*SetEvent[map[string]any]]
	notifyHooks hooks[*NotifyEvent]
}

// NewDeepMap creates a deep map store holding initial. A nil initial
// becomes an empty map.
func NewDeepMap(initial map[string]any) *DeepMap {
	if initial == nil {
		initial = map[string]any{}
	}
	return &DeepMap{
		baseStore: newBaseStore(),
		value:     initial,
	}
}

// Get returns the current value as a read-only snapshot.
func (d *DeepMap) Get() map[string]any {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.value
}

// GetPath returns the value at the given path.
func (d *DeepMap) GetPath(path string) (any, bool) {
	return getPath(d.Get(), ParsePath(path))
}

// Set replaces the whole value and notifies listeners with a nil
// changed path.
func (d *DeepMap) Set(value map[string]any) {
	if value == nil {
		value = map[string]any{}
	}
	d.mu.Lock()
	if defaultEquals(d.value, value) {
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()

	ev := &SetEvent[map[string]any]{NewValue: value}
	if !d.setHooks.dispatch(ev) {
		return
	}

	d.apply(ev.NewValue, nil)
}

// SetKey writes value at the location named by path, a string with
// dotted-key and bracketed-index segments such as "a.b[0].c".
// Missing intermediate containers are created. Writing a value equal
// to the one already there is a no-op. Listeners registered on the
// changed path, on any ancestor, and on any descendant are notified;
// listeners on unrelated paths are not.
func (d *DeepMap) SetKey(path string, value any) {
	d.SetPath(ParsePath(path), value)
}

// SetPath is SetKey over an already-parsed path.
func (d *DeepMap) SetPath(path Path, value any) {
	d.mu.RLock()
	current, exists := getPath(d.value, path)
	root := d.value
	d.mu.RUnlock()
	if exists && defaultEquals(current, value) {
		return
	}

	next := setPath(root, path, value)

	ev := &SetEvent[map[string]any]{NewValue: next, Path: path}
	if !d.setHooks.dispatch(ev) {
		return
	}

	d.apply(ev.NewValue, path)
}

// DeleteKey removes the value at the location named by path, deleting
// the key from a map container or splicing the element out of a slice
// container. Removing an absent path is a no-op.
func (d *DeepMap) DeleteKey(path string) {
	d.DeletePath(ParsePath(path))
}

// DeletePath is DeleteKey over an already-parsed path.
func (d *DeepMap) DeletePath(path Path) {
	d.mu.RLock()
	root := d.value
	d.mu.RUnlock()

	next, removed := deletePath(root, path)
	if !removed {
		return
	}

	ev := &SetEvent[map[string]any]{NewValue: next, Path: path}
	if !d.setHooks.dispatch(ev) {
		return
	}

	d.apply(ev.NewValue, path)
}

func (d *DeepMap) apply(next map[string]any, path Path) {
	d.mu.Lock()
	d.value = next
	d.mu.Unlock()

	if !d.notifyHooks.dispatch(&NotifyEvent{Path: path}) {
		return
	}
	d.subs.notify(deepChange{value: next, path: path})
}

// Subscribe registers fn, invokes it immediately once with the current
// value and a nil changed path, and returns an unsubscribe function.
func (d *DeepMap) Subscribe(fn func(value map[string]any, path Path)) func() {
	unbind := d.Listen(fn)
	invoke(func(c deepChange) { fn(c.value, c.path) }, deepChange{value: d.Get()})
	return unbind
}

// Listen registers fn without an immediate invocation. The changed
// path is nil when the whole value was replaced.
func (d *DeepMap) Listen(fn func(value map[string]any, path Path)) func() {
	return d.addListener(fn, nil)
}

// ListenKeys registers fn against the given path strings. fn fires at
// most once per mutation: when the changed path equals, is an ancestor
// of, or is a descendant of one of the watched paths, or on a
// whole-value replace. Listeners on unrelated paths never fire.
func (d *DeepMap) ListenKeys(paths []string, fn func(value map[string]any, path Path)) func() {
	watched := make([]Path, len(paths))
	for i, p := range paths {
		watched[i] = ParsePath(p)
	}
	return d.addListener(fn, func(c deepChange) bool {
		if c.path == nil {
			return true
		}
		for _, w := range watched {
			if related(w, c.path) {
				return true
			}
		}
		return false
	})
}

// SubscribeKeys is ListenKeys with an immediate invocation.
func (d *DeepMap) SubscribeKeys(paths []string, fn func(value map[string]any, path Path)) func() {
	unbind := d.ListenKeys(paths, fn)
	invoke(func(c deepChange) { fn(c.value, c.path) }, deepChange{value: d.Get()})
	return unbind
}

// OnSet registers an interception hook invoked before every mutation.
// The event's Path is set for SetKey and DeleteKey mutations. Returns
// an unbind function.
func (d *DeepMap) OnSet(fn func(*SetEvent[map[string]any])) func() {
	id := d.setHooks.add(fn)
	return func() { d.setHooks.remove(id) }
}

// OnNotify registers an interception hook invoked after a mutation,
// before listeners are informed. Returns an unbind function.
func (d *DeepMap) OnNotify(fn func(*NotifyEvent)) func() {
	id := d.notifyHooks.add(fn)
	return func() { d.notifyHooks.remove(id) }
}

func (d *DeepMap) addListener(fn func(map[string]any, Path), filter func(deepChange) bool) func() {
	id := d.subs.add(func(c deepChange) { fn(c.value, c.path) }, filter)
	d.lc.listenerAdded()
	statListeners.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() {
			if d.subs.remove(id) {
				statListeners.Add(-1)
				d.lc.listenerRemoved()
			}
		})
	}
}

func (d *DeepMap) listenChange(fn func()) func() {
	return d.addListener(func(map[string]any, Path) { fn() }, nil)
}

func (d *DeepMap) keep() func() {
	return d.Listen(func(map[string]any, Path) {})
}

func (d *DeepMap) reset() {
	statListeners.Add(-int64(d.subs.count()))
	d.subs.clear()
	d.setHooks.clear()
	d.notifyHooks.clear()
	d.actions.clear()
	d.lc.reset()
}

var (
	_ Store      = (*DeepMap)(nil)
	_ Dependency = (*DeepMap)(nil)
)

package inspect

import "github.com/statekit-dev/statekit/pkg/store"

// WatchAtom streams mutations of an atom under the given name.
// Returns an unwatch function.
func WatchAtom[T any](s *Server, name string, a *store.Atom[T]) func() {
	return a.Listen(func(value T) {
		s.publish(Record{Store: name, Value: value})
	})
}

// WatchComputed streams recomputations of a computed store under the
// given name. Watching activates the computed store and, transitively,
// its sources. Returns an unwatch function.
func WatchComputed[T any](s *Server, name string, c *store.Computed[T]) func() {
	return c.Listen(func(value T) {
		s.publish(Record{Store: name, Value: value})
	})
}

// WatchMap streams mutations of a map store under the given name.
// Returns an unwatch function.
func WatchMap[V any](s *Server, name string, m *store.Map[V]) func() {
	return m.Listen(func(value map[string]V, key string) {
		s.publish(Record{Store: name, Key: key, Value: value})
	})
}

// WatchDeepMap streams mutations of a deep map store under the given
// name. Returns an unwatch function.
func WatchDeepMap(s *Server, name string, d *store.DeepMap) func() {
	return d.Listen(func(value map[string]any, path store.Path) {
		s.publish(Record{Store: name, Path: path.String(), Value: value})
	})
}

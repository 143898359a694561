package store

import "fmt"

// Action wraps fn as a named, hook-observable mutation bound to s.
// Each call of the returned function generates a unique execution ID,
// fires the store's OnAction hooks, and runs fn tracked by the default
// task tracker. On settlement the event's OnError handlers run for a
// failure, then its OnEnd handlers run in every case, and the
// in-flight count is decremented. The error is returned to the caller
// unchanged.
func Action[S Store, A, R any](s S, name string, fn func(s S, arg A) (R, error)) func(arg A) (R, error) {
	return func(arg A) (R, error) {
		ev := &ActionEvent{
			ID:     nextID(),
			Name:   name,
			Shared: map[string]any{},
		}
		statActions.Add(1)
		s.actionHooks().dispatch(ev)

		done := defaultTasks.Start()
		defer done()

		defer func() {
			if rec := recover(); rec != nil {
				statActionErrors.Add(1)
				ev.fireError(fmt.Errorf("action %q panicked: %v", name, rec))
				ev.fireEnd()
				panic(rec)
			}
		}()

		result, err := fn(s, arg)
		if err != nil {
			statActionErrors.Add(1)
			ev.fireError(err)
		}
		ev.fireEnd()
		return result, err
	}
}

package store

import "reflect"

// Store is the non-generic surface shared by every store kind. It is
// what the lifecycle functions (OnMount, OnStart, OnStop, KeepMount,
// CleanStores) and OnAction operate on. Only types in this package
// implement it.
type Store interface {
	// ID returns the store's unique identifier.
	ID() uint64

	lifecycle() *lifecycle
	actionHooks() *hooks[*ActionEvent]
	keep() func()
	reset()
}

// Dependency is a store a Computed can derive from: any store that can
// report source-change notifications without exposing its value type.
// Every store kind in this package is a Dependency.
type Dependency interface {
	Store
	listenChange(fn func()) func()
}

// baseStore carries the identity, lifecycle, and action-hook state
// embedded in every store kind.
type baseStore struct {
	id      uint64
	lc      lifecycle
	actions hooks[*ActionEvent]
}

func newBaseStore() baseStore {
	return baseStore{id: nextID()}
}

// ID returns the store's unique identifier.
func (b *baseStore) ID() uint64 { return b.id }

func (b *baseStore) lifecycle() *lifecycle { return &b.lc }

func (b *baseStore) actionHooks() *hooks[*ActionEvent] { return &b.actions }

// defaultEquals provides type-appropriate equality checking.
// Uses == for common comparable types and reflect.DeepEqual for the
// rest.
func defaultEquals[T any](a, b T) bool {
	switch av := any(a).(type) {
	case int:
		return av == any(b).(int)
	case int8:
		return av == any(b).(int8)
	case int16:
		return av == any(b).(int16)
	case int32:
		return av == any(b).(int32)
	case int64:
		return av == any(b).(int64)
	case uint:
		return av == any(b).(uint)
	case uint8:
		return av == any(b).(uint8)
	case uint16:
		return av == any(b).(uint16)
	case uint32:
		return av == any(b).(uint32)
	case uint64:
		return av == any(b).(uint64)
	case float32:
		return av == any(b).(float32)
	case float64:
		return av == any(b).(float64)
	case string:
		return av == any(b).(string)
	case bool:
		return av == any(b).(bool)
	default:
		return reflect.DeepEqual(a, b)
	}
}

// Package store implements a minimal reactive-store engine: atoms for
// single values, map and deep-map stores for keyed and nested data,
// computed stores derived from other stores, a lazy mount/unmount
// lifecycle that activates side effects only while a store is observed,
// interception hooks for sets and notifications, and an action/task
// tracker that makes asynchronous mutations awaitable.
//
// All mutation, notification, and hook execution is synchronous and
// runs to completion before control returns to the caller. The one
// deliberately deferred operation is store deactivation: after the last
// listener leaves, stop handlers run only once StopDelay elapses with
// no new listener arriving.
//
// Values returned by Get and delivered to listeners are read-only
// snapshots. Consumers must never mutate them in place; all writes go
// through Set, SetKey, and DeleteKey.
package store

// Package inspect serves a live view of store mutations over HTTP and
// WebSocket: watched stores stream one JSON record per mutation to
// every connected client, and engine metrics are exposed on /metrics.
//
// The inspector is a development collaborator. It consumes only the
// public store contract: it subscribes with Listen, unsubscribes when
// a watch is released, and treats delivered values as read-only
// snapshots.
package inspect

package store

import "sync/atomic"

// Engine-wide counters, read by instrumentation.
var (
	statMounted       atomic.Int64
	statListeners     atomic.Int64
	statTasks         atomic.Int64
	statActions       atomic.Uint64
	statActionErrors  atomic.Uint64
	statNotifications atomic.Uint64
)

// EngineStats is a point-in-time snapshot of the engine counters.
type EngineStats struct {
	// MountedStores is the number of stores currently active or in
	// their stop window.
	MountedStores int64

	// ActiveListeners is the number of registered listeners across all
	// stores.
	ActiveListeners int64

	// TasksInFlight is the number of started-but-unsettled tracked
	// tasks, across all trackers.
	TasksInFlight int64

	// ActionsStarted counts action executions since process start.
	ActionsStarted uint64

	// ActionErrors counts failed action executions since process
	// start.
	ActionErrors uint64

	// NotificationsDelivered counts individual listener invocations
	// since process start.
	NotificationsDelivered uint64
}

// Stats returns a snapshot of the engine counters.
func Stats() EngineStats {
	return EngineStats{
		MountedStores:          statMounted.Load(),
		ActiveListeners:        statListeners.Load(),
		TasksInFlight:          statTasks.Load(),
		ActionsStarted:         statActions.Load(),
		ActionErrors:           statActionErrors.Load(),
		NotificationsDelivered: statNotifications.Load(),
	}
}

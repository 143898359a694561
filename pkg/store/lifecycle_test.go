package store

import (
	"sync/atomic"
	"testing"
	"time"
)

// shortStopDelay shrinks the deactivation window for the duration of a
// test.
func shortStopDelay(t *testing.T, d time.Duration) {
	t.Helper()
	prev := StopDelay
	StopDelay = d
	t.Cleanup(func() { StopDelay = prev })
}

func TestOnStartFiresOnFirstListener(t *testing.T) {
	count := NewAtom(0)
	defer CleanStores(count)

	starts := 0
	unbindStart := OnStart(count, func() { starts++ })
	defer unbindStart()

	if starts != 0 {
		t.Fatalf("start must not fire before the first listener")
	}

	unbind1 := count.Listen(func(int) {})
	defer unbind1()
	if starts != 1 {
		t.Fatalf("expected start on 0->1 transition, got %d", starts)
	}

	unbind2 := count.Listen(func(int) {})
	defer unbind2()
	if starts != 1 {
		t.Errorf("second listener must not re-fire start, got %d", starts)
	}
}

func TestLifecycleDebounce(t *testing.T) {
	shortStopDelay(t, 40*time.Millisecond)

	count := NewAtom(0)
	defer CleanStores(count)

	var mounts, stops atomic.Int32
	unbindMount := OnMount(count, func() Cleanup {
		mounts.Add(1)
		return func() { stops.Add(1) }
	})
	defer unbindMount()

	// Subscribe, immediately unsubscribe, and resubscribe within the
	// window.
	unbind := count.Listen(func(int) {})
	unbind()
	unbind = count.Listen(func(int) {})

	time.Sleep(120 * time.Millisecond)

	if got := mounts.Load(); got != 1 {
		t.Errorf("expected exactly one mount, got %d", got)
	}
	if got := stops.Load(); got != 0 {
		t.Errorf("teardown must not fire while resubscribed, got %d", got)
	}

	unbind()
	time.Sleep(120 * time.Millisecond)

	if got := stops.Load(); got != 1 {
		t.Errorf("expected teardown after the stop delay, got %d", got)
	}
	if got := mounts.Load(); got != 1 {
		t.Errorf("expected no extra mount, got %d", got)
	}
}

func TestOnStopDelayed(t *testing.T) {
	shortStopDelay(t, 40*time.Millisecond)

	count := NewAtom(0)
	defer CleanStores(count)

	var stops atomic.Int32
	unbindStop := OnStop(count, func() { stops.Add(1) })
	defer unbindStop()

	unbind := count.Listen(func(int) {})
	unbind()

	if got := stops.Load(); got != 0 {
		t.Fatalf("stop must not fire before the delay, got %d", got)
	}

	time.Sleep(120 * time.Millisecond)
	if got := stops.Load(); got != 1 {
		t.Errorf("expected stop after the delay, got %d", got)
	}
}

func TestOnMountRunsImmediatelyWhenActive(t *testing.T) {
	count := NewAtom(0)
	defer CleanStores(count)

	unbind := count.Listen(func(int) {})
	defer unbind()

	mounts := 0
	unbindMount := OnMount(count, func() Cleanup {
		mounts++
		return nil
	})
	defer unbindMount()

	if mounts != 1 {
		t.Errorf("mount handler registered on an active store must run immediately, got %d", mounts)
	}
}

func TestKeepMount(t *testing.T) {
	shortStopDelay(t, 20*time.Millisecond)

	count := NewAtom(0)
	defer CleanStores(count)

	starts := 0
	unbindStart := OnStart(count, func() { starts++ })
	defer unbindStart()

	release := KeepMount(count)
	if starts != 1 {
		t.Fatalf("keepMount must activate the store, got %d starts", starts)
	}

	time.Sleep(80 * time.Millisecond)
	if !count.lifecycle().active() {
		t.Errorf("store must stay active while kept mounted")
	}

	release()
	time.Sleep(80 * time.Millisecond)
	if count.lifecycle().active() {
		t.Errorf("store must deactivate after keepMount is released")
	}
}

func TestCleanStoresBypassesDelay(t *testing.T) {
	shortStopDelay(t, time.Hour)

	count := NewAtom(0)

	var stops atomic.Int32
	OnStop(count, func() { stops.Add(1) })

	unbind := count.Listen(func(int) {})
	unbind()

	// The stop timer is pending for an hour; CleanStores must not wait.
	CleanStores(count)
	if got := stops.Load(); got != 1 {
		t.Fatalf("expected immediate teardown, got %d", got)
	}

	// The cancelled timer must not fire a second teardown.
	time.Sleep(50 * time.Millisecond)
	if got := stops.Load(); got != 1 {
		t.Errorf("stale timer fired after CleanStores, got %d", got)
	}
}

func TestCleanStoresRemovesListenersAndHooks(t *testing.T) {
	count := NewAtom(0)

	calls := 0
	count.Listen(func(int) { calls++ })
	count.OnSet(func(*SetEvent[int]) { calls++ })

	CleanStores(count)

	count.Set(1)
	if calls != 0 {
		t.Errorf("expected no callbacks after CleanStores, got %d", calls)
	}
	if count.Get() != 1 {
		t.Errorf("the store itself must keep working, got %d", count.Get())
	}
}

package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestActionRunsAndReturnsResult(t *testing.T) {
	count := NewAtom(0)
	defer CleanStores(count)

	increment := Action(count, "increment", func(s *Atom[int], by int) (int, error) {
		s.Set(s.Get() + by)
		return s.Get(), nil
	})

	got, err := increment(5)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if got != 5 || count.Get() != 5 {
		t.Errorf("expected 5, got result=%d store=%d", got, count.Get())
	}
}

func TestOnActionLifecycle(t *testing.T) {
	count := NewAtom(0)
	defer CleanStores(count)

	var events []string
	unbind := OnAction(count, func(e *ActionEvent) {
		events = append(events, "start:"+e.Name)
		e.OnError(func(err error) { events = append(events, "error:"+err.Error()) })
		e.OnEnd(func() { events = append(events, "end") })
	})
	defer unbind()

	ok := Action(count, "ok", func(s *Atom[int], _ struct{}) (int, error) {
		return 1, nil
	})
	fail := Action(count, "fail", func(s *Atom[int], _ struct{}) (int, error) {
		return 0, errors.New("nope")
	})

	if _, err := ok(struct{}{}); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if _, err := fail(struct{}{}); err == nil {
		t.Fatal("expected error to propagate to the caller")
	}

	want := []string{"start:ok", "end", "start:fail", "error:nope", "end"}
	if len(events) != len(want) {
		t.Fatalf("expected %v, got %v", want, events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, events)
		}
	}
}

func TestActionUniqueExecutionIDs(t *testing.T) {
	count := NewAtom(0)
	defer CleanStores(count)

	ids := map[uint64]bool{}
	unbind := OnAction(count, func(e *ActionEvent) { ids[e.ID] = true })
	defer unbind()

	act := Action(count, "noop", func(*Atom[int], struct{}) (struct{}, error) {
		return struct{}{}, nil
	})
	for i := 0; i < 3; i++ {
		if _, err := act(struct{}{}); err != nil {
			t.Fatal(err)
		}
	}

	if len(ids) != 3 {
		t.Errorf("expected 3 distinct execution ids, got %d", len(ids))
	}
}

func TestActionSharedBag(t *testing.T) {
	count := NewAtom(0)
	defer CleanStores(count)

	var durations []time.Duration
	unbindTimer := OnAction(count, func(e *ActionEvent) {
		e.Shared["started"] = time.Now()
	})
	defer unbindTimer()
	unbindReport := OnAction(count, func(e *ActionEvent) {
		e.OnEnd(func() {
			started := e.Shared["started"].(time.Time)
			durations = append(durations, time.Since(started))
		})
	})
	defer unbindReport()

	act := Action(count, "timed", func(*Atom[int], struct{}) (struct{}, error) {
		return struct{}{}, nil
	})
	if _, err := act(struct{}{}); err != nil {
		t.Fatal(err)
	}

	if len(durations) != 1 {
		t.Errorf("expected the shared bag to flow between hooks, got %v", durations)
	}
}

func TestActionFailureDoesNotLeakTasks(t *testing.T) {
	count := NewAtom(0)
	defer CleanStores(count)

	fail := Action(count, "fail", func(*Atom[int], struct{}) (int, error) {
		return 0, errors.New("nope")
	})
	if _, err := fail(struct{}{}); err == nil {
		t.Fatal("expected error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := AllTasks(ctx); err != nil {
		t.Errorf("in-flight count leaked after a failed action: %v", err)
	}
}

func TestActionNestedTasksAreAwaited(t *testing.T) {
	count := NewAtom(0)
	defer CleanStores(count)

	finished := false
	act := Action(count, "spawner", func(s *Atom[int], _ struct{}) (struct{}, error) {
		done := StartTask()
		go func() {
			time.Sleep(20 * time.Millisecond)
			s.Set(1)
			finished = true
			done()
		}()
		return struct{}{}, nil
	})

	if _, err := act(struct{}{}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := AllTasks(ctx); err != nil {
		t.Fatalf("AllTasks returned %v", err)
	}
	if !finished {
		t.Error("AllTasks returned before a nested task settled")
	}
}

func TestActionPanicRoutedToErrorHooks(t *testing.T) {
	count := NewAtom(0)
	defer CleanStores(count)

	var failures []error
	ended := 0
	unbind := OnAction(count, func(e *ActionEvent) {
		e.OnError(func(err error) { failures = append(failures, err) })
		e.OnEnd(func() { ended++ })
	})
	defer unbind()

	boom := Action(count, "boom", func(*Atom[int], struct{}) (int, error) {
		panic("kaput")
	})

	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected panic to propagate")
			}
		}()
		_, _ = boom(struct{}{})
	}()

	if len(failures) != 1 {
		t.Errorf("expected panic routed to error hooks, got %v", failures)
	}
	if ended != 1 {
		t.Errorf("expected end hook exactly once, got %d", ended)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := AllTasks(ctx); err != nil {
		t.Errorf("panicking action leaked a task: %v", err)
	}
}

package store

import "testing"

func newProfileDeepMap() *DeepMap {
	return NewDeepMap(map[string]any{
		"hobbies": []any{
			map[string]any{
				"name": "a",
				"friends": []any{
					map[string]any{"name": "b"},
				},
			},
		},
	})
}

func TestDeepMapSetKey(t *testing.T) {
	d := newProfileDeepMap()
	defer CleanStores(d)

	d.SetKey("hobbies[0].name", "chess")

	v, ok := d.GetPath("hobbies[0].name")
	if !ok || v != "chess" {
		t.Errorf("expected written value, got %v (%v)", v, ok)
	}
}

func TestDeepMapPathIsolation(t *testing.T) {
	d := newProfileDeepMap()
	defer CleanStores(d)

	calls := 0
	unbind := d.ListenKeys([]string{"hobbies[0].friends[0].name"}, func(map[string]any, Path) {
		calls++
	})
	defer unbind()

	d.SetKey("hobbies[0].friends[0].name", "c")
	if calls != 1 {
		t.Fatalf("listener on the changed path must fire once, got %d", calls)
	}

	d.SetKey("hobbies[0].name", "x")
	if calls != 1 {
		t.Errorf("listener on an unrelated path must not fire, got %d", calls)
	}
}

func TestDeepMapAncestorAndDescendantFire(t *testing.T) {
	d := newProfileDeepMap()
	defer CleanStores(d)

	ancestor := 0
	unbindA := d.ListenKeys([]string{"hobbies"}, func(map[string]any, Path) { ancestor++ })
	defer unbindA()

	descendant := 0
	unbindD := d.ListenKeys([]string{"hobbies[0].friends[0].name"}, func(map[string]any, Path) { descendant++ })
	defer unbindD()

	// Change between the two watch points: an ancestor of the deep
	// watcher and a descendant of the shallow one.
	d.SetKey("hobbies[0].friends", []any{})

	if ancestor != 1 {
		t.Errorf("ancestor listener must fire, got %d", ancestor)
	}
	if descendant != 1 {
		t.Errorf("descendant listener must fire, got %d", descendant)
	}
}

func TestDeepMapListenKeysDedupesWithinMutation(t *testing.T) {
	d := newProfileDeepMap()
	defer CleanStores(d)

	calls := 0
	unbind := d.ListenKeys([]string{"hobbies[0].name", "hobbies[0].friends"}, func(map[string]any, Path) {
		calls++
	})
	defer unbind()

	// Both watched paths are descendants of the changed path; the
	// callback must still fire only once.
	d.SetKey("hobbies[0]", map[string]any{"name": "z"})
	if calls != 1 {
		t.Errorf("expected a single call per mutation, got %d", calls)
	}
}

func TestDeepMapWholeStoreListener(t *testing.T) {
	d := newProfileDeepMap()
	defer CleanStores(d)

	var paths []string
	unbind := d.Listen(func(value map[string]any, path Path) {
		paths = append(paths, path.String())
	})
	defer unbind()

	d.SetKey("hobbies[0].name", "x")
	d.Set(map[string]any{"fresh": true})

	if len(paths) != 2 || paths[0] != "hobbies[0].name" || paths[1] != "" {
		t.Errorf("expected [hobbies[0].name \"\"], got %v", paths)
	}
}

func TestDeepMapStructuralSharingOnWrite(t *testing.T) {
	d := NewDeepMap(map[string]any{
		"a": map[string]any{"x": 1},
		"b": map[string]any{"y": 2},
	})
	defer CleanStores(d)

	before := d.Get()
	d.SetKey("a.x", 9)
	after := d.Get()

	if v, _ := getPath(before, ParsePath("a.x")); v != 1 {
		t.Errorf("prior snapshot must be untouched, got %v", v)
	}

	beforeB := before["b"].(map[string]any)
	afterB := after["b"].(map[string]any)
	beforeB["probe"] = true
	if _, ok := afterB["probe"]; !ok {
		t.Errorf("unrelated subtree must keep its identity across the write")
	}
}

func TestDeepMapRedundantWriteIsNoOp(t *testing.T) {
	d := newProfileDeepMap()
	defer CleanStores(d)

	calls := 0
	unbind := d.Listen(func(map[string]any, Path) { calls++ })
	defer unbind()

	d.SetKey("hobbies[0].name", "a")
	if calls != 0 {
		t.Errorf("writing the current value must not notify, got %d", calls)
	}
}

func TestDeepMapDeleteKey(t *testing.T) {
	d := NewDeepMap(map[string]any{
		"list": []any{"a", "b", "c"},
		"obj":  map[string]any{"k": 1},
	})
	defer CleanStores(d)

	d.DeleteKey("list[1]")
	if v, _ := d.GetPath("list[1]"); v != "c" {
		t.Errorf("expected splice, got %v", d.Get()["list"])
	}

	d.DeleteKey("obj.k")
	if _, ok := d.GetPath("obj.k"); ok {
		t.Errorf("expected key removal, got %v", d.Get()["obj"])
	}
}

package store

import (
	"strconv"
	"strings"
)

// Step is one segment of a Path: either an object key or an array
// index.
type Step struct {
	Key     string
	Index   int
	IsIndex bool
}

// Path identifies a location inside nested data as an ordered sequence
// of key and index steps. Parse once with ParsePath; ancestor and
// descendant checks are prefix comparisons over the steps.
type Path []Step

// ParsePath parses a path string with dotted-key and bracketed-index
// segments, e.g. "a.b[0].c". An empty string yields an empty path,
// which addresses the root value.
func ParsePath(raw string) Path {
	var path Path
	var key strings.Builder

	flushKey := func() {
		if key.Len() > 0 {
			path = append(path, Step{Key: key.String()})
			key.Reset()
		}
	}

	for i := 0; i < len(raw); i++ {
		switch c := raw[i]; c {
		case '.':
			flushKey()
		case '[':
			flushKey()
			end := strings.IndexByte(raw[i:], ']')
			if end < 0 {
				// Unterminated bracket: treat the rest as a key.
				key.WriteString(raw[i:])
				i = len(raw)
				break
			}
			seg := raw[i+1 : i+end]
			if idx, err := strconv.Atoi(seg); err == nil && idx >= 0 {
				path = append(path, Step{Index: idx, IsIndex: true})
			} else {
				path = append(path, Step{Key: seg})
			}
			i += end
		default:
			key.WriteByte(c)
		}
	}
	flushKey()
	return path
}

// String renders the path back to its textual form.
func (p Path) String() string {
	var b strings.Builder
	for i, s := range p {
		if s.IsIndex {
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(s.Index))
			b.WriteByte(']')
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s.Key)
	}
	return b.String()
}

// Equal reports whether p and q address the same location.
func (p Path) Equal(q Path) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether q is an ancestor of p or equal to p.
func (p Path) HasPrefix(q Path) bool {
	if len(q) > len(p) {
		return false
	}
	for i := range q {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// related reports whether a change at one path must reach a listener
// registered at the other: the paths are equal, or one is a strict
// ancestor of the other.
func related(a, b Path) bool {
	return a.HasPrefix(b) || b.HasPrefix(a)
}

// getPath walks root along p and returns the value there.
func getPath(root any, p Path) (any, bool) {
	current := root
	for _, s := range p {
		if s.IsIndex {
			arr, ok := current.([]any)
			if !ok || s.Index >= len(arr) {
				return nil, false
			}
			current = arr[s.Index]
			continue
		}
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[s.Key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// setPath writes value at p, cloning only the spine of containers from
// the root down to the target. Untouched branches keep their prior
// identity, so consumers doing reference checks on unrelated subtrees
// see no change. Missing intermediate containers are created: a map
// for a key step, a slice for an index step. Index steps past the end
// of a slice extend it with nils.
func setPath(root map[string]any, p Path, value any) map[string]any {
	if len(p) == 0 {
		if m, ok := value.(map[string]any); ok {
			return m
		}
		return root
	}
	return writePath(root, p, value).(map[string]any)
}

func writePath(container any, p Path, value any) any {
	step := p[0]

	if step.IsIndex {
		arr, _ := container.([]any)
		next := make([]any, len(arr))
		copy(next, arr)
		for len(next) <= step.Index {
			next = append(next, nil)
		}
		if len(p) == 1 {
			next[step.Index] = value
		} else {
			next[step.Index] = writePath(childFor(next[step.Index], p[1]), p[1:], value)
		}
		return next
	}

	m, _ := container.(map[string]any)
	next := make(map[string]any, len(m)+1)
	for k, v := range m {
		next[k] = v
	}
	if len(p) == 1 {
		next[step.Key] = value
	} else {
		next[step.Key] = writePath(childFor(next[step.Key], p[1]), p[1:], value)
	}
	return next
}

// childFor returns the existing child container, or a fresh empty one
// shaped for the upcoming step when the child is missing or of the
// wrong shape.
func childFor(child any, upcoming Step) any {
	if upcoming.IsIndex {
		if arr, ok := child.([]any); ok {
			return arr
		}
		return []any(nil)
	}
	if m, ok := child.(map[string]any); ok {
		return m
	}
	return map[string]any(nil)
}

// deletePath removes the value at p, splicing slices and deleting map
// keys, again cloning only the spine. Reports whether anything was
// removed.
func deletePath(root map[string]any, p Path) (map[string]any, bool) {
	if len(p) == 0 {
		return root, false
	}
	if _, ok := getPath(root, p); !ok {
		return root, false
	}
	return removePath(root, p).(map[string]any), true
}

func removePath(container any, p Path) any {
	step := p[0]

	if step.IsIndex {
		arr, _ := container.([]any)
		if len(p) == 1 {
			next := make([]any, 0, len(arr)-1)
			next = append(next, arr[:step.Index]...)
			next = append(next, arr[step.Index+1:]...)
			return next
		}
		next := make([]any, len(arr))
		copy(next, arr)
		next[step.Index] = removePath(next[step.Index], p[1:])
		return next
	}

	m, _ := container.(map[string]any)
	next := make(map[string]any, len(m))
	for k, v := range m {
		next[k] = v
	}
	if len(p) == 1 {
		delete(next, step.Key)
	} else {
		next[step.Key] = removePath(next[step.Key], p[1:])
	}
	return next
}

// Package jsonpath resolves dotted/indexed path expressions like
// "a.b[0].c" against arbitrary nested values decoded from JSON.
//
// A path is tokenized into key and index steps, then walked one step at a
// time. A missing key, an out-of-range index, or a type mismatch at any step
// yields "absent" for the whole expression; lookups never fail with an error.
package jsonpath

import "strconv"

type stepKind int

const (
	stepKey stepKind = iota
	stepIndex
)

type step struct {
	kind  stepKind
	key   string
	index int
}

// tokenize splits a path into steps. "a.b[0].c" becomes
// [key a] [key b] [index 0] [key c]. Empty segments are dropped.
func tokenize(path string) []step {
	var steps []step
	var cur []byte

	flushKey := func() {
		if len(cur) > 0 {
			steps = append(steps, step{kind: stepKey, key: string(cur)})
			cur = cur[:0]
		}
	}

	for i := 0; i < len(path); i++ {
		switch c := path[i]; c {
		case '.':
			flushKey()
		case '[':
			flushKey()
			j := i + 1
			for j < len(path) && path[j] != ']' {
				j++
			}
			if idx, err := strconv.Atoi(path[i+1 : j]); err == nil {
				steps = append(steps, step{kind: stepIndex, index: idx})
			}
			i = j
		default:
			cur = append(cur, c)
		}
	}
	flushKey()
	return steps
}

// Get walks path against root. The second return is false when any step
// misses: unknown key, index out of range, keying a non-map, or indexing a
// non-slice.
func Get(root any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}

	cur := root
	for _, s := range tokenize(path) {
		switch s.kind {
		case stepKey:
			m, ok := cur.(map[string]any)
			if !ok {
				return nil, false
			}
			v, ok := m[s.key]
			if !ok || v == nil {
				return nil, false
			}
			cur = v

		case stepIndex:
			arr, ok := cur.([]any)
			if !ok || s.index < 0 || s.index >= len(arr) {
				return nil, false
			}
			cur = arr[s.index]
		}
	}
	return cur, true
}

// GetString is Get narrowed to non-empty strings; numeric scalars are not
// converted.
func GetString(root any, path string) (string, bool) {
	v, ok := Get(root, path)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

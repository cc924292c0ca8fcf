// Package tree converts nested JSON-like objects to dot-keyed flat maps and back.
//
// An "object" is a map[string]any. Slices, time.Time values, nil and scalars
// are leaves and pass through unchanged.
package tree

import (
	"errors"
	"sort"
	"strings"
)

// ErrNotObject is returned when Flatten or Nest receives something other than
// a map[string]any.
var ErrNotObject = errors.New("tree: expecting an object parameter")

// Separator joins parent and child keys in a flattened map.
const Separator = "."

// IsObject reports whether v is a nested object that Flatten recurses into.
func IsObject(v any) bool {
	_, ok := v.(map[string]any)
	return ok
}

// Clone returns a shallow copy of object.
func Clone(object map[string]any) map[string]any {
	out := make(map[string]any, len(object))
	for k, v := range object {
		out[k] = v
	}
	return out
}

// Flatten returns a new flat map where nested objects are re-keyed as
// "parent.child". Keys listed in excluded keep a shallow clone of their object
// under their own name. The input is left unchanged.
//
//	Flatten({a: 1, b: {c: 2}, i: {j: 6}}, ["i"]) // {a: 1, "b.c": 2, i: {j: 6}}
func Flatten(object any, excluded []string) (map[string]any, error) {
	m, ok := object.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}
	skip := make(map[string]bool, len(excluded))
	for _, name := range excluded {
		skip[name] = true
	}
	out := make(map[string]any, len(m))
	flattenInto(out, "", m, skip)
	return out, nil
}

// flattenInto only honours skip at the top level; nested keys are always flattened.
func flattenInto(out map[string]any, prefix string, m map[string]any, skip map[string]bool) {
	for name, value := range m {
		child, isObj := value.(map[string]any)
		switch {
		case !isObj:
			out[prefix+name] = value
		case prefix == "" && skip[name]:
			out[name] = Clone(child)
		default:
			flattenInto(out, prefix+name+Separator, child, nil)
		}
	}
}

// Nest rebuilds a tree from a flat map by splitting keys on ".". The input is
// left unchanged.
//
// Keys are applied in lexical order. A path slot that already holds a
// non-object value (nil included) is never replaced, so when both "a" and
// "a.b" are present the value of "a" is kept and "a.b" is dropped.
func Nest(object any) (map[string]any, error) {
	m, ok := object.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]any, len(m))
	for _, key := range keys {
		setPath(out, strings.Split(key, Separator), m[key])
	}
	return out, nil
}

func setPath(root map[string]any, path []string, value any) {
	current := root
	for i, segment := range path {
		existing, present := current[segment]
		if i == len(path)-1 {
			if present {
				return
			}
			if obj, ok := value.(map[string]any); ok {
				value = Clone(obj)
			}
			current[segment] = value
			return
		}
		if !present {
			next := map[string]any{}
			current[segment] = next
			current = next
			continue
		}
		next, ok := existing.(map[string]any)
		if !ok {
			return
		}
		current = next
	}
}

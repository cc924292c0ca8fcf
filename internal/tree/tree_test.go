package tree

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatten(t *testing.T) {
	input := map[string]any{
		"a": 1,
		"b": map[string]any{"c": 2},
		"d": map[string]any{"e": 3, "f": map[string]any{"g": 4, "h": 5}},
		"i": map[string]any{"j": 6},
	}

	got, err := Flatten(input, []string{"i"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"a":     1,
		"b.c":   2,
		"d.e":   3,
		"d.f.g": 4,
		"d.f.h": 5,
		"i":     map[string]any{"j": 6},
	}, got)
}

func TestFlatten_DoesNotMutateInput(t *testing.T) {
	inner := map[string]any{"j": 6}
	input := map[string]any{"b": map[string]any{"c": 2}, "i": inner}

	got, err := Flatten(input, []string{"i"})
	require.NoError(t, err)
	got["i"].(map[string]any)["j"] = 7

	assert.Equal(t, 6, inner["j"])
	assert.Equal(t, map[string]any{"c": 2}, input["b"])
}

func TestFlatten_LeavesPassThrough(t *testing.T) {
	when := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	input := map[string]any{
		"tags":    []any{1, 2, 4},
		"created": when,
		"nothing": nil,
		"title":   "t",
	}

	got, err := Flatten(input, nil)
	require.NoError(t, err)
	assert.Equal(t, input, got)
}

func TestFlatten_NotObject(t *testing.T) {
	for _, input := range []any{nil, "str", 12, []any{1}} {
		_, err := Flatten(input, nil)
		assert.ErrorIs(t, err, ErrNotObject, "input %v", input)
	}
}

func TestNest(t *testing.T) {
	input := map[string]any{"a": 1, "b.c": 2, "d.e": 3, "d.f.g": 4, "d.f.h": 5}

	got, err := Nest(input)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"a": 1,
		"b": map[string]any{"c": 2},
		"d": map[string]any{"e": 3, "f": map[string]any{"g": 4, "h": 5}},
	}, got)
	assert.Len(t, input, 5)
}

func TestNest_NotObject(t *testing.T) {
	_, err := Nest([]any{"a"})
	assert.ErrorIs(t, err, ErrNotObject)
}

// When a flat key is a strict prefix of another key, the shorter key wins and
// the longer key is dropped.
func TestNest_PrefixCollision(t *testing.T) {
	for _, tc := range []struct {
		name  string
		input map[string]any
		want  map[string]any
	}{
		{
			name:  "scalar prefix",
			input: map[string]any{"a": 1, "a.b": 2},
			want:  map[string]any{"a": 1},
		},
		{
			name:  "nil prefix",
			input: map[string]any{"a": nil, "a.b.c": 2},
			want:  map[string]any{"a": nil},
		},
		{
			name:  "object prefix merges",
			input: map[string]any{"a": map[string]any{"x": 1}, "a.b": 2},
			want:  map[string]any{"a": map[string]any{"x": 1, "b": 2}},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Nest(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNest_DoesNotMutateObjectValues(t *testing.T) {
	kept := map[string]any{"x": 1}
	_, err := Nest(map[string]any{"a": kept, "a.b": 2})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"x": 1}, kept)
}

func TestNestFlattenRoundTrip(t *testing.T) {
	when := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for _, input := range []map[string]any{
		{},
		{"a": 1},
		{"a": map[string]any{"b": map[string]any{"c": "deep"}}, "z": nil},
		{"list": []any{map[string]any{"x": 1}}, "when": when, "n": map[string]any{"ok": true}},
	} {
		flat, err := Flatten(input, nil)
		require.NoError(t, err)
		nested, err := Nest(flat)
		require.NoError(t, err)
		assert.Equal(t, input, nested)
	}
}

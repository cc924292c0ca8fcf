package main

import (
	"encoding/json"
	"fmt"
	"strings"
)

// splitField splits "key=value" into (key, value, true).
// Returns ("", "", false) if there is no '=' or key is empty.
func splitField(s string) (string, string, bool) {
	i := strings.IndexByte(s, '=')
	if i <= 0 {
		return "", "", false
	}
	return s[:i], s[i+1:], true
}

// parseValue decodes v when it is a JSON literal (object, array, quoted
// string, boolean, null or number) and returns it as a plain string
// otherwise.
func parseValue(v string) any {
	if v == "" {
		return v
	}
	var out any
	if err := json.Unmarshal([]byte(v), &out); err == nil {
		return out
	}
	return v
}

// parseAssignments turns repeated "key=value" flags into a map.
func parseAssignments(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := splitField(p)
		if !ok {
			return nil, fmt.Errorf("invalid assignment %q (want key=value)", p)
		}
		out[k] = parseValue(v)
	}
	return out, nil
}

// parseIDs turns command line identifiers into values, so "7" matches a
// numeric id the same way it does in model.IDKey.
func parseIDs(args []string) []any {
	ids := make([]any, len(args))
	for i, a := range args {
		ids[i] = a
	}
	return ids
}

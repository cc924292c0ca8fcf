package schema

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/alfredjeanlab/adminkit/internal/model"
)

// ErrUnknownMap is returned when a field names a map nobody registered.
var ErrUnknownMap = errors.New("unknown map")

// MapFactory builds a map function from the argument following the colon
// in an expression such as "truncate:20".
type MapFactory func(arg string) (model.MapFunc, error)

var builtinMaps = map[string]MapFactory{
	"trim":     stringMap(strings.TrimSpace),
	"lower":    stringMap(strings.ToLower),
	"upper":    stringMap(strings.ToUpper),
	"title":    stringMap(cases.Title(language.Und).String),
	"truncate": truncateMap,
	"split":    splitMap,
	"join":     joinMap,
	"number":   func(string) (model.MapFunc, error) { return toNumber, nil },
}

func (b *Builder) mapFunc(expr string) (model.MapFunc, error) {
	name, arg, _ := strings.Cut(expr, ":")
	factory, ok := b.maps[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMap, name)
	}
	fn, err := factory(arg)
	if err != nil {
		return nil, fmt.Errorf("map %s: %w", expr, err)
	}
	return fn, nil
}

// stringMap applies fn to string values and passes anything else through.
func stringMap(fn func(string) string) MapFactory {
	return func(string) (model.MapFunc, error) {
		return func(value any, _ map[string]any) (any, error) {
			if s, ok := value.(string); ok {
				return fn(s), nil
			}
			return value, nil
		}, nil
	}
}

func truncateMap(arg string) (model.MapFunc, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("truncate needs a length, got %q", arg)
	}
	return func(value any, _ map[string]any) (any, error) {
		s, ok := value.(string)
		if !ok {
			return value, nil
		}
		if r := []rune(s); len(r) > n {
			return string(r[:n]) + "...", nil
		}
		return s, nil
	}, nil
}

func splitMap(sep string) (model.MapFunc, error) {
	if sep == "" {
		sep = ","
	}
	return func(value any, _ map[string]any) (any, error) {
		s, ok := value.(string)
		if !ok {
			return value, nil
		}
		out := []any{}
		for _, part := range strings.Split(s, sep) {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	}, nil
}

func joinMap(sep string) (model.MapFunc, error) {
	if sep == "" {
		sep = ","
	}
	return func(value any, _ map[string]any) (any, error) {
		items, ok := value.([]any)
		if !ok {
			return value, nil
		}
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = fmt.Sprint(item)
		}
		return strings.Join(parts, sep), nil
	}, nil
}

func toNumber(value any, _ map[string]any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return value, nil
	}
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, fmt.Errorf("not a number: %q", s)
	}
	return f, nil
}

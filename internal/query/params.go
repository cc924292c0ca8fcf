// Package query orchestrates the REST calls behind admin views: list and
// detail fetches, reference resolution and writes.
package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alfredjeanlab/adminkit/internal/model"
	"github.com/alfredjeanlab/adminkit/internal/rest"
)

// SortASC and SortDESC are the sort directions understood by list endpoints.
const (
	SortASC  = "ASC"
	SortDESC = "DESC"
)

// RawQuery describes one list request against an entity.
type RawQuery struct {
	Entity   *model.Entity
	ViewName string
	ViewType model.ViewType
	// Page is 1-based; rest.NoPagination omits pagination and 0 means 1.
	Page    int
	PerPage int
	Filters map[string]any
	// FilterFields expand the values of Filters through their map pipeline.
	FilterFields []*model.Field
	// PermanentFilters are applied after expansion and win over Filters.
	PermanentFilters map[string]any
	// SortField is prefixed with a view name ("posts_ListView.title") and
	// only honoured when that prefix is ViewName.
	SortField string
	SortDir   string
	URL       string
}

// ListParams assembles the wire parameters of q.
func ListParams(q RawQuery) (rest.ListParams, error) {
	var params rest.ListParams

	switch {
	case q.Page == rest.NoPagination:
		params.Page = rest.NoPagination
	case q.Page <= 0:
		params.Page = 1
		params.PerPage = q.PerPage
	default:
		params.Page = q.Page
		params.PerPage = q.PerPage
	}

	if name, ok := SortFieldFor(q.SortField, q.ViewName); ok {
		params.SortField = name
		params.SortDir = q.SortDir
	}

	var filters map[string]any
	if len(q.Filters) > 0 {
		expanded, err := expandFilters(q.Filters, q.FilterFields)
		if err != nil {
			return rest.ListParams{}, err
		}
		filters = expanded
	}
	if len(q.PermanentFilters) > 0 {
		filters = mergeFilters(filters, q.PermanentFilters)
	}
	if len(filters) > 0 {
		params.Filters = filters
	}
	return params, nil
}

// SortFieldFor strips the view prefix of a sort field. It reports false when
// the sort field is empty or belongs to another view.
func SortFieldFor(sortField, viewName string) (string, bool) {
	prefix, name, found := strings.Cut(sortField, ".")
	if !found || prefix != viewName {
		return "", false
	}
	return name, true
}

// expandFilters copies filters, replacing the value of every filter field
// with a map pipeline by the keys its pipeline returns.
func expandFilters(filters map[string]any, fields []*model.Field) (map[string]any, error) {
	byName := make(map[string]*model.Field, len(fields))
	for _, f := range fields {
		byName[f.Name()] = f
	}

	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]any, len(filters))
	for _, name := range names {
		value := filters[name]
		f, ok := byName[name]
		if !ok || !f.HasMaps() {
			out[name] = value
			continue
		}
		mapped, err := f.MappedValue(value, filters)
		if err != nil {
			return nil, fmt.Errorf("expanding filter %s: %w", name, err)
		}
		expanded, ok := mapped.(map[string]any)
		if !ok {
			out[name] = mapped
			continue
		}
		for k, v := range expanded {
			out[k] = v
		}
	}
	return out, nil
}

// mergeFilters layers filter sets; later layers win on key collision.
func mergeFilters(layers ...map[string]any) map[string]any {
	out := map[string]any{}
	for _, layer := range layers {
		for k, v := range layer {
			out[k] = v
		}
	}
	return out
}

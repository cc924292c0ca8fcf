package model

import (
	"context"
	"sort"
)

// PrepareFunc runs after a view's entries are loaded and before they are
// handed to the caller.
type PrepareFunc func(ctx context.Context, view *View, entries []*Entry) error

// View configures one operation over an entity.
type View struct {
	entity       *Entity
	viewType     ViewType
	name         string
	enabled      bool
	fields       []*Field
	order        int
	title        string
	description  string
	actions      []string
	url          string
	urlFunc      func(id any) string
	errorMessage ErrorMessageFunc
	prepare      PrepareFunc

	perPage            int
	sortField          string
	sortDir            string
	infinitePagination bool
	permanentFilters   map[string]any
	filters            []*Field
	listActions        []string
	batchActions       []string
	exportFields       []*Field

	singleAPICall BatchFunc
}

func newView(e *Entity, t ViewType) *View {
	v := &View{entity: e, viewType: t}
	switch t {
	case ViewDashboard, ViewList, ViewExport:
		v.perPage = 30
		v.sortField = "id"
		v.sortDir = "DESC"
		v.batchActions = []string{"delete"}
		v.permanentFilters = map[string]any{}
	case ViewDelete, ViewBatchDelete:
		v.enabled = true
	}
	return v
}

func (v *View) Entity() *Entity { return v.entity }
func (v *View) Type() ViewType  { return v.viewType }

// Name defaults to "<entity>_<type>", or the entity name for dashboards.
func (v *View) Name() string {
	if v.name != "" {
		return v.name
	}
	if v.viewType == ViewDashboard {
		return v.entity.Name()
	}
	return v.entity.Name() + "_" + string(v.viewType)
}

func (v *View) SetName(name string) *View {
	v.name = name
	return v
}

// Enabled is true when the view was enabled explicitly or has fields.
func (v *View) Enabled() bool { return v.enabled || len(v.fields) > 0 }

func (v *View) Enable() *View {
	v.enabled = true
	return v
}

func (v *View) Disable() *View {
	v.enabled = false
	return v
}

// Identifier returns the identifier field of the entity.
func (v *View) Identifier() *Field { return v.entity.Identifier() }

func (v *View) Fields() []*Field { return v.fields }

func (v *View) HasFields() bool { return len(v.fields) > 0 }

// AddFields appends fields, giving unordered ones their insertion position,
// then keeps the list stably sorted by order.
func (v *View) AddFields(fields ...*Field) *View {
	for _, f := range fields {
		if !f.HasOrder() {
			f.SetOrder(len(v.fields))
		}
		v.fields = append(v.fields, f)
		sortFields(v.fields)
	}
	return v
}

func (v *View) RemoveFields() *View {
	v.fields = nil
	return v
}

// Field returns the field named name, or nil.
func (v *View) Field(name string) *Field {
	for _, f := range v.fields {
		if f.Name() == name {
			return f
		}
	}
	return nil
}

func (v *View) FieldsOfKind(kind Kind) []*Field {
	var out []*Field
	for _, f := range v.fields {
		if f.Kind() == kind {
			out = append(out, f)
		}
	}
	return out
}

func (v *View) Order() int { return v.order }

func (v *View) SetOrder(order int) *View {
	v.order = order
	return v
}

func (v *View) Title() string       { return v.title }
func (v *View) Description() string { return v.description }

func (v *View) SetTitle(title string) *View {
	v.title = title
	return v
}

func (v *View) SetDescription(desc string) *View {
	v.description = desc
	return v
}

func (v *View) Actions() []string { return v.actions }

func (v *View) SetActions(actions ...string) *View {
	v.actions = actions
	return v
}

// URL returns the URL override for id, or "" when none is set.
func (v *View) URL(id any) string {
	if v.urlFunc != nil {
		return v.urlFunc(id)
	}
	return v.url
}

func (v *View) SetURL(u string) *View {
	v.url = u
	v.urlFunc = nil
	return v
}

func (v *View) SetURLFunc(fn func(id any) string) *View {
	v.urlFunc = fn
	return v
}

// ErrorMessage resolves the view-level message for err.
func (v *View) ErrorMessage(err error) (string, bool) {
	if v.errorMessage == nil {
		return "", false
	}
	return v.errorMessage(err), true
}

func (v *View) SetErrorMessage(fn ErrorMessageFunc) *View {
	v.errorMessage = fn
	return v
}

func (v *View) SetPrepare(fn PrepareFunc) *View {
	v.prepare = fn
	return v
}

// Prepare runs the prepare hook, if any.
func (v *View) Prepare(ctx context.Context, entries []*Entry) error {
	if v.prepare == nil {
		return nil
	}
	return v.prepare(ctx, v, entries)
}

func (v *View) PerPage() int { return v.perPage }

func (v *View) SetPerPage(n int) *View {
	v.perPage = n
	return v
}

func (v *View) InfinitePagination() bool { return v.infinitePagination }

func (v *View) SetInfinitePagination(on bool) *View {
	v.infinitePagination = on
	return v
}

func (v *View) SortField() string { return v.sortField }
func (v *View) SortDir() string   { return v.sortDir }

func (v *View) SetSort(field, dir string) *View {
	v.sortField = field
	v.sortDir = dir
	return v
}

// SortFieldName prefixes the sort field with the view name.
func (v *View) SortFieldName() string { return v.Name() + "." + v.sortField }

func (v *View) PermanentFilters() map[string]any { return v.permanentFilters }

func (v *View) SetPermanentFilters(filters map[string]any) *View {
	v.permanentFilters = filters
	return v
}

// Filters returns the user-facing filter fields, sorted by order.
func (v *View) Filters() []*Field { return v.filters }

func (v *View) SetFilters(filters ...*Field) *View {
	v.filters = append([]*Field(nil), filters...)
	sortFields(v.filters)
	return v
}

// Filter returns the filter field named name, or nil.
func (v *View) Filter(name string) *Field {
	for _, f := range v.filters {
		if f.Name() == name {
			return f
		}
	}
	return nil
}

func (v *View) ListActions() []string  { return v.listActions }
func (v *View) BatchActions() []string { return v.batchActions }

func (v *View) SetListActions(actions ...string) *View {
	v.listActions = actions
	return v
}

func (v *View) SetBatchActions(actions ...string) *View {
	v.batchActions = actions
	return v
}

// ExportFields returns the fields exported from a list, defaulting to its
// own fields.
func (v *View) ExportFields() []*Field {
	if v.exportFields == nil {
		return v.fields
	}
	return v.exportFields
}

func (v *View) SetExportFields(fields ...*Field) *View {
	v.exportFields = fields
	return v
}

// HasSingleAPICall reports whether batch deletes go through one request.
func (v *View) HasSingleAPICall() bool { return v.singleAPICall != nil }

// SingleAPICall returns the filter payload matching ids, or nil.
func (v *View) SingleAPICall(ids []any) map[string]any {
	if v.singleAPICall == nil {
		return nil
	}
	return v.singleAPICall(ids)
}

func (v *View) SetSingleAPICall(fn BatchFunc) *View {
	v.singleAPICall = fn
	return v
}

// MapEntry maps one REST payload through the view's fields.
func (v *View) MapEntry(raw map[string]any) (*Entry, error) {
	return CreateFromRest(raw, v.fields, v.entity.Name(), v.Identifier().Name())
}

// MapEntries maps REST payloads through the view's fields.
func (v *View) MapEntries(raws []map[string]any) ([]*Entry, error) {
	return CreateArrayFromRest(raws, v.fields, v.entity.Name(), v.Identifier().Name())
}

// TransformEntry converts an entry back into a REST payload.
func (v *View) TransformEntry(e *Entry) (map[string]any, error) {
	return e.TransformToRest(v.fields)
}

// Validate checks an entry against the validation rules of the view fields.
func (v *View) Validate(e *Entry) error {
	return ValidateEntry(v.fields, e)
}

func sortFields(fields []*Field) {
	sort.SliceStable(fields, func(i, j int) bool { return fields[i].Order() < fields[j].Order() })
}

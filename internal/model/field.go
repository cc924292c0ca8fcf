package model

import (
	"fmt"
	"reflect"
	"time"

	"github.com/alfredjeanlab/adminkit/internal/idgen"
)

// MapFunc converts a value using the whole record for context. Map pipelines
// run REST to record, transform pipelines run record to REST.
type MapFunc func(value any, record map[string]any) (any, error)

// FilterProvider returns permanent filters for a search string. Static filter
// sets ignore the search.
type FilterProvider func(search string) map[string]any

// StaticFilters wraps a fixed filter set as a FilterProvider.
func StaticFilters(filters map[string]any) FilterProvider {
	return func(string) map[string]any { return cloneMap(filters) }
}

// BatchFunc builds the filter payload used to fetch or delete a whole id set
// with one request.
type BatchFunc func(ids []any) map[string]any

// Choice is one selectable value of a choice field.
type Choice struct {
	Value any    `json:"value"`
	Label string `json:"label"`
}

// Validation holds the declarative validation rules of a field.
type Validation struct {
	Required  bool
	MinLength int
	MaxLength int // 0 means unbounded
	Pattern   string
	Validator func(value any) error
}

// ReferenceCapability is carried by fields pointing at another entity.
type ReferenceCapability struct {
	TargetEntity *Entity
	TargetField  *Field
	PerPage      int
	SortField    string
	SortDir      string
	Filters      FilterProvider
}

// BatchingCapability marks a reference as resolvable with a single request.
type BatchingCapability struct {
	SingleAPICall BatchFunc
}

// RemoteCompleteCapability enables type-ahead lookups against the REST API.
type RemoteCompleteCapability struct {
	RefreshDelay time.Duration
	SearchQuery  func(search string) map[string]any
}

// DefaultRefreshDelay is the minimal delay between two remote-complete calls.
const DefaultRefreshDelay = 500 * time.Millisecond

// ListCapability describes the sub-records of referenced and embedded lists.
type ListCapability struct {
	TargetReferenceField string
	TargetFields         []*Field
	ListActions          []string
}

// LayoutCapability holds the children of fieldset and row fields.
type LayoutCapability struct {
	Children []*Field
}

// Field describes one attribute of an entity. Kind-specific behaviour lives
// in the optional capabilities.
type Field struct {
	name            string
	kind            Kind
	label           string
	order           int
	ordered         bool
	defaultValue    any
	editable        bool
	pinned          bool
	detailLink      bool
	detailLinkRoute string
	flattenable     bool
	attributes      map[string]any
	cssClasses      []string
	template        string
	format          string
	choices         []Choice
	validation      Validation
	maps            []MapFunc
	transforms      []MapFunc

	reference *ReferenceCapability
	batching  *BatchingCapability
	remote    *RemoteCompleteCapability
	list      *ListCapability
	layout    *LayoutCapability
}

// NewBaseField returns a field with base attributes only. Field type
// constructors build on it. An empty name gets a generated one.
func NewBaseField(name string, kind Kind) *Field {
	if name == "" {
		name = idgen.FieldName()
	}
	return &Field{
		name:            name,
		kind:            kind,
		editable:        true,
		detailLink:      name == "id",
		detailLinkRoute: "edit",
		flattenable:     true,
		attributes:      map[string]any{},
	}
}

func (f *Field) Name() string { return f.name }

func (f *Field) SetName(name string) *Field {
	f.name = name
	return f
}

func (f *Field) Kind() Kind { return f.kind }

// Label returns the explicit label, or one derived from the name.
func (f *Field) Label() string {
	if f.label == "" {
		return Humanize(f.name)
	}
	return f.label
}

func (f *Field) SetLabel(label string) *Field {
	f.label = label
	return f
}

// Order returns the position of the field; HasOrder reports whether it was set.
func (f *Field) Order() int     { return f.order }
func (f *Field) HasOrder() bool { return f.ordered }

func (f *Field) SetOrder(order int) *Field {
	f.order = order
	f.ordered = true
	return f
}

func (f *Field) DefaultValue() any { return f.defaultValue }

func (f *Field) SetDefaultValue(v any) *Field {
	f.defaultValue = v
	return f
}

func (f *Field) Editable() bool { return f.editable }

func (f *Field) SetEditable(editable bool) *Field {
	f.editable = editable
	return f
}

func (f *Field) Pinned() bool { return f.pinned }

func (f *Field) SetPinned(pinned bool) *Field {
	f.pinned = pinned
	return f
}

func (f *Field) DetailLink() bool        { return f.detailLink }
func (f *Field) DetailLinkRoute() string { return f.detailLinkRoute }

func (f *Field) SetDetailLink(detailLink bool, route string) *Field {
	f.detailLink = detailLink
	if route != "" {
		f.detailLinkRoute = route
	}
	return f
}

// Flattenable reports whether nested REST objects under this field's key are
// dot-flattened when mapping a payload.
func (f *Field) Flattenable() bool { return f.flattenable }

func (f *Field) Attributes() map[string]any { return f.attributes }

func (f *Field) SetAttributes(attrs map[string]any) *Field {
	f.attributes = attrs
	return f
}

func (f *Field) CSSClasses() []string { return f.cssClasses }

func (f *Field) SetCSSClasses(classes ...string) *Field {
	f.cssClasses = classes
	return f
}

func (f *Field) Template() string { return f.template }

func (f *Field) SetTemplate(tmpl string) *Field {
	f.template = tmpl
	return f
}

// Format is the display format of date and number fields.
func (f *Field) Format() string { return f.format }

func (f *Field) SetFormat(format string) *Field {
	f.format = format
	return f
}

func (f *Field) Choices() []Choice { return f.choices }

func (f *Field) SetChoices(choices []Choice) *Field {
	f.choices = choices
	return f
}

func (f *Field) Validation() Validation { return f.validation }

func (f *Field) SetValidation(v Validation) *Field {
	f.validation = v
	return f
}

// Map appends fn to the REST-to-record pipeline.
func (f *Field) Map(fn MapFunc) *Field {
	if fn == nil {
		panic(fmt.Sprintf("model: nil map function on field %q", f.name))
	}
	f.maps = append(f.maps, fn)
	return f
}

// Maps returns a copy of the registered map pipeline.
func (f *Field) Maps() []MapFunc { return append([]MapFunc(nil), f.maps...) }

func (f *Field) HasMaps() bool { return len(f.maps) > 0 }

// MappedValue runs the map pipeline over value in registration order.
func (f *Field) MappedValue(value any, record map[string]any) (any, error) {
	return runPipeline(f.name, f.maps, value, record)
}

// Transform appends fn to the record-to-REST pipeline.
func (f *Field) Transform(fn MapFunc) *Field {
	if fn == nil {
		panic(fmt.Sprintf("model: nil transform function on field %q", f.name))
	}
	f.transforms = append(f.transforms, fn)
	return f
}

func (f *Field) Transforms() []MapFunc { return append([]MapFunc(nil), f.transforms...) }

func (f *Field) HasTransforms() bool { return len(f.transforms) > 0 }

// TransformedValue runs the transform pipeline over value in registration order.
func (f *Field) TransformedValue(value any, record map[string]any) (any, error) {
	return runPipeline(f.name, f.transforms, value, record)
}

func runPipeline(name string, fns []MapFunc, value any, record map[string]any) (any, error) {
	for _, fn := range fns {
		var err error
		if value, err = fn(value, record); err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
	}
	return value, nil
}

// Reference returns the reference capability, or nil.
func (f *Field) Reference() *ReferenceCapability { return f.reference }

func (f *Field) referenceCap() *ReferenceCapability {
	if f.reference == nil {
		f.reference = &ReferenceCapability{PerPage: 30}
	}
	return f.reference
}

func (f *Field) TargetEntity() *Entity {
	if f.reference == nil {
		return nil
	}
	return f.reference.TargetEntity
}

func (f *Field) SetTargetEntity(e *Entity) *Field {
	f.referenceCap().TargetEntity = e
	return f
}

// TargetField is the label-bearing field of the target entity.
func (f *Field) TargetField() *Field {
	if f.reference == nil {
		return nil
	}
	return f.reference.TargetField
}

func (f *Field) SetTargetField(target *Field) *Field {
	f.referenceCap().TargetField = target
	return f
}

func (f *Field) PerPage() int {
	if f.reference == nil {
		return 0
	}
	return f.reference.PerPage
}

func (f *Field) SetPerPage(n int) *Field {
	f.referenceCap().PerPage = n
	return f
}

// SortField returns the configured sort field. Embedded lists fall back to
// the identifier of their target entity.
func (f *Field) SortField() string {
	if f.reference != nil && f.reference.SortField != "" {
		return f.reference.SortField
	}
	if f.kind == KindEmbeddedList && f.TargetEntity() != nil {
		return f.TargetEntity().Identifier().Name()
	}
	return ""
}

func (f *Field) SortDir() string {
	if f.reference == nil {
		return ""
	}
	return f.reference.SortDir
}

func (f *Field) SetSort(field, dir string) *Field {
	c := f.referenceCap()
	c.SortField = field
	c.SortDir = dir
	return f
}

// DatagridName is the list view name used for the target entity.
func (f *Field) DatagridName() string {
	if f.TargetEntity() == nil {
		return ""
	}
	return f.TargetEntity().Name() + "_ListView"
}

// SortFieldName returns the sort field prefixed with the datagrid name, or
// "" when no sort field is configured.
func (f *Field) SortFieldName() string {
	sf := f.SortField()
	if sf == "" || f.TargetEntity() == nil {
		return ""
	}
	return f.DatagridName() + "." + sf
}

// PermanentFilters evaluates the permanent filters for search. It returns nil
// when none are configured.
func (f *Field) PermanentFilters(search string) map[string]any {
	if f.reference == nil || f.reference.Filters == nil {
		return nil
	}
	return f.reference.Filters(search)
}

func (f *Field) HasPermanentFilters() bool {
	return f.reference != nil && f.reference.Filters != nil
}

func (f *Field) SetPermanentFilters(p FilterProvider) *Field {
	f.referenceCap().Filters = p
	return f
}

// HasSingleAPICall reports whether a batching function is registered.
func (f *Field) HasSingleAPICall() bool {
	return f.batching != nil && f.batching.SingleAPICall != nil
}

// SingleAPICall returns the filter payload fetching all ids at once, or nil
// without a batching function.
func (f *Field) SingleAPICall(ids []any) map[string]any {
	if !f.HasSingleAPICall() {
		return nil
	}
	return f.batching.SingleAPICall(ids)
}

func (f *Field) SetSingleAPICall(fn BatchFunc) *Field {
	if fn == nil {
		f.batching = nil
		return f
	}
	f.batching = &BatchingCapability{SingleAPICall: fn}
	return f
}

// RemoteComplete reports whether type-ahead completion is enabled.
func (f *Field) RemoteComplete() bool { return f.remote != nil }

// RemoteCompleteOptions returns the type-ahead options, defaulted when
// completion is disabled.
func (f *Field) RemoteCompleteOptions() RemoteCompleteCapability {
	if f.remote == nil {
		return RemoteCompleteCapability{RefreshDelay: DefaultRefreshDelay}
	}
	return *f.remote
}

// EnableRemoteComplete turns type-ahead on. A nil opts uses the defaults.
func (f *Field) EnableRemoteComplete(opts *RemoteCompleteCapability) *Field {
	c := RemoteCompleteCapability{RefreshDelay: DefaultRefreshDelay}
	if opts != nil {
		c = *opts
		if c.RefreshDelay == 0 {
			c.RefreshDelay = DefaultRefreshDelay
		}
	}
	f.remote = &c
	return f
}

func (f *Field) DisableRemoteComplete() *Field {
	f.remote = nil
	return f
}

// IdentifierValues collects the distinct foreign ids stored under this field
// across records, in discovery order. Nil and empty values are skipped and
// slices are flattened.
func (f *Field) IdentifierValues(records []map[string]any) []any {
	seen := map[string]struct{}{}
	var ids []any
	add := func(v any) {
		if isEmptyID(v) {
			return
		}
		key := IDKey(v)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		ids = append(ids, v)
	}
	for _, record := range records {
		v, ok := record[f.name]
		if !ok || v == nil {
			continue
		}
		if items, ok := asSlice(v); ok {
			for _, item := range items {
				add(item)
			}
			continue
		}
		add(v)
	}
	return ids
}

func (f *Field) List() *ListCapability { return f.list }

func (f *Field) listCap() *ListCapability {
	if f.list == nil {
		f.list = &ListCapability{}
	}
	return f.list
}

// TargetReferenceField is the foreign-key field on the target entity that
// must equal the current record id.
func (f *Field) TargetReferenceField() string {
	if f.list == nil {
		return ""
	}
	return f.list.TargetReferenceField
}

func (f *Field) SetTargetReferenceField(name string) *Field {
	f.listCap().TargetReferenceField = name
	return f
}

func (f *Field) TargetFields() []*Field {
	if f.list == nil {
		return nil
	}
	return f.list.TargetFields
}

func (f *Field) SetTargetFields(fields ...*Field) *Field {
	f.listCap().TargetFields = fields
	return f
}

func (f *Field) ListActions() []string {
	if f.list == nil {
		return nil
	}
	return f.list.ListActions
}

func (f *Field) SetListActions(actions ...string) *Field {
	f.listCap().ListActions = actions
	return f
}

func (f *Field) Layout() *LayoutCapability { return f.layout }

// Children returns the fields grouped by a fieldset or row.
func (f *Field) Children() []*Field {
	if f.layout == nil {
		return nil
	}
	return f.layout.Children
}

// SetChildren sets the grouped fields. Fieldsets only accept rows.
func (f *Field) SetChildren(children ...*Field) error {
	if f.kind == KindFieldSet {
		for _, c := range children {
			if c.Kind() != KindRow {
				return fmt.Errorf("fieldset %s: child %s: %w", f.name, c.Name(), ErrInvalidLayout)
			}
		}
	}
	if f.layout == nil {
		f.layout = &LayoutCapability{}
	}
	f.layout.Children = children
	return nil
}

// IDKey normalizes an identifier for comparisons, so 7 and "7" match.
func IDKey(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		if x == float64(int64(x)) {
			return fmt.Sprint(int64(x))
		}
	}
	return fmt.Sprint(v)
}

func isEmptyID(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok && s == "" {
		return true
	}
	return false
}

func asSlice(v any) ([]any, bool) {
	if items, ok := v.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

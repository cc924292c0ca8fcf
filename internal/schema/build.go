package schema

import (
	"errors"
	"fmt"
	"time"

	"github.com/alfredjeanlab/adminkit/internal/app"
	"github.com/alfredjeanlab/adminkit/internal/model"
)

// ErrInvalidSchema wraps every build failure.
var ErrInvalidSchema = errors.New("invalid schema")

var viewTypes = map[string]model.ViewType{
	"dashboard":    model.ViewDashboard,
	"menu":         model.ViewMenu,
	"list":         model.ViewList,
	"create":       model.ViewCreate,
	"edit":         model.ViewEdit,
	"delete":       model.ViewDelete,
	"batch_delete": model.ViewBatchDelete,
	"export":       model.ViewExport,
	"show":         model.ViewShow,
}

// Builder turns a Schema into an application. Named map functions referenced
// by fields must be registered before Build.
type Builder struct {
	maps map[string]MapFactory
}

// NewBuilder returns a builder knowing the built-in maps.
func NewBuilder() *Builder {
	b := &Builder{maps: map[string]MapFactory{}}
	for name, f := range builtinMaps {
		b.maps[name] = f
	}
	return b
}

// RegisterMap makes fn available to field maps and transforms as name.
func (b *Builder) RegisterMap(name string, fn model.MapFunc) {
	b.maps[name] = func(string) (model.MapFunc, error) { return fn, nil }
}

// Build builds s with the built-in maps only.
func Build(s *Schema) (*app.Application, error) {
	return NewBuilder().Build(s)
}

// entityFields is the field pool of one entity, by name.
type entityFields struct {
	def    *EntityDef
	entity *model.Entity
	fields map[string]*model.Field
	defs   map[string]*FieldDef
}

// Build creates every entity and field first, then wires reference targets
// and views, so definitions may point at entities declared later.
func (b *Builder) Build(s *Schema) (*app.Application, error) {
	a := app.New(s.Title, s.BaseAPIURL)
	if s.ErrorMessage != "" {
		a.SetErrorMessage(model.StaticMessage(s.ErrorMessage))
	}

	pools := make([]*entityFields, 0, len(s.Entities))
	byName := map[string]*entityFields{}
	for i := range s.Entities {
		def := &s.Entities[i]
		if def.Name == "" {
			return nil, fmt.Errorf("%w: entity %d has no name", ErrInvalidSchema, i)
		}
		e, err := a.NewEntity(def.Name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
		}
		pool := &entityFields{def: def, entity: e, fields: map[string]*model.Field{}, defs: map[string]*FieldDef{}}
		for j := range def.Fields {
			fd := &def.Fields[j]
			if _, dup := pool.fields[fd.Name]; dup {
				return nil, fmt.Errorf("%w: %s: duplicate field %s", ErrInvalidSchema, def.Name, fd.Name)
			}
			f, err := b.field(a, fd)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSchema, def.Name, err)
			}
			pool.fields[f.Name()] = f
			pool.defs[f.Name()] = fd
		}
		if err := configureEntity(e, def, pool); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
		}
		pools = append(pools, pool)
		byName[def.Name] = pool
	}

	for _, pool := range pools {
		for name, f := range pool.fields {
			if err := b.wire(a, f, pool.defs[name], byName); err != nil {
				return nil, fmt.Errorf("%w: %s.%s: %v", ErrInvalidSchema, pool.def.Name, name, err)
			}
		}
		for short, vd := range pool.def.Views {
			if err := configureView(pool, short, vd); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSchema, pool.def.Name, err)
			}
		}
	}
	return a, nil
}

func configureEntity(e *model.Entity, def *EntityDef, pool *entityFields) error {
	if def.Label != "" {
		e.SetLabel(def.Label)
	}
	if def.Identifier != "" {
		id, ok := pool.fields[def.Identifier]
		if !ok {
			id = model.NewBaseField(def.Identifier, model.KindString)
		}
		if err := e.SetIdentifier(id); err != nil {
			return err
		}
	}
	if def.URL != "" {
		e.SetURL(def.URL)
	}
	if def.BaseAPIURL != "" {
		e.SetBaseAPIURL(def.BaseAPIURL)
	}
	if def.ReadOnly {
		e.SetReadOnly()
	}
	if def.Singleton {
		e.SetSingleton()
	}
	if def.ErrorMessage != "" {
		e.SetErrorMessage(model.StaticMessage(def.ErrorMessage))
	}
	m := def.Methods
	e.SetMethods(m.Create, m.Update, m.Retrieve, m.Delete)
	e.SetOrder(def.Order)
	return nil
}

// field builds the target-independent part of a field.
func (b *Builder) field(a *app.Application, fd *FieldDef) (*model.Field, error) {
	kind := model.Kind(fd.Kind)
	if kind == "" {
		kind = model.KindString
	}
	f, err := a.Field(fd.Name, kind)
	if err != nil {
		return nil, err
	}

	if fd.Label != "" {
		f.SetLabel(fd.Label)
	}
	if fd.Order != nil {
		f.SetOrder(*fd.Order)
	}
	if fd.Default != nil {
		f.SetDefaultValue(fd.Default)
	}
	if fd.Editable != nil {
		f.SetEditable(*fd.Editable)
	}
	if fd.Pinned {
		f.SetPinned(true)
	}
	if fd.DetailLink != nil || fd.DetailLinkRoute != "" {
		link := f.DetailLink()
		if fd.DetailLink != nil {
			link = *fd.DetailLink
		}
		route := fd.DetailLinkRoute
		if route == "" {
			route = f.DetailLinkRoute()
		}
		f.SetDetailLink(link, route)
	}
	if fd.Format != "" {
		f.SetFormat(fd.Format)
	}
	if fd.Template != "" {
		f.SetTemplate(fd.Template)
	}
	if len(fd.CSSClasses) > 0 {
		f.SetCSSClasses(fd.CSSClasses...)
	}
	if len(fd.Attributes) > 0 {
		f.SetAttributes(fd.Attributes)
	}
	if len(fd.Choices) > 0 {
		choices := make([]model.Choice, len(fd.Choices))
		for i, c := range fd.Choices {
			choices[i] = model.Choice{Value: c.Value, Label: c.Label}
		}
		f.SetChoices(choices)
	}
	if fd.Required || fd.MinLength > 0 || fd.MaxLength > 0 || fd.Pattern != "" {
		f.SetValidation(model.Validation{
			Required:  fd.Required,
			MinLength: fd.MinLength,
			MaxLength: fd.MaxLength,
			Pattern:   fd.Pattern,
		})
	}
	for _, expr := range fd.Maps {
		fn, err := b.mapFunc(expr)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", fd.Name, err)
		}
		f.Map(fn)
	}
	for _, expr := range fd.Transforms {
		fn, err := b.mapFunc(expr)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", fd.Name, err)
		}
		f.Transform(fn)
	}

	if hasTarget(kind) {
		if fd.PerPage > 0 {
			f.SetPerPage(fd.PerPage)
		}
		if fd.SortField != "" || fd.SortDir != "" {
			f.SetSort(fd.SortField, fd.SortDir)
		}
		if p := filterProvider(fd.Filters, fd.SearchParam); p != nil {
			f.SetPermanentFilters(p)
		}
		if fd.SingleAPICall != "" {
			f.SetSingleAPICall(keyedBatch(fd.SingleAPICall))
		}
		if fd.RemoteComplete {
			opts := &model.RemoteCompleteCapability{}
			if fd.RefreshDelay != "" {
				d, err := time.ParseDuration(fd.RefreshDelay)
				if err != nil {
					return nil, fmt.Errorf("field %s: refresh_delay: %w", fd.Name, err)
				}
				opts.RefreshDelay = d
			}
			f.EnableRemoteComplete(opts)
		}
	}
	if fd.TargetReferenceField != "" {
		f.SetTargetReferenceField(fd.TargetReferenceField)
	}
	if len(fd.ListActions) > 0 {
		f.SetListActions(fd.ListActions...)
	}

	if kind.IsLayout() {
		children := make([]*model.Field, 0, len(fd.Fields))
		for i := range fd.Fields {
			c, err := b.field(a, &fd.Fields[i])
			if err != nil {
				return nil, err
			}
			children = append(children, c)
		}
		if err := f.SetChildren(children...); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// wire resolves the entity and field names a field points at.
func (b *Builder) wire(a *app.Application, f *model.Field, fd *FieldDef, pools map[string]*entityFields) error {
	if fd == nil {
		return nil
	}
	for i, child := range f.Children() {
		if err := b.wire(a, child, &fd.Fields[i], pools); err != nil {
			return err
		}
	}
	if !hasTarget(f.Kind()) {
		return nil
	}

	var target *entityFields
	if fd.TargetEntity != "" {
		var ok bool
		if target, ok = pools[fd.TargetEntity]; !ok {
			return fmt.Errorf("unknown target entity %q", fd.TargetEntity)
		}
		f.SetTargetEntity(target.entity)
	} else if f.Kind() != model.KindEmbeddedList {
		return fmt.Errorf("%s field needs a target_entity", f.Kind())
	}

	if fd.TargetField != "" {
		if target == nil {
			return fmt.Errorf("target_field %s needs a target_entity", fd.TargetField)
		}
		tf, ok := target.fields[fd.TargetField]
		if !ok {
			return fmt.Errorf("unknown target field %s.%s", fd.TargetEntity, fd.TargetField)
		}
		f.SetTargetField(tf)
	}

	switch f.Kind() {
	case model.KindReferencedList:
		fields, err := lookupFields(target, fd.TargetFields)
		if err != nil {
			return err
		}
		f.SetTargetFields(fields...)
	case model.KindEmbeddedList:
		fields := make([]*model.Field, 0, len(fd.Fields))
		for i := range fd.Fields {
			tf, err := b.field(a, &fd.Fields[i])
			if err != nil {
				return err
			}
			if err := b.wire(a, tf, &fd.Fields[i], pools); err != nil {
				return err
			}
			fields = append(fields, tf)
		}
		f.SetTargetFields(fields...)
	}
	return nil
}

func configureView(pool *entityFields, short string, vd ViewDef) error {
	t, ok := viewTypes[short]
	if !ok {
		return fmt.Errorf("unknown view %q", short)
	}
	if !vd.Disabled && locked(pool.def, t) {
		return fmt.Errorf("%s view is not available on this entity", short)
	}
	v := pool.entity.View(t)

	fields, err := lookupFields(pool, vd.Fields)
	if err != nil {
		return fmt.Errorf("%s view: %w", short, err)
	}
	v.AddFields(fields...)

	if vd.Disabled {
		v.Disable()
	} else {
		v.Enable()
	}
	if vd.Name != "" {
		v.SetName(vd.Name)
	}
	if vd.Title != "" {
		v.SetTitle(vd.Title)
	}
	if vd.Description != "" {
		v.SetDescription(vd.Description)
	}
	if vd.Order != 0 {
		v.SetOrder(vd.Order)
	}
	if vd.URL != "" {
		v.SetURL(vd.URL)
	}
	if vd.ErrorMessage != "" {
		v.SetErrorMessage(model.StaticMessage(vd.ErrorMessage))
	}
	if len(vd.Actions) > 0 {
		v.SetActions(vd.Actions...)
	}
	if vd.PerPage > 0 {
		v.SetPerPage(vd.PerPage)
	}
	if vd.InfinitePagination {
		v.SetInfinitePagination(true)
	}
	if vd.SortField != "" || vd.SortDir != "" {
		field, dir := vd.SortField, vd.SortDir
		if field == "" {
			field = v.SortField()
		}
		if dir == "" {
			dir = v.SortDir()
		}
		v.SetSort(field, dir)
	}
	if len(vd.PermanentFilters) > 0 {
		v.SetPermanentFilters(vd.PermanentFilters)
	}
	if len(vd.Filters) > 0 {
		filters, err := lookupFields(pool, vd.Filters)
		if err != nil {
			return fmt.Errorf("%s view filters: %w", short, err)
		}
		v.SetFilters(filters...)
	}
	if len(vd.ListActions) > 0 {
		v.SetListActions(vd.ListActions...)
	}
	if len(vd.BatchActions) > 0 {
		v.SetBatchActions(vd.BatchActions...)
	}
	if len(vd.ExportFields) > 0 {
		export, err := lookupFields(pool, vd.ExportFields)
		if err != nil {
			return fmt.Errorf("%s view export fields: %w", short, err)
		}
		v.SetExportFields(export...)
	}
	if vd.SingleAPICall != "" {
		v.SetSingleAPICall(keyedBatch(vd.SingleAPICall))
	}
	return nil
}

// hasTarget reports whether fields of kind point at another entity.
func hasTarget(kind model.Kind) bool {
	return kind.IsReference() || kind == model.KindReferencedList || kind == model.KindEmbeddedList
}

// locked reports whether the entity flags forbid view type t.
func locked(def *EntityDef, t model.ViewType) bool {
	switch t {
	case model.ViewCreate, model.ViewDelete, model.ViewBatchDelete:
		return def.ReadOnly || def.Singleton
	case model.ViewEdit:
		return def.ReadOnly
	case model.ViewList:
		return def.Singleton
	}
	return false
}

func lookupFields(pool *entityFields, names []string) ([]*model.Field, error) {
	fields := make([]*model.Field, 0, len(names))
	for _, name := range names {
		f, ok := pool.fields[name]
		if !ok {
			if id := pool.entity.Identifier(); id.Name() == name {
				f = id
			} else {
				return nil, fmt.Errorf("unknown field %s.%s", pool.def.Name, name)
			}
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// keyedBatch filters a batch of ids under key, e.g. {"id": [1, 2]}.
func keyedBatch(key string) model.BatchFunc {
	return func(ids []any) map[string]any {
		return map[string]any{key: ids}
	}
}

// filterProvider combines static filters with the search text under
// searchParam. It returns nil when neither is configured.
func filterProvider(static map[string]any, searchParam string) model.FilterProvider {
	if len(static) == 0 && searchParam == "" {
		return nil
	}
	return func(search string) map[string]any {
		out := make(map[string]any, len(static)+1)
		for k, v := range static {
			out[k] = v
		}
		if searchParam != "" && search != "" {
			out[searchParam] = search
		}
		return out
	}
}

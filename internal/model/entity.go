package model

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
)

// ErrInvalidIdentifier is returned when an entity identifier is not a field.
var ErrInvalidIdentifier = errors.New("identifier must be a field")

// ViewType names the operation a view configures.
type ViewType string

const (
	ViewDashboard   ViewType = "DashboardView"
	ViewMenu        ViewType = "MenuView"
	ViewList        ViewType = "ListView"
	ViewCreate      ViewType = "CreateView"
	ViewEdit        ViewType = "EditView"
	ViewDelete      ViewType = "DeleteView"
	ViewBatchDelete ViewType = "BatchDeleteView"
	ViewExport      ViewType = "ExportView"
	ViewShow        ViewType = "ShowView"
)

// ViewTypes lists every view type in creation order.
var ViewTypes = []ViewType{
	ViewDashboard, ViewMenu, ViewList, ViewCreate, ViewEdit,
	ViewDelete, ViewBatchDelete, ViewExport, ViewShow,
}

// ErrorMessageFunc turns a failed operation into a user-visible message.
type ErrorMessageFunc func(err error) string

// StaticMessage returns an ErrorMessageFunc that always yields msg.
func StaticMessage(msg string) ErrorMessageFunc {
	return func(error) string { return msg }
}

// URLFunc computes an entity URL for a view type and identifier.
type URLFunc func(entityName string, viewType ViewType, id any, identifierName string) string

// EntityArena allocates entities with unique ids of the form name_N, N being
// a counter owned by the arena.
type EntityArena struct {
	mu   sync.Mutex
	next int
}

// NewEntity creates an entity together with its nine views.
func (a *EntityArena) NewEntity(name string) *Entity {
	a.mu.Lock()
	id := fmt.Sprintf("%s_%d", name, a.next)
	a.next++
	a.mu.Unlock()

	e := &Entity{
		name:       name,
		uniqueID:   id,
		identifier: NewBaseField("id", KindString),
		views:      make(map[ViewType]*View, len(ViewTypes)),
	}
	for _, t := range ViewTypes {
		e.views[t] = newView(e, t)
	}
	return e
}

// Entity describes a REST resource.
type Entity struct {
	name         string
	label        string
	uniqueID     string
	identifier   *Field
	baseAPIURL   string
	url          string
	urlFunc      URLFunc
	readOnly     bool
	singleton    bool
	errorMessage ErrorMessageFunc
	order        int

	createMethod   string
	updateMethod   string
	retrieveMethod string
	deleteMethod   string

	views map[ViewType]*View
}

func (e *Entity) Name() string { return e.name }

// UniqueID is the arena-assigned identity, stable for the entity lifetime.
func (e *Entity) UniqueID() string { return e.uniqueID }

func (e *Entity) Label() string {
	if e.label == "" {
		return Humanize(e.name)
	}
	return e.label
}

func (e *Entity) SetLabel(label string) *Entity {
	e.label = label
	return e
}

func (e *Entity) Identifier() *Field { return e.identifier }

// SetIdentifier replaces the identifier field.
func (e *Entity) SetIdentifier(f *Field) error {
	if f == nil {
		return fmt.Errorf("entity %s: %w", e.name, ErrInvalidIdentifier)
	}
	e.identifier = f
	return nil
}

func (e *Entity) BaseAPIURL() string { return e.baseAPIURL }

func (e *Entity) SetBaseAPIURL(u string) *Entity {
	e.baseAPIURL = u
	return e
}

// URL returns the entity URL for a view type, from the generator when set.
func (e *Entity) URL(viewType ViewType, id any, identifierName string) string {
	if e.urlFunc != nil {
		return e.urlFunc(e.name, viewType, id, identifierName)
	}
	return e.url
}

func (e *Entity) SetURL(u string) *Entity {
	e.url = u
	e.urlFunc = nil
	return e
}

func (e *Entity) SetURLFunc(fn URLFunc) *Entity {
	e.urlFunc = fn
	return e
}

func (e *Entity) ReadOnly() bool { return e.readOnly }

// SetReadOnly marks the entity read-only and disables its write views.
func (e *Entity) SetReadOnly() *Entity {
	e.readOnly = true
	for _, t := range []ViewType{ViewCreate, ViewEdit, ViewDelete, ViewBatchDelete} {
		e.views[t].Disable()
	}
	return e
}

func (e *Entity) Singleton() bool { return e.singleton }

// SetSingleton marks the entity as a single resource and disables the views
// that only make sense for collections.
func (e *Entity) SetSingleton() *Entity {
	e.singleton = true
	for _, t := range []ViewType{ViewList, ViewCreate, ViewDelete, ViewBatchDelete} {
		e.views[t].Disable()
	}
	return e
}

// ErrorMessage resolves the entity-level message for err.
func (e *Entity) ErrorMessage(err error) (string, bool) {
	if e.errorMessage == nil {
		return "", false
	}
	return e.errorMessage(err), true
}

func (e *Entity) SetErrorMessage(fn ErrorMessageFunc) *Entity {
	e.errorMessage = fn
	return e
}

func (e *Entity) Order() int { return e.order }

func (e *Entity) SetOrder(order int) *Entity {
	e.order = order
	return e
}

func methodOr(m, def string) string {
	if m == "" {
		return def
	}
	return m
}

func (e *Entity) CreateMethod() string   { return methodOr(e.createMethod, http.MethodPost) }
func (e *Entity) UpdateMethod() string   { return methodOr(e.updateMethod, http.MethodPut) }
func (e *Entity) RetrieveMethod() string { return methodOr(e.retrieveMethod, http.MethodGet) }
func (e *Entity) DeleteMethod() string   { return methodOr(e.deleteMethod, http.MethodDelete) }

// SetMethods overrides the HTTP methods; empty values keep the defaults.
func (e *Entity) SetMethods(create, update, retrieve, del string) *Entity {
	e.createMethod, e.updateMethod, e.retrieveMethod, e.deleteMethod = create, update, retrieve, del
	return e
}

// View returns the view of the given type.
func (e *Entity) View(t ViewType) *View { return e.views[t] }

// Views returns all views in ViewTypes order.
func (e *Entity) Views() []*View {
	out := make([]*View, 0, len(ViewTypes))
	for _, t := range ViewTypes {
		out = append(out, e.views[t])
	}
	return out
}

func (e *Entity) DashboardView() *View   { return e.views[ViewDashboard] }
func (e *Entity) MenuView() *View        { return e.views[ViewMenu] }
func (e *Entity) ListView() *View        { return e.views[ViewList] }
func (e *Entity) CreationView() *View    { return e.views[ViewCreate] }
func (e *Entity) EditionView() *View     { return e.views[ViewEdit] }
func (e *Entity) DeletionView() *View    { return e.views[ViewDelete] }
func (e *Entity) BatchDeleteView() *View { return e.views[ViewBatchDelete] }
func (e *Entity) ExportView() *View      { return e.views[ViewExport] }
func (e *Entity) ShowView() *View        { return e.views[ViewShow] }

// Package app holds the application-level configuration: registered
// entities, base API URL, route resolution and error messages.
package app

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/alfredjeanlab/adminkit/internal/model"
	"github.com/alfredjeanlab/adminkit/internal/rest"
)

// ErrDuplicateEntity is returned when an entity name is registered twice.
var ErrDuplicateEntity = errors.New("entity already registered")

// Application owns the entity arena and the application defaults.
type Application struct {
	title        string
	baseAPIURL   string
	errorMessage model.ErrorMessageFunc
	registry     *model.FieldTypeRegistry

	mu       sync.RWMutex
	arena    model.EntityArena
	entities []*model.Entity
	byName   map[string]*model.Entity
}

// New creates an application. baseAPIURL is prepended to relative routes.
func New(title, baseAPIURL string) *Application {
	return &Application{
		title:      title,
		baseAPIURL: baseAPIURL,
		registry:   model.DefaultRegistry,
		byName:     map[string]*model.Entity{},
	}
}

func (a *Application) Title() string      { return a.title }
func (a *Application) BaseAPIURL() string { return a.baseAPIURL }

func (a *Application) SetBaseAPIURL(u string) *Application {
	a.baseAPIURL = u
	return a
}

// Registry returns the field type registry used by Field.
func (a *Application) Registry() *model.FieldTypeRegistry { return a.registry }

func (a *Application) SetRegistry(r *model.FieldTypeRegistry) *Application {
	a.registry = r
	return a
}

// Field builds a field of kind from the application registry.
func (a *Application) Field(name string, kind model.Kind) (*model.Field, error) {
	return a.registry.New(name, kind)
}

// NewEntity allocates and registers an entity.
func (a *Application) NewEntity(name string) (*model.Entity, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, dup := a.byName[name]; dup {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateEntity, name)
	}
	e := a.arena.NewEntity(name)
	a.entities = append(a.entities, e)
	a.byName[name] = e
	return e, nil
}

// Entity returns the entity registered under name.
func (a *Application) Entity(name string) (*model.Entity, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	e, ok := a.byName[name]
	return e, ok
}

// Entities returns the registered entities in registration order.
func (a *Application) Entities() []*model.Entity {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]*model.Entity(nil), a.entities...)
}

// EntityNames returns the registered entity names in registration order.
func (a *Application) EntityNames() []string {
	entities := a.Entities()
	names := make([]string, len(entities))
	for i, e := range entities {
		names[i] = e.Name()
	}
	return names
}

// ViewsOfType returns the enabled views of type t across entities, sorted by
// view order.
func (a *Application) ViewsOfType(t model.ViewType) []*model.View {
	var views []*model.View
	for _, e := range a.Entities() {
		if v := e.View(t); v.Enabled() {
			views = append(views, v)
		}
	}
	sort.SliceStable(views, func(i, j int) bool { return views[i].Order() < views[j].Order() })
	return views
}

// RouteFor resolves the REST URL of an operation. The view URL override wins,
// then the entity URL, then "<entity>[/<id>]". Relative results are prefixed
// with the entity base URL, falling back to the application one.
func (a *Application) RouteFor(entity *model.Entity, viewURL string, viewType model.ViewType, id any, identifierName string) string {
	u := viewURL
	if u == "" {
		u = entity.URL(viewType, id, identifierName)
	}
	if u == "" {
		u = entity.Name()
		if id != nil {
			u += "/" + model.IDKey(id)
		}
	}
	if isAbsolute(u) {
		return u
	}
	if base := entity.BaseAPIURL(); base != "" {
		return base + u
	}
	return a.baseAPIURL + u
}

// ViewRoute resolves the URL of view for id.
func (a *Application) ViewRoute(view *model.View, id any) string {
	return a.RouteFor(view.Entity(), view.URL(id), view.Type(), id, view.Identifier().Name())
}

func isAbsolute(u string) bool {
	return strings.HasPrefix(u, "//") || strings.Contains(u, "://")
}

// SetErrorMessage sets the application-level message resolver.
func (a *Application) SetErrorMessage(fn model.ErrorMessageFunc) *Application {
	a.errorMessage = fn
	return a
}

// ErrorMessage resolves the user-visible message for err: the view resolver
// first, then the entity one, then the application default.
func (a *Application) ErrorMessage(view *model.View, err error) string {
	if view != nil {
		if msg, ok := view.ErrorMessage(err); ok {
			return msg
		}
		if msg, ok := view.Entity().ErrorMessage(err); ok {
			return msg
		}
	}
	if a.errorMessage != nil {
		return a.errorMessage(err)
	}
	return DefaultErrorMessage(err)
}

// DefaultErrorMessage formats err with its HTTP status when it has one.
func DefaultErrorMessage(err error) string {
	var apiErr *rest.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("Oops, an error occured : (code: %d) %s", apiErr.StatusCode, apiErr.Message)
	}
	return "Oops, an error occured : " + err.Error()
}

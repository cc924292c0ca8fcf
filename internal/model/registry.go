package model

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrUnknownFieldType is returned when no constructor is registered for a kind.
	ErrUnknownFieldType = errors.New("unknown field type")
	// ErrInvalidLayout is returned when a fieldset is given non-row children.
	ErrInvalidLayout = errors.New("fieldset expects row children")
)

// FieldConstructor builds a field of one kind.
type FieldConstructor func(name string) *Field

// FieldTypeRegistry maps kinds to field constructors. It is safe for
// concurrent use.
type FieldTypeRegistry struct {
	mu    sync.RWMutex
	ctors map[Kind]FieldConstructor
}

// NewFieldTypeRegistry returns a registry with every built-in kind registered.
func NewFieldTypeRegistry() *FieldTypeRegistry {
	r := &FieldTypeRegistry{ctors: map[Kind]FieldConstructor{}}
	for _, k := range []Kind{
		KindString, KindText, KindWysiwyg, KindEmail, KindPassword,
		KindNumber, KindFloat, KindDate, KindDateTime, KindFile,
		KindChoice, KindChoices,
	} {
		r.Register(k, plainConstructor(k))
	}
	r.Register(KindBoolean, newBooleanField)
	r.Register(KindJSON, opaqueConstructor(KindJSON))
	r.Register(KindTemplate, opaqueConstructor(KindTemplate))
	r.Register(KindReference, referenceConstructor(KindReference))
	r.Register(KindReferenceMany, referenceConstructor(KindReferenceMany))
	r.Register(KindReferencedList, newReferencedListField)
	r.Register(KindEmbeddedList, newEmbeddedListField)
	r.Register(KindFieldSet, layoutConstructor(KindFieldSet))
	r.Register(KindRow, layoutConstructor(KindRow))
	return r
}

// Register adds or replaces the constructor for kind.
func (r *FieldTypeRegistry) Register(kind Kind, ctor FieldConstructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctors[kind] = ctor
}

// New builds a field of the given kind.
func (r *FieldTypeRegistry) New(name string, kind Kind) (*Field, error) {
	r.mu.RLock()
	ctor, ok := r.ctors[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownFieldType, kind)
	}
	return ctor(name), nil
}

// Kinds returns the registered kinds in lexical order.
func (r *FieldTypeRegistry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]Kind, 0, len(r.ctors))
	for k := range r.ctors {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// DefaultRegistry holds the built-in field types.
var DefaultRegistry = NewFieldTypeRegistry()

// NewField builds a field from DefaultRegistry.
func NewField(name string, kind Kind) (*Field, error) {
	return DefaultRegistry.New(name, kind)
}

// MustField is like NewField but panics on an unknown kind.
func MustField(name string, kind Kind) *Field {
	f, err := NewField(name, kind)
	if err != nil {
		panic(err)
	}
	return f
}

func plainConstructor(kind Kind) FieldConstructor {
	return func(name string) *Field { return NewBaseField(name, kind) }
}

func opaqueConstructor(kind Kind) FieldConstructor {
	return func(name string) *Field {
		f := NewBaseField(name, kind)
		f.flattenable = false
		return f
	}
}

func newBooleanField(name string) *Field {
	f := NewBaseField(name, KindBoolean)
	f.choices = []Choice{
		{Value: nil, Label: "undefined"},
		{Value: true, Label: "true"},
		{Value: false, Label: "false"},
	}
	return f
}

func referenceConstructor(kind Kind) FieldConstructor {
	return func(name string) *Field {
		f := NewBaseField(name, kind)
		f.detailLink = true
		f.referenceCap()
		return f
	}
}

func newReferencedListField(name string) *Field {
	f := NewBaseField(name, KindReferencedList)
	f.referenceCap()
	f.listCap()
	return f
}

func newEmbeddedListField(name string) *Field {
	f := NewBaseField(name, KindEmbeddedList)
	f.flattenable = false
	f.referenceCap()
	f.listCap()
	return f
}

func layoutConstructor(kind Kind) FieldConstructor {
	return func(name string) *Field {
		f := NewBaseField(name, kind)
		f.layout = &LayoutCapability{}
		if kind == KindFieldSet {
			f.cssClasses = []string{"grid-form"}
		}
		return f
	}
}

package model

import (
	"fmt"

	"github.com/alfredjeanlab/adminkit/internal/tree"
)

// Entry is one mapped record of an entity. Values holds flat record values,
// ListValues the resolved display values of reference fields.
type Entry struct {
	EntityName      string         `json:"entity"`
	IdentifierValue any            `json:"id"`
	Values          map[string]any `json:"values"`
	ListValues      map[string]any `json:"list_values,omitempty"`
}

// NewEntry returns an entry with non-nil value maps.
func NewEntry(entityName string, values map[string]any, id any) *Entry {
	if values == nil {
		values = map[string]any{}
	}
	return &Entry{
		EntityName:      entityName,
		IdentifierValue: id,
		Values:          values,
		ListValues:      map[string]any{},
	}
}

// CreateForFields returns an entry holding the default value of each field.
func CreateForFields(fields []*Field, entityName string) *Entry {
	values := make(map[string]any, len(fields))
	for _, f := range fields {
		values[f.Name()] = f.DefaultValue()
	}
	return NewEntry(entityName, values, nil)
}

// CreateFromRest maps a REST payload into an entry. An empty payload yields
// field defaults. Otherwise the payload is flattened, except under
// non-flattenable fields, and each field present runs its map pipeline.
func CreateFromRest(raw map[string]any, fields []*Field, entityName, identifierName string) (*Entry, error) {
	if len(raw) == 0 {
		return CreateForFields(fields, entityName), nil
	}
	if identifierName == "" {
		identifierName = "id"
	}

	var excluded []string
	for _, f := range fields {
		if !f.Flattenable() {
			excluded = append(excluded, f.Name())
		}
	}
	values, err := tree.Flatten(raw, excluded)
	if err != nil {
		return nil, fmt.Errorf("mapping %s entry: %w", entityName, err)
	}
	for _, f := range fields {
		v, ok := values[f.Name()]
		if !ok {
			continue
		}
		if values[f.Name()], err = f.MappedValue(v, values); err != nil {
			return nil, fmt.Errorf("mapping %s entry: %w", entityName, err)
		}
	}
	return NewEntry(entityName, values, values[identifierName]), nil
}

// CreateArrayFromRest maps each payload with CreateFromRest.
func CreateArrayFromRest(raws []map[string]any, fields []*Field, entityName, identifierName string) ([]*Entry, error) {
	entries := make([]*Entry, 0, len(raws))
	for i, raw := range raws {
		e, err := CreateFromRest(raw, fields, entityName, identifierName)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// TransformToRest runs each field's transform pipeline over a copy of the
// values and nests the result back into a REST payload.
func (e *Entry) TransformToRest(fields []*Field) (map[string]any, error) {
	out := tree.Clone(e.Values)
	for _, f := range fields {
		v, ok := out[f.Name()]
		if !ok {
			continue
		}
		tv, err := f.TransformedValue(v, e.Values)
		if err != nil {
			return nil, fmt.Errorf("transforming %s entry: %w", e.EntityName, err)
		}
		out[f.Name()] = tv
	}
	return tree.Nest(out)
}

// Package datastore stages resolved entries in named buckets for rendering.
package datastore

import (
	"sort"
	"sync"

	"github.com/alfredjeanlab/adminkit/internal/model"
)

// Bucket name suffixes, appended to an entity unique id.
const (
	ValuesSuffix  = "_values"
	ChoicesSuffix = "_choices"
	ListSuffix    = "_list"
	EntriesSuffix = "_entries"
)

// ValuesBucket holds resolved reference targets of an entity.
func ValuesBucket(e *model.Entity) string { return e.UniqueID() + ValuesSuffix }

// ChoicesBucket holds the selectable entries of an entity.
func ChoicesBucket(e *model.Entity) string { return e.UniqueID() + ChoicesSuffix }

// EntriesBucket holds the primary entries last loaded for an entity.
func EntriesBucket(e *model.Entity) string { return e.UniqueID() + EntriesSuffix }

// ListBucket holds the rows of a referenced list field.
func ListBucket(f *model.Field) string { return f.Name() + ListSuffix }

// DataStore is a named-bucket container of entries. It is safe for
// concurrent use.
type DataStore struct {
	mu      sync.RWMutex
	entries map[string][]*model.Entry
}

// New returns an empty store.
func New() *DataStore {
	return &DataStore{entries: map[string][]*model.Entry{}}
}

// SetEntries replaces the bucket name.
func (s *DataStore) SetEntries(name string, entries []*model.Entry) *DataStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[name] = append([]*model.Entry(nil), entries...)
	return s
}

// MergeEntries adds entries to the bucket name. An entry whose identifier
// matches one already in the bucket replaces it in place; the others are
// appended.
func (s *DataStore) MergeEntries(name string, entries []*model.Entry) *DataStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket := s.entries[name]
	index := make(map[string]int, len(bucket))
	for i, e := range bucket {
		if e.IdentifierValue != nil {
			index[model.IDKey(e.IdentifierValue)] = i
		}
	}
	for _, e := range entries {
		if e.IdentifierValue != nil {
			key := model.IDKey(e.IdentifierValue)
			if i, ok := index[key]; ok {
				bucket[i] = e
				continue
			}
			index[key] = len(bucket)
		}
		bucket = append(bucket, e)
	}
	s.entries[name] = bucket
	return s
}

// AddEntry appends entry to the bucket name, creating it if needed.
func (s *DataStore) AddEntry(name string, entry *model.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[name] = append(s.entries[name], entry)
}

// Entries returns a copy of the bucket name; missing buckets are empty.
func (s *DataStore) Entries(name string) []*model.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*model.Entry{}, s.entries[name]...)
}

// FirstEntry returns the first entry of bucket name accepted by filter. A
// nil filter accepts every entry.
func (s *DataStore) FirstEntry(name string, filter func(*model.Entry) bool) (*model.Entry, bool) {
	for _, e := range s.Entries(name) {
		if filter == nil || filter(e) {
			return e, true
		}
	}
	return nil, false
}

// Buckets returns the bucket names in lexical order.
func (s *DataStore) Buckets() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Choices lists the value/label pairs of the choices bucket of the field's
// target entity.
func (s *DataStore) Choices(field *model.Field) []model.Choice {
	target := field.TargetEntity()
	if target == nil || field.TargetField() == nil {
		return nil
	}
	idName := target.Identifier().Name()
	labelName := field.TargetField().Name()
	entries := s.Entries(ChoicesBucket(target))
	out := make([]model.Choice, 0, len(entries))
	for _, e := range entries {
		label, _ := e.Values[labelName].(string)
		if label == "" && e.Values[labelName] != nil {
			label = model.IDKey(e.Values[labelName])
		}
		out = append(out, model.Choice{Value: e.Values[idName], Label: label})
	}
	return out
}

// ReferenceChoicesByID maps target identifiers, normalized with model.IDKey,
// to the target field value, from the values bucket of the target entity.
func (s *DataStore) ReferenceChoicesByID(field *model.Field) map[string]any {
	out := map[string]any{}
	target := field.TargetEntity()
	if target == nil || field.TargetField() == nil {
		return out
	}
	idName := target.Identifier().Name()
	labelName := field.TargetField().Name()
	for _, e := range s.Entries(ValuesBucket(target)) {
		out[model.IDKey(e.Values[idName])] = e.Values[labelName]
	}
	return out
}

// FillReferencesValuesFromCollection fills the display values of references
// on every entry.
func (s *DataStore) FillReferencesValuesFromCollection(entries []*model.Entry, references []*model.Field, fillSimpleReference bool) []*model.Entry {
	for _, e := range entries {
		s.FillReferencesValuesFromEntry(e, references, fillSimpleReference)
	}
	return entries
}

// FillReferencesValuesFromEntry sets ListValues for each reference field:
// reference_many fields get the labels of every resolved id, simple
// references get their label only when fillSimpleReference is set. Ids
// without a resolved target are skipped.
func (s *DataStore) FillReferencesValuesFromEntry(entry *model.Entry, references []*model.Field, fillSimpleReference bool) *model.Entry {
	if entry.ListValues == nil {
		entry.ListValues = map[string]any{}
	}
	for _, ref := range references {
		choices := s.ReferenceChoicesByID(ref)
		value := entry.Values[ref.Name()]

		if ref.Kind() == model.KindReferenceMany {
			labels := []any{}
			for _, id := range ref.IdentifierValues([]map[string]any{{ref.Name(): value}}) {
				if label, ok := choices[model.IDKey(id)]; ok {
					labels = append(labels, label)
				}
			}
			entry.ListValues[ref.Name()] = labels
			continue
		}
		if !fillSimpleReference || value == nil {
			continue
		}
		if label, ok := choices[model.IDKey(value)]; ok {
			entry.ListValues[ref.Name()] = label
		}
	}
	return entry
}

// Snapshot returns a copy of every bucket.
func (s *DataStore) Snapshot() map[string][]*model.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]*model.Entry, len(s.entries))
	for name, entries := range s.entries {
		out[name] = append([]*model.Entry(nil), entries...)
	}
	return out
}

// Restore replaces the content of the store with buckets.
func (s *DataStore) Restore(buckets map[string][]*model.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string][]*model.Entry, len(buckets))
	for name, entries := range buckets {
		s.entries[name] = append([]*model.Entry(nil), entries...)
	}
}

// Package refs classifies field lists into the reference groups that need
// extra REST calls to resolve.
package refs

import "github.com/alfredjeanlab/adminkit/internal/model"

// Match filters on an optional boolean capability.
type Match int

const (
	Any Match = iota
	Yes
	No
)

func (m Match) accepts(v bool) bool {
	switch m {
	case Yes:
		return v
	case No:
		return !v
	}
	return true
}

// Set is a name-indexed field collection that keeps insertion order. The
// first field seen under a name wins.
type Set struct {
	names  []string
	fields map[string]*model.Field
}

func newSet() *Set {
	return &Set{fields: map[string]*model.Field{}}
}

func (s *Set) add(f *model.Field) {
	if _, dup := s.fields[f.Name()]; dup {
		return
	}
	s.names = append(s.names, f.Name())
	s.fields[f.Name()] = f
}

// Len returns the number of fields.
func (s *Set) Len() int { return len(s.names) }

// Names returns field names in insertion order.
func (s *Set) Names() []string { return append([]string(nil), s.names...) }

// Get returns the field named name, or nil.
func (s *Set) Get(name string) *model.Field { return s.fields[name] }

// Fields returns the fields in insertion order.
func (s *Set) Fields() []*model.Field {
	out := make([]*model.Field, len(s.names))
	for i, n := range s.names {
		out[i] = s.fields[n]
	}
	return out
}

// References returns the reference and reference_many fields of fields,
// including those one level inside embedded lists and those grouped by
// fieldsets and rows. remote filters on remote-complete support and
// optimized on single-call batching.
func References(fields []*model.Field, remote, optimized Match) *Set {
	out := newSet()
	for _, f := range collect(fields) {
		if !remote.accepts(f.RemoteComplete()) || !optimized.accepts(f.HasSingleAPICall()) {
			continue
		}
		out.add(f)
	}
	return out
}

// NonOptimizedReferences returns references resolved with one call per id.
func NonOptimizedReferences(fields []*model.Field, remote Match) *Set {
	return References(fields, remote, No)
}

// OptimizedReferences returns references resolved with a single call.
func OptimizedReferences(fields []*model.Field, remote Match) *Set {
	return References(fields, remote, Yes)
}

// ReferencedLists returns the referenced_list fields of fields. Embedded
// lists are not searched.
func ReferencedLists(fields []*model.Field) *Set {
	out := newSet()
	for _, f := range fields {
		if f.Kind() == model.KindReferencedList {
			out.add(f)
		}
	}
	return out
}

func collect(fields []*model.Field) []*model.Field {
	var out []*model.Field
	for _, f := range fields {
		switch {
		case f.Kind().IsReference():
			out = append(out, f)
		case f.Kind() == model.KindEmbeddedList:
			for _, t := range f.TargetFields() {
				if t.Kind().IsReference() {
					out = append(out, t)
				}
			}
		case f.Kind().IsLayout():
			out = append(out, collect(f.Children())...)
		}
	}
	return out
}

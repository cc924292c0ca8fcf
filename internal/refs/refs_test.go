package refs

import (
	"reflect"
	"testing"

	"github.com/alfredjeanlab/adminkit/internal/model"
)

func field(name string, kind model.Kind) *model.Field { return model.MustField(name, kind) }

func batched(f *model.Field) *model.Field {
	return f.SetSingleAPICall(func(ids []any) map[string]any { return map[string]any{"id": ids} })
}

func TestReferences_FiltersNonReferences(t *testing.T) {
	fields := []*model.Field{
		field("foo", model.KindReference),
		field("bar", model.KindReferenceMany),
		field("baz", model.KindReferencedList),
		field("boo", model.KindString),
	}
	got := References(fields, Any, Any)
	if want := []string{"foo", "bar"}; !reflect.DeepEqual(got.Names(), want) {
		t.Errorf("References() = %v, want %v", got.Names(), want)
	}
	if got.Get("foo") != fields[0] {
		t.Error("References() should index the original field")
	}

	lists := ReferencedLists(fields)
	if want := []string{"baz"}; !reflect.DeepEqual(lists.Names(), want) {
		t.Errorf("ReferencedLists() = %v, want %v", lists.Names(), want)
	}
}

func TestReferences_Empty(t *testing.T) {
	if n := References(nil, Any, Any).Len(); n != 0 {
		t.Errorf("References(nil) has %d fields", n)
	}
	if n := ReferencedLists(nil).Len(); n != 0 {
		t.Errorf("ReferencedLists(nil) has %d fields", n)
	}
}

func TestReferences_EmbeddedListOneLevel(t *testing.T) {
	inner := field("deep", model.KindEmbeddedList).SetTargetFields(field("deeper", model.KindReference))
	embedded := field("comments", model.KindEmbeddedList).SetTargetFields(
		field("foo1", model.KindReference),
		field("foo2", model.KindReferenceMany),
		field("foo3", model.KindReferencedList),
		inner,
	)
	got := References([]*model.Field{embedded, field("bar", model.KindString)}, Any, Any)
	if want := []string{"foo1", "foo2"}; !reflect.DeepEqual(got.Names(), want) {
		t.Errorf("References() = %v, want %v", got.Names(), want)
	}
	if ReferencedLists([]*model.Field{embedded}).Len() != 0 {
		t.Error("ReferencedLists() must not search embedded lists")
	}
}

func TestReferences_LayoutChildren(t *testing.T) {
	row := field("", model.KindRow)
	if err := row.SetChildren(field("author_id", model.KindReference), field("title", model.KindString)); err != nil {
		t.Fatal(err)
	}
	fs := field("", model.KindFieldSet)
	if err := fs.SetChildren(row); err != nil {
		t.Fatal(err)
	}
	got := References([]*model.Field{fs}, Any, Any)
	if want := []string{"author_id"}; !reflect.DeepEqual(got.Names(), want) {
		t.Errorf("References() = %v, want %v", got.Names(), want)
	}
}

func TestReferences_Filters(t *testing.T) {
	plain := field("plain", model.KindReference)
	remote := field("remote", model.KindReference).EnableRemoteComplete(nil)
	opt := batched(field("opt", model.KindReferenceMany))
	optRemote := batched(field("opt_remote", model.KindReference)).EnableRemoteComplete(nil)
	fields := []*model.Field{plain, remote, opt, optRemote}

	for _, tc := range []struct {
		name      string
		remote    Match
		optimized Match
		want      []string
	}{
		{"all", Any, Any, []string{"plain", "remote", "opt", "opt_remote"}},
		{"remote only", Yes, Any, []string{"remote", "opt_remote"}},
		{"no remote", No, Any, []string{"plain", "opt"}},
		{"optimized", Any, Yes, []string{"opt", "opt_remote"}},
		{"non-optimized without remote", No, No, []string{"plain"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := References(fields, tc.remote, tc.optimized)
			if !reflect.DeepEqual(got.Names(), tc.want) {
				t.Errorf("References() = %v, want %v", got.Names(), tc.want)
			}
		})
	}

	if got := NonOptimizedReferences(fields, Any).Names(); !reflect.DeepEqual(got, []string{"plain", "remote"}) {
		t.Errorf("NonOptimizedReferences() = %v", got)
	}
	if got := OptimizedReferences(fields, No).Names(); !reflect.DeepEqual(got, []string{"opt"}) {
		t.Errorf("OptimizedReferences() = %v", got)
	}
}

func TestSet_FirstSeenWins(t *testing.T) {
	first := field("dup", model.KindReference)
	second := field("dup", model.KindReferenceMany)
	got := References([]*model.Field{first, second}, Any, Any)
	if got.Len() != 1 || got.Get("dup") != first {
		t.Errorf("References() kept %v, want the first field", got.Fields())
	}
}

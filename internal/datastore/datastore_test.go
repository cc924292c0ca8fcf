package datastore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alfredjeanlab/adminkit/internal/model"
)

type fixture struct {
	tags    *model.Entity
	tagsRef *model.Field
	author  *model.Field
	store   *DataStore
}

func newFixture() *fixture {
	arena := &model.EntityArena{}
	tags := arena.NewEntity("tags")
	users := arena.NewEntity("users")
	f := &fixture{
		tags: tags,
		tagsRef: model.MustField("tags", model.KindReferenceMany).
			SetTargetEntity(tags).
			SetTargetField(model.MustField("name", model.KindString)),
		author: model.MustField("author_id", model.KindReference).
			SetTargetEntity(users).
			SetTargetField(model.MustField("username", model.KindString)),
		store: New(),
	}
	f.store.SetEntries(ValuesBucket(tags), []*model.Entry{
		model.NewEntry("tags", map[string]any{"id": float64(1), "name": "go"}, float64(1)),
		model.NewEntry("tags", map[string]any{"id": float64(2), "name": "rest"}, float64(2)),
	})
	f.store.SetEntries(ValuesBucket(users), []*model.Entry{
		model.NewEntry("users", map[string]any{"id": "u1", "username": "jane"}, "u1"),
	})
	return f
}

func TestDataStore_Buckets(t *testing.T) {
	s := New()
	assert.Empty(t, s.Entries("missing"))

	s.AddEntry("posts", model.NewEntry("posts", nil, 1))
	s.AddEntry("posts", model.NewEntry("posts", nil, 2))
	require.Len(t, s.Entries("posts"), 2)

	s.SetEntries("posts", []*model.Entry{model.NewEntry("posts", nil, 3)})
	entries := s.Entries("posts")
	require.Len(t, entries, 1)
	assert.Equal(t, 3, entries[0].IdentifierValue)

	s.AddEntry("comments", model.NewEntry("comments", nil, 1))
	assert.Equal(t, []string{"comments", "posts"}, s.Buckets())
}

func TestDataStore_MergeEntries(t *testing.T) {
	s := New()
	s.SetEntries("users_values", []*model.Entry{
		model.NewEntry("users", map[string]any{"name": "Jane"}, float64(1)),
		model.NewEntry("users", map[string]any{"name": "Ann"}, float64(2)),
	})

	s.MergeEntries("users_values", []*model.Entry{
		model.NewEntry("users", map[string]any{"name": "Jane D."}, "1"),
		model.NewEntry("users", map[string]any{"name": "Sam"}, float64(3)),
		model.NewEntry("users", map[string]any{"name": "anonymous"}, nil),
	})

	got := s.Entries("users_values")
	require.Len(t, got, 4)
	names := make([]any, len(got))
	for i, e := range got {
		names[i] = e.Values["name"]
	}
	assert.Equal(t, []any{"Jane D.", "Ann", "Sam", "anonymous"}, names)

	s.MergeEntries("fresh", []*model.Entry{model.NewEntry("tags", nil, float64(5))})
	assert.Len(t, s.Entries("fresh"), 1)
}

func TestDataStore_FirstEntry(t *testing.T) {
	s := New()
	s.SetEntries("books", []*model.Entry{
		model.NewEntry("books", map[string]any{"title": "Dune"}, 1),
		model.NewEntry("books", map[string]any{"title": "War and Peace"}, 2),
	})

	e, ok := s.FirstEntry("books", func(e *model.Entry) bool { return e.Values["title"] == "War and Peace" })
	require.True(t, ok)
	assert.Equal(t, 2, e.IdentifierValue)

	e, ok = s.FirstEntry("books", nil)
	require.True(t, ok)
	assert.Equal(t, 1, e.IdentifierValue)

	_, ok = s.FirstEntry("books", func(*model.Entry) bool { return false })
	assert.False(t, ok)
}

func TestDataStore_Choices(t *testing.T) {
	f := newFixture()
	f.store.SetEntries(ChoicesBucket(f.tags), []*model.Entry{
		model.NewEntry("tags", map[string]any{"id": float64(5), "name": "sql"}, float64(5)),
	})
	assert.Equal(t, []model.Choice{{Value: float64(5), Label: "sql"}}, f.store.Choices(f.tagsRef))
}

func TestDataStore_ReferenceChoicesByID(t *testing.T) {
	f := newFixture()
	assert.Equal(t, map[string]any{"1": "go", "2": "rest"}, f.store.ReferenceChoicesByID(f.tagsRef))
}

func TestDataStore_FillReferencesValues(t *testing.T) {
	f := newFixture()
	entries := []*model.Entry{
		model.NewEntry("posts", map[string]any{"id": 1, "tags": []any{float64(1), float64(2), float64(9)}, "author_id": "u1"}, 1),
		model.NewEntry("posts", map[string]any{"id": 2, "tags": []any{}, "author_id": "nobody"}, 2),
	}
	refs := []*model.Field{f.tagsRef, f.author}

	f.store.FillReferencesValuesFromCollection(entries, refs, false)
	assert.Equal(t, []any{"go", "rest"}, entries[0].ListValues["tags"])
	assert.Equal(t, []any{}, entries[1].ListValues["tags"])
	assert.NotContains(t, entries[0].ListValues, "author_id", "simple references stay unfilled without the flag")

	f.store.FillReferencesValuesFromCollection(entries, refs, true)
	assert.Equal(t, "jane", entries[0].ListValues["author_id"])
	assert.NotContains(t, entries[1].ListValues, "author_id")
}

func TestDataStore_SnapshotRestore(t *testing.T) {
	f := newFixture()
	snap := f.store.Snapshot()

	other := New()
	other.Restore(snap)
	assert.Equal(t, f.store.Buckets(), other.Buckets())
	assert.Len(t, other.Entries(ValuesBucket(f.tags)), 2)

	other.AddEntry(ValuesBucket(f.tags), model.NewEntry("tags", nil, 3))
	assert.Len(t, f.store.Entries(ValuesBucket(f.tags)), 2, "restored store must not alias the snapshot source")
}

func TestBucketNames(t *testing.T) {
	f := newFixture()
	assert.Equal(t, "tags_0_values", ValuesBucket(f.tags))
	assert.Equal(t, "tags_0_choices", ChoicesBucket(f.tags))
	assert.Equal(t, "tags_list", ListBucket(f.tagsRef))
}

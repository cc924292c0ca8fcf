package query

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"testing"

	"github.com/alfredjeanlab/adminkit/internal/model"
	"github.com/alfredjeanlab/adminkit/internal/refs"
	"github.com/alfredjeanlab/adminkit/internal/rest"
)

func TestListParams(t *testing.T) {
	arena := &model.EntityArena{}
	posts := arena.NewEntity("posts")
	published := model.MustField("published", model.KindBoolean).
		Map(func(v any, _ map[string]any) (any, error) {
			return map[string]any{"status": "published", "draft": v != true}, nil
		})
	scalar := model.MustField("q", model.KindString).
		Map(func(v any, _ map[string]any) (any, error) { return "%" + v.(string) + "%", nil })
	broken := model.MustField("broken", model.KindString).
		Map(func(any, map[string]any) (any, error) { return nil, errors.New("boom") })

	for _, tc := range []struct {
		name    string
		q       RawQuery
		want    rest.ListParams
		wantErr bool
	}{
		{
			name: "first page by default",
			q:    RawQuery{Entity: posts, ViewName: "posts_ListView", PerPage: 30},
			want: rest.ListParams{Page: 1, PerPage: 30},
		},
		{
			name: "no pagination",
			q:    RawQuery{Entity: posts, Page: rest.NoPagination, PerPage: 30},
			want: rest.ListParams{Page: rest.NoPagination},
		},
		{
			name: "sort prefixed with the view name",
			q:    RawQuery{Entity: posts, ViewName: "posts_ListView", Page: 2, PerPage: 10, SortField: "posts_ListView.author.name", SortDir: "ASC"},
			want: rest.ListParams{Page: 2, PerPage: 10, SortField: "author.name", SortDir: "ASC"},
		},
		{
			name: "sort of another view is ignored",
			q:    RawQuery{Entity: posts, ViewName: "posts_ListView", Page: 1, PerPage: 10, SortField: "users_ListView.name", SortDir: "ASC"},
			want: rest.ListParams{Page: 1, PerPage: 10},
		},
		{
			name: "filter pipelines expand into keys",
			q: RawQuery{
				Entity: posts, Page: 1, PerPage: 10,
				Filters:      map[string]any{"published": true, "q": "go", "author_id": 3},
				FilterFields: []*model.Field{published, scalar},
			},
			want: rest.ListParams{Page: 1, PerPage: 10, Filters: map[string]any{
				"status": "published", "draft": false, "q": "%go%", "author_id": 3,
			}},
		},
		{
			name: "permanent filters applied after expansion",
			q: RawQuery{
				Entity: posts, Page: 1, PerPage: 10,
				Filters:          map[string]any{"published": true},
				FilterFields:     []*model.Field{published},
				PermanentFilters: map[string]any{"status": "archived"},
			},
			want: rest.ListParams{Page: 1, PerPage: 10, Filters: map[string]any{
				"status": "archived", "draft": false,
			}},
		},
		{
			name: "permanent filters alone",
			q:    RawQuery{Entity: posts, Page: 1, PerPage: 10, PermanentFilters: map[string]any{"status": "archived"}},
			want: rest.ListParams{Page: 1, PerPage: 10, Filters: map[string]any{"status": "archived"}},
		},
		{
			name:    "filter pipeline error",
			q:       RawQuery{Entity: posts, Filters: map[string]any{"broken": "x"}, FilterFields: []*model.Field{broken}},
			wantErr: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ListParams(tc.q)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ListParams() error = %v, wantErr %v", err, tc.wantErr)
			}
			if tc.wantErr {
				return
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("ListParams() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestReader_GetAll_Sort(t *testing.T) {
	for _, tc := range []struct {
		name      string
		sortField string
		sortDir   string
		wantField string
		wantDir   string
	}{
		{"default sort", "", "", "id", "DESC"},
		{"override of this view", "posts_ListView.title", "ASC", "title", "ASC"},
		{"override of an unrelated view", "users_ListView.name", "ASC", "id", "DESC"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			b := newBlog(t)
			tr := newFakeTransport()
			r := NewReader(b.app, tr, nil, 0)

			_, err := r.GetAll(context.Background(), b.posts.ListView(), ListQuery{Page: 1, SortField: tc.sortField, SortDir: tc.sortDir})
			if err != nil {
				t.Fatalf("GetAll() error = %v", err)
			}
			if len(tr.listCalls) != 1 {
				t.Fatalf("list calls = %d, want 1", len(tr.listCalls))
			}
			call := tr.listCalls[0]
			if call.url != apiURL("posts") || call.method != http.MethodGet {
				t.Errorf("call = %s %s", call.method, call.url)
			}
			if call.params.SortField != tc.wantField || call.params.SortDir != tc.wantDir {
				t.Errorf("sort = %q %q, want %q %q", call.params.SortField, call.params.SortDir, tc.wantField, tc.wantDir)
			}
			if call.params.Page != 1 || call.params.PerPage != 30 {
				t.Errorf("pagination = %d/%d", call.params.Page, call.params.PerPage)
			}
		})
	}
}

func TestReader_GetAll_PermanentFiltersWin(t *testing.T) {
	b := newBlog(t)
	b.posts.ListView().SetPermanentFilters(map[string]any{"status": "published"})
	tr := newFakeTransport()
	r := NewReader(b.app, tr, nil, 0)

	_, err := r.GetAll(context.Background(), b.posts.ListView(), ListQuery{
		Filters: map[string]any{"status": "draft", "q": "go"},
	})
	if err != nil {
		t.Fatalf("GetAll() error = %v", err)
	}
	want := map[string]any{"status": "published", "q": "go"}
	if got := tr.listCalls[0].params.Filters; !reflect.DeepEqual(got, want) {
		t.Errorf("filters = %v, want %v", got, want)
	}
}

func TestReader_GetAll_PermanentFiltersWinOverExpandedFilters(t *testing.T) {
	b := newBlog(t)
	search := model.MustField("q", model.KindString).
		Map(func(v any, _ map[string]any) (any, error) {
			return map[string]any{"published": false, "title": v}, nil
		})
	b.posts.ListView().
		SetPermanentFilters(map[string]any{"published": true}).
		SetFilters(search)
	tr := newFakeTransport()
	r := NewReader(b.app, tr, nil, 0)

	if _, err := r.GetAll(context.Background(), b.posts.ListView(), ListQuery{
		Filters: map[string]any{"q": "x"},
	}); err != nil {
		t.Fatalf("GetAll() error = %v", err)
	}
	want := map[string]any{"published": true, "title": "x"}
	if got := tr.listCalls[0].params.Filters; !reflect.DeepEqual(got, want) {
		t.Errorf("filters = %v, want %v", got, want)
	}
}

func TestReader_GetAll_TotalItems(t *testing.T) {
	rows := []map[string]any{{"id": float64(1)}, {"id": float64(2)}}
	for _, tc := range []struct {
		name   string
		total  *int
		header string
		want   int
	}{
		{"explicit total", intPtr(40), "50", 40},
		{"total count header", nil, "50", 50},
		{"zero total falls back", intPtr(0), "", 2},
		{"data length", nil, "", 2},
	} {
		t.Run(tc.name, func(t *testing.T) {
			b := newBlog(t)
			tr := newFakeTransport()
			tr.lists[apiURL("posts")] = rows
			if tc.total != nil {
				tr.totals[apiURL("posts")] = *tc.total
			}
			if tc.header != "" {
				tr.headers[apiURL("posts")] = http.Header{TotalCountHeader: {tc.header}}
			}
			got, err := NewReader(b.app, tr, nil, 0).GetAll(context.Background(), b.posts.ListView(), ListQuery{})
			if err != nil {
				t.Fatalf("GetAll() error = %v", err)
			}
			if got.TotalItems != tc.want {
				t.Errorf("TotalItems = %d, want %d", got.TotalItems, tc.want)
			}
		})
	}
}

func TestReader_GetAll_PropagatesFailure(t *testing.T) {
	b := newBlog(t)
	tr := newFakeTransport()
	boom := &rest.APIError{StatusCode: http.StatusInternalServerError, Message: "down"}
	tr.fail[apiURL("posts")] = boom
	_, err := NewReader(b.app, tr, nil, 0).GetAll(context.Background(), b.posts.ListView(), ListQuery{})
	if !errors.Is(err, boom) {
		t.Errorf("GetAll() error = %v, want %v", err, boom)
	}
}

func TestReader_FilteredReferenceData(t *testing.T) {
	b := newBlog(t)
	tr := newFakeTransport()
	tr.one[apiURL("users/1")] = map[string]any{"id": float64(1), "name": "Jane"}
	tr.fail[apiURL("users/2")] = errors.New("timeout")
	tr.one[apiURL("users/3")] = map[string]any{"id": float64(3), "name": "Joe"}
	r := NewReader(b.app, tr, nil, 2)

	records := []map[string]any{
		{"id": 10, "author_id": float64(1)},
		{"id": 11, "author_id": float64(1)},
		{"id": 12, "author_id": float64(2)},
		{"id": 13, "author_id": float64(3)},
		{"id": 14, "author_id": nil},
	}
	got := r.FilteredReferenceData(context.Background(), refs.References([]*model.Field{b.author}, refs.Any, refs.Any), records)

	if len(tr.gets) != 3 {
		t.Errorf("detail calls = %v, want one per distinct id", tr.gets)
	}
	want := ReferenceData{"author_id": {
		{"id": float64(1), "name": "Jane"},
		{"id": float64(3), "name": "Joe"},
	}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FilteredReferenceData() = %v, want %v", got, want)
	}
}

func TestReader_FilteredReferenceData_AllFailed(t *testing.T) {
	b := newBlog(t)
	tr := newFakeTransport()
	r := NewReader(b.app, tr, nil, 0)
	got := r.FilteredReferenceData(context.Background(),
		refs.References([]*model.Field{b.author}, refs.Any, refs.Any),
		[]map[string]any{{"author_id": "missing"}})
	if _, ok := got["author_id"]; ok {
		t.Errorf("FilteredReferenceData() = %v, want field omitted", got)
	}
}

func TestReader_OptimizedReferenceData(t *testing.T) {
	b := newBlog(t)
	tr := newFakeTransport()
	tr.lists[apiURL("tags")] = []map[string]any{{"id": float64(1), "label": "go"}, {"id": float64(2), "label": "rest"}}
	r := NewReader(b.app, tr, nil, 0)

	records := []map[string]any{
		{"tags": []any{float64(1), float64(2)}},
		{"tags": []any{float64(2)}},
	}
	got := r.OptimizedReferenceData(context.Background(), refs.OptimizedReferences([]*model.Field{b.tagList, b.author}, refs.Any), records)

	if len(tr.listCalls) != 1 {
		t.Fatalf("list calls = %d, want 1", len(tr.listCalls))
	}
	want := rest.ListParams{
		Page: 1, PerPage: 30, SortField: "label", SortDir: SortASC,
		Filters: map[string]any{"id": []any{float64(1), float64(2)}},
	}
	if params := tr.listCalls[0].params; !reflect.DeepEqual(params, want) {
		t.Errorf("params = %+v, want %+v", params, want)
	}
	if len(got["tags"]) != 2 {
		t.Errorf("OptimizedReferenceData() = %v", got)
	}
}

func TestReader_ReferenceData_ShortCircuits(t *testing.T) {
	b := newBlog(t)
	tr := newFakeTransport()
	r := NewReader(b.app, tr, nil, 0)
	ctx := context.Background()

	fields := []*model.Field{b.author, b.tagList}
	if got := r.ReferenceData(ctx, refs.References(fields, refs.Any, refs.Any), []map[string]any{{"title": "no refs"}}); len(got) != 0 {
		t.Errorf("ReferenceData() = %v, want empty", got)
	}
	if got := r.ReferenceData(ctx, refs.References(nil, refs.Any, refs.Any), nil); len(got) != 0 {
		t.Errorf("ReferenceData() = %v, want empty", got)
	}
	if len(tr.gets)+len(tr.listCalls) != 0 {
		t.Errorf("issued calls: gets=%v lists=%v", tr.gets, tr.listCalls)
	}
}

func TestReader_ReferenceData_Merges(t *testing.T) {
	b := newBlog(t)
	tr := newFakeTransport()
	tr.one[apiURL("users/1")] = map[string]any{"id": float64(1), "name": "Jane"}
	tr.lists[apiURL("tags")] = []map[string]any{{"id": float64(5), "label": "go"}}
	r := NewReader(b.app, tr, nil, 0)

	got := r.ReferenceData(context.Background(),
		refs.References([]*model.Field{b.author, b.tagList}, refs.Any, refs.Any),
		[]map[string]any{{"author_id": float64(1), "tags": []any{float64(5)}}})
	if len(got["author_id"]) != 1 || len(got["tags"]) != 1 {
		t.Errorf("ReferenceData() = %v", got)
	}
}

func TestReader_ReferencedListData(t *testing.T) {
	for _, tc := range []struct {
		name      string
		sortField string
		sortDir   string
		wantField string
		wantDir   string
	}{
		{"own sort", "", "", "title", SortASC},
		{"override for this list", "posts_ListView.created_at", "DESC", "created_at", "DESC"},
		{"override defaults to ascending", "posts_ListView.created_at", "", "created_at", SortASC},
		{"override for another list", "comments_ListView.body", "DESC", "title", SortASC},
	} {
		t.Run(tc.name, func(t *testing.T) {
			b := newBlog(t)
			b.userPost.SetPermanentFilters(model.StaticFilters(map[string]any{"published": true, "author_id": 99}))
			tr := newFakeTransport()
			tr.lists[apiURL("posts")] = []map[string]any{{"id": float64(10), "title": "Hello"}}
			r := NewReader(b.app, tr, nil, 0)

			got := r.ReferencedListData(context.Background(), refs.ReferencedLists(b.users.ShowView().Fields()), tc.sortField, tc.sortDir, float64(1))
			if len(got["posts"]) != 1 {
				t.Fatalf("ReferencedListData() = %v", got)
			}
			params := tr.listCalls[0].params
			wantFilters := map[string]any{"published": true, "author_id": float64(1)}
			if !reflect.DeepEqual(params.Filters, wantFilters) {
				t.Errorf("filters = %v, want %v (relation wins)", params.Filters, wantFilters)
			}
			if params.SortField != tc.wantField || params.SortDir != tc.wantDir {
				t.Errorf("sort = %q %q, want %q %q", params.SortField, params.SortDir, tc.wantField, tc.wantDir)
			}
		})
	}
}

func TestReader_AllReferencedData(t *testing.T) {
	b := newBlog(t)
	searchable := model.MustField("editor_id", model.KindReference).
		SetTargetEntity(b.users).
		SetTargetField(model.MustField("name", model.KindString)).
		SetPermanentFilters(model.StaticFilters(map[string]any{"active": true, "name": "forced"})).
		EnableRemoteComplete(&model.RemoteCompleteCapability{
			SearchQuery: func(search string) map[string]any { return map[string]any{"q": search} },
		})

	for _, tc := range []struct {
		name   string
		field  *model.Field
		search string
		want   map[string]any
	}{
		{"no search", b.author, "", nil},
		{"search on target field", b.author, "ja", map[string]any{"name": "ja"}},
		{"search query with permanent filters", searchable, "ja", map[string]any{"q": "ja", "active": true, "name": "forced"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			tr := newFakeTransport()
			tr.lists[apiURL("users")] = []map[string]any{{"id": float64(1), "name": "Jane"}}
			r := NewReader(b.app, tr, nil, 0)

			got := r.AllReferencedData(context.Background(), refs.References([]*model.Field{tc.field}, refs.Any, refs.Any), tc.search)
			if len(got[tc.field.Name()]) != 1 {
				t.Fatalf("AllReferencedData() = %v", got)
			}
			if params := tr.listCalls[0].params; !reflect.DeepEqual(params.Filters, tc.want) {
				t.Errorf("filters = %#v, want %#v", params.Filters, tc.want)
			}
		})
	}
}

func TestReader_RecordsByIDs(t *testing.T) {
	b := newBlog(t)
	tr := newFakeTransport()
	tr.one[apiURL("users/1")] = map[string]any{"id": float64(1)}
	tr.one[apiURL("users/3")] = map[string]any{"id": float64(3)}
	r := NewReader(b.app, tr, nil, 0)

	got := r.RecordsByIDs(context.Background(), b.users, []any{1, 2, 3})
	if len(got) != 2 || got[0]["id"] != float64(1) || got[1]["id"] != float64(3) {
		t.Errorf("RecordsByIDs() = %v", got)
	}
	if got := r.RecordsByIDs(context.Background(), b.users, nil); got == nil || len(got) != 0 {
		t.Errorf("RecordsByIDs(nil) = %#v, want empty", got)
	}
}

func intPtr(n int) *int { return &n }

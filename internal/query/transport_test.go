package query

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/alfredjeanlab/adminkit/internal/app"
	"github.com/alfredjeanlab/adminkit/internal/model"
	"github.com/alfredjeanlab/adminkit/internal/rest"
)

const testBaseURL = "http://api.test/"

type listCall struct {
	url    string
	method string
	params rest.ListParams
}

type writeCall struct {
	url     string
	method  string
	payload map[string]any
}

// fakeTransport serves canned payloads by resolved URL and records every call.
type fakeTransport struct {
	mu sync.Mutex

	one     map[string]map[string]any
	lists   map[string][]map[string]any
	totals  map[string]int
	headers map[string]http.Header
	fail    map[string]error

	gets      []string
	listCalls []listCall
	creates   []writeCall
	updates   []writeCall
	deletes   []writeCall
	deleteAll []listCall
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		one:     map[string]map[string]any{},
		lists:   map[string][]map[string]any{},
		totals:  map[string]int{},
		headers: map[string]http.Header{},
		fail:    map[string]error{},
	}
}

func (f *fakeTransport) GetOne(ctx context.Context, entityName, url, method string) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets = append(f.gets, url)
	if err := f.fail[url]; err != nil {
		return nil, err
	}
	if out, ok := f.one[url]; ok {
		return out, nil
	}
	return nil, &rest.APIError{StatusCode: http.StatusNotFound, Message: "not found"}
}

func (f *fakeTransport) GetList(ctx context.Context, params rest.ListParams, entityName, url, method string) (*rest.ListResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls = append(f.listCalls, listCall{url: url, method: method, params: params})
	if err := f.fail[url]; err != nil {
		return nil, err
	}
	resp := &rest.ListResponse{Data: f.lists[url], Header: f.headers[url]}
	if resp.Data == nil {
		resp.Data = []map[string]any{}
	}
	if n, ok := f.totals[url]; ok {
		resp.TotalCount = &n
	}
	return resp, nil
}

func (f *fakeTransport) CreateOne(ctx context.Context, payload map[string]any, entityName, url, method string) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, writeCall{url: url, method: method, payload: payload})
	if err := f.fail[url]; err != nil {
		return nil, err
	}
	out := map[string]any{"id": float64(100)}
	for k, v := range payload {
		out[k] = v
	}
	return out, nil
}

func (f *fakeTransport) UpdateOne(ctx context.Context, payload map[string]any, entityName, url, method string) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, writeCall{url: url, method: method, payload: payload})
	if err := f.fail[url]; err != nil {
		return nil, err
	}
	return payload, nil
}

func (f *fakeTransport) DeleteOne(ctx context.Context, entityName, url, method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, writeCall{url: url, method: method})
	return f.fail[url]
}

func (f *fakeTransport) DeleteAll(ctx context.Context, entityName, url string, params rest.ListParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteAll = append(f.deleteAll, listCall{url: url, params: params})
	return f.fail[url]
}

// blog is a small admin: posts reference one user and many tags, and users
// list their posts.
type blog struct {
	app   *app.Application
	posts *model.Entity
	users *model.Entity
	tags  *model.Entity

	author   *model.Field
	tagList  *model.Field
	userPost *model.Field
}

func newBlog(t *testing.T) *blog {
	t.Helper()
	a := app.New("Blog", testBaseURL)
	b := &blog{app: a}
	var err error
	if b.posts, err = a.NewEntity("posts"); err != nil {
		t.Fatal(err)
	}
	if b.users, err = a.NewEntity("users"); err != nil {
		t.Fatal(err)
	}
	if b.tags, err = a.NewEntity("tags"); err != nil {
		t.Fatal(err)
	}

	b.author = model.MustField("author_id", model.KindReference).
		SetTargetEntity(b.users).
		SetTargetField(model.MustField("name", model.KindString))
	b.tagList = model.MustField("tags", model.KindReferenceMany).
		SetTargetEntity(b.tags).
		SetTargetField(model.MustField("label", model.KindString)).
		SetSort("label", SortASC).
		SetSingleAPICall(func(ids []any) map[string]any { return map[string]any{"id": ids} })

	b.posts.ListView().AddFields(
		model.MustField("id", model.KindNumber),
		model.MustField("title", model.KindString),
		b.author,
		b.tagList,
	)
	b.posts.ShowView().AddFields(
		model.MustField("id", model.KindNumber),
		model.MustField("title", model.KindString),
		b.author,
	)

	b.userPost = model.MustField("posts", model.KindReferencedList).
		SetTargetEntity(b.posts).
		SetTargetReferenceField("author_id").
		SetTargetFields(model.MustField("title", model.KindString), b.tagList).
		SetSort("title", SortASC)
	b.users.ShowView().AddFields(
		model.MustField("id", model.KindNumber),
		model.MustField("name", model.KindString),
		b.userPost,
	)
	return b
}

func apiURL(path string) string { return testBaseURL + path }

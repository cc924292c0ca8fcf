package query

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"testing"

	"github.com/alfredjeanlab/adminkit/internal/events"
)

func TestWriter_CreateOne(t *testing.T) {
	b := newBlog(t)
	tr := newFakeTransport()
	pub := &events.RecordingPublisher{}
	w := NewWriter(b.app, tr, pub, nil, 0)

	got, err := w.CreateOne(context.Background(), b.posts.CreationView(), map[string]any{"title": "New"})
	if err != nil {
		t.Fatalf("CreateOne() error = %v", err)
	}
	if got["id"] != float64(100) {
		t.Errorf("CreateOne() = %v", got)
	}
	if len(tr.creates) != 1 || tr.creates[0].url != apiURL("posts") || tr.creates[0].method != http.MethodPost {
		t.Errorf("creates = %+v", tr.creates)
	}
	if len(pub.Events) != 1 || pub.Events[0].Topic != "admin.entry.created.posts" {
		t.Fatalf("events = %+v", pub.Events)
	}
	if ev := pub.Events[0].Event.(events.EntryCreated); ev.ID != float64(100) {
		t.Errorf("event = %+v", ev)
	}
}

func TestWriter_UpdateOne(t *testing.T) {
	for _, tc := range []struct {
		name     string
		originID any
		wantURL  string
	}{
		{"identifier from payload", nil, apiURL("posts/3")},
		{"origin id wins", 9, apiURL("posts/9")},
	} {
		t.Run(tc.name, func(t *testing.T) {
			b := newBlog(t)
			b.posts.SetMethods("", http.MethodPatch, "", "")
			tr := newFakeTransport()
			pub := &events.RecordingPublisher{}

			_, err := NewWriter(b.app, tr, pub, nil, 0).UpdateOne(context.Background(), b.posts.EditionView(), map[string]any{"id": 3, "title": "x"}, tc.originID)
			if err != nil {
				t.Fatalf("UpdateOne() error = %v", err)
			}
			if tr.updates[0].url != tc.wantURL || tr.updates[0].method != http.MethodPatch {
				t.Errorf("update = %s %s, want PATCH %s", tr.updates[0].method, tr.updates[0].url, tc.wantURL)
			}
			if len(pub.Events) != 1 || pub.Events[0].Topic != "admin.entry.updated.posts" {
				t.Errorf("events = %+v", pub.Events)
			}
		})
	}
}

func TestWriter_FailedWriteIsNotPublished(t *testing.T) {
	b := newBlog(t)
	tr := newFakeTransport()
	boom := errors.New("boom")
	tr.fail[apiURL("posts/1")] = boom
	pub := &events.RecordingPublisher{}

	err := NewWriter(b.app, tr, pub, nil, 0).DeleteOne(context.Background(), b.posts.DeletionView(), 1)
	if !errors.Is(err, boom) {
		t.Errorf("DeleteOne() error = %v, want %v", err, boom)
	}
	if len(pub.Events) != 0 {
		t.Errorf("events = %+v, want none", pub.Events)
	}
}

func TestWriter_DeleteOne(t *testing.T) {
	b := newBlog(t)
	tr := newFakeTransport()
	pub := &events.RecordingPublisher{}

	if err := NewWriter(b.app, tr, pub, nil, 0).DeleteOne(context.Background(), b.posts.DeletionView(), "abc"); err != nil {
		t.Fatalf("DeleteOne() error = %v", err)
	}
	if tr.deletes[0].url != apiURL("posts/abc") || tr.deletes[0].method != http.MethodDelete {
		t.Errorf("delete = %+v", tr.deletes[0])
	}
	want := events.EntryDeleted{Entity: "posts", ID: "abc"}
	if len(pub.Events) != 1 || !reflect.DeepEqual(pub.Events[0].Event, want) {
		t.Errorf("events = %+v", pub.Events)
	}
}

func TestWriter_BatchDelete_OneCallPerID(t *testing.T) {
	b := newBlog(t)
	tr := newFakeTransport()
	tr.fail[apiURL("posts/2")] = errors.New("locked")
	pub := &events.RecordingPublisher{}

	res := NewWriter(b.app, tr, pub, nil, 2).BatchDelete(context.Background(), b.posts.BatchDeleteView(), []any{1, 2, 3})

	if len(tr.deletes) != 3 || len(tr.deleteAll) != 0 {
		t.Errorf("deletes = %d, deleteAll = %d", len(tr.deletes), len(tr.deleteAll))
	}
	if !reflect.DeepEqual(res.Deleted, []any{1, 3}) {
		t.Errorf("Deleted = %v, want [1 3]", res.Deleted)
	}
	if len(res.Failed) != 1 || res.Failed[0].ID != 2 || res.Failed[0].Err == nil {
		t.Errorf("Failed = %+v", res.Failed)
	}
	if len(pub.Events) != 1 || pub.Events[0].Topic != "admin.batch.deleted.posts" {
		t.Fatalf("events = %+v", pub.Events)
	}
	ev := pub.Events[0].Event.(events.BatchDeleted)
	if !reflect.DeepEqual(ev.Failed, []any{2}) || ev.SingleCall {
		t.Errorf("event = %+v", ev)
	}
}

func TestWriter_BatchDelete_SingleCall(t *testing.T) {
	b := newBlog(t)
	b.posts.BatchDeleteView().SetSingleAPICall(func(ids []any) map[string]any {
		return map[string]any{"id": ids}
	})
	tr := newFakeTransport()

	res := NewWriter(b.app, tr, nil, nil, 0).BatchDelete(context.Background(), b.posts.BatchDeleteView(), []any{1, 2})

	if len(tr.deletes) != 0 || len(tr.deleteAll) != 1 {
		t.Fatalf("deletes = %d, deleteAll = %d", len(tr.deletes), len(tr.deleteAll))
	}
	call := tr.deleteAll[0]
	if call.url != apiURL("posts") || !reflect.DeepEqual(call.params.Filters, map[string]any{"id": []any{1, 2}}) {
		t.Errorf("deleteAll = %+v", call)
	}
	if !res.SingleCall || len(res.Deleted) != 2 || len(res.Failed) != 0 {
		t.Errorf("result = %+v", res)
	}
}

func TestWriter_BatchDelete_SingleCallFailure(t *testing.T) {
	b := newBlog(t)
	b.posts.BatchDeleteView().SetSingleAPICall(func(ids []any) map[string]any { return map[string]any{"id": ids} })
	tr := newFakeTransport()
	tr.fail[apiURL("posts")] = errors.New("down")
	pub := &events.RecordingPublisher{}

	res := NewWriter(b.app, tr, pub, nil, 0).BatchDelete(context.Background(), b.posts.BatchDeleteView(), []any{1, 2})
	if len(res.Deleted) != 0 || !reflect.DeepEqual(res.FailedIDs(), []any{1, 2}) {
		t.Errorf("result = %+v", res)
	}
	if len(pub.Events) != 0 {
		t.Errorf("events = %+v, want none", pub.Events)
	}
}

func TestWriter_BatchDelete_NoIDs(t *testing.T) {
	for _, tc := range []struct {
		name       string
		singleCall bool
	}{
		{"one call per id", false},
		{"single call", true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			b := newBlog(t)
			if tc.singleCall {
				b.posts.BatchDeleteView().SetSingleAPICall(func(ids []any) map[string]any { return map[string]any{"id": ids} })
			}
			tr := newFakeTransport()
			pub := &events.RecordingPublisher{}

			res := NewWriter(b.app, tr, pub, nil, 0).BatchDelete(context.Background(), b.posts.BatchDeleteView(), nil)

			if len(tr.deletes) != 0 || len(tr.deleteAll) != 0 {
				t.Errorf("deletes = %d, deleteAll = %d, want no calls", len(tr.deletes), len(tr.deleteAll))
			}
			if len(res.Deleted) != 0 || len(res.Failed) != 0 {
				t.Errorf("result = %+v, want empty", res)
			}
			if len(pub.Events) != 0 {
				t.Errorf("events = %+v, want none", pub.Events)
			}
		})
	}
}

func TestWriter_DeleteMultiple_RefusesEmptyFilter(t *testing.T) {
	for _, tc := range []struct {
		name   string
		filter func(ids []any) map[string]any
		ids    []any
	}{
		{"nil filter", func([]any) map[string]any { return nil }, []any{1}},
		{"empty filter", func([]any) map[string]any { return map[string]any{} }, []any{1}},
		{"no ids", func(ids []any) map[string]any { return map[string]any{"id": ids} }, nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			b := newBlog(t)
			b.posts.BatchDeleteView().SetSingleAPICall(tc.filter)
			tr := newFakeTransport()

			err := NewWriter(b.app, tr, nil, nil, 0).DeleteMultiple(context.Background(), b.posts.BatchDeleteView(), tc.ids)
			if !errors.Is(err, ErrEmptyBatch) {
				t.Errorf("DeleteMultiple() error = %v, want ErrEmptyBatch", err)
			}
			if len(tr.deleteAll) != 0 {
				t.Errorf("deleteAll = %+v, want no call", tr.deleteAll)
			}
		})
	}
}

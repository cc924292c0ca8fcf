package query

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/alfredjeanlab/adminkit/internal/app"
	"github.com/alfredjeanlab/adminkit/internal/join"
	"github.com/alfredjeanlab/adminkit/internal/model"
	"github.com/alfredjeanlab/adminkit/internal/refs"
	"github.com/alfredjeanlab/adminkit/internal/rest"
)

// DefaultConcurrency bounds the secondary calls of one resolution phase.
const DefaultConcurrency = 8

// TotalCountHeader carries the total number of items of a list response.
const TotalCountHeader = "X-Total-Count"

// ReferenceData maps a field name to the records resolved for it.
type ReferenceData map[string][]map[string]any

// ListQuery is the caller side of a list fetch.
type ListQuery struct {
	Page      int
	Filters   map[string]any
	SortField string
	SortDir   string
}

// ListResult is one page of raw records.
type ListResult struct {
	Data       []map[string]any
	TotalItems int
}

// Reader fetches entries and resolves their references.
type Reader struct {
	app         *app.Application
	transport   rest.Transport
	logger      *slog.Logger
	concurrency int
}

// NewReader creates a Reader. A nil logger uses slog.Default and a
// non-positive concurrency uses DefaultConcurrency.
func NewReader(application *app.Application, transport rest.Transport, logger *slog.Logger, concurrency int) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Reader{app: application, transport: transport, logger: logger, concurrency: concurrency}
}

// GetOne fetches one raw record of entity.
func (r *Reader) GetOne(ctx context.Context, entity *model.Entity, viewType model.ViewType, id any, identifierName, url string) (map[string]any, error) {
	route := r.app.RouteFor(entity, url, viewType, id, identifierName)
	return r.transport.GetOne(ctx, entity.Name(), route, entity.RetrieveMethod())
}

// GetAll fetches one page of view. The sort override is used only when it is
// prefixed with the view name; permanent filters win over caller filters.
func (r *Reader) GetAll(ctx context.Context, view *model.View, q ListQuery) (*ListResult, error) {
	sortField, sortDir := q.SortField, q.SortDir
	if _, ok := SortFieldFor(sortField, view.Name()); !ok {
		sortField, sortDir = view.SortFieldName(), view.SortDir()
	}

	resp, err := r.GetRawValues(ctx, RawQuery{
		Entity:           view.Entity(),
		ViewName:         view.Name(),
		ViewType:         view.Type(),
		Page:             q.Page,
		PerPage:          view.PerPage(),
		Filters:          q.Filters,
		FilterFields:     view.Filters(),
		PermanentFilters: view.PermanentFilters(),
		SortField:        sortField,
		SortDir:          sortDir,
		URL:              view.URL(nil),
	})
	if err != nil {
		return nil, err
	}
	return &ListResult{Data: resp.Data, TotalItems: totalItems(resp)}, nil
}

// totalItems prefers the explicit total, then the total count header, then
// the number of returned records.
func totalItems(resp *rest.ListResponse) int {
	if resp.TotalCount != nil && *resp.TotalCount > 0 {
		return *resp.TotalCount
	}
	if n, err := strconv.Atoi(resp.HeaderValue(TotalCountHeader)); err == nil && n > 0 {
		return n
	}
	return len(resp.Data)
}

// GetRawValues issues the list request described by q.
func (r *Reader) GetRawValues(ctx context.Context, q RawQuery) (*rest.ListResponse, error) {
	params, err := ListParams(q)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", q.Entity.Name(), err)
	}
	route := r.app.RouteFor(q.Entity, q.URL, q.ViewType, nil, "")
	return r.transport.GetList(ctx, params, q.Entity.Name(), route, q.Entity.RetrieveMethod())
}

// ReferenceData resolves every reference of set over records, one call per
// distinct id for plain references and one list call per batched reference.
func (r *Reader) ReferenceData(ctx context.Context, set *refs.Set, records []map[string]any) ReferenceData {
	if set == nil || set.Len() == 0 {
		return ReferenceData{}
	}
	fields := set.Fields()
	phases := []join.Task[ReferenceData]{
		func(ctx context.Context) (ReferenceData, error) {
			return r.FilteredReferenceData(ctx, refs.NonOptimizedReferences(fields, refs.Any), records), nil
		},
		func(ctx context.Context) (ReferenceData, error) {
			return r.OptimizedReferenceData(ctx, refs.OptimizedReferences(fields, refs.Any), records), nil
		},
	}
	results, _ := join.All(ctx, 2, phases)

	out := ReferenceData{}
	for _, data := range results {
		for name, records := range data {
			out[name] = records
		}
	}
	return out
}

type idCall struct {
	field *model.Field
	id    any
}

// FilteredReferenceData issues one detail call per distinct id of every
// reference. Resolved records keep the order ids were discovered in; failed
// calls are logged and left out, and fields without any resolved record are
// omitted.
func (r *Reader) FilteredReferenceData(ctx context.Context, set *refs.Set, records []map[string]any) ReferenceData {
	out := ReferenceData{}
	if set == nil || set.Len() == 0 {
		return out
	}

	var (
		calls []idCall
		tasks []join.Task[map[string]any]
	)
	for _, f := range set.Fields() {
		target := f.TargetEntity()
		if target == nil {
			continue
		}
		for _, id := range f.IdentifierValues(records) {
			calls = append(calls, idCall{field: f, id: id})
			tasks = append(tasks, func(ctx context.Context) (map[string]any, error) {
				return r.GetOne(ctx, target, model.ViewList, id, target.Identifier().Name(), "")
			})
		}
	}

	for i, res := range join.AllEvenFailed(ctx, r.concurrency, tasks) {
		call := calls[i]
		if !res.OK() {
			r.logger.Warn("resolving reference", "field", call.field.Name(), "id", call.id, "error", res.Err)
			continue
		}
		out[call.field.Name()] = append(out[call.field.Name()], res.Value)
	}
	return out
}

// OptimizedReferenceData issues one list call per reference, filtered by the
// payload of its single-call function. References without ids are skipped.
func (r *Reader) OptimizedReferenceData(ctx context.Context, set *refs.Set, records []map[string]any) ReferenceData {
	if set == nil || set.Len() == 0 {
		return ReferenceData{}
	}
	var queries []namedQuery
	for _, f := range set.Fields() {
		if f.TargetEntity() == nil {
			continue
		}
		ids := f.IdentifierValues(records)
		if len(ids) == 0 {
			continue
		}
		queries = append(queries, namedQuery{field: f, query: RawQuery{
			Entity:    f.TargetEntity(),
			ViewName:  f.DatagridName(),
			ViewType:  model.ViewList,
			Page:      1,
			PerPage:   f.PerPage(),
			Filters:   f.SingleAPICall(ids),
			SortField: f.SortFieldName(),
			SortDir:   f.SortDir(),
		}})
	}
	return r.runLists(ctx, queries)
}

// ReferencedListData fetches the rows of every referenced list pointing at
// entityID. The sort override applies to the list whose datagrid name
// prefixes it and defaults to ascending.
func (r *Reader) ReferencedListData(ctx context.Context, lists *refs.Set, sortField, sortDir string, entityID any) ReferenceData {
	if lists == nil || lists.Len() == 0 {
		return ReferenceData{}
	}
	var queries []namedQuery
	for _, f := range lists.Fields() {
		if f.TargetEntity() == nil {
			continue
		}
		viewName := f.DatagridName()
		currentSort, currentDir := f.SortFieldName(), f.SortDir()
		if _, ok := SortFieldFor(sortField, viewName); ok {
			currentSort, currentDir = sortField, sortDir
			if currentDir == "" {
				currentDir = SortASC
			}
		}
		relation := map[string]any{f.TargetReferenceField(): entityID}
		queries = append(queries, namedQuery{field: f, query: RawQuery{
			Entity:    f.TargetEntity(),
			ViewName:  viewName,
			ViewType:  model.ViewList,
			Page:      1,
			PerPage:   f.PerPage(),
			SortField: currentSort,
			SortDir:   currentDir,
			// the relation constraint wins over the permanent filters
			PermanentFilters: mergeFilters(f.PermanentFilters(""), relation),
		}})
	}
	return r.runLists(ctx, queries)
}

// AllReferencedData loads the selectable records of every reference, filtered
// by search when it is set. Permanent filters win over search filters.
func (r *Reader) AllReferencedData(ctx context.Context, set *refs.Set, search string) ReferenceData {
	if set == nil || set.Len() == 0 {
		return ReferenceData{}
	}
	var queries []namedQuery
	for _, f := range set.Fields() {
		if f.TargetEntity() == nil {
			continue
		}
		searchFilters := map[string]any{}
		if search != "" {
			if sq := f.RemoteCompleteOptions().SearchQuery; sq != nil {
				searchFilters = sq(search)
			} else if f.TargetField() != nil {
				searchFilters[f.TargetField().Name()] = search
			}
		}
		queries = append(queries, namedQuery{field: f, query: RawQuery{
			Entity:           f.TargetEntity(),
			ViewName:         f.DatagridName(),
			ViewType:         model.ViewList,
			Page:             1,
			PerPage:          f.PerPage(),
			Filters:          searchFilters,
			FilterFields:     []*model.Field{f},
			PermanentFilters: f.PermanentFilters(search),
			SortField:        f.SortFieldName(),
			SortDir:          f.SortDir(),
		}})
	}
	return r.runLists(ctx, queries)
}

// RecordsByIDs fetches the records of entity with the given ids. Failed
// fetches are logged and left out.
func (r *Reader) RecordsByIDs(ctx context.Context, entity *model.Entity, ids []any) []map[string]any {
	out := []map[string]any{}
	if len(ids) == 0 {
		return out
	}
	idName := entity.Identifier().Name()
	tasks := make([]join.Task[map[string]any], len(ids))
	for i, id := range ids {
		tasks[i] = func(ctx context.Context) (map[string]any, error) {
			return r.GetOne(ctx, entity, model.ViewList, id, idName, "")
		}
	}
	for i, res := range join.AllEvenFailed(ctx, r.concurrency, tasks) {
		if !res.OK() {
			r.logger.Warn("fetching record", "entity", entity.Name(), "id", ids[i], "error", res.Err)
			continue
		}
		out = append(out, res.Value)
	}
	return out
}

type namedQuery struct {
	field *model.Field
	query RawQuery
}

// runLists issues the list queries concurrently and keys their data by field
// name. Failed calls are logged and left out.
func (r *Reader) runLists(ctx context.Context, queries []namedQuery) ReferenceData {
	out := ReferenceData{}
	if len(queries) == 0 {
		return out
	}
	tasks := make([]join.Task[*rest.ListResponse], len(queries))
	for i, nq := range queries {
		q := nq.query
		tasks[i] = func(ctx context.Context) (*rest.ListResponse, error) {
			return r.GetRawValues(ctx, q)
		}
	}
	for i, res := range join.AllEvenFailed(ctx, r.concurrency, tasks) {
		name := queries[i].field.Name()
		if !res.OK() {
			r.logger.Warn("listing referenced records", "field", name, "entity", queries[i].query.Entity.Name(), "error", res.Err)
			continue
		}
		out[name] = res.Value.Data
	}
	return out
}

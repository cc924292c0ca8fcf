package query

import (
	"context"
	"fmt"

	"github.com/alfredjeanlab/adminkit/internal/datastore"
	"github.com/alfredjeanlab/adminkit/internal/model"
	"github.com/alfredjeanlab/adminkit/internal/refs"
	"github.com/alfredjeanlab/adminkit/internal/tree"
)

// ListPage is one page of mapped entries with resolved references.
type ListPage struct {
	Entries    []*model.Entry
	TotalItems int
}

// DetailQuery is the caller side of a detail fetch. The sort applies to the
// referenced list whose datagrid name prefixes SortField.
type DetailQuery struct {
	ID        any
	SortField string
	SortDir   string
}

// LoadList fetches one page of view, resolves the references of its fields
// into store and fills their display values onto the entries.
func (r *Reader) LoadList(ctx context.Context, view *model.View, store *datastore.DataStore, q ListQuery) (*ListPage, error) {
	result, err := r.GetAll(ctx, view, q)
	if err != nil {
		return nil, err
	}
	entries, err := view.MapEntries(result.Data)
	if err != nil {
		return nil, err
	}
	if err := r.resolveInto(ctx, store, view.Fields(), entries); err != nil {
		return nil, err
	}
	store.SetEntries(datastore.EntriesBucket(view.Entity()), entries)
	if err := view.Prepare(ctx, entries); err != nil {
		return nil, fmt.Errorf("preparing %s: %w", view.Name(), err)
	}
	return &ListPage{Entries: entries, TotalItems: result.TotalItems}, nil
}

// LoadOne fetches one entry of view with its references and the rows of its
// referenced lists. Rows are stored in the list bucket of their field and
// attached to the entry's ListValues.
func (r *Reader) LoadOne(ctx context.Context, view *model.View, store *datastore.DataStore, q DetailQuery) (*model.Entry, error) {
	raw, err := r.GetOne(ctx, view.Entity(), view.Type(), q.ID, view.Identifier().Name(), view.URL(q.ID))
	if err != nil {
		return nil, err
	}
	entry, err := view.MapEntry(raw)
	if err != nil {
		return nil, err
	}
	if err := r.resolveInto(ctx, store, view.Fields(), []*model.Entry{entry}); err != nil {
		return nil, err
	}

	entityID := entry.IdentifierValue
	if entityID == nil {
		entityID = q.ID
	}
	lists := refs.ReferencedLists(view.Fields())
	rows := r.ReferencedListData(ctx, lists, q.SortField, q.SortDir, entityID)
	for _, name := range lists.Names() {
		data, ok := rows[name]
		if !ok {
			continue
		}
		f := lists.Get(name)
		target := f.TargetEntity()
		listEntries, err := model.CreateArrayFromRest(data, f.TargetFields(), target.Name(), target.Identifier().Name())
		if err != nil {
			return nil, fmt.Errorf("referenced list %s: %w", name, err)
		}
		if err := r.resolveInto(ctx, store, f.TargetFields(), listEntries); err != nil {
			return nil, err
		}
		store.SetEntries(datastore.ListBucket(f), listEntries)
		entry.ListValues[name] = listEntries
	}

	store.SetEntries(datastore.EntriesBucket(view.Entity()), []*model.Entry{entry})
	if err := view.Prepare(ctx, []*model.Entry{entry}); err != nil {
		return nil, fmt.Errorf("preparing %s: %w", view.Name(), err)
	}
	return entry, nil
}

// resolveInto resolves the references of fields over entries, merges the
// target records into the values bucket of each target entity and fills the
// display values of the entries.
func (r *Reader) resolveInto(ctx context.Context, store *datastore.DataStore, fields []*model.Field, entries []*model.Entry) error {
	if entries == nil {
		return nil
	}
	for _, e := range entries {
		if e.ListValues == nil {
			e.ListValues = map[string]any{}
		}
	}
	references := refs.References(fields, refs.Any, refs.Any)
	if references.Len() == 0 {
		return nil
	}

	data := r.ReferenceData(ctx, references, referenceRecords(fields, entries))

	buckets := map[string][]*model.Entry{}
	var order []string
	for _, name := range references.Names() {
		records, ok := data[name]
		if !ok {
			continue
		}
		target := references.Get(name).TargetEntity()
		mapped, err := target.ListView().MapEntries(records)
		if err != nil {
			return fmt.Errorf("reference %s: %w", name, err)
		}
		bucket := datastore.ValuesBucket(target)
		if _, seen := buckets[bucket]; !seen {
			order = append(order, bucket)
		}
		buckets[bucket] = append(buckets[bucket], mapped...)
	}
	for _, bucket := range order {
		store.MergeEntries(bucket, buckets[bucket])
	}

	store.FillReferencesValuesFromCollection(entries, references.Fields(), true)
	return nil
}

// referenceRecords returns the flat values of entries followed by the
// flattened items of their embedded lists, so references declared inside
// embedded lists find their ids.
func referenceRecords(fields []*model.Field, entries []*model.Entry) []map[string]any {
	records := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		records = append(records, e.Values)
	}
	for _, f := range fields {
		if f.Kind() != model.KindEmbeddedList {
			continue
		}
		for _, e := range entries {
			items, ok := e.Values[f.Name()].([]any)
			if !ok {
				continue
			}
			for _, item := range items {
				flat, err := tree.Flatten(item, nil)
				if err != nil {
					continue
				}
				records = append(records, flat)
			}
		}
	}
	return records
}

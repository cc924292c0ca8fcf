package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/alfredjeanlab/adminkit/internal/datastore"
	"github.com/alfredjeanlab/adminkit/internal/model"
	"github.com/alfredjeanlab/adminkit/internal/refs"
	"github.com/alfredjeanlab/adminkit/internal/ui"
)

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// displayValue renders the value of f on e, preferring the resolved
// reference labels.
func displayValue(e *model.Entry, f *model.Field) string {
	v, ok := e.ListValues[f.Name()]
	if !ok {
		v = e.Values[f.Name()]
	}
	return formatValue(v)
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []any:
		parts := make([]string, len(x))
		for i, item := range x {
			parts[i] = formatValue(item)
		}
		return strings.Join(parts, ", ")
	case map[string]any, []map[string]any:
		data, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(data)
	}
	return model.IDKey(v)
}

func truncate(s string, n int) string {
	if r := []rune(s); len(r) > n && n > 3 {
		return string(r[:n-3]) + "..."
	}
	return s
}

// printEntryTable prints entries as one row each, with one column per field.
func printEntryTable(w io.Writer, fields []*model.Field, entries []*model.Entry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	width := ui.CellWidth(ui.Width(), len(fields))
	headers := make([]string, len(fields))
	for i, f := range fields {
		headers[i] = strings.ToUpper(f.Label())
	}
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, e := range entries {
		cells := make([]string, len(fields))
		for i, f := range fields {
			cells[i] = truncate(displayValue(e, f), width)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// printEntry prints one entry as label/value lines. Referenced and embedded
// lists print as nested tables, labelled from store when it is not nil.
func printEntry(w io.Writer, fields []*model.Field, e *model.Entry, store *datastore.DataStore) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	var lists []*model.Field
	for _, f := range fields {
		if f.Kind() == model.KindReferencedList || f.Kind() == model.KindEmbeddedList {
			lists = append(lists, f)
			continue
		}
		if f.Kind().IsLayout() {
			continue
		}
		fmt.Fprintf(tw, "%s:\t%s\n", f.Label(), displayValue(e, f))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, f := range lists {
		fmt.Fprintf(w, "\n%s:\n", f.Label())
		rows := listRows(e, f, store)
		if len(rows) == 0 {
			fmt.Fprintln(w, "  (none)")
			continue
		}
		if err := printEntryTable(w, f.TargetFields(), rows); err != nil {
			return err
		}
	}
	return nil
}

// listRows returns the rows of a list field: loaded referenced-list rows, or
// embedded items mapped on the fly.
func listRows(e *model.Entry, f *model.Field, store *datastore.DataStore) []*model.Entry {
	if rows, ok := e.ListValues[f.Name()].([]*model.Entry); ok {
		return rows
	}
	items, ok := e.Values[f.Name()].([]any)
	if !ok {
		return nil
	}
	var rows []*model.Entry
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		row, err := model.CreateFromRest(m, f.TargetFields(), f.Name(), "")
		if err != nil {
			continue
		}
		rows = append(rows, row)
	}
	if store != nil {
		references := refs.References(f.TargetFields(), refs.Any, refs.Any)
		store.FillReferencesValuesFromCollection(rows, references.Fields(), true)
	}
	return rows
}

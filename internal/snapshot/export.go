// Package snapshot exports the buckets of a DataStore as JSONL and ships
// the export to one or more destinations.
package snapshot

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/alfredjeanlab/adminkit/internal/model"
)

// Version is the export format version written in the header.
const Version = "1"

// ErrBadExport is returned when an export stream cannot be read back.
var ErrBadExport = errors.New("malformed snapshot export")

// Source provides the buckets to export (satisfied by *datastore.DataStore).
type Source interface {
	Snapshot() map[string][]*model.Entry
}

// Summary describes one export.
type Summary struct {
	Buckets int
	Entries int
	Bytes   int
}

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version     string    `json:"version"`
	Type        string    `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	BucketCount int       `json:"bucket_count"`
	EntryCount  int       `json:"entry_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type   string       `json:"type"`
	Bucket string       `json:"bucket"`
	Data   *model.Entry `json:"data"`
}

// ExportJSONL writes every bucket of src as JSONL to w: a header line, then
// one line per entry. Buckets are sorted by name and keep their entry order.
func ExportJSONL(ctx context.Context, src Source, w io.Writer) (Summary, error) {
	buckets := src.Snapshot()
	names := make([]string, 0, len(buckets))
	total := 0
	for name, entries := range buckets {
		names = append(names, name)
		total += len(entries)
	}
	sort.Strings(names)

	cw := &countingWriter{w: w}
	enc := json.NewEncoder(cw)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:     Version,
		Type:        "header",
		Timestamp:   time.Now().UTC(),
		BucketCount: len(names),
		EntryCount:  total,
	}); err != nil {
		return Summary{}, fmt.Errorf("encode header: %w", err)
	}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return Summary{}, err
		}
		for i, e := range buckets[name] {
			if err := enc.Encode(record{Type: "entry", Bucket: name, Data: e}); err != nil {
				return Summary{}, fmt.Errorf("encode %s entry %d: %w", name, i, err)
			}
		}
	}

	return Summary{Buckets: len(names), Entries: total, Bytes: cw.n}, nil
}

// ImportJSONL reads an export written by ExportJSONL back into buckets.
func ImportJSONL(r io.Reader) (map[string][]*model.Entry, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
		return nil, fmt.Errorf("%w: missing header", ErrBadExport)
	}
	var h header
	if err := json.Unmarshal(sc.Bytes(), &h); err != nil || h.Type != "header" {
		return nil, fmt.Errorf("%w: bad header", ErrBadExport)
	}
	if h.Version != Version {
		return nil, fmt.Errorf("%w: unsupported version %q", ErrBadExport, h.Version)
	}

	buckets := make(map[string][]*model.Entry, h.BucketCount)
	line := 1
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrBadExport, line, err)
		}
		if rec.Type != "entry" || rec.Data == nil {
			return nil, fmt.Errorf("%w: line %d: unexpected record %q", ErrBadExport, line, rec.Type)
		}
		if rec.Data.Values == nil {
			rec.Data.Values = map[string]any{}
		}
		if rec.Data.ListValues == nil {
			rec.Data.ListValues = map[string]any{}
		}
		buckets[rec.Bucket] = append(buckets[rec.Bucket], rec.Data)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	return buckets, nil
}

type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}

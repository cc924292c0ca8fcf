package postgres

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/alfredjeanlab/adminkit/internal/model"
	"github.com/alfredjeanlab/adminkit/internal/store"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanSnapshot scans a row in snapshotColumns order.
func scanSnapshot(row scannable) (*store.Snapshot, error) {
	var s store.Snapshot
	if err := row.Scan(&s.Name, &s.BucketCount, &s.EntryCount, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// scanEntry scans a row in entryColumns order and returns its bucket with it.
func scanEntry(row scannable) (string, *model.Entry, error) {
	var (
		bucket     string
		entity     string
		identifier []byte
		vals       []byte
		listValues []byte
	)
	if err := row.Scan(&bucket, &entity, &identifier, &vals, &listValues); err != nil {
		return "", nil, err
	}

	e := model.NewEntry(entity, nil, nil)
	if err := decodeJSONB(identifier, &e.IdentifierValue); err != nil {
		return "", nil, fmt.Errorf("decode identifier: %w", err)
	}
	if err := decodeJSONB(vals, &e.Values); err != nil {
		return "", nil, fmt.Errorf("decode values: %w", err)
	}
	if err := decodeJSONB(listValues, &e.ListValues); err != nil {
		return "", nil, fmt.Errorf("decode list values: %w", err)
	}
	if e.Values == nil {
		e.Values = map[string]any{}
	}
	if e.ListValues == nil {
		e.ListValues = map[string]any{}
	}
	return bucket, e, nil
}

// decodeJSONB unmarshals a JSONB column, leaving dst untouched on NULL.
func decodeJSONB(data []byte, dst any) error {
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	return json.Unmarshal(data, dst)
}

// jsonbBytes encodes v for a JSONB column. nil maps to SQL NULL.
func jsonbBytes(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

// jsonbObject encodes a map for a NOT NULL JSONB column.
func jsonbObject(m map[string]any) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

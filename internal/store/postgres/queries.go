package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/alfredjeanlab/adminkit/internal/model"
	"github.com/alfredjeanlab/adminkit/internal/store"
)

// snapshotColumns is the column list used for SELECT statements on the snapshots table.
const snapshotColumns = `name, bucket_count, entry_count, created_at`

// entryColumns is the column list used for SELECT statements on snapshot_entries.
const entryColumns = `bucket, entity, identifier, vals, list_values`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// now is replaced in tests.
var now = func() time.Time { return time.Now().UTC() }

func querySaveSnapshot(ctx context.Context, db executor, name string, buckets map[string][]*model.Entry) (*store.Snapshot, error) {
	names := make([]string, 0, len(buckets))
	count := 0
	for bucket, entries := range buckets {
		names = append(names, bucket)
		count += len(entries)
	}
	sort.Strings(names)

	snap := &store.Snapshot{
		Name:        name,
		BucketCount: len(names),
		EntryCount:  count,
		CreatedAt:   now(),
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO snapshots (name, bucket_count, entry_count, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET
			bucket_count = EXCLUDED.bucket_count,
			entry_count = EXCLUDED.entry_count,
			created_at = EXCLUDED.created_at`,
		snap.Name, snap.BucketCount, snap.EntryCount, snap.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert snapshot %s: %w", name, err)
	}

	if _, err := db.ExecContext(ctx, `DELETE FROM snapshot_entries WHERE snapshot = $1`, name); err != nil {
		return nil, fmt.Errorf("clear snapshot %s: %w", name, err)
	}

	for _, bucket := range names {
		for pos, e := range buckets[bucket] {
			if err := queryInsertEntry(ctx, db, name, bucket, pos, e); err != nil {
				return nil, fmt.Errorf("insert %s[%d]: %w", bucket, pos, err)
			}
		}
	}
	return snap, nil
}

func queryInsertEntry(ctx context.Context, db executor, snapshot, bucket string, pos int, e *model.Entry) error {
	identifier, err := jsonbBytes(e.IdentifierValue)
	if err != nil {
		return err
	}
	vals, err := jsonbObject(e.Values)
	if err != nil {
		return err
	}
	listValues, err := jsonbObject(e.ListValues)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO snapshot_entries (snapshot, bucket, position, entity, identifier, vals, list_values)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		snapshot, bucket, pos, e.EntityName, identifier, vals, listValues,
	)
	return err
}

func queryGetSnapshot(ctx context.Context, db executor, name string) (*store.Snapshot, error) {
	row := db.QueryRowContext(ctx, `SELECT `+snapshotColumns+` FROM snapshots WHERE name = $1`, name)
	s, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot %s: %w", name, err)
	}
	return s, nil
}

// queryLoadSnapshot returns the buckets of a snapshot. Buckets saved without
// entries come back absent.
func queryLoadSnapshot(ctx context.Context, db executor, name string) (map[string][]*model.Entry, error) {
	if _, err := queryGetSnapshot(ctx, db, name); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM snapshot_entries WHERE snapshot = $1 ORDER BY bucket, position`, name)
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", name, err)
	}
	defer rows.Close()

	buckets := map[string][]*model.Entry{}
	for rows.Next() {
		bucket, e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot entry: %w", err)
		}
		buckets[bucket] = append(buckets[bucket], e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", name, err)
	}
	return buckets, nil
}

func queryListSnapshots(ctx context.Context, db executor) ([]*store.Snapshot, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+snapshotColumns+` FROM snapshots ORDER BY created_at DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []*store.Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func queryDeleteSnapshot(ctx context.Context, db executor, name string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM snapshots WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("delete snapshot %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete snapshot %s: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", store.ErrNotFound, name)
	}
	return nil
}

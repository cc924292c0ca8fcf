package store

import (
	"context"
	"errors"
	"time"

	"github.com/alfredjeanlab/adminkit/internal/model"
)

// ErrNotFound is returned when a snapshot does not exist.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot describes one persisted set of DataStore buckets.
type Snapshot struct {
	Name        string    `json:"name"`
	BucketCount int       `json:"bucket_count"`
	EntryCount  int       `json:"entry_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store defines the persistence interface for DataStore snapshots.
type Store interface {
	// SaveSnapshot replaces the snapshot called name with buckets.
	SaveSnapshot(ctx context.Context, name string, buckets map[string][]*model.Entry) (*Snapshot, error)
	// LoadSnapshot returns the buckets of a snapshot.
	LoadSnapshot(ctx context.Context, name string) (map[string][]*model.Entry, error)
	ListSnapshots(ctx context.Context) ([]*Snapshot, error)
	DeleteSnapshot(ctx context.Context, name string) error

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Close() error
}

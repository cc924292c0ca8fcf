package snapshot

import (
	"bytes"
	"context"
	"fmt"

	"github.com/alfredjeanlab/adminkit/internal/store"
)

// StoreDestination saves each export as a named snapshot of a store.Store,
// replacing the previous one.
type StoreDestination struct {
	store store.Store
	name  string
}

func NewStoreDestination(s store.Store, name string) *StoreDestination {
	return &StoreDestination{store: s, name: name}
}

// Write decodes the JSONL export and saves its buckets.
func (d *StoreDestination) Write(ctx context.Context, data []byte) error {
	buckets, err := ImportJSONL(bytes.NewReader(data))
	if err != nil {
		return err
	}
	if _, err := d.store.SaveSnapshot(ctx, d.name, buckets); err != nil {
		return fmt.Errorf("saving snapshot %s: %w", d.name, err)
	}
	return nil
}

func (d *StoreDestination) String() string { return "postgres:" + d.name }

package snapshot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alfredjeanlab/adminkit/internal/datastore"
	"github.com/alfredjeanlab/adminkit/internal/events"
)

// mockDestination records calls to Write.
type mockDestination struct {
	name   string
	err    error
	writes atomic.Int64
	last   atomic.Value // []byte
}

func (d *mockDestination) Write(_ context.Context, data []byte) error {
	d.writes.Add(1)
	cp := make([]byte, len(data))
	copy(cp, data)
	d.last.Store(cp)
	return d.err
}

func (d *mockDestination) String() string { return d.name }

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestSchedulerStartStop(t *testing.T) {
	dest := &mockDestination{name: "mock"}
	sched := NewScheduler(newTestStore(), nil, []Destination{dest}, 50*time.Millisecond, nil, quietLogger())
	sched.Start()

	// Wait for at least the initial export + one tick.
	time.Sleep(120 * time.Millisecond)
	sched.Stop()

	if writes := dest.writes.Load(); writes < 2 {
		t.Fatalf("expected at least 2 writes, got %d", writes)
	}
	data, ok := dest.last.Load().([]byte)
	if !ok || len(data) == 0 {
		t.Fatal("expected non-empty data")
	}
	// 1 header + 3 entries
	if lines := nonEmptyLines(string(data)); len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}
}

func TestSchedulerStop_NoStart(t *testing.T) {
	sched := NewScheduler(datastore.New(), nil, nil, time.Minute, nil, quietLogger())
	// Stop without Start should not panic.
	sched.Stop()
}

func TestScheduler_RunOnce(t *testing.T) {
	store := datastore.New()
	refreshed := 0
	refresh := func(ctx context.Context) error {
		refreshed++
		store.Restore(newTestStore().Snapshot())
		return nil
	}
	ok := &mockDestination{name: "ok"}
	broken := &mockDestination{name: "broken", err: errors.New("disk full")}
	pub := &events.RecordingPublisher{}

	sched := NewScheduler(store, refresh, []Destination{broken, ok}, time.Minute, pub, quietLogger())
	err := sched.RunOnce(context.Background())

	if err == nil || !errors.Is(err, broken.err) {
		t.Errorf("RunOnce() error = %v, want the destination error", err)
	}
	if refreshed != 1 || ok.writes.Load() != 1 || broken.writes.Load() != 1 {
		t.Errorf("refreshed = %d, writes = %d/%d", refreshed, ok.writes.Load(), broken.writes.Load())
	}
	if len(pub.Events) != 1 {
		t.Fatalf("events = %+v, want one for the healthy destination", pub.Events)
	}
	ev := pub.Events[0].Event.(events.SnapshotExported)
	if ev.Destination != "ok" || ev.Buckets != 2 || ev.Entries != 3 {
		t.Errorf("event = %+v", ev)
	}
}

func TestScheduler_RefreshFailureSkipsExport(t *testing.T) {
	dest := &mockDestination{name: "mock"}
	boom := errors.New("api down")
	sched := NewScheduler(datastore.New(), func(context.Context) error { return boom }, []Destination{dest}, time.Minute, nil, quietLogger())

	if err := sched.RunOnce(context.Background()); !errors.Is(err, boom) {
		t.Errorf("RunOnce() error = %v, want %v", err, boom)
	}
	if dest.writes.Load() != 0 {
		t.Error("destination written despite refresh failure")
	}
}

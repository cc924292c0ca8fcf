package join

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestAllEvenFailed(t *testing.T) {
	boom := errors.New("boom")
	tasks := []Task[int]{
		func(context.Context) (int, error) { return 1, nil },
		func(context.Context) (int, error) { return 0, boom },
		func(context.Context) (int, error) { return 3, nil },
	}
	results := AllEvenFailed(context.Background(), 0, tasks)
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	if !results[0].OK() || results[0].Value != 1 {
		t.Errorf("results[0] = %+v", results[0])
	}
	if results[1].Status != StatusError || !errors.Is(results[1].Err, boom) {
		t.Errorf("results[1] = %+v", results[1])
	}
	if !results[2].OK() || results[2].Value != 3 {
		t.Errorf("results[2] = %+v", results[2])
	}
}

func TestAllEvenFailed_Empty(t *testing.T) {
	results := AllEvenFailed[string](context.Background(), 4, nil)
	if results == nil || len(results) != 0 {
		t.Errorf("AllEvenFailed(nil) = %#v, want empty slice", results)
	}
}

func TestAllEvenFailed_RespectsLimit(t *testing.T) {
	var running, peak int32
	task := func(context.Context) (struct{}, error) {
		n := atomic.AddInt32(&running, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		return struct{}{}, nil
	}
	tasks := make([]Task[struct{}], 12)
	for i := range tasks {
		tasks[i] = task
	}
	AllEvenFailed(context.Background(), 3, tasks)
	if peak > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", peak)
	}
}

func TestAll(t *testing.T) {
	values, err := All(context.Background(), 2, []Task[string]{
		func(context.Context) (string, error) { return "a", nil },
		func(context.Context) (string, error) { return "b", nil },
	})
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(values) != 2 || values[0] != "a" || values[1] != "b" {
		t.Errorf("All() = %v", values)
	}
}

func TestAll_FailsFast(t *testing.T) {
	boom := errors.New("boom")
	_, err := All(context.Background(), 0, []Task[int]{
		func(context.Context) (int, error) { return 0, boom },
		func(ctx context.Context) (int, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		},
	})
	if !errors.Is(err, boom) {
		t.Fatalf("All() error = %v, want %v", err, boom)
	}
}

// Package join fans out independent calls and collects their results in
// submission order.
package join

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Status reports how one task settled.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Task is one unit of concurrent work.
type Task[T any] func(ctx context.Context) (T, error)

// Result is the settled outcome of one task.
type Result[T any] struct {
	Status Status
	Value  T
	Err    error
}

// OK reports whether the task succeeded.
func (r Result[T]) OK() bool { return r.Status == StatusSuccess }

// Empty returns a settled, empty result set.
func Empty[T any]() []Result[T] { return []Result[T]{} }

// AllEvenFailed runs every task, at most limit at a time (limit <= 0 means
// unbounded), and returns one result per task. A failing task never cancels
// its siblings.
func AllEvenFailed[T any](ctx context.Context, limit int, tasks []Task[T]) []Result[T] {
	if len(tasks) == 0 {
		return Empty[T]()
	}
	results := make([]Result[T], len(tasks))
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, task := range tasks {
		g.Go(func() error {
			v, err := task(ctx)
			if err != nil {
				results[i] = Result[T]{Status: StatusError, Err: err}
				return nil
			}
			results[i] = Result[T]{Status: StatusSuccess, Value: v}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// All runs every task and returns their values in order. The first failure
// cancels the context passed to the remaining tasks and is returned.
func All[T any](ctx context.Context, limit int, tasks []Task[T]) ([]T, error) {
	values := make([]T, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, task := range tasks {
		g.Go(func() error {
			v, err := task(gctx)
			if err != nil {
				return err
			}
			values[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return values, nil
}

package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alfredjeanlab/adminkit/internal/app"
	"github.com/alfredjeanlab/adminkit/internal/events"
	"github.com/alfredjeanlab/adminkit/internal/join"
	"github.com/alfredjeanlab/adminkit/internal/model"
	"github.com/alfredjeanlab/adminkit/internal/rest"
)

// ErrEmptyBatch is returned by DeleteMultiple when the single-call filter of
// the view is empty, which would match the whole collection.
var ErrEmptyBatch = errors.New("batch delete without a filter")

// Writer issues create, update and delete calls and announces successful
// writes on the event bus.
type Writer struct {
	app         *app.Application
	transport   rest.Transport
	publisher   events.Publisher
	logger      *slog.Logger
	concurrency int
}

// NewWriter creates a Writer. A nil publisher discards events.
func NewWriter(application *app.Application, transport rest.Transport, publisher events.Publisher, logger *slog.Logger, concurrency int) *Writer {
	if publisher == nil {
		publisher = &events.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Writer{app: application, transport: transport, publisher: publisher, logger: logger, concurrency: concurrency}
}

// CreateOne posts payload to the route of view with the entity create method.
func (w *Writer) CreateOne(ctx context.Context, view *model.View, payload map[string]any) (map[string]any, error) {
	entity := view.Entity()
	route := w.app.RouteFor(entity, view.URL(nil), view.Type(), nil, "")
	created, err := w.transport.CreateOne(ctx, payload, entity.Name(), route, entity.CreateMethod())
	if err != nil {
		return nil, err
	}
	w.publish(ctx, events.TopicEntryCreated, entity.Name(), events.EntryCreated{
		Entity:  entity.Name(),
		ID:      created[view.Identifier().Name()],
		Payload: created,
	})
	return created, nil
}

// UpdateOne sends payload for the entry identified by originID, or by the
// identifier value of payload when originID is nil.
func (w *Writer) UpdateOne(ctx context.Context, view *model.View, payload map[string]any, originID any) (map[string]any, error) {
	entity := view.Entity()
	idName := view.Identifier().Name()
	id := originID
	if id == nil {
		id = payload[idName]
	}
	route := w.app.RouteFor(entity, view.URL(id), view.Type(), id, idName)
	updated, err := w.transport.UpdateOne(ctx, payload, entity.Name(), route, entity.UpdateMethod())
	if err != nil {
		return nil, err
	}
	w.publish(ctx, events.TopicEntryUpdated, entity.Name(), events.EntryUpdated{
		Entity:  entity.Name(),
		ID:      id,
		Payload: updated,
	})
	return updated, nil
}

// DeleteOne deletes the entry identified by id.
func (w *Writer) DeleteOne(ctx context.Context, view *model.View, id any) error {
	if err := w.deleteOne(ctx, view, id); err != nil {
		return err
	}
	entity := view.Entity().Name()
	w.publish(ctx, events.TopicEntryDeleted, entity, events.EntryDeleted{Entity: entity, ID: id})
	return nil
}

func (w *Writer) deleteOne(ctx context.Context, view *model.View, id any) error {
	entity := view.Entity()
	route := w.app.RouteFor(entity, view.URL(id), view.Type(), id, view.Identifier().Name())
	return w.transport.DeleteOne(ctx, entity.Name(), route, entity.DeleteMethod())
}

// DeleteMultiple deletes every entry matching the single-call filter of view
// for ids with one request.
func (w *Writer) DeleteMultiple(ctx context.Context, view *model.View, ids []any) error {
	entity := view.Entity()
	filters := view.SingleAPICall(ids)
	if len(ids) == 0 || len(filters) == 0 {
		return fmt.Errorf("delete %s: %w", entity.Name(), ErrEmptyBatch)
	}
	route := w.app.RouteFor(entity, view.URL(nil), view.Type(), nil, view.Identifier().Name())
	return w.transport.DeleteAll(ctx, entity.Name(), route, rest.ListParams{Filters: filters})
}

// Failure is one id a batch delete could not remove.
type Failure struct {
	ID  any
	Err error
}

// BatchDeleteResult reports the outcome of every id of a batch delete.
type BatchDeleteResult struct {
	Deleted []any
	Failed  []Failure
	// SingleCall is set when the batch went through DeleteMultiple.
	SingleCall bool
}

// FailedIDs returns the ids of the failed deletes.
func (r *BatchDeleteResult) FailedIDs() []any {
	ids := make([]any, len(r.Failed))
	for i, f := range r.Failed {
		ids[i] = f.ID
	}
	return ids
}

// BatchDelete deletes ids with one DeleteMultiple call when view declares a
// single-call function, otherwise with one concurrent DeleteOne per id. A
// failing delete never aborts the others and is reported in the result. An
// empty id set issues no call.
func (w *Writer) BatchDelete(ctx context.Context, view *model.View, ids []any) *BatchDeleteResult {
	result := &BatchDeleteResult{Deleted: []any{}}
	if len(ids) == 0 {
		return result
	}

	if view.HasSingleAPICall() {
		result.SingleCall = true
		if err := w.DeleteMultiple(ctx, view, ids); err != nil {
			w.logger.Warn("batch delete", "entity", view.Entity().Name(), "ids", len(ids), "error", err)
			for _, id := range ids {
				result.Failed = append(result.Failed, Failure{ID: id, Err: err})
			}
		} else {
			result.Deleted = append(result.Deleted, ids...)
		}
	} else {
		tasks := make([]join.Task[struct{}], len(ids))
		for i, id := range ids {
			tasks[i] = func(ctx context.Context) (struct{}, error) {
				return struct{}{}, w.deleteOne(ctx, view, id)
			}
		}
		for i, res := range join.AllEvenFailed(ctx, w.concurrency, tasks) {
			if !res.OK() {
				w.logger.Warn("deleting entry", "entity", view.Entity().Name(), "id", ids[i], "error", res.Err)
				result.Failed = append(result.Failed, Failure{ID: ids[i], Err: res.Err})
				continue
			}
			result.Deleted = append(result.Deleted, ids[i])
		}
	}

	if len(result.Deleted) > 0 {
		entity := view.Entity().Name()
		w.publish(ctx, events.TopicBatchDeleted, entity, events.BatchDeleted{
			Entity:     entity,
			IDs:        result.Deleted,
			Failed:     result.FailedIDs(),
			SingleCall: result.SingleCall,
		})
	}
	return result
}

// publish announces a successful write. Event failures never fail the write.
func (w *Writer) publish(ctx context.Context, topic, entity string, event any) {
	if err := w.publisher.Publish(ctx, events.EntityTopic(topic, entity), event); err != nil {
		w.logger.Warn("publishing event", "topic", topic, "entity", entity, "error", err)
	}
}

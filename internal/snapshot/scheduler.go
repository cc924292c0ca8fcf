package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alfredjeanlab/adminkit/internal/events"
)

// RefreshFunc reloads the source before an export.
type RefreshFunc func(ctx context.Context) error

// Scheduler exports a source to one or more destinations, once or
// periodically.
type Scheduler struct {
	source       Source
	refresh      RefreshFunc
	destinations []Destination
	interval     time.Duration
	publisher    events.Publisher
	logger       *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler exporting source to destinations every
// interval. refresh and publisher may be nil.
func NewScheduler(source Source, refresh RefreshFunc, destinations []Destination, interval time.Duration, publisher events.Publisher, logger *slog.Logger) *Scheduler {
	if publisher == nil {
		publisher = &events.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		source:       source,
		refresh:      refresh,
		destinations: destinations,
		interval:     interval,
		publisher:    publisher,
		logger:       logger,
	}
}

// Start begins periodic exports. It runs an initial export immediately, then
// on each tick.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Stop cancels the scheduler and waits for the current export (if any) to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	_ = s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.RunOnce(ctx)
		}
	}
}

// RunOnce refreshes the source, exports it and writes the export to every
// destination. A failing destination does not stop the others; their
// errors are joined.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if s.refresh != nil {
		if err := s.refresh(ctx); err != nil {
			s.logger.Error("snapshot refresh failed", "err", err)
			return fmt.Errorf("refresh: %w", err)
		}
	}

	var buf bytes.Buffer
	summary, err := ExportJSONL(ctx, s.source, &buf)
	if err != nil {
		s.logger.Error("snapshot export failed", "err", err)
		return fmt.Errorf("export: %w", err)
	}
	data := buf.Bytes()

	var errs []error
	for _, dest := range s.destinations {
		if err := dest.Write(ctx, data); err != nil {
			s.logger.Error("snapshot destination write failed", "destination", dest.String(), "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", dest, err))
			continue
		}
		event := events.SnapshotExported{Destination: dest.String(), Buckets: summary.Buckets, Entries: summary.Entries}
		if err := s.publisher.Publish(ctx, events.TopicSnapshotExported, event); err != nil {
			s.logger.Warn("publishing snapshot event", "err", err)
		}
	}

	s.logger.Info("snapshot completed", "destinations", len(s.destinations), "buckets", summary.Buckets, "entries", summary.Entries, "bytes", summary.Bytes)
	return errors.Join(errs...)
}

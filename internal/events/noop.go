package events

import "context"

// NoopPublisher is a Publisher that does nothing (used when ADMIN_NATS_URL is unset).
type NoopPublisher struct{}

func (n *NoopPublisher) Publish(ctx context.Context, topic string, event any) error {
	return nil
}

func (n *NoopPublisher) Close() error {
	return nil
}

// RecordingPublisher keeps published events in memory, in order.
type RecordingPublisher struct {
	Events []Published
}

// Published is one event captured by RecordingPublisher.
type Published struct {
	Topic string
	Event any
}

func (r *RecordingPublisher) Publish(ctx context.Context, topic string, event any) error {
	r.Events = append(r.Events, Published{Topic: topic, Event: event})
	return nil
}

func (r *RecordingPublisher) Close() error { return nil }

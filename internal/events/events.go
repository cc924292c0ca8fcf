package events

import (
	"context"
	"strings"
)

// Event topic constants. Publishers append the entity name as a last token,
// e.g. "admin.entry.created.posts", so subscribers can filter with wildcards.
const (
	TopicEntryCreated     = "admin.entry.created"
	TopicEntryUpdated     = "admin.entry.updated"
	TopicEntryDeleted     = "admin.entry.deleted"
	TopicBatchDeleted     = "admin.batch.deleted"
	TopicSnapshotExported = "admin.snapshot.exported"

	// TopicAll matches every adminkit event.
	TopicAll = "admin.>"
)

// EntityTopic scopes topic to one entity.
func EntityTopic(topic, entity string) string {
	if entity == "" {
		return topic
	}
	return topic + "." + strings.ReplaceAll(entity, ".", "_")
}

// Event types

type EntryCreated struct {
	Entity  string         `json:"entity"`
	ID      any            `json:"id,omitempty"`
	Payload map[string]any `json:"payload"`
}

type EntryUpdated struct {
	Entity  string         `json:"entity"`
	ID      any            `json:"id"`
	Payload map[string]any `json:"payload"`
}

type EntryDeleted struct {
	Entity string `json:"entity"`
	ID     any    `json:"id"`
}

type BatchDeleted struct {
	Entity     string `json:"entity"`
	IDs        []any  `json:"ids"`
	Failed     []any  `json:"failed,omitempty"`
	SingleCall bool   `json:"single_call,omitempty"`
}

type SnapshotExported struct {
	Destination string `json:"destination"`
	Buckets     int    `json:"buckets"`
	Entries     int    `json:"entries"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

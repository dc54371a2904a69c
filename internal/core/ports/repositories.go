package ports

import (
	"context"
	"time"

	"github.com/hive-corporation/spyglass/misp"
)

// EventRepository persists mirrored events and serves the lookups the feed
// and export endpoints need.
type EventRepository interface {
	SaveEventBatch(ctx context.Context, events []*misp.Event) error
	FindByUUID(ctx context.Context, uuid string) (*misp.Event, error)
	FindEventsSince(ctx context.Context, since time.Time, limit int) ([]*misp.Event, error)
	FindAttributesByValue(ctx context.Context, value string) ([]AttributeRecord, error)
	FindAttributesSince(ctx context.Context, since time.Time, limit int) ([]AttributeRecord, error)
	CountEvents(ctx context.Context) (int64, error)
}

// AttributeRecord is the flattened row the repository serves for attribute
// lookups and SIEM exports, denormalized with its parent event.
type AttributeRecord struct {
	UUID      string
	EventUUID string
	EventInfo string
	Type      string
	Category  string
	Value     string
	ToIDS     bool
	Tags      []string
	Timestamp time.Time
}

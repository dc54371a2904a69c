package ports

import (
	"context"

	"github.com/hive-corporation/spyglass/misp"
)

// EventSource is anything the mirror can pull hydrated events from: a remote
// standard feed, a directory on disk, another mirror.
type EventSource interface {
	FetchEvents(ctx context.Context) ([]*misp.Event, error)
	Name() string
}

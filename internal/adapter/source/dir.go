package source

import (
	"context"

	"github.com/hive-corporation/spyglass/feed"
	"github.com/hive-corporation/spyglass/internal/metrics"
	"github.com/hive-corporation/spyglass/misp"
)

// DirSource serves events from a feed directory on disk. Air-gapped mirrors
// get their feeds by rsync or USB and ingest them from here.
type DirSource struct {
	name   string
	loader *feed.Loader
}

func NewDirSource(name, dir string) *DirSource {
	return &DirSource{name: name, loader: feed.NewLoader(dir)}
}

func (s *DirSource) Name() string {
	return s.name
}

func (s *DirSource) FetchEvents(ctx context.Context) ([]*misp.Event, error) {
	events, err := s.loader.Events()
	if err != nil {
		metrics.RecordFetchError(s.name, "dir")
		return nil, err
	}
	metrics.RecordEventsIngested(s.name, len(events))
	return events, nil
}

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/hive-corporation/spyglass/feed"
	"github.com/hive-corporation/spyglass/internal/metrics"
	"github.com/hive-corporation/spyglass/misp"
)

// FeedSource pulls events from a remote standard feed with plain GETs: the
// manifest first, then one document per listed event.
type FeedSource struct {
	client  *http.Client
	name    string
	baseURL string
}

func NewFeedSource(client *http.Client, name, baseURL string) *FeedSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &FeedSource{
		client:  client,
		name:    name,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

func (s *FeedSource) Name() string {
	return s.name
}

func (s *FeedSource) FetchEvents(ctx context.Context) ([]*misp.Event, error) {
	manifest, err := s.fetchManifest(ctx)
	if err != nil {
		metrics.RecordFetchError(s.name, "manifest")
		return nil, err
	}

	// Fetch in UUID order so runs are comparable.
	uuids := make([]string, 0, len(manifest))
	for uuid := range manifest {
		uuids = append(uuids, uuid)
	}
	sort.Strings(uuids)

	events := make([]*misp.Event, 0, len(uuids))
	for _, uuid := range uuids {
		ev, err := s.fetchEvent(ctx, uuid)
		if err != nil {
			metrics.RecordFetchError(s.name, "event")
			return nil, err
		}
		events = append(events, ev)
	}

	metrics.RecordEventsIngested(s.name, len(events))
	return events, nil
}

func (s *FeedSource) fetchManifest(ctx context.Context) (feed.Manifest, error) {
	data, err := s.get(ctx, s.baseURL+"/manifest.json")
	if err != nil {
		return nil, err
	}
	var manifest feed.Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("feed %s manifest: %w: %v", s.name, misp.ErrParse, err)
	}
	return manifest, nil
}

func (s *FeedSource) fetchEvent(ctx context.Context, uuid string) (*misp.Event, error) {
	data, err := s.get(ctx, fmt.Sprintf("%s/%s.json", s.baseURL, uuid))
	if err != nil {
		return nil, err
	}
	ev := misp.NewEvent()
	if err := ev.FromJSON(data); err != nil {
		return nil, fmt.Errorf("feed %s event %s: %w", s.name, uuid, err)
	}
	return ev, nil
}

func (s *FeedSource) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed %s: status %d for %s", s.name, resp.StatusCode, url)
	}
	return io.ReadAll(resp.Body)
}

package source

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hive-corporation/spyglass/internal/metrics"
	"github.com/hive-corporation/spyglass/misp"
)

// TextListSource wraps a plain blocklist (one indicator per line) into a
// synthetic event, the way the platform imports freetext feeds. Lines that
// don't look like indicators are dropped.
type TextListSource struct {
	client *http.Client
	name   string
	url    string
	tag    string
}

func NewTextListSource(client *http.Client, name, url, tag string) *TextListSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &TextListSource{
		client: client,
		name:   name,
		url:    url,
		tag:    tag,
	}
}

func (s *TextListSource) Name() string {
	return s.name
}

func (s *TextListSource) FetchEvents(ctx context.Context) ([]*misp.Event, error) {
	fmt.Printf("DEBUG: Fetching %s from %s\n", s.name, s.url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		metrics.RecordFetchError(s.name, "http")
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.RecordFetchError(s.name, "status")
		return nil, fmt.Errorf("failed to fetch indicators from %s: %s", s.url, resp.Status)
	}

	ev := misp.NewEvent()
	ev.Set("info", fmt.Sprintf("%s blocklist", s.name))
	ev.Set("date", time.Now().Format("2006-01-02"))
	if s.tag != "" {
		ev.AddTag(misp.NewTagNamed(s.tag))
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		if idx := strings.Index(line, "#"); idx != -1 {
			line = strings.TrimSpace(line[:idx])
		}

		attrType := misp.GuessType(line)
		if attrType == "text" {
			// Lists carry indicators, not prose
			continue
		}

		a := misp.NewAttribute()
		a.Set("type", attrType)
		a.Set("category", misp.DefaultCategory(attrType))
		a.Set("value", misp.NormalizeValue(attrType, line))
		a.Set("to_ids", true)
		ev.AddAttribute(a)
	}

	if err := scanner.Err(); err != nil {
		metrics.RecordFetchError(s.name, "scan")
		return nil, fmt.Errorf("scanner error: %w", err)
	}

	if len(ev.Attributes()) == 0 {
		// Nothing parsed, nothing to mirror
		return nil, nil
	}

	metrics.RecordEventsIngested(s.name, 1)
	return []*misp.Event{ev}, nil
}

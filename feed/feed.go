// Package feed reads and writes MISP standard feeds: a manifest.json index,
// one JSON document per event named <uuid>.json, and an attribute hash list
// for fast lookups.
package feed

import (
	"time"

	"github.com/hive-corporation/spyglass/misp"
)

// Manifest maps event UUIDs to their summary entries.
type Manifest map[string]ManifestEntry

// ManifestEntry summarizes one event the way the platform's feed generator
// does. Numeric fields arrive as strings from some servers and as numbers
// from others, so they stay loosely typed.
type ManifestEntry struct {
	Orgc          map[string]any   `json:"Orgc,omitempty"`
	Tags          []map[string]any `json:"Tag,omitempty"`
	Info          string           `json:"info"`
	Date          string           `json:"date,omitempty"`
	Analysis      any              `json:"analysis,omitempty"`
	ThreatLevelID any              `json:"threat_level_id,omitempty"`
	Timestamp     any              `json:"timestamp,omitempty"`
}

// EntryFor builds the manifest entry for an event. An event edited since its
// last hydration carries no usable timestamp, so publication stamps a fresh
// one, exactly as the platform does when it publishes an edited event.
func EntryFor(ev *misp.Event) (ManifestEntry, error) {
	m, err := ev.ToMap()
	if err != nil {
		return ManifestEntry{}, err
	}

	entry := ManifestEntry{
		Info:          ev.Info(),
		Analysis:      m["analysis"],
		ThreatLevelID: m["threat_level_id"],
		Timestamp:     m["timestamp"],
	}
	if date, ok := m["date"].(string); ok {
		entry.Date = date
	}
	if entry.Timestamp == nil {
		entry.Timestamp = time.Now().Unix()
	}

	if orgc, ok := m["Orgc"].(misp.Entity); ok {
		om, err := orgc.ToMap()
		if err != nil {
			return ManifestEntry{}, err
		}
		entry.Orgc = om
	}
	for _, tag := range ev.Tags() {
		tm, err := tag.ToMap()
		if err != nil {
			return ManifestEntry{}, err
		}
		entry.Tags = append(entry.Tags, tm)
	}
	return entry, nil
}

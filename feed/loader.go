package feed

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hive-corporation/spyglass/misp"
)

// Loader reads a feed directory written by Writer or by the platform's own
// feed generator.
type Loader struct {
	dir string
}

// NewLoader returns a loader rooted at dir.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Manifest reads and decodes manifest.json.
func (l *Loader) Manifest() (Manifest, error) {
	data, err := os.ReadFile(filepath.Join(l.dir, "manifest.json"))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: %w: %v", misp.ErrParse, err)
	}
	return m, nil
}

// Event loads and hydrates a single event by UUID.
func (l *Loader) Event(uuid string) (*misp.Event, error) {
	data, err := os.ReadFile(filepath.Join(l.dir, uuid+".json"))
	if err != nil {
		return nil, fmt.Errorf("read event %s: %w", uuid, err)
	}
	ev := misp.NewEvent()
	if err := ev.FromJSON(data); err != nil {
		return nil, fmt.Errorf("event %s: %w", uuid, err)
	}
	return ev, nil
}

// Events loads every event the manifest lists, in UUID order so repeated
// loads see the same sequence.
func (l *Loader) Events() ([]*misp.Event, error) {
	manifest, err := l.Manifest()
	if err != nil {
		return nil, err
	}
	uuids := make([]string, 0, len(manifest))
	for uuid := range manifest {
		uuids = append(uuids, uuid)
	}
	sort.Strings(uuids)

	events := make([]*misp.Event, 0, len(uuids))
	for _, uuid := range uuids {
		ev, err := l.Event(uuid)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

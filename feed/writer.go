package feed

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hive-corporation/spyglass/misp"
)

// Writer publishes events as a static feed directory that any MISP instance
// can poll.
type Writer struct {
	dir string
}

// NewWriter returns a writer rooted at dir. The directory is created on the
// first Write.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Write renders the full feed: manifest.json, one <uuid>.json per event and
// hashes.csv. Earlier feed contents for the same events are overwritten.
func (w *Writer) Write(events []*misp.Event) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create feed dir: %w", err)
	}

	manifest := make(Manifest, len(events))
	var hashes strings.Builder
	for _, ev := range events {
		entry, err := EntryFor(ev)
		if err != nil {
			return fmt.Errorf("manifest entry for %s: %w", ev.UUID(), err)
		}
		manifest[ev.UUID()] = entry

		if err := w.writeEvent(ev); err != nil {
			return err
		}
		for _, a := range ev.Attributes() {
			if a.Value() == "" {
				continue
			}
			fmt.Fprintf(&hashes, "%x,%s\n", md5.Sum([]byte(a.Value())), ev.UUID())
		}
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(w.dir, "manifest.json"), data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(w.dir, "hashes.csv"), []byte(hashes.String()), 0o644); err != nil {
		return fmt.Errorf("write hashes: %w", err)
	}
	return nil
}

func (w *Writer) writeEvent(ev *misp.Event) error {
	data, err := json.MarshalIndent(map[string]any{"Event": ev}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode event %s: %w", ev.UUID(), err)
	}
	name := filepath.Join(w.dir, ev.UUID()+".json")
	if err := os.WriteFile(name, data, 0o644); err != nil {
		return fmt.Errorf("write event %s: %w", ev.UUID(), err)
	}
	return nil
}

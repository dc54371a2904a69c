package handler

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/hive-corporation/spyglass/feed"
	"github.com/hive-corporation/spyglass/internal/adapter/exporter"
	"github.com/hive-corporation/spyglass/internal/core/ports"
	"github.com/hive-corporation/spyglass/internal/metrics"
)

// feedLimit caps how many events a single feed response carries.
const feedLimit = 10000

type RestHandler struct {
	repo         ports.EventRepository
	cefExporter  *exporter.CEFExporter
	stixExporter *exporter.STIXExporter
}

func NewRestHandler(repo ports.EventRepository) *RestHandler {
	return &RestHandler{
		repo:         repo,
		cefExporter:  exporter.NewCEFExporter(repo),
		stixExporter: exporter.NewSTIXExporter(repo),
	}
}

// Health check endpoint
func (h *RestHandler) Health(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "spyglass-feedd",
	}
	writeJSON(w, http.StatusOK, response)
}

// Manifest - the feed index MISP-compatible clients poll first
func (h *RestHandler) Manifest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	events, err := h.repo.FindEventsSince(ctx, time.Time{}, feedLimit)
	if err != nil {
		metrics.RecordFeedRequest("manifest", http.StatusInternalServerError)
		writeError(w, http.StatusInternalServerError, "failed to load events")
		return
	}

	manifest := make(feed.Manifest, len(events))
	for _, ev := range events {
		entry, err := feed.EntryFor(ev)
		if err != nil {
			metrics.RecordFeedRequest("manifest", http.StatusInternalServerError)
			writeError(w, http.StatusInternalServerError, "failed to build manifest")
			return
		}
		manifest[ev.UUID()] = entry
	}

	metrics.RecordFeedRequest("manifest", http.StatusOK)
	writeJSON(w, http.StatusOK, manifest)
}

// EventJSON - one event per file, wrapped the way MISP exports it
func (h *RestHandler) EventJSON(w http.ResponseWriter, r *http.Request) {
	uuid := mux.Vars(r)["uuid"]

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	ev, err := h.repo.FindByUUID(ctx, uuid)
	if err != nil {
		// Not found - event was never mirrored
		metrics.RecordFeedRequest("event", http.StatusNotFound)
		writeError(w, http.StatusNotFound, fmt.Sprintf("event %s not found", uuid))
		return
	}

	metrics.RecordFeedRequest("event", http.StatusOK)
	writeJSON(w, http.StatusOK, map[string]interface{}{"Event": ev})
}

// Hashes - per-attribute value hashes, used by clients to skip events they
// already pulled
func (h *RestHandler) Hashes(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	events, err := h.repo.FindEventsSince(ctx, time.Time{}, feedLimit)
	if err != nil {
		metrics.RecordFeedRequest("hashes", http.StatusInternalServerError)
		writeError(w, http.StatusInternalServerError, "failed to load events")
		return
	}

	var sb strings.Builder
	for _, ev := range events {
		for _, a := range ev.Attributes() {
			if a.Value() == "" {
				continue
			}
			fmt.Fprintf(&sb, "%x,%s\n", md5.Sum([]byte(a.Value())), ev.UUID())
		}
	}

	metrics.RecordFeedRequest("hashes", http.StatusOK)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(sb.String())); err != nil {
		log.Printf("Error writing hashes response: %v", err)
	}
}

// SearchAttributes - every sighting of a value across mirrored events
func (h *RestHandler) SearchAttributes(w http.ResponseWriter, r *http.Request) {
	value := r.URL.Query().Get("value")
	if value == "" {
		writeError(w, http.StatusBadRequest, "missing 'value' parameter")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	records, err := h.repo.FindAttributesByValue(ctx, value)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to query attributes")
		return
	}

	sightings := make([]map[string]interface{}, len(records))
	for i, rec := range records {
		sightings[i] = recordJSON(rec)
	}

	response := map[string]interface{}{
		"value":     value,
		"count":     len(records),
		"sightings": sightings,
	}
	writeJSON(w, http.StatusOK, response)
}

// ExportFeed - convert mirrored attributes for SIEM ingestion
func (h *RestHandler) ExportFeed(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	since := r.URL.Query().Get("since") // e.g., "24h", "168h"

	// Parse time duration
	var sinceTime time.Time
	if since != "" {
		duration, err := time.ParseDuration(since)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid 'since' parameter (use format like '24h', '168h')")
			return
		}
		sinceTime = time.Now().Add(-duration)
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	switch format {
	case "cef":
		data, err := h.cefExporter.Export(ctx, sinceTime)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to export CEF feed")
			return
		}
		metrics.RecordExport("cef")
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(data)); err != nil {
			log.Printf("Error writing CEF feed response: %v", err)
		}

	case "stix":
		data, err := h.stixExporter.Export(ctx, sinceTime)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to export STIX feed")
			return
		}
		metrics.RecordExport("stix")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(data)); err != nil {
			log.Printf("Error writing STIX feed response: %v", err)
		}

	case "json", "":
		if sinceTime.IsZero() {
			sinceTime = time.Now().Add(-24 * time.Hour)
		}
		records, err := h.repo.FindAttributesSince(ctx, sinceTime, feedLimit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to export JSON feed")
			return
		}
		attributes := make([]map[string]interface{}, len(records))
		for i, rec := range records {
			attributes[i] = recordJSON(rec)
		}
		metrics.RecordExport("json")
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"count":      len(records),
			"attributes": attributes,
		})

	default:
		writeError(w, http.StatusBadRequest, "unsupported format (use 'cef', 'stix', or 'json')")
	}
}

// Helper functions

func recordJSON(rec ports.AttributeRecord) map[string]interface{} {
	return map[string]interface{}{
		"uuid":       rec.UUID,
		"event_uuid": rec.EventUUID,
		"event_info": rec.EventInfo,
		"type":       rec.Type,
		"category":   rec.Category,
		"value":      rec.Value,
		"to_ids":     rec.ToIDS,
		"tags":       rec.Tags,
		"timestamp":  rec.Timestamp.Format(time.RFC3339),
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

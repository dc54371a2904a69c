package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/hive-corporation/spyglass/feed"
	"github.com/hive-corporation/spyglass/internal/adapter/handler"
	"github.com/hive-corporation/spyglass/internal/adapter/source"
	"github.com/hive-corporation/spyglass/internal/core/ports"
	"github.com/hive-corporation/spyglass/misp"
)

// Mock repository for testing
type mockRepository struct {
	events  map[string]*misp.Event
	records []ports.AttributeRecord
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		events: make(map[string]*misp.Event),
	}
}

func (m *mockRepository) SaveEventBatch(ctx context.Context, events []*misp.Event) error {
	for _, ev := range events {
		m.events[ev.UUID()] = ev
		for _, a := range ev.Attributes() {
			m.records = append(m.records, m.record(ev, a))
		}
		for _, obj := range ev.Objects() {
			for _, a := range obj.Attributes() {
				m.records = append(m.records, m.record(ev, a))
			}
		}
	}
	return nil
}

func (m *mockRepository) record(ev *misp.Event, a *misp.Attribute) ports.AttributeRecord {
	var tags []string
	for _, t := range a.Tags() {
		tags = append(tags, t.Name())
	}
	return ports.AttributeRecord{
		UUID:      a.UUID(),
		EventUUID: ev.UUID(),
		EventInfo: ev.Info(),
		Type:      a.Type(),
		Category:  a.Category(),
		Value:     a.Value(),
		ToIDS:     a.ToIDS(),
		Tags:      tags,
		Timestamp: time.Now(),
	}
}

func (m *mockRepository) FindByUUID(ctx context.Context, uuid string) (*misp.Event, error) {
	if ev, exists := m.events[uuid]; exists {
		return ev, nil
	}
	return nil, fmt.Errorf("event %s not found", uuid)
}

func (m *mockRepository) FindEventsSince(ctx context.Context, since time.Time, limit int) ([]*misp.Event, error) {
	uuids := make([]string, 0, len(m.events))
	for uuid := range m.events {
		uuids = append(uuids, uuid)
	}
	sort.Strings(uuids)

	var results []*misp.Event
	for _, uuid := range uuids {
		results = append(results, m.events[uuid])
		if limit > 0 && len(results) >= limit {
			break
		}
	}
	return results, nil
}

func (m *mockRepository) FindAttributesByValue(ctx context.Context, value string) ([]ports.AttributeRecord, error) {
	var results []ports.AttributeRecord
	for _, rec := range m.records {
		if rec.Value == value {
			results = append(results, rec)
		}
	}
	return results, nil
}

func (m *mockRepository) FindAttributesSince(ctx context.Context, since time.Time, limit int) ([]ports.AttributeRecord, error) {
	var results []ports.AttributeRecord
	for _, rec := range m.records {
		if rec.Timestamp.After(since) {
			results = append(results, rec)
			if limit > 0 && len(results) >= limit {
				break
			}
		}
	}
	return results, nil
}

func (m *mockRepository) CountEvents(ctx context.Context) (int64, error) {
	return int64(len(m.events)), nil
}

// newTestRouter wires the same routes the daemon serves, minus middleware
func newTestRouter(repo ports.EventRepository) *mux.Router {
	restHandler := handler.NewRestHandler(repo)

	router := mux.NewRouter()
	router.HandleFunc("/api/v1/health", restHandler.Health).Methods("GET")
	router.HandleFunc("/feed/manifest.json", restHandler.Manifest).Methods("GET")
	router.HandleFunc("/feed/hashes.csv", restHandler.Hashes).Methods("GET")
	router.HandleFunc("/feed/{uuid}.json", restHandler.EventJSON).Methods("GET")
	router.HandleFunc("/api/v1/attributes/search", restHandler.SearchAttributes).Methods("GET")
	router.HandleFunc("/api/v1/export", restHandler.ExportFeed).Methods("GET")
	return router
}

const mirroredEventJSON = `{
  "Event": {
    "uuid": "c5a83f1e-3b2a-4d6e-8f3d-2b1a9c7d5e42",
    "info": "Mirrored phishing infrastructure",
    "date": "2026-08-19",
    "published": true,
    "analysis": "2",
    "threat_level_id": "3",
    "timestamp": 1700000300,
    "Orgc": {"uuid": "b2c3d4e5-f6a7-4b8c-9d0e-1f2a3b4c5d6e", "name": "CIRCL"},
    "Tag": [{"name": "tlp:white"}],
    "Attribute": [
      {
        "uuid": "d4e5f6a7-b8c9-4d0e-1f2a-3b4c5d6e7f80",
        "type": "ip-dst",
        "category": "Network activity",
        "value": "198.51.100.7",
        "to_ids": true,
        "timestamp": 1700000200
      }
    ]
  }
}`

func mirroredEvent(t *testing.T) *misp.Event {
	t.Helper()
	ev := misp.NewEvent()
	if err := ev.FromJSON([]byte(mirroredEventJSON)); err != nil {
		t.Fatalf("hydrate fixture: %v", err)
	}
	return ev
}

func builtEvent() *misp.Event {
	ev := misp.NewEvent()
	ev.Set("info", "Locally observed scanning")
	ev.Set("date", "2026-08-20")

	a := misp.NewAttribute()
	a.Set("type", "ip-src")
	a.Set("category", "Network activity")
	a.Set("value", "203.0.113.9")
	a.Set("to_ids", true)
	a.AddTag(misp.NewTagNamed("tlp:green"))
	ev.AddAttribute(a)
	return ev
}

func seededRepo(t *testing.T) *mockRepository {
	t.Helper()
	repo := newMockRepository()
	if err := repo.SaveEventBatch(context.Background(), []*misp.Event{mirroredEvent(t), builtEvent()}); err != nil {
		t.Fatalf("seed repository: %v", err)
	}
	return repo
}

func TestE2E_FeedServesItsOwnMirror(t *testing.T) {
	repo := seededRepo(t)
	srv := httptest.NewServer(newTestRouter(repo))
	defer srv.Close()

	// Point our own feed client at the daemon and pull everything back
	src := source.NewFeedSource(srv.Client(), "self-mirror", srv.URL+"/feed")

	events, err := src.FetchEvents(context.Background())
	if err != nil {
		t.Fatalf("fetch own feed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("fetched %d events, want 2", len(events))
	}

	byUUID := make(map[string]*misp.Event, len(events))
	for _, ev := range events {
		byUUID[ev.UUID()] = ev
	}

	ev, ok := byUUID["c5a83f1e-3b2a-4d6e-8f3d-2b1a9c7d5e42"]
	if !ok {
		t.Fatal("mirrored fixture event missing from fetched feed")
	}
	if ev.Info() != "Mirrored phishing infrastructure" {
		t.Errorf("info = %q", ev.Info())
	}
	if ev.Edited() {
		t.Error("freshly fetched event should not report edited")
	}
	attrs := ev.Attributes()
	if len(attrs) != 1 || attrs[0].Value() != "198.51.100.7" {
		t.Errorf("attributes did not survive the round trip: %+v", attrs)
	}

	// The hydrated copy must keep its upstream timestamp
	ts, err := ev.Get("timestamp")
	if err != nil {
		t.Fatalf("timestamp missing after round trip: %v", err)
	}
	if tsf, ok := ts.(float64); !ok || tsf != 1700000300 {
		t.Errorf("timestamp = %v, want 1700000300", ts)
	}
}

func TestE2E_ManifestTimestampRules(t *testing.T) {
	repo := seededRepo(t)
	router := newTestRouter(repo)

	req := httptest.NewRequest("GET", "/feed/manifest.json", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var manifest feed.Manifest
	if err := json.NewDecoder(w.Body).Decode(&manifest); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	if len(manifest) != 2 {
		t.Fatalf("manifest has %d entries, want 2", len(manifest))
	}

	// Untouched events keep the timestamp they were mirrored with
	clean := manifest["c5a83f1e-3b2a-4d6e-8f3d-2b1a9c7d5e42"]
	if ts, ok := clean.Timestamp.(float64); !ok || ts != 1700000300 {
		t.Errorf("clean entry timestamp = %v, want 1700000300", clean.Timestamp)
	}

	// Locally assembled events get stamped at publication time
	for uuid, entry := range manifest {
		if uuid == "c5a83f1e-3b2a-4d6e-8f3d-2b1a9c7d5e42" {
			continue
		}
		ts, ok := entry.Timestamp.(float64)
		if !ok || ts <= 1700000300 {
			t.Errorf("built entry timestamp = %v, want a fresh stamp", entry.Timestamp)
		}
		if entry.Info != "Locally observed scanning" {
			t.Errorf("built entry info = %q", entry.Info)
		}
	}
}

func TestE2E_EventNotFound(t *testing.T) {
	repo := seededRepo(t)
	router := newTestRouter(repo)

	req := httptest.NewRequest("GET", "/feed/00000000-0000-0000-0000-000000000000.json", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}

	var response map[string]interface{}
	json.NewDecoder(w.Body).Decode(&response)
	if _, exists := response["error"]; !exists {
		t.Error("Expected error field in response")
	}
}

func TestE2E_SearchAttributes(t *testing.T) {
	repo := seededRepo(t)
	router := newTestRouter(repo)

	req := httptest.NewRequest("GET", "/api/v1/attributes/search?value=198.51.100.7", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var response map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if response["count"].(float64) != 1 {
		t.Fatalf("count = %v, want 1", response["count"])
	}

	sightings := response["sightings"].([]interface{})
	first := sightings[0].(map[string]interface{})
	if first["event_info"] != "Mirrored phishing infrastructure" {
		t.Errorf("event_info = %v", first["event_info"])
	}
	if first["type"] != "ip-dst" {
		t.Errorf("type = %v", first["type"])
	}
}

func TestE2E_SearchRequiresValue(t *testing.T) {
	repo := seededRepo(t)
	router := newTestRouter(repo)

	req := httptest.NewRequest("GET", "/api/v1/attributes/search", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestE2E_ExportFormats(t *testing.T) {
	repo := seededRepo(t)
	router := newTestRouter(repo)

	t.Run("cef", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/export?format=cef", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		body := w.Body.String()
		if !strings.Contains(body, "CEF:0|Spyglass|ThreatFeed") {
			t.Errorf("missing CEF header: %s", body)
		}
		if !strings.Contains(body, "src=198.51.100.7") {
			t.Errorf("missing indicator line: %s", body)
		}
	})

	t.Run("stix", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/export?format=stix", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}

		var bundle map[string]interface{}
		if err := json.NewDecoder(w.Body).Decode(&bundle); err != nil {
			t.Fatalf("decode bundle: %v", err)
		}
		if bundle["type"] != "bundle" {
			t.Errorf("type = %v, want bundle", bundle["type"])
		}
		objects := bundle["objects"].([]interface{})
		if len(objects) != 2 {
			t.Errorf("objects = %d, want 2", len(objects))
		}
	})

	t.Run("json", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/export?format=json", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}

		var response map[string]interface{}
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if response["count"].(float64) != 2 {
			t.Errorf("count = %v, want 2", response["count"])
		}
	})

	t.Run("unsupported", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/export?format=xml", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("bad since", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/export?format=cef&since=yesterday", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}

func TestE2E_HashesCSV(t *testing.T) {
	repo := seededRepo(t)
	router := newTestRouter(repo)

	req := httptest.NewRequest("GET", "/feed/hashes.csv", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("hashes has %d lines, want 2", len(lines))
	}
	for _, line := range lines {
		parts := strings.Split(line, ",")
		if len(parts) != 2 {
			t.Fatalf("malformed line %q", line)
		}
		if len(parts[0]) != 32 {
			t.Errorf("hash %q is not a hex md5", parts[0])
		}
		if _, exists := repo.events[parts[1]]; !exists {
			t.Errorf("line references unknown event %s", parts[1])
		}
	}
}

func TestE2E_Health(t *testing.T) {
	repo := newMockRepository()
	router := newTestRouter(repo)

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var response map[string]interface{}
	json.NewDecoder(w.Body).Decode(&response)
	if response["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", response["status"])
	}
}

func BenchmarkE2E_ManifestEndpoint(b *testing.B) {
	repo := newMockRepository()
	ev := misp.NewEvent()
	ev.Set("info", "bench event")
	repo.SaveEventBatch(context.Background(), []*misp.Event{ev})

	router := newTestRouter(repo)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest("GET", "/feed/manifest.json", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
	}
}

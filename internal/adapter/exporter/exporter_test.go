package exporter

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/hive-corporation/spyglass/internal/core/ports"
	"github.com/hive-corporation/spyglass/misp"
)

type stubRepository struct {
	records []ports.AttributeRecord
}

func (s *stubRepository) SaveEventBatch(ctx context.Context, events []*misp.Event) error {
	return nil
}

func (s *stubRepository) FindByUUID(ctx context.Context, uuid string) (*misp.Event, error) {
	return nil, nil
}

func (s *stubRepository) FindEventsSince(ctx context.Context, since time.Time, limit int) ([]*misp.Event, error) {
	return nil, nil
}

func (s *stubRepository) FindAttributesByValue(ctx context.Context, value string) ([]ports.AttributeRecord, error) {
	return s.records, nil
}

func (s *stubRepository) FindAttributesSince(ctx context.Context, since time.Time, limit int) ([]ports.AttributeRecord, error) {
	return s.records, nil
}

func (s *stubRepository) CountEvents(ctx context.Context) (int64, error) {
	return int64(len(s.records)), nil
}

func sampleRecord() ports.AttributeRecord {
	return ports.AttributeRecord{
		UUID:      "5e9a3f1d-1af4-4b2a-9f3d-2b1a9c7d5e42",
		EventUUID: "5e9a3f1c-9f2a-4b6e-8f3d-2b1a9c7d5e42",
		EventInfo: "Phishing kit infrastructure",
		Type:      "ip-dst",
		Category:  "Network activity",
		Value:     "198.51.100.7",
		ToIDS:     true,
		Tags:      []string{"tlp:green"},
		Timestamp: time.Unix(1700000000, 0),
	}
}

func TestBuildPattern(t *testing.T) {
	tests := []struct {
		name     string
		attrType string
		value    string
		want     string
	}{
		{"destination ip", "ip-dst", "198.51.100.7", "[ipv4-addr:value = '198.51.100.7']"},
		{"ip with port", "ip-dst|port", "198.51.100.7|8443", "[ipv4-addr:value = '198.51.100.7' AND network-traffic:dst_port = 8443]"},
		{"domain", "domain", "phish.example.net", "[domain-name:value = 'phish.example.net']"},
		{"url", "url", "https://phish.example.net/kit.zip", "[url:value = 'https://phish.example.net/kit.zip']"},
		{"md5", "md5", "9e107d9d372bb6826bd81d3542a419d6", "[file:hashes.'MD5' = '9e107d9d372bb6826bd81d3542a419d6']"},
		{"sha256", "sha256", "2c26b46b68ffc68ff99b453c1d30413413422d706483bfa0f98a5e886266e7ae", "[file:hashes.'SHA-256' = '2c26b46b68ffc68ff99b453c1d30413413422d706483bfa0f98a5e886266e7ae']"},
		{"filename with hash", "filename|md5", "invoice.exe|9e107d9d372bb6826bd81d3542a419d6", "[file:name = 'invoice.exe' AND file:hashes.'MD5' = '9e107d9d372bb6826bd81d3542a419d6']"},
		{"email source", "email-src", "crook@example.net", "[email-addr:value = 'crook@example.net']"},
		{"registry key", "regkey", "HKCU\\Software\\Run", "[windows-registry-key:key = 'HKCU\\\\Software\\\\Run']"},
		{"unknown type", "mobile-imei", "356938035643809", "[x-misp-attribute:value = '356938035643809']"},
		{"quote in value", "comment", "it's trapped", "[x-misp-attribute:value = 'it\\'s trapped']"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ports.AttributeRecord{Type: tt.attrType, Value: tt.value}
			if got := buildPattern(rec); got != tt.want {
				t.Errorf("buildPattern() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSTIXExportShape(t *testing.T) {
	repo := &stubRepository{records: []ports.AttributeRecord{sampleRecord()}}
	out, err := NewSTIXExporter(repo).Export(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	var bundle STIXBundle
	if err := json.Unmarshal([]byte(out), &bundle); err != nil {
		t.Fatalf("bundle is not valid JSON: %v", err)
	}
	if bundle.Type != "bundle" || bundle.SpecVersion != "2.1" {
		t.Fatalf("bundle header = %s %s", bundle.Type, bundle.SpecVersion)
	}
	if !strings.HasPrefix(bundle.ID, "bundle--") {
		t.Fatalf("bundle id = %s", bundle.ID)
	}
	if len(bundle.Objects) != 1 {
		t.Fatalf("objects = %d, want 1", len(bundle.Objects))
	}

	obj := bundle.Objects[0]
	if obj.Type != "indicator" || obj.PatternType != "stix" {
		t.Fatalf("object = %+v", obj)
	}
	if obj.Pattern != "[ipv4-addr:value = '198.51.100.7']" {
		t.Fatalf("pattern = %s", obj.Pattern)
	}
	if obj.Confidence != 85 {
		t.Fatalf("confidence = %d, want 85 for a to_ids attribute", obj.Confidence)
	}
	if len(obj.ExternalReferences) != 1 || obj.ExternalReferences[0].ExternalID != sampleRecord().EventUUID {
		t.Fatalf("external refs = %+v", obj.ExternalReferences)
	}
}

func TestCEFExportShape(t *testing.T) {
	repo := &stubRepository{records: []ports.AttributeRecord{sampleRecord()}}
	out, err := NewCEFExporter(repo).Export(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(lines))
	}
	line := lines[0]

	if !strings.HasPrefix(line, "CEF:0|Spyglass|ThreatFeed|1.0|ip-dst|") {
		t.Fatalf("header = %s", line)
	}
	for _, want := range []string{
		"src=198.51.100.7",
		"cn1=85",
		"cs1=Network activity",
		"cs3=tlp:green",
		"rt=1700000000000",
	} {
		if !strings.Contains(line, want) {
			t.Fatalf("line misses %q: %s", want, line)
		}
	}
}

func TestEscapeField(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"pipe", "a|b", "a\\|b"},
		{"equals", "key=value", "key\\=value"},
		{"backslash", "C:\\temp", "C:\\\\temp"},
		{"newline", "two\nlines", "two\\nlines"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := escapeField(tt.input); got != tt.want {
				t.Errorf("escapeField(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestConfidenceSeverityBands(t *testing.T) {
	tests := []struct {
		confidence int
		want       int
	}{
		{95, 10},
		{85, 8},
		{75, 6},
		{65, 4},
		{50, 2},
	}
	for _, tt := range tests {
		if got := confidenceSeverity(tt.confidence); got != tt.want {
			t.Errorf("confidenceSeverity(%d) = %d, want %d", tt.confidence, got, tt.want)
		}
	}
}

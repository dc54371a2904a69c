package exporter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hive-corporation/spyglass/internal/core/ports"
)

// STIXExporter renders mirrored attributes as a STIX 2.1 bundle for SIEM
// ingestion
type STIXExporter struct {
	repo ports.EventRepository
}

func NewSTIXExporter(repo ports.EventRepository) *STIXExporter {
	return &STIXExporter{repo: repo}
}

// Export generates a STIX 2.1 formatted indicator feed
func (e *STIXExporter) Export(ctx context.Context, since time.Time) (string, error) {
	// Default to last 24 hours if no time specified
	if since.IsZero() {
		since = time.Now().Add(-24 * time.Hour)
	}

	// Fetch attributes from database (limit to 10000 entries for performance)
	records, err := e.repo.FindAttributesSince(ctx, since, 10000)
	if err != nil {
		return "", fmt.Errorf("failed to fetch attributes: %w", err)
	}

	bundle := STIXBundle{
		Type:        "bundle",
		ID:          fmt.Sprintf("bundle--%s", uuid.New().String()),
		SpecVersion: "2.1",
		Objects:     []STIXObject{},
	}

	for _, rec := range records {
		confidence := attributeConfidence(rec)
		bundle.Objects = append(bundle.Objects, e.convertToSTIX(rec, confidence))
	}

	jsonData, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal STIX bundle: %w", err)
	}

	return string(jsonData), nil
}

func (e *STIXExporter) convertToSTIX(rec ports.AttributeRecord, confidence int) STIXObject {
	now := time.Now().UTC()

	pattern := buildPattern(rec)
	indicatorTypes := mapIndicatorTypes(rec.Category)

	externalRefs := []ExternalReference{
		{
			SourceName: "misp-event",
			ExternalID: rec.EventUUID,
		},
	}

	return STIXObject{
		Type:               "indicator",
		SpecVersion:        "2.1",
		ID:                 fmt.Sprintf("indicator--%s", uuid.New().String()),
		Created:            now.Format(time.RFC3339),
		Modified:           now.Format(time.RFC3339),
		Name:               fmt.Sprintf("%s Indicator", strings.ToUpper(rec.Type)),
		Description:        rec.EventInfo,
		Pattern:            pattern,
		PatternType:        "stix",
		ValidFrom:          rec.Timestamp.UTC().Format(time.RFC3339),
		IndicatorTypes:     indicatorTypes,
		Confidence:         confidence,
		Labels:             rec.Tags,
		ExternalReferences: externalRefs,
	}
}

func buildPattern(rec ports.AttributeRecord) string {
	value := escapePatternValue(rec.Value)

	switch rec.Type {
	case "ip-src", "ip-dst":
		return fmt.Sprintf("[ipv4-addr:value = '%s']", value)
	case "ip-src|port", "ip-dst|port":
		// Composite values carry the port after the pipe
		ip, port, ok := strings.Cut(value, "|")
		if !ok {
			return fmt.Sprintf("[ipv4-addr:value = '%s']", value)
		}
		return fmt.Sprintf("[ipv4-addr:value = '%s' AND network-traffic:dst_port = %s]", ip, port)
	case "domain", "hostname":
		return fmt.Sprintf("[domain-name:value = '%s']", value)
	case "url", "uri":
		return fmt.Sprintf("[url:value = '%s']", value)
	case "md5", "sha1", "sha256", "sha512":
		return fmt.Sprintf("[file:hashes.'%s' = '%s']", stixHashName(rec.Type), value)
	case "filename":
		return fmt.Sprintf("[file:name = '%s']", value)
	case "filename|md5", "filename|sha1", "filename|sha256":
		name, hash, ok := strings.Cut(value, "|")
		if !ok {
			return fmt.Sprintf("[file:name = '%s']", value)
		}
		hashType := strings.TrimPrefix(rec.Type, "filename|")
		return fmt.Sprintf("[file:name = '%s' AND file:hashes.'%s' = '%s']", name, stixHashName(hashType), hash)
	case "email-src", "email-dst":
		return fmt.Sprintf("[email-addr:value = '%s']", value)
	case "mutex":
		return fmt.Sprintf("[mutex:name = '%s']", value)
	case "regkey":
		return fmt.Sprintf("[windows-registry-key:key = '%s']", value)
	default:
		return fmt.Sprintf("[x-misp-attribute:value = '%s']", value)
	}
}

func mapIndicatorTypes(category string) []string {
	mapping := map[string][]string{
		"Network activity":      {"malicious-activity", "command-and-control"},
		"Payload delivery":      {"malicious-activity", "malware-download"},
		"Payload installation":  {"malicious-activity"},
		"Artifacts dropped":     {"malicious-activity"},
		"Persistence mechanism": {"malicious-activity"},
		"External analysis":     {"anomalous-activity"},
		"Financial fraud":       {"malicious-activity", "fraud"},
	}

	if types, ok := mapping[category]; ok {
		return types
	}
	return []string{"malicious-activity"}
}

func stixHashName(attrType string) string {
	switch attrType {
	case "md5":
		return "MD5"
	case "sha1":
		return "SHA-1"
	case "sha512":
		return "SHA-512"
	default:
		return "SHA-256"
	}
}

func escapePatternValue(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "'", "\\'")
	return s
}

// STIX 2.1 data structures

type STIXBundle struct {
	Type        string       `json:"type"`
	ID          string       `json:"id"`
	SpecVersion string       `json:"spec_version"`
	Objects     []STIXObject `json:"objects"`
}

type STIXObject struct {
	Type               string              `json:"type"`
	SpecVersion        string              `json:"spec_version"`
	ID                 string              `json:"id"`
	Created            string              `json:"created"`
	Modified           string              `json:"modified"`
	Name               string              `json:"name"`
	Description        string              `json:"description,omitempty"`
	Pattern            string              `json:"pattern"`
	PatternType        string              `json:"pattern_type"`
	ValidFrom          string              `json:"valid_from"`
	IndicatorTypes     []string            `json:"indicator_types"`
	Confidence         int                 `json:"confidence"`
	Labels             []string            `json:"labels,omitempty"`
	ExternalReferences []ExternalReference `json:"external_references,omitempty"`
}

type ExternalReference struct {
	SourceName string `json:"source_name"`
	ExternalID string `json:"external_id,omitempty"`
	URL        string `json:"url,omitempty"`
}

// attributeConfidence generates a confidence score from what the attribute
// carries
func attributeConfidence(rec ports.AttributeRecord) int {
	confidence := 70 // Base confidence

	// Flagged for detection means the publisher vouched for it
	if rec.ToIDS {
		confidence += 15
	}

	// Richly tagged attributes went through more review
	if len(rec.Tags) > 3 {
		confidence += 5
	}

	// Cap at 100
	if confidence > 100 {
		confidence = 100
	}

	return confidence
}

package exporter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hive-corporation/spyglass/internal/core/ports"
)

// CEFExporter renders mirrored attributes in Common Event Format for SIEM
// ingestion
type CEFExporter struct {
	repo ports.EventRepository
}

func NewCEFExporter(repo ports.EventRepository) *CEFExporter {
	return &CEFExporter{repo: repo}
}

// Export generates a CEF-formatted attribute feed
// Format: CEF:Version|Device Vendor|Device Product|Device Version|Signature ID|Name|Severity|Extension
func (e *CEFExporter) Export(ctx context.Context, since time.Time) (string, error) {
	// Default to last 24 hours if no time specified
	if since.IsZero() {
		since = time.Now().Add(-24 * time.Hour)
	}

	// Fetch attributes from database (limit to 10000 entries for performance)
	records, err := e.repo.FindAttributesSince(ctx, since, 10000)
	if err != nil {
		return "", fmt.Errorf("failed to fetch attributes: %w", err)
	}

	var output strings.Builder

	for _, rec := range records {
		output.WriteString(formatCEF(rec))
		output.WriteString("\n")
	}

	return output.String(), nil
}

func formatCEF(rec ports.AttributeRecord) string {
	// CEF Header
	// CEF:Version|Device Vendor|Device Product|Device Version|Signature ID|Name|Severity|Extension

	vendor := "Spyglass"
	product := "ThreatFeed"
	version := "1.0"
	signatureID := rec.Type
	name := fmt.Sprintf("%s Indicator Observed", strings.ToUpper(rec.Type))
	confidence := attributeConfidence(rec)
	severity := confidenceSeverity(confidence)

	// CEF Extensions (key=value pairs)
	extensions := []string{
		fmt.Sprintf("src=%s", escapeField(rec.Value)),
		"cn1Label=ConfidenceScore",
		fmt.Sprintf("cn1=%d", confidence),
		"cs1Label=Category",
		fmt.Sprintf("cs1=%s", escapeField(rec.Category)),
		"cs2Label=Event",
		fmt.Sprintf("cs2=%s", escapeField(rec.EventInfo)),
		"cs3Label=Tags",
		fmt.Sprintf("cs3=%s", escapeField(strings.Join(rec.Tags, ","))),
		fmt.Sprintf("externalId=%s", escapeField(rec.EventUUID)),
		fmt.Sprintf("rt=%d", rec.Timestamp.Unix()*1000), // milliseconds
	}

	extensionStr := strings.Join(extensions, " ")

	return fmt.Sprintf("CEF:0|%s|%s|%s|%s|%s|%d|%s",
		vendor, product, version, signatureID, name, severity, extensionStr)
}

func confidenceSeverity(confidence int) int {
	// Map confidence (0-100) to CEF severity (0-10)
	if confidence >= 90 {
		return 10 // Critical
	} else if confidence >= 80 {
		return 8 // High
	} else if confidence >= 70 {
		return 6 // Medium
	} else if confidence >= 60 {
		return 4 // Low
	}
	return 2 // Info
}

func escapeField(s string) string {
	// Escape special characters in CEF fields
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "=", "\\=")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	return s
}

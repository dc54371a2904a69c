package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hive-corporation/spyglass/internal/core/ports"
)

type SlackNotifier struct {
	botToken    string
	channel     string
	mentionTeam string
	httpClient  *http.Client
}

func NewSlackNotifier(botToken, channel, mentionTeam string) *SlackNotifier {
	return &SlackNotifier{
		botToken:    botToken,
		channel:     channel,
		mentionTeam: mentionTeam,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NotifyNewEvents sends a digest of freshly mirrored events to Slack
func (s *SlackNotifier) NotifyNewEvents(digest ports.EventDigest) error {
	blocks := s.buildDigestBlocks(digest)

	// Slack API payload
	payload := SlackMessage{
		Channel: s.channel,
		Blocks:  blocks,
		Text:    fmt.Sprintf("📥 %d new events mirrored from %s", len(digest.Events), digest.Source),
	}

	return s.sendMessage(payload)
}

// NotifyMirrorFailure reports a source that could not be mirrored
func (s *SlackNotifier) NotifyMirrorFailure(source, reason string) error {
	blocks := s.buildFailureBlocks(source, reason)

	payload := SlackMessage{
		Channel: s.channel,
		Blocks:  blocks,
		Text:    fmt.Sprintf("⚠️ Mirror run failed for %s", source),
	}

	return s.sendMessage(payload)
}

// Build Slack message blocks for a mirror digest
func (s *SlackNotifier) buildDigestBlocks(digest ports.EventDigest) []SlackBlock {
	blocks := []SlackBlock{
		// Header
		{
			Type: "header",
			Text: &SlackText{
				Type: "plain_text",
				Text: "📥 New Threat Events Mirrored",
			},
		},
		// Run details
		{
			Type: "section",
			Fields: []SlackText{
				{Type: "mrkdwn", Text: fmt.Sprintf("*Source*\n%s", digest.Source)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Events*\n%d", len(digest.Events))},
			},
		},
		{
			Type: "divider",
		},
	}

	// Event details
	for i, ev := range digest.Events {
		if i >= 5 { // Limit to 5 events to avoid message being too long
			blocks = append(blocks, SlackBlock{
				Type: "section",
				Text: &SlackText{
					Type: "mrkdwn",
					Text: fmt.Sprintf("_...and %d more events_", len(digest.Events)-5),
				},
			})
			break
		}

		eventText := fmt.Sprintf("*%s*\n`%s`\n• Attributes: %d", ev.Info, ev.UUID, ev.AttributeCount)
		if len(ev.Tags) > 0 {
			eventText += fmt.Sprintf("\n• Tags: %s", strings.Join(ev.Tags, ", "))
		}

		blocks = append(blocks, SlackBlock{
			Type: "section",
			Text: &SlackText{
				Type: "mrkdwn",
				Text: eventText,
			},
		})
	}

	blocks = append(blocks, SlackBlock{Type: "divider"})

	// Run footer
	blocks = append(blocks, SlackBlock{
		Type: "context",
		Elements: []SlackText{
			{
				Type: "mrkdwn",
				Text: fmt.Sprintf("Mirrored at *%s* | Source: *%s*",
					time.Now().UTC().Format("2006-01-02 15:04 MST"), digest.Source),
			},
		},
	})

	// Mention team if configured
	if s.mentionTeam != "" {
		blocks = append(blocks, SlackBlock{
			Type: "section",
			Text: &SlackText{
				Type: "mrkdwn",
				Text: fmt.Sprintf("🔔 %s", s.mentionTeam),
			},
		})
	}

	return blocks
}

// Build Slack blocks for a failed mirror run
func (s *SlackNotifier) buildFailureBlocks(source, reason string) []SlackBlock {
	blocks := []SlackBlock{
		{
			Type: "header",
			Text: &SlackText{
				Type: "plain_text",
				Text: "⚠️ Mirror Run Failed",
			},
		},
		{
			Type: "section",
			Fields: []SlackText{
				{Type: "mrkdwn", Text: fmt.Sprintf("*Source*\n%s", source)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Reason*\n%s", reason)},
			},
		},
		{
			Type: "section",
			Text: &SlackText{
				Type: "mrkdwn",
				Text: "*Next Steps*\n✓ Check the source is reachable\n✓ Validate the manifest parses\n✓ Review mirror logs",
			},
		},
	}

	if s.mentionTeam != "" {
		blocks = append(blocks, SlackBlock{
			Type: "section",
			Text: &SlackText{
				Type: "mrkdwn",
				Text: fmt.Sprintf("cc: %s", s.mentionTeam),
			},
		})
	}

	return blocks
}

// Send message to Slack
func (s *SlackNotifier) sendMessage(msg SlackMessage) error {
	jsonData, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal Slack message: %w", err)
	}

	req, err := http.NewRequest("POST", "https://slack.com/api/chat.postMessage", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.botToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack API returned status %d", resp.StatusCode)
	}

	return nil
}

// Slack API structures

type SlackMessage struct {
	Channel string       `json:"channel"`
	Blocks  []SlackBlock `json:"blocks"`
	Text    string       `json:"text"` // Fallback text
}

type SlackBlock struct {
	Type     string      `json:"type"`
	Text     *SlackText  `json:"text,omitempty"`
	Fields   []SlackText `json:"fields,omitempty"`
	Elements []SlackText `json:"elements,omitempty"`
}

type SlackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

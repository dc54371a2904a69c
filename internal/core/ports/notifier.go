package ports

// Notifier defines the interface for announcing mirror activity to external
// systems.
type Notifier interface {
	// NotifyNewEvents sends a digest of freshly mirrored events
	NotifyNewEvents(digest EventDigest) error

	// NotifyMirrorFailure reports a source that could not be mirrored
	NotifyMirrorFailure(source, reason string) error
}

// Notification data structures

type EventDigest struct {
	Source string
	Events []EventSummary
}

type EventSummary struct {
	UUID           string
	Info           string
	AttributeCount int
	Tags           []string
}

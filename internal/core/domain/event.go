package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// EventKind tags what an event records.
type EventKind string

// Event kinds published on the stream.
const (
	// KindIntake records that a file entered the pipeline. It is the durable
	// "seen" record for the watch loop.
	KindIntake EventKind = "intake"

	// KindDedupe records the dedupe decision for an intake item.
	KindDedupe EventKind = "dedupe"

	// KindTextReady records that extracted text was persisted.
	KindTextReady EventKind = "text.ready"

	// KindItemFailed records a per-file failure at some stage.
	KindItemFailed EventKind = "item.failed"

	// KindTimelineRecorded records that the timeline row for an item was written.
	KindTimelineRecorded EventKind = "timeline.recorded"

	// KindTimelineMerged records that a control file was merged into the timeline.
	KindTimelineMerged EventKind = "timeline.merged"
)

// String returns the string representation.
func (k EventKind) String() string {
	return string(k)
}

// Detail keys shared between producers and consumers.
const (
	DetailIntakeID    = "intake_id"
	DetailStatus      = "status"
	DetailStage       = "stage"
	DetailError       = "error"
	DetailFingerprint = "fingerprint"
	DetailGroupKey    = "group_key"
	DetailSupersedes  = "supersedes"
	DetailDuplicateOf = "duplicate_of"
	DetailCharCount   = "char_count"
	DetailWordCount   = "word_count"
	DetailSource      = "source"
	DetailArtifact    = "artifact"
	DetailPages       = "pages"
	DetailRunID       = "run_id"
	DetailRows        = "rows"
)

// Cursor is a consumer's read position in the stream.
// Zero means "before the first event".
type Cursor int64

// Event is an immutable record on the append-only stream.
// Once appended it is never mutated or removed.
type Event struct {
	// ID is a short hash of relpath, kind and timestamp.
	// Not a primary key: a colliding ID is stored as a new event.
	ID string `json:"id" yaml:"id"`

	// TS is when the producer made its decision.
	TS time.Time `json:"ts" yaml:"ts"`

	// Type mirrors Kind for consumers of the original record shape.
	Type EventKind `json:"type" yaml:"type"`

	// Kind tags the event.
	Kind EventKind `json:"kind" yaml:"kind"`

	// FileRelpath is the file path relative to the watch directory.
	FileRelpath string `json:"file_relpath" yaml:"file_relpath"`

	// Title is a human-readable summary.
	Title string `json:"title" yaml:"title"`

	// Details holds kind-specific values. Unknown keys must be ignored.
	Details map[string]any `json:"details" yaml:"details"`

	// Seq is the store-assigned position. It is not part of the persisted record.
	Seq Cursor `json:"-" yaml:"seq,omitempty"`
}

// NewEventID derives a stable short ID from relpath, kind and timestamp.
func NewEventID(relpath string, kind EventKind, ts time.Time) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%s", relpath, kind, ts.Format(time.RFC3339Nano))))
	return hex.EncodeToString(sum[:])[:16]
}

// IntakeID returns the ID of the intake event this event belongs to.
func (e Event) IntakeID() string {
	if e.Kind == KindIntake {
		return e.ID
	}
	return e.DetailString(DetailIntakeID)
}

// DetailString returns a string detail or "" if missing.
func (e Event) DetailString(key string) string {
	if e.Details == nil {
		return ""
	}
	s, _ := e.Details[key].(string)
	return s
}

// DetailInt returns an integer detail. JSON numbers decode as float64,
// so all numeric kinds are accepted.
func (e Event) DetailInt(key string) int {
	if e.Details == nil {
		return 0
	}
	switch v := e.Details[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// DetailBool returns a boolean detail or false if missing.
func (e Event) DetailBool(key string) bool {
	if e.Details == nil {
		return false
	}
	b, _ := e.Details[key].(bool)
	return b
}

// DetailStrings returns a string slice detail. Decoded JSON arrays arrive as []any.
func (e Event) DetailStrings(key string) []string {
	if e.Details == nil {
		return nil
	}
	switch v := e.Details[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// EventFilter selects events for membership queries.
// Empty fields match everything.
type EventFilter struct {
	Kind        EventKind
	FileRelpath string
	IntakeID    string
}

// Matches reports whether the event satisfies the filter.
func (f EventFilter) Matches(e Event) bool {
	if f.Kind != "" && e.Kind != f.Kind {
		return false
	}
	if f.FileRelpath != "" && e.FileRelpath != f.FileRelpath {
		return false
	}
	if f.IntakeID != "" && e.IntakeID() != f.IntakeID {
		return false
	}
	return true
}

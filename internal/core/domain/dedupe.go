package domain

import "time"

// Fingerprint is the hex-encoded SHA-256 digest of a file's bytes.
// Equal fingerprints identify the same logical document.
type Fingerprint string

// Short returns the first n characters, or the whole fingerprint if shorter.
func (f Fingerprint) Short(n int) string {
	if len(f) <= n {
		return string(f)
	}
	return string(f[:n])
}

// DedupeDecision classifies an intake item against previously seen content.
type DedupeDecision string

const (
	// DedupeAccepted is the first sighting of a fingerprint.
	DedupeAccepted DedupeDecision = "accepted"

	// DedupeDuplicate is content identical to an accepted fingerprint.
	// Duplicates never trigger extraction.
	DedupeDuplicate DedupeDecision = "duplicate"

	// DedupeSuperseded is a new version of a document whose group already has
	// a current version.
	DedupeSuperseded DedupeDecision = "superseded"
)

// IsValid returns true if the decision is recognised.
func (d DedupeDecision) IsValid() bool {
	switch d {
	case DedupeAccepted, DedupeDuplicate, DedupeSuperseded:
		return true
	default:
		return false
	}
}

// TriggersExtraction reports whether the decision forwards the item to extraction.
func (d DedupeDecision) TriggersExtraction() bool {
	return d == DedupeAccepted || d == DedupeSuperseded
}

// FingerprintRecord is the persisted state of one fingerprint.
type FingerprintRecord struct {
	// Fingerprint is the content digest.
	Fingerprint Fingerprint

	// FileRelpath is where the content was first seen.
	FileRelpath string

	// IntakeID is the intake event that first carried the content.
	IntakeID string

	// GroupKey identifies the logical document for supersession.
	// Empty means the policy did not group this file.
	GroupKey string

	// Decision is the decision made when the fingerprint was first seen.
	Decision DedupeDecision

	// Current is true for the single live version of its group.
	Current bool

	// SeenAt is when the fingerprint was recorded.
	SeenAt time.Time
}

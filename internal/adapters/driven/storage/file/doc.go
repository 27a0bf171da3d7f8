// Package file provides the human-readable stores that live next to the
// event stream in the data directory:
//
//   - StatusStore: status.json, the current state of every file
//   - Timeline: timeline.csv, the append-only audit trail
//   - ArtifactStore: text/<stem>.<fp12>.txt, extracted text
//
// Whole-document writes go through fsutil.AtomicWrite. Timeline appends take
// an exclusive advisory lock so concurrent writers never interleave rows.
package file

// Package domain defines the core business entities for the intake pipeline.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Event: An immutable record on the append-only event stream
//   - FingerprintRecord: A content digest and its dedupe decision
//   - ExtractionResult: Text derived from a document and how it was obtained
//   - Route: The capability an extension maps to
//   - TimelineEntry: One audit row per processed file
//   - ProcessingStatus: The current state of a file
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain

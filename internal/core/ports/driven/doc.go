// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the pipeline to function:
//
//   - EventStore: Durable append-only event stream
//   - CursorStore: Per-consumer read positions
//   - FingerprintStore: Dedupe fingerprint table
//   - StatusStore: Last-write-wins processing status per file
//   - TimelineWriter: Append-only audit rows
//   - ArtifactStore: Extracted text artifacts
//   - Extractor: Native text extraction for one or more capabilities
//   - GroupingPolicy: Logical-document grouping for supersession
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil or report themselves unavailable - the pipeline degrades gracefully:
//
//   - OCREngine: Optical recognition. Without it, textless documents yield empty results.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or extractor package
package driven

// Package extractors provides implementations of the Extractor interface
// for the document formats the intake router accepts. Each extractor reads
// the native text of one kind of file; optical recognition lives in the ocr
// subpackage and is only consulted when native extraction yields nothing.
//
// Extractors are registered with the Registry at startup and selected by
// capability.
package extractors

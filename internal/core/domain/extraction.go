package domain

import "strings"

// Method tags how extracted text was obtained.
type Method string

const (
	// MethodNative means text came from the document's structured text layer
	// or from reading a text file directly.
	MethodNative Method = "native"

	// MethodOCR means text came from optical character recognition.
	MethodOCR Method = "ocr"

	// MethodNone means no text was obtained.
	MethodNone Method = "none"
)

// String returns the string representation.
func (m Method) String() string {
	return string(m)
}

// ExtractionResult is the outcome of extracting text from one file.
// It is folded into a text.ready event and a text artifact; never persisted directly.
type ExtractionResult struct {
	// Text is the extracted text, possibly empty.
	Text string

	// UsedNative is true when the native path produced the text.
	UsedNative bool

	// UsedOCR is true when optical recognition produced the text.
	UsedOCR bool

	// CharCount is the number of characters in Text.
	CharCount int

	// WordCount is the number of whitespace-separated words in Text.
	WordCount int

	// Method is the strategy that produced Text.
	Method Method

	// Pages is the number of pages recognised, when known.
	Pages int
}

// NewExtractionResult builds a result for text obtained with method.
// Text that is empty after trimming yields MethodNone.
func NewExtractionResult(text string, method Method) ExtractionResult {
	if strings.TrimSpace(text) == "" {
		return ExtractionResult{Method: MethodNone}
	}
	return ExtractionResult{
		Text:       text,
		UsedNative: method == MethodNative,
		UsedOCR:    method == MethodOCR,
		CharCount:  len([]rune(text)),
		WordCount:  len(strings.Fields(text)),
		Method:     method,
	}
}

// Empty reports whether no text was obtained.
func (r ExtractionResult) Empty() bool {
	return r.Method == MethodNone
}

// Capabilities is the set of optional extraction dependencies probed once at startup.
type Capabilities struct {
	// NativePDF is true when a PDF text-layer parser is available.
	NativePDF bool

	// OCR is true when an optical recognition engine is installed.
	OCR bool

	// Rasterize is true when documents can be rendered to page images.
	Rasterize bool
}

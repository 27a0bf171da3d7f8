package domain

// Capability is the closed set of file kinds the pipeline knows how to handle.
// CapabilityUnsupported is the mandatory default arm.
type Capability string

const (
	// CapabilityDocument is a paginated document with an optional text layer (PDF).
	CapabilityDocument Capability = "document"

	// CapabilityImage is a raster image; text only via OCR.
	CapabilityImage Capability = "image"

	// CapabilityOffice is a word-processing document (DOCX).
	CapabilityOffice Capability = "office"

	// CapabilityMarkup is an HTML document.
	CapabilityMarkup Capability = "markup"

	// CapabilityMail is an RFC 822 message.
	CapabilityMail Capability = "mail"

	// CapabilityText is plain text or markdown.
	CapabilityText Capability = "text"

	// CapabilityTabular is a CSV export.
	CapabilityTabular Capability = "tabular"

	// CapabilityUnsupported is any extension without a handler.
	CapabilityUnsupported Capability = "unsupported"
)

// IsValid returns true if the capability is recognised.
func (c Capability) IsValid() bool {
	switch c {
	case CapabilityDocument, CapabilityImage, CapabilityOffice, CapabilityMarkup,
		CapabilityMail, CapabilityText, CapabilityTabular, CapabilityUnsupported:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (c Capability) String() string {
	return string(c)
}

// Destinations a route can send a file to.
const (
	DestinationDatabase  = "Database"
	DestinationGenerated = "Generated"
)

// Actions a route can take.
const (
	ActionExtractText = "extract_text"
	ActionIndex       = "index"
	ActionMerge       = "merge"
	ActionSkip        = "skip"
)

// Route is the classification of one file by extension.
// Pure data: resolving a route has no side effects.
type Route struct {
	// Extension is the lower-cased extension including the dot.
	Extension string

	// Capability is the kind of file.
	Capability Capability

	// Handler names the component that processes the file.
	Handler string

	// Destination is where the file's results belong.
	Destination string

	// Action is what the handler does.
	Action string

	// CanProcess is false for unsupported extensions.
	CanProcess bool

	// Reason is a human-readable explanation of the classification.
	Reason string
}

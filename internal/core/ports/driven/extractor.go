package driven

import (
	"context"

	"github.com/custodia-labs/intake-cli/internal/core/domain"
)

// Extractor reads a document's native text layer.
// Each extractor handles one or more capabilities.
type Extractor interface {
	// Name identifies the extractor in logs.
	Name() string

	// Capabilities returns the capabilities this extractor handles.
	Capabilities() []domain.Capability

	// Extract returns the native text of the file at path.
	// An empty string with nil error means the file has no text layer.
	Extract(ctx context.Context, path string) (string, error)
}

// OCREngine performs optical character recognition.
// Implementations probe their dependencies once, at construction.
type OCREngine interface {
	// Available reports whether recognition can run at all.
	Available() bool

	// CanRasterize reports whether paginated documents can be rendered to images.
	CanRasterize() bool

	// RecognizeImage returns the text in a single image.
	RecognizeImage(ctx context.Context, path string) (string, error)

	// RecognizeDocument rasterises a paginated document and returns the
	// recognised text of each page, in page order.
	RecognizeDocument(ctx context.Context, path string) ([]string, error)
}

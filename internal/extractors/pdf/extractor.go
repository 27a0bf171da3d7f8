// Package pdf extracts the embedded text layer of PDF documents.
//
// It uses github.com/ledongthuc/pdf, a pure Go parser, so native extraction
// needs no external tools. Scanned PDFs have no text layer; for those the
// extractor returns an empty string and the caller falls back to OCR.
package pdf

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/intake-cli/internal/core/domain"
	"github.com/custodia-labs/intake-cli/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles PDF documents.
type Extractor struct{}

// New creates a new PDF extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "pdf"
}

// Capabilities returns the capabilities this extractor handles.
func (e *Extractor) Capabilities() []domain.Capability {
	return []domain.Capability{domain.CapabilityDocument}
}

// Extract returns the text of every page, in page order, one newline between
// pages. Pages without text add nothing, so the length matches the text layer.
// The parser panics on some malformed files; that is reported as an error.
func (e *Extractor) Extract(ctx context.Context, path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("parsing %s: %v: %w", filepath.Base(path), r, domain.ErrInvalidInput)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w: %w", filepath.Base(path), err, domain.ErrInvalidInput)
	}
	defer f.Close()

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		if pageText = strings.TrimSpace(pageText); pageText != "" {
			pages = append(pages, pageText)
		}
	}

	return strings.Join(pages, "\n"), nil
}

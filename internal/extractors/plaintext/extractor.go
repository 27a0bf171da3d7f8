// Package plaintext reads text, markdown and CSV files directly.
package plaintext

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/custodia-labs/intake-cli/internal/core/domain"
	"github.com/custodia-labs/intake-cli/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// sniffLen is how much of a file is checked for binary content.
const sniffLen = 8000

// Extractor handles plain text, markdown and tabular files.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "plaintext"
}

// Capabilities returns the capabilities this extractor handles.
func (e *Extractor) Capabilities() []domain.Capability {
	return []domain.Capability{domain.CapabilityText, domain.CapabilityTabular}
}

// Extract returns the file content. Markdown syntax is stripped so the text
// counts reflect prose. Files that look binary yield no text.
func (e *Extractor) Extract(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}

	if IsBinary(data) {
		return "", nil
	}

	content := strings.ToValidUTF8(string(data), "")
	content = strings.TrimPrefix(content, "\ufeff")

	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return stripMarkdown(content), nil
	default:
		return content, nil
	}
}

// IsBinary reports whether data looks like a binary file: a NUL byte
// within the first few kilobytes.
func IsBinary(data []byte) bool {
	if len(data) > sniffLen {
		data = data[:sniffLen]
	}
	return bytes.IndexByte(data, 0) >= 0
}

// Pre-compiled regular expressions for markdown stripping.
var (
	codeFence    = regexp.MustCompile("(?s)```.*?```")
	inlineCode   = regexp.MustCompile("`([^`]+)`")
	images       = regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`)
	links        = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headings     = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	emphasis     = regexp.MustCompile(`(\*\*|__|\*|_)([^*_\n]+)(\*\*|__|\*|_)`)
	blockquote   = regexp.MustCompile(`(?m)^>\s?`)
	horizontal   = regexp.MustCompile(`(?m)^[-*_]{3,}\s*$`)
	listMarkers  = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	numberedList = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
	blankRuns    = regexp.MustCompile(`\n{3,}`)
)

// stripMarkdown removes markdown syntax, keeping code, link and image text.
func stripMarkdown(content string) string {
	content = codeFence.ReplaceAllStringFunc(content, func(block string) string {
		lines := strings.Split(block, "\n")
		if len(lines) <= 2 {
			return ""
		}
		return strings.Join(lines[1:len(lines)-1], "\n")
	})
	content = inlineCode.ReplaceAllString(content, "$1")
	content = images.ReplaceAllString(content, "$1")
	content = links.ReplaceAllString(content, "$1")
	content = headings.ReplaceAllString(content, "")
	content = emphasis.ReplaceAllString(content, "$2")
	content = blockquote.ReplaceAllString(content, "")
	content = horizontal.ReplaceAllString(content, "")
	content = listMarkers.ReplaceAllString(content, "")
	content = numberedList.ReplaceAllString(content, "")
	content = blankRuns.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}

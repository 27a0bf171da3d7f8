// Package ocr runs optical character recognition by shelling out to
// tesseract, with poppler's pdftoppm rasterising PDFs page by page.
//
// Both tools are optional. Their presence is probed once, when the engine
// is constructed; a missing tool makes the matching capability unavailable
// instead of failing each file.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/intake-cli/internal/core/domain"
	"github.com/custodia-labs/intake-cli/internal/core/ports/driven"
)

// Tool names looked up on PATH.
const (
	TesseractBinary = "tesseract"
	PdftoppmBinary  = "pdftoppm"
)

// ErrTesseractNotFound is returned when recognition is requested without tesseract.
var ErrTesseractNotFound = fmt.Errorf("tesseract not found: %w", domain.ErrCapabilityUnavailable)

// ErrRasterizerNotFound is returned when a PDF needs rasterising without pdftoppm.
var ErrRasterizerNotFound = fmt.Errorf("pdftoppm not found: %w", domain.ErrCapabilityUnavailable)

// Ensure Engine implements the interface.
var _ driven.OCREngine = (*Engine)(nil)

// CommandRunner runs an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes name with args, killing it when ctx is done.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s failed: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// LookPathFunc resolves a binary on PATH.
type LookPathFunc func(file string) (string, error)

// Options configures the engine.
type Options struct {
	// Language is the tesseract language code, e.g. "eng" or "eng+deu".
	Language string

	// DPI is the rasterisation resolution.
	DPI int

	// PagesPerSecond throttles recognition across all files. Zero disables the limit.
	PagesPerSecond float64
}

// Engine is a tesseract-backed OCR engine.
type Engine struct {
	runner    CommandRunner
	language  string
	dpi       int
	limiter   *rate.Limiter
	tesseract bool
	pdftoppm  bool
}

// New creates an engine that probes PATH for tesseract and pdftoppm.
func New(opts Options) *Engine {
	return NewWithRunner(opts, ExecRunner{}, exec.LookPath)
}

// NewWithRunner creates an engine with an injected runner and PATH lookup.
func NewWithRunner(opts Options, runner CommandRunner, lookPath LookPathFunc) *Engine {
	if opts.Language == "" {
		opts.Language = "eng"
	}
	if opts.DPI <= 0 {
		opts.DPI = 200
	}

	limit := rate.Inf
	if opts.PagesPerSecond > 0 {
		limit = rate.Limit(opts.PagesPerSecond)
	}

	_, tessErr := lookPath(TesseractBinary)
	_, rasterErr := lookPath(PdftoppmBinary)

	return &Engine{
		runner:    runner,
		language:  opts.Language,
		dpi:       opts.DPI,
		limiter:   rate.NewLimiter(limit, 1),
		tesseract: tessErr == nil,
		pdftoppm:  rasterErr == nil,
	}
}

// Available reports whether tesseract was found.
func (e *Engine) Available() bool {
	return e.tesseract
}

// CanRasterize reports whether PDFs can be recognised.
func (e *Engine) CanRasterize() bool {
	return e.tesseract && e.pdftoppm
}

// RecognizeImage returns the text tesseract finds in one image.
func (e *Engine) RecognizeImage(ctx context.Context, path string) (string, error) {
	if !e.tesseract {
		return "", ErrTesseractNotFound
	}
	if err := e.limiter.Wait(ctx); err != nil {
		return "", err
	}

	out, err := e.runner.Run(ctx, TesseractBinary, path, "stdout", "-l", e.language)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// RecognizeDocument rasterises a PDF into a temporary directory and
// recognises each page image in page order.
func (e *Engine) RecognizeDocument(ctx context.Context, path string) ([]string, error) {
	if !e.tesseract {
		return nil, ErrTesseractNotFound
	}
	if !e.pdftoppm {
		return nil, ErrRasterizerNotFound
	}

	dir, err := os.MkdirTemp("", "intake-ocr-*")
	if err != nil {
		return nil, fmt.Errorf("creating page directory: %w", err)
	}
	defer os.RemoveAll(dir)

	prefix := filepath.Join(dir, "page")
	if _, err := e.runner.Run(ctx, PdftoppmBinary, "-r", strconv.Itoa(e.dpi), "-png", path, prefix); err != nil {
		return nil, err
	}

	images, err := pageImages(dir)
	if err != nil {
		return nil, err
	}

	pages := make([]string, 0, len(images))
	for _, img := range images {
		text, err := e.RecognizeImage(ctx, img)
		if err != nil {
			return nil, err
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// pageImages lists page-N.png files sorted by N. pdftoppm zero-pads N to
// the width of the page count, so a lexical sort is not enough.
func pageImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading page directory: %w", err)
	}

	type page struct {
		num  int
		path string
	}
	var pages []page
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "page-") || !strings.HasSuffix(name, ".png") {
			continue
		}
		num, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, "page-"), ".png"))
		if err != nil {
			continue
		}
		pages = append(pages, page{num: num, path: filepath.Join(dir, name)})
	}
	if len(pages) == 0 {
		return nil, errors.New("rasteriser produced no pages")
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].num < pages[j].num })
	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = p.path
	}
	return out, nil
}

// InstallInstructions returns how to install the optional OCR tools.
func InstallInstructions() string {
	return `OCR requires tesseract, and pdftoppm (poppler) for scanned PDFs.

Install:
  macOS:         brew install tesseract poppler
  Ubuntu/Debian: sudo apt install tesseract-ocr poppler-utils
  Fedora:        sudo dnf install tesseract poppler-utils`
}

package ocr

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/intake-cli/internal/core/domain"
)

// mockRunner is a test double for CommandRunner. pdftoppm calls create the
// configured page files; tesseract calls echo the image base name.
type mockRunner struct {
	mu       sync.Mutex
	pages    []string
	failOn   string
	calls    []string
	lastArgs map[string][]string
}

func (m *mockRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
	if m.lastArgs == nil {
		m.lastArgs = make(map[string][]string)
	}
	m.lastArgs[name] = args

	if name == m.failOn {
		return nil, errors.New(name + " crashed")
	}
	switch name {
	case PdftoppmBinary:
		prefix := args[len(args)-1]
		for _, p := range m.pages {
			if err := os.WriteFile(prefix+"-"+p+".png", []byte("png"), 0o644); err != nil {
				return nil, err
			}
		}
		return nil, nil
	case TesseractBinary:
		return []byte("  text of " + strings.TrimSuffix(filepath.Base(args[0]), ".png") + "\n"), nil
	}
	return nil, nil
}

func lookPath(found ...string) LookPathFunc {
	return func(file string) (string, error) {
		for _, f := range found {
			if f == file {
				return "/usr/bin/" + f, nil
			}
		}
		return "", errors.New("not found")
	}
}

func TestProbe(t *testing.T) {
	tests := []struct {
		name        string
		found       []string
		available   bool
		rasterizing bool
	}{
		{"nothing installed", nil, false, false},
		{"tesseract only", []string{TesseractBinary}, true, false},
		{"pdftoppm only", []string{PdftoppmBinary}, false, false},
		{"both", []string{TesseractBinary, PdftoppmBinary}, true, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := NewWithRunner(Options{}, &mockRunner{}, lookPath(tc.found...))
			assert.Equal(t, tc.available, e.Available())
			assert.Equal(t, tc.rasterizing, e.CanRasterize())
		})
	}
}

func TestRecognizeImage(t *testing.T) {
	runner := &mockRunner{}
	e := NewWithRunner(Options{Language: "eng+deu"}, runner, lookPath(TesseractBinary))

	text, err := e.RecognizeImage(context.Background(), "/in/scan.png")

	require.NoError(t, err)
	assert.Equal(t, "text of scan", text)
	assert.Equal(t, []string{"/in/scan.png", "stdout", "-l", "eng+deu"}, runner.lastArgs[TesseractBinary])
}

func TestRecognizeImage_Unavailable(t *testing.T) {
	e := NewWithRunner(Options{}, &mockRunner{}, lookPath())

	_, err := e.RecognizeImage(context.Background(), "/in/scan.png")

	assert.ErrorIs(t, err, ErrTesseractNotFound)
	assert.ErrorIs(t, err, domain.ErrCapabilityUnavailable)
}

func TestRecognizeDocument_PageOrder(t *testing.T) {
	runner := &mockRunner{pages: []string{"10", "02", "01", "9"}}
	e := NewWithRunner(Options{DPI: 150}, runner, lookPath(TesseractBinary, PdftoppmBinary))

	pages, err := e.RecognizeDocument(context.Background(), "/in/scan.pdf")

	require.NoError(t, err)
	assert.Equal(t, []string{"text of page-01", "text of page-02", "text of page-9", "text of page-10"}, pages)
	args := runner.lastArgs[PdftoppmBinary]
	assert.Equal(t, []string{"-r", "150", "-png", "/in/scan.pdf"}, args[:4])
}

func TestRecognizeDocument_Errors(t *testing.T) {
	t.Run("no rasterizer", func(t *testing.T) {
		e := NewWithRunner(Options{}, &mockRunner{}, lookPath(TesseractBinary))
		_, err := e.RecognizeDocument(context.Background(), "/in/scan.pdf")
		assert.ErrorIs(t, err, ErrRasterizerNotFound)
	})

	t.Run("rasterizer fails", func(t *testing.T) {
		runner := &mockRunner{failOn: PdftoppmBinary}
		e := NewWithRunner(Options{}, runner, lookPath(TesseractBinary, PdftoppmBinary))
		_, err := e.RecognizeDocument(context.Background(), "/in/scan.pdf")
		assert.ErrorContains(t, err, "pdftoppm crashed")
	})

	t.Run("no pages produced", func(t *testing.T) {
		e := NewWithRunner(Options{}, &mockRunner{}, lookPath(TesseractBinary, PdftoppmBinary))
		_, err := e.RecognizeDocument(context.Background(), "/in/scan.pdf")
		assert.ErrorContains(t, err, "no pages")
	})
}

func TestRecognizeImage_RateLimitHonoursContext(t *testing.T) {
	e := NewWithRunner(Options{PagesPerSecond: 0.001}, &mockRunner{}, lookPath(TesseractBinary))
	_, err := e.RecognizeImage(context.Background(), "/a.png") // consumes the single token
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.RecognizeImage(ctx, "/b.png")

	assert.Error(t, err)
}

func TestInstallInstructions(t *testing.T) {
	instructions := InstallInstructions()
	assert.Contains(t, instructions, "tesseract")
	assert.Contains(t, instructions, "brew install tesseract poppler")
	assert.Contains(t, instructions, "apt install tesseract-ocr poppler-utils")
}

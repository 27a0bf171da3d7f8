package html

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/intake-cli/internal/core/domain"
)

func TestNew(t *testing.T) {
	e := New()
	assert.Equal(t, "html", e.Name())
	assert.Equal(t, []domain.Capability{domain.CapabilityMarkup}, e.Capabilities())
}

func TestExtract(t *testing.T) {
	page := `<html><head><title>Notice &amp; Order</title><style>p{}</style></head>
<body><h1>Notice</h1><p>The hearing is <b>continued</b>.</p>
<script>alert(1)</script><!-- hidden --><ul><li>Item A</li><li>Item B</li></ul></body></html>`
	path := filepath.Join(t.TempDir(), "notice.html")
	require.NoError(t, os.WriteFile(path, []byte(page), 0o644))

	text, err := New().Extract(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, "Notice & Order\nNotice\nThe hearing is continued.\nItem A\nItem B", text)
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "hello", "hello"},
		{"entities", "a &lt; b&nbsp;c", "a < b c"},
		{"line breaks", "one<br/>two<hr>three", "one\ntwo\nthree"},
		{"svg removed", "<svg><text>x</text></svg>kept", "kept"},
		{"empty", "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, StripHTML(tc.input))
		})
	}
}

func TestExtract_MissingFile(t *testing.T) {
	_, err := New().Extract(context.Background(), filepath.Join(t.TempDir(), "nope.html"))
	assert.Error(t, err)
}

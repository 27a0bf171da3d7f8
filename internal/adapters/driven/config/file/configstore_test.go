package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, ConfigFileName), store.Path())
}

func TestNewConfigStore_MkdirAllError(t *testing.T) {
	store, err := NewConfigStore("/dev/null/cannot/create/dirs")

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestNewConfigStore_LoadCorruptedFile(t *testing.T) {
	tmpDir := t.TempDir()
	err := os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte("watch_dir = [[{"), 0600)
	require.NoError(t, err)

	store, err := NewConfigStore(tmpDir)

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestConfigStore_ReadsPipelineKeys(t *testing.T) {
	tmpDir := t.TempDir()
	content := `
watch_dir = "/srv/case/Generated"
poll_interval = "5s"
handler_timeout = 120
ocr_pages_per_second = 2
ocr_dpi = 300
verbose = true
languages = ["eng", "deu"]

[ocr]
language = "eng+deu"
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte(content), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"string", store.GetString("watch_dir"), "/srv/case/Generated"},
		{"duration string", store.GetDuration("poll_interval"), 5 * time.Second},
		{"duration seconds", store.GetDuration("handler_timeout"), 2 * time.Minute},
		{"float from int", store.GetFloat("ocr_pages_per_second"), 2.0},
		{"int", store.GetInt("ocr_dpi"), 300},
		{"bool", store.GetBool("verbose"), true},
		{"slice", store.GetStringSlice("languages"), []string{"eng", "deu"}},
		{"nested key flattened", store.GetString("ocr.language"), "eng+deu"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestConfigStore_WrongTypesReturnZero(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("poll_interval", "soon"))
	require.NoError(t, store.Set("ocr_dpi", "high"))

	assert.Equal(t, time.Duration(0), store.GetDuration("poll_interval"))
	assert.Equal(t, 0, store.GetInt("ocr_dpi"))
	assert.Equal(t, 0.0, store.GetFloat("ocr_dpi"))
	assert.Equal(t, "", store.GetString("missing"))
	assert.Nil(t, store.GetStringSlice("missing"))
	assert.False(t, store.GetBool("missing"))
}

func TestConfigStore_Persistence(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("data_dir", "/srv/case/Database"))
	require.NoError(t, store.Set("event_backend", "jsonl"))

	reloaded, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "/srv/case/Database", reloaded.GetString("data_dir"))
	assert.Equal(t, "jsonl", reloaded.GetString("event_backend"))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("watch_dir", "/tmp"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_SetWithUnmarshallableValue(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	err = store.Set("channel", make(chan int))

	assert.Error(t, err)
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Set("ocr_language", "eng")
		}()
		go func() {
			defer wg.Done()
			_ = store.GetString("ocr_language")
		}()
	}
	wg.Wait()

	assert.Equal(t, "eng", store.GetString("ocr_language"))
}

func TestConfigStore_EnvironmentOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	content := "watch_dir = \"/from/file\"\nocr_dpi = 200\n\n[ocr]\nlanguage = \"eng\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte(content), 0600))
	env := map[string]string{
		"INTAKE_WATCH_DIR":       "/from/env",
		"INTAKE_OCR_DPI":         "300",
		"INTAKE_OCR_LANGUAGE":    "deu",
		"INTAKE_POLL_INTERVAL":   "10",
		"INTAKE_VERBOSE":         "true",
		"INTAKE_OCR_PAGES":       "1.5",
		"INTAKE_EXTRA_LANGUAGES": "eng, fra ,",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	store, err := newConfigStore(tmpDir, lookup)
	require.NoError(t, err)

	assert.Equal(t, "/from/env", store.GetString("watch_dir"))
	assert.Equal(t, 300, store.GetInt("ocr_dpi"))
	assert.Equal(t, "deu", store.GetString("ocr.language"))
	assert.Equal(t, 10*time.Second, store.GetDuration("poll_interval"))
	assert.True(t, store.GetBool("verbose"))
	assert.Equal(t, 1.5, store.GetFloat("ocr.pages"))
	assert.Equal(t, []string{"eng", "fra"}, store.GetStringSlice("extra_languages"))

	require.NoError(t, store.Set("data_dir", "/db"))
	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "/from/file")
	assert.NotContains(t, string(raw), "/from/env")
}

func TestConfigStore_NestedKeysRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("ocr.language", "eng+deu"))
	require.NoError(t, store.Set("ocr.dpi", int64(300)))

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "[ocr]")

	reloaded, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "eng+deu", reloaded.GetString("ocr.language"))
	assert.Equal(t, 300, reloaded.GetInt("ocr.dpi"))
}

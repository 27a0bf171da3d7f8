// Package logger provides levelled logging for the intake pipeline.
// Debug and Info messages are printed only in verbose mode (--verbose).
// Warnings and errors are always printed, so degraded capabilities and
// per-file failures are visible without extra flags.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr

	onceMu sync.Mutex
	warned = make(map[string]struct{})
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput redirects log lines, os.Stderr by default.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// logf writes one line. Quiet lines are dropped unless verbose mode is on.
// Writes hold the full lock so a shared writer never sees interleaved lines.
func logf(quiet bool, prefix, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if quiet && !verbose {
		return
	}
	fmt.Fprintf(output, prefix+format+"\n", args...)
}

// Debug prints a message in verbose mode.
func Debug(format string, args ...any) { logf(true, "[DEBUG] ", format, args...) }

// Info prints an informational message in verbose mode.
func Info(format string, args ...any) { logf(true, "[INFO] ", format, args...) }

// Section prints a section header in verbose mode.
func Section(name string) { logf(true, "\n=== ", "%s ===", name) }

// Warn prints a warning message.
func Warn(format string, args ...any) { logf(false, "[WARN] ", format, args...) }

// Error prints an error message.
func Error(format string, args ...any) { logf(false, "[ERROR] ", format, args...) }

// WarnOnce prints a warning the first time key is seen in this process.
// Later calls with the same key are silent.
func WarnOnce(key, format string, args ...any) {
	onceMu.Lock()
	if _, done := warned[key]; done {
		onceMu.Unlock()
		return
	}
	warned[key] = struct{}{}
	onceMu.Unlock()

	Warn(format, args...)
}

// ResetOnce forgets which WarnOnce keys have fired. Useful for testing.
func ResetOnce() {
	onceMu.Lock()
	defer onceMu.Unlock()
	warned = make(map[string]struct{})
}

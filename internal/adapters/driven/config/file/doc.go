// Package file provides the TOML configuration store.
//
// Keys are flat ("watch_dir") or dotted for tables ("ocr.dpi"). Any key can be
// overridden from the environment with the INTAKE_ prefix.
package file

// Package services implements the driving port interfaces.
// Services contain the core pipeline logic and orchestrate
// calls to driven ports (adapters).
//
// The dedupe gate, extraction engine and timeline recorder never call each
// other directly in watch mode: each consumes the event stream through the
// bus and publishes what it decided.
package services

// Package driving holds the ports the CLI and the monitor call into: the event
// bus, single-file intake, the watch pipeline and the read-only reports.
//
// internal/core/services implements them.
package driving

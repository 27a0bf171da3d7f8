// Package migrations holds the schema of the event log database: events,
// consumer cursors and content fingerprints.
package migrations

import "embed"

// FS holds the numbered up/down scripts, applied in name order.
//
//go:embed *.sql
var FS embed.FS

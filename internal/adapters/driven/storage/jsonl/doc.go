// Package jsonl provides file-backed pipeline stores for deployments that
// want plain text on disk instead of a database.
//
// The event stream is an append-only JSON Lines file. One line is one event;
// a cursor is a 1-based line number. Appends take an exclusive advisory lock
// and are fsynced before the lock is released, so concurrent writers never
// interleave partial lines. Readers take no lock: a line without its
// terminating newline is still being written and is not yet visible.
//
// Cursors and fingerprints are small JSON documents replaced atomically.
package jsonl

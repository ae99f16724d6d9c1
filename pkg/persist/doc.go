// Package persist saves and restores store snapshots.
//
// Snapshots are JSON documents of the form
//
//	{"version": 1, "fields": {"open": true, "value": "draft"}}
//
// and are kept in a [Backend]. [MemoryBackend] is suitable for tests and
// single-process use; [S3Backend] stores each snapshot as one object.
//
// Restoring goes through the store's guarded Apply, so a restore never
// overwrites a key that is currently controlled.
package persist

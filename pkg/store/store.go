// Package store is the sole I/O boundary for durable state: a key/value
// adapter with last-writer-wins semantics per key, plus a change
// notification bus that mirrors how same-origin browser contexts observe
// each other's storage writes.
package store

import "errors"

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("store: key not found")

// Adapter is key-based get/set/remove against durable storage. There are
// no transactional guarantees beyond last-writer-wins per key. A read of
// malformed data must not crash the caller; rejecting bad payloads is the
// snapshot codec's job.
type Adapter interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
	Close() error
}

// Well-known storage keys. One snapshot key carries the whole chat
// collection; the rest are small session-scoped records.
const (
	KeyChats    = "lumina:chats"
	KeyUser     = "lumina:user"
	KeyRegistry = "lumina:known_users"
	KeyWelcome  = "lumina:welcome_seen"
	KeyTheme    = "lumina:theme"

	// KeyBackupPrefix namespaces periodic snapshot backups.
	KeyBackupPrefix = "backup:chats:"
)

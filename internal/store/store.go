// Package store provides the two-tier key/value persistence used by the
// session manager: a session tier that lasts for one run of the client and a
// durable tier that survives across runs on the same machine.
package store

// Tier names. All reads and writes name their tier explicitly so the session
// manager never touches ambient global state.
const (
	TierSession = "session"
	TierDurable = "durable"
)

// Store is pure key/value I/O. Writes must never propagate errors to the
// caller (capacity, permissions); reads of absent or unreadable values report
// absent instead of failing.
type Store interface {
	// Get returns the value for key in tier, and whether it was present.
	Get(tier, key string) (string, bool)

	// Set writes key=value in tier. Failures are swallowed and logged.
	Set(tier, key, value string)

	// Remove deletes key from tier. Removing an absent key is a no-op.
	Remove(tier, key string)
}

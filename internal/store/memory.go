package store

import "sync"

// MemoryStore is an in-memory Store. It backs the session tier when no
// database is configured and doubles as the fake used by session tests.
type MemoryStore struct {
	mu    sync.RWMutex
	tiers map[string]map[string]string
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tiers: make(map[string]map[string]string)}
}

// Get returns the value for key in tier
func (m *MemoryStore) Get(tier, key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	kv, ok := m.tiers[tier]
	if !ok {
		return "", false
	}
	val, ok := kv[key]
	return val, ok
}

// Set writes key=value in tier
func (m *MemoryStore) Set(tier, key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kv, ok := m.tiers[tier]
	if !ok {
		kv = make(map[string]string)
		m.tiers[tier] = kv
	}
	kv[key] = value
}

// Remove deletes key from tier
func (m *MemoryStore) Remove(tier, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if kv, ok := m.tiers[tier]; ok {
		delete(kv, key)
	}
}

// ClearTier drops every key in tier. The surrounding environment uses this to
// end a session; the session core itself never calls it.
func (m *MemoryStore) ClearTier(tier string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tiers, tier)
}

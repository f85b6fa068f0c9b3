package state

import (
	"encoding/json"
	"fmt"
	"sync"

	"stakingcore/storage"
)

const snapshotKeyPrefix = "stakingcore/snapshot/"
const latestSnapshotKey = "stakingcore/snapshot/latest"

// Manager owns the single Snapshot mutated between begin_block and
// end_block, and persists it to a KV Database at commit, generalizing the
// teacher's core/state/manager.go wrapper-around-storage.Database idiom.
type Manager struct {
	mu  sync.RWMutex
	db  storage.Database
	cur *Snapshot
}

// NewManager wraps db; callers must call LoadOrInit before use.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

// LoadOrInit restores the latest persisted snapshot, or installs genesis if
// none exists yet.
func (m *Manager) LoadOrInit(genesis *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, err := m.db.Get([]byte(latestSnapshotKey))
	if err != nil {
		m.cur = genesis
		return nil
	}
	var stored storedSnapshot
	if err := json.Unmarshal(raw, &stored); err != nil {
		return fmt.Errorf("state: decode latest snapshot: %w", err)
	}
	snap, err := stored.toSnapshot()
	if err != nil {
		return fmt.Errorf("state: restore latest snapshot: %w", err)
	}
	m.cur = snap
	return nil
}

// Current returns the live, mutable snapshot for use strictly inside the
// block driver's begin_block..end_block window (spec.md §5).
func (m *Manager) Current() *Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cur
}

// Query returns an immutable clone safe for concurrent read access from the
// query API (spec.md §5 "served from an immutable snapshot taken at block
// commit").
func (m *Manager) Query() *Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cur.Clone()
}

// Commit persists the current snapshot at height h and returns its
// canonical hash (spec.md §6.4, §8 "Determinism").
func (m *Manager) Commit(h uint64) ([32]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cur.LastHeight = h
	hash := m.cur.CanonicalHash()

	stored := toStoredSnapshot(m.cur)
	raw, err := json.Marshal(stored)
	if err != nil {
		return hash, fmt.Errorf("state: encode snapshot: %w", err)
	}
	heightKey := fmt.Sprintf("%s%d", snapshotKeyPrefix, h)
	if err := m.db.Put([]byte(heightKey), raw); err != nil {
		return hash, fmt.Errorf("state: persist snapshot at height %d: %w", h, err)
	}
	if err := m.db.Put([]byte(latestSnapshotKey), raw); err != nil {
		return hash, fmt.Errorf("state: persist latest snapshot pointer: %w", err)
	}
	return hash, nil
}

package state

import (
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"

	"lstchain/storage"
)

// Manager provides RLP-encoded key-value access over a storage backend. All
// writes are buffered in an overlay until Commit is called, so a failed
// operation can be rolled back exactly by discarding the overlay. The ledger
// runs single-threaded, one command at a time, so the overlay never sees
// interleaved writers.
type Manager struct {
	db      storage.Database
	overlay map[string]overlayEntry
}

type overlayEntry struct {
	value   []byte
	deleted bool
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db, overlay: make(map[string]overlayEntry)}
}

// KVPut stores the RLP encoding of value under key in the overlay.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	m.overlay[string(key)] = overlayEntry{value: encoded}
	return nil
}

// KVGet retrieves the value stored under the supplied key and decodes it into
// the provided destination. The boolean return value indicates whether the key
// existed in state.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	data, ok, err := m.rawGet(key)
	if err != nil || !ok {
		return false, err
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// KVHas reports whether the key exists in state.
func (m *Manager) KVHas(key []byte) (bool, error) {
	_, ok, err := m.rawGet(key)
	return ok, err
}

// KVDelete removes the key from state.
func (m *Manager) KVDelete(key []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	m.overlay[string(key)] = overlayEntry{deleted: true}
	return nil
}

func (m *Manager) rawGet(key []byte) ([]byte, bool, error) {
	if entry, ok := m.overlay[string(key)]; ok {
		if entry.deleted {
			return nil, false, nil
		}
		return entry.value, true, nil
	}
	data, err := m.db.Get(key)
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	if len(data) == 0 {
		return nil, false, nil
	}
	return data, true, nil
}

// IteratePrefix walks every key under the prefix in ascending order, merging
// committed state with the uncommitted overlay. Iteration stops early when fn
// returns false. The raw RLP value is handed to fn; callers decode as needed.
func (m *Manager) IteratePrefix(prefix []byte, fn func(key, value []byte) bool) error {
	merged := make(map[string][]byte)
	err := m.db.IteratePrefix(prefix, func(key, value []byte) bool {
		merged[string(key)] = value
		return true
	})
	if err != nil {
		return err
	}
	for key, entry := range m.overlay {
		if len(key) < len(prefix) || key[:len(prefix)] != string(prefix) {
			continue
		}
		if entry.deleted {
			delete(merged, key)
			continue
		}
		merged[key] = entry.value
	}
	keys := make([]string, 0, len(merged))
	for key := range merged {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if !fn([]byte(key), merged[key]) {
			break
		}
	}
	return nil
}

// Commit flushes the overlay into the backing database and clears it.
func (m *Manager) Commit() error {
	for key, entry := range m.overlay {
		if entry.deleted {
			if err := m.db.Delete([]byte(key)); err != nil {
				return err
			}
			continue
		}
		if err := m.db.Put([]byte(key), entry.value); err != nil {
			return err
		}
	}
	m.overlay = make(map[string]overlayEntry)
	return nil
}

// Discard drops every buffered write, restoring the view to the last commit.
func (m *Manager) Discard() {
	m.overlay = make(map[string]overlayEntry)
}

// Pending reports how many uncommitted writes the overlay holds.
func (m *Manager) Pending() int {
	return len(m.overlay)
}

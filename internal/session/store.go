package session

import (
	"fmt"
	"sync"
)

// Store persists one record per (festival code, gate kind) pair. It is
// local to one client and has no cross-client visibility; implementations
// must treat malformed stored data as absent, never as an error.
type Store interface {
	Get(code, kind string) (Record, bool)
	Put(code, kind string, rec Record)
	Clear(code, kind string)
}

// Key namespaces a record by festival code and gate kind. The format is
// shared with the web client's browser storage keys.
func Key(code, kind string) string {
	return fmt.Sprintf("%sPasswordAuth:%s", kind, code)
}

// MemoryStore is the in-process Store, used by tests and short-lived
// clients.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Get(code, kind string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[Key(code, kind)]
	if !ok || rec.V != RecordVersion {
		return Record{}, false
	}
	return rec, true
}

func (s *MemoryStore) Put(code, kind string, rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[Key(code, kind)] = rec
}

func (s *MemoryStore) Clear(code, kind string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, Key(code, kind))
}

package session

import (
	"encoding/json"
	"os"
	"sync"
)

// FileStore keeps records in a single JSON file so they survive process
// restarts, filling the role browser storage plays for a web client. Corrupt
// files, corrupt entries and wrong-version records are all discarded as
// absent; a broken cache must never block the challenge form.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) load() map[string]json.RawMessage {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return map[string]json.RawMessage{}
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil || m == nil {
		return map[string]json.RawMessage{}
	}
	return m
}

func (s *FileStore) save(m map[string]json.RawMessage) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return
	}
	// Best effort: a failed write leaves the previous cache in place,
	// which at worst forces one extra challenge.
	_ = os.WriteFile(s.path, data, 0o600)
}

func (s *FileStore) Get(code, kind string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.load()
	raw, ok := m[Key(code, kind)]
	if !ok {
		return Record{}, false
	}

	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil || rec.V != RecordVersion {
		delete(m, Key(code, kind))
		s.save(m)
		return Record{}, false
	}
	return rec, true
}

func (s *FileStore) Put(code, kind string, rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.load()
	raw, err := json.Marshal(rec)
	if err != nil {
		return
	}
	m[Key(code, kind)] = raw
	s.save(m)
}

func (s *FileStore) Clear(code, kind string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.load()
	delete(m, Key(code, kind))
	s.save(m)
}

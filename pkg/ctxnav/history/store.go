package history

import "sync"

// Store persists the navigation log so it survives a restart of the shell.
type Store interface {
	// Append adds an entry and returns its sequence number.
	Append(entry Entry) (int, error)
	// Replace drops the stored log and stores entries instead.
	Replace(entries []Entry) error
	// Entries returns the stored log, oldest entry first.
	Entries() ([]Entry, error)
	Close() error
}

// MemoryStore is a Store kept in memory only.
type MemoryStore struct {
	mu      sync.Mutex
	entries []Entry
	seq     int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(entry Entry) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	s.seq++
	return s.seq, nil
}

func (s *MemoryStore) Replace(entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append([]Entry(nil), entries...)
	s.seq += len(entries)
	return nil
}

func (s *MemoryStore) Entries() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.entries...), nil
}

func (s *MemoryStore) Close() error {
	return nil
}

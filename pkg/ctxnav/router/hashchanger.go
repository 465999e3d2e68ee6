package router

import "sync"

// Entry is one entry of the browser-like history kept by a HashChanger.
// State is whatever the writer attached to the entry; entries created by
// external hash changes (typed URLs, bookmarks) carry a nil State.
type Entry struct {
	Hash  string
	State any
}

// HashChanger owns the visible hash and a browser-like history of entries.
type HashChanger struct {
	mu      sync.Mutex
	entries []Entry
	index   int
}

// NewHashChanger creates a HashChanger whose history holds the initial hash.
func NewHashChanger(initial string) *HashChanger {
	return &HashChanger{entries: []Entry{{Hash: initial}}}
}

// GetHash returns the current hash.
func (h *HashChanger) GetHash() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[h.index].Hash
}

// State returns the state attached to the current history entry.
func (h *HashChanger) State() any {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[h.index].State
}

// SetHash pushes a new history entry, dropping any forward entries.
func (h *HashChanger) SetHash(hash string, state any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries[:h.index+1], Entry{Hash: hash, State: state})
	h.index++
}

// ReplaceHash overwrites the current history entry.
func (h *HashChanger) ReplaceHash(hash string, state any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries[h.index] = Entry{Hash: hash, State: state}
}

// ReplaceState overwrites the state of the current entry, keeping its hash.
func (h *HashChanger) ReplaceState(state any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries[h.index].State = state
}

// Go moves delta entries through the history. It returns false, without
// moving, when the target lies outside the history.
func (h *HashChanger) Go(delta int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	target := h.index + delta
	if target < 0 || target >= len(h.entries) {
		return false
	}
	h.index = target
	return true
}

// ReplaceHistory replaces all entries; index selects the current one and is
// clamped to the new history.
func (h *HashChanger) ReplaceHistory(entries []Entry, index int) {
	if len(entries) == 0 {
		entries = []Entry{{}}
	}
	if index < 0 {
		index = 0
	}
	if index >= len(entries) {
		index = len(entries) - 1
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append([]Entry(nil), entries...)
	h.index = index
}

// Entries returns a copy of the history and the index of the current entry.
func (h *HashChanger) Entries() ([]Entry, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Entry(nil), h.entries...), h.index
}

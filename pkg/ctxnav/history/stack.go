package history

// Entry is one step of the application's own navigation log. It doubles as
// the marker attached to history entries written by NavigateTo: an entry
// whose state is not an Entry was produced outside the application.
type Entry struct {
	Hash  string `json:"hash"`
	Level int    `json:"level"`
	Token string `json:"token"`
}

// Stack is the navigation log, oldest entry first.
type Stack struct {
	entries []Entry
}

// NewStack creates a new empty navigation log.
func NewStack() *Stack {
	return &Stack{
		entries: make([]Entry, 0),
	}
}

// Push appends an entry.
func (s *Stack) Push(entry Entry) {
	s.entries = append(s.entries, entry)
}

// ReplaceTop overwrites the newest entry, or pushes when the log is empty.
func (s *Stack) ReplaceTop(entry Entry) {
	if len(s.entries) == 0 {
		s.Push(entry)
		return
	}
	s.entries[len(s.entries)-1] = entry
}

// Pop removes and returns the newest entry.
// Returns nil if the stack is empty.
func (s *Stack) Pop() *Entry {
	if len(s.entries) == 0 {
		return nil
	}
	entry := s.entries[len(s.entries)-1]
	s.entries = s.entries[:len(s.entries)-1]
	return &entry
}

// Entries returns a copy of the log, oldest entry first.
func (s *Stack) Entries() []Entry {
	return append([]Entry(nil), s.entries...)
}

// Reset replaces the log with entries.
func (s *Stack) Reset(entries []Entry) {
	s.entries = append(s.entries[:0], entries...)
}

// Clear removes all entries from the stack.
func (s *Stack) Clear() {
	s.entries = s.entries[:0]
}

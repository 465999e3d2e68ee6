// Package busy implements the reference-counted busy indicator that brackets
// data fetches triggered by navigation.
package busy

import "sync"

// Target is anything that can be locked, typically a view. Targets are
// compared by identity, so pointers are the usual choice.
type Target any

// Listener is notified when a target becomes busy or idle.
type Listener func(target Target, busy bool)

// Locker counts locks per target. A target is busy while its count is positive.
type Locker struct {
	mu       sync.Mutex
	counts   map[Target]int
	listener Listener
}

// NewLocker creates an empty Locker.
func NewLocker() *Locker {
	return &Locker{counts: make(map[Target]int)}
}

// OnChange sets a listener called whenever a target switches between busy and idle.
func (l *Locker) OnChange(fn Listener) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listener = fn
}

// Lock increments the lock count of target.
func (l *Locker) Lock(target Target) {
	l.mu.Lock()
	l.counts[target]++
	becameBusy := l.counts[target] == 1
	listener := l.listener
	l.mu.Unlock()

	if becameBusy && listener != nil {
		listener(target, true)
	}
}

// Unlock decrements the lock count of target. Unlocking an idle target is a no-op.
func (l *Locker) Unlock(target Target) {
	l.mu.Lock()
	if l.counts[target] == 0 {
		l.mu.Unlock()
		return
	}
	l.counts[target]--
	becameIdle := l.counts[target] == 0
	if becameIdle {
		delete(l.counts, target)
	}
	listener := l.listener
	l.mu.Unlock()

	if becameIdle && listener != nil {
		listener(target, false)
	}
}

// IsLocked reports whether target holds at least one lock.
func (l *Locker) IsLocked(target Target) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts[target] > 0
}

// UnlockIfLocked releases one lock if target is locked.
func (l *Locker) UnlockIfLocked(target Target) {
	if l.IsLocked(target) {
		l.Unlock(target)
	}
}

// Package history keeps the router's browser-like history consistent with the
// application's own navigation log.
package history

import (
	"errors"
	"fmt"
	"sync"

	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/internal"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/path"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/router"
	"github.com/google/uuid"
)

// ErrExitUnsupported is returned by ExitApplication when no exit hook is set.
var ErrExitUnsupported = errors.New("history: no exit hook configured")

// ExitFunc leaves the application.
type ExitFunc func() error

// NavigateOptions controls a single NavigateTo call.
type NavigateOptions struct {
	Level      int  // column level recorded in the marker
	Replace    bool // overwrite the current history entry
	ByAppState bool // the change only carries a new app state
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithStore persists the navigation log to store.
func WithStore(store Store) Option {
	return func(r *Reconciler) {
		r.store = store
	}
}

// WithExitHook sets the function called by ExitApplication.
func WithExitHook(fn ExitFunc) Option {
	return func(r *Reconciler) {
		r.exit = fn
	}
}

// Reconciler decides whether a navigation changes anything and keeps the
// router history in line with the navigation log.
type Reconciler struct {
	router *router.Router
	store  Store
	exit   ExitFunc

	mu  sync.Mutex
	log *Stack
}

// NewReconciler creates a Reconciler for rt. Without WithStore the log is
// kept in memory.
func NewReconciler(rt *router.Router, opts ...Option) *Reconciler {
	r := &Reconciler{
		router: rt,
		log:    NewStack(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.store == nil {
		r.store = NewMemoryStore()
	}
	return r
}

// IsNoOp reports whether navigating to candidate would leave current unchanged,
// ignoring the app-state marker of current.
func IsNoOp(candidate, current string) bool {
	return candidate == current || candidate == path.StripAppState(current)
}

// IsNoOpNavigation reports whether candidate equals the router's current hash.
func (r *Reconciler) IsNoOpNavigation(candidate string) bool {
	return IsNoOp(candidate, r.router.GetHash())
}

// NavigateTo changes the hash through the router, marking the new history
// entry and recording it in the navigation log. The route has been matched
// when NavigateTo returns, unless the hash was a no-op.
func (r *Reconciler) NavigateTo(hash string, opts NavigateOptions) error {
	if r.IsNoOpNavigation(hash) {
		internal.GetInternalLogger().Debug("Skipping no-op navigation", "hash", hash)
		return nil
	}

	marker := newMarker(hash, opts.Level)
	err := r.record(marker, opts.Replace)

	r.router.NavigateToHash(hash, router.NavigateOptions{
		Replace:    opts.Replace,
		State:      marker,
		ByAppState: opts.ByAppState,
	})
	return err
}

// IsMarked reports whether the current history entry was written by NavigateTo.
func (r *Reconciler) IsMarked() bool {
	_, ok := r.router.HashChanger().State().(Entry)
	return ok
}

// RestoreHistoryIfNeeded rebuilds the history when the current entry was not
// written by NavigateTo, so that going back walks up the hierarchy of the
// current hash. It returns true when the history was rebuilt.
func (r *Reconciler) RestoreHistoryIfNeeded(level int) (bool, error) {
	if r.IsMarked() {
		return false, nil
	}

	hash := r.router.GetHash()
	ancestors := path.Ancestors(hash)
	entries := make([]router.Entry, len(ancestors))
	markers := make([]Entry, len(ancestors))
	for i, a := range ancestors {
		h, lvl := a, i
		if i == len(ancestors)-1 {
			h, lvl = hash, level
		}
		markers[i] = newMarker(h, lvl)
		entries[i] = router.Entry{Hash: h, State: markers[i]}
	}
	r.router.HashChanger().ReplaceHistory(entries, len(entries)-1)

	r.mu.Lock()
	r.log.Reset(markers)
	r.mu.Unlock()

	internal.GetInternalLogger().Debug("History rebuilt", "hash", hash, "entries", len(entries))
	if err := r.store.Replace(markers); err != nil {
		return true, fmt.Errorf("history: persist rebuilt log: %w", err)
	}
	return true, nil
}

// NavigateBack goes one entry back. With rebuild set, a previous entry that
// was not written by NavigateTo (or a missing one) is replaced by the parent
// of the current hash. Without rebuild, backing out of the first entry exits
// the application.
func (r *Reconciler) NavigateBack(rebuild bool) error {
	entries, index := r.router.HashChanger().Entries()

	if !rebuild {
		if !r.router.Back() {
			return r.ExitApplication()
		}
		r.popLog()
		return nil
	}

	if index > 0 {
		if _, ok := entries[index-1].State.(Entry); ok {
			r.router.Back()
			r.popLog()
			return nil
		}
	}

	ancestors := path.Ancestors(r.router.GetHash())
	parents := ancestors[:len(ancestors)-1]
	if len(parents) == 0 {
		parents = ancestors
	}
	markers := make([]Entry, len(parents))
	rebuilt := make([]router.Entry, len(parents))
	for i, a := range parents {
		markers[i] = newMarker(a, i)
		rebuilt[i] = router.Entry{Hash: a, State: markers[i]}
	}
	// The current entry stays last so that the parent replaces it.
	rebuilt[len(rebuilt)-1] = entries[index]
	r.router.HashChanger().ReplaceHistory(rebuilt, len(rebuilt)-1)

	parent := markers[len(markers)-1]
	internal.GetInternalLogger().Debug("Navigating back with rebuilt history", "parent", parent.Hash)
	r.router.NavigateToHash(parent.Hash, router.NavigateOptions{Replace: true, State: parent})

	r.mu.Lock()
	r.log.Reset(markers)
	r.mu.Unlock()
	return r.store.Replace(markers)
}

// ExitApplication leaves the application through the exit hook.
func (r *Reconciler) ExitApplication() error {
	if r.exit == nil {
		return ErrExitUnsupported
	}
	internal.GetInternalLogger().Info("Exiting application", "hash", r.router.GetHash())
	return r.exit()
}

// Log returns the navigation log, oldest entry first.
func (r *Reconciler) Log() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.log.Entries()
}

// Load restores the navigation log from the store.
func (r *Reconciler) Load() error {
	entries, err := r.store.Entries()
	if err != nil {
		return fmt.Errorf("history: load log: %w", err)
	}
	r.mu.Lock()
	r.log.Reset(entries)
	r.mu.Unlock()
	return nil
}

// Reset clears the navigation log.
func (r *Reconciler) Reset() error {
	r.mu.Lock()
	r.log.Clear()
	r.mu.Unlock()
	return r.store.Replace(nil)
}

func (r *Reconciler) record(marker Entry, replace bool) error {
	r.mu.Lock()
	if replace {
		r.log.ReplaceTop(marker)
	} else {
		r.log.Push(marker)
	}
	entries := r.log.Entries()
	r.mu.Unlock()

	if replace {
		return r.store.Replace(entries)
	}
	_, err := r.store.Append(marker)
	return err
}

func (r *Reconciler) popLog() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log.Pop()
}

func newMarker(hash string, level int) Entry {
	return Entry{Hash: hash, Level: level, Token: uuid.NewString()}
}

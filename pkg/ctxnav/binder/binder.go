// Package binder attaches data contexts to views. It handles normal binds
// through a hidden context binding, deferred binds where the view creates its
// own context, semantic-key resolution, and side-effect refreshes of views
// whose data became dirty.
package binder

import (
	"context"
	"errors"
	"sync"

	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/busy"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/constants"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/data"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/internal"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/path"
)

// ErrNotFound is reported when no record matches the semantic keys of a hash.
var ErrNotFound = errors.New("binder: no record matches the semantic keys")

// State is the bind state of one view.
type State int

const (
	StateIdle State = iota
	StateBinding
	StateBoundClean
	StateBoundError
	StateBoundDirty
	StateDeferred
)

func (s State) GetName() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateBinding:
		return "Binding"
	case StateBoundClean:
		return "BoundClean"
	case StateBoundError:
		return "BoundError"
	case StateBoundDirty:
		return "BoundDirty"
	case StateDeferred:
		return "Deferred"
	default:
		return "Unknown"
	}
}

func (s State) String() string {
	return s.GetName()
}

// ErrorInfo describes a failed bind for the error page.
type ErrorInfo struct {
	View        View
	Message     string
	Title       string
	Description string
	Err         error
}

// ErrorFunc shows the error page for a failed bind.
type ErrorFunc func(info ErrorInfo)

// Config holds the collaborators of a Binder.
type Config struct {
	Model  data.Model
	Locker *busy.Locker
	Texts  *internal.Texts
	// OnError is called for recoverable data errors.
	OnError ErrorFunc
	// Generation returns the current navigation generation. Fetch results of
	// older generations are dropped.
	Generation func() uint64
	// HiddenBindingGroup is the request group of hidden bindings.
	HiddenBindingGroup string
}

// Addressing is the per-session metadata that decides how records are addressed.
type Addressing struct {
	SemanticKeys []string
	Draft        constants.DraftKind
	// MessagesPath returns the messages path of an entity set, or "".
	MessagesPath func(entitySet string) string
	MultiColumn  bool
}

// Request is one bind of a view.
type Request struct {
	// Target is the absolute path to bind, e.g. "/Orders(42)", or "" to clear.
	Target string
	// Hash is the current hash, used for semantic-key addressing.
	Hash string
	// Deferred marks a pending-creation target.
	Deferred bool
	// CreateDeferred lets the view create the deferred context. It is false
	// while an async context is about to be navigated into.
	CreateDeferred bool
	// NoHashChange forces a rebind of the displayed page.
	NoHashChange          bool
	Editable              bool
	PersistScrollPosition bool
	// UseContext is the context handed over by the navigation, if any.
	UseContext data.Context
	// Dirty reports whether bound data must be refreshed.
	Dirty      bool
	Generation uint64
}

// Result is the outcome of a bind.
type Result struct {
	State   State
	Context data.Context
	// Consumed is true when the request's UseContext was bound.
	Consumed bool
	// Created is true when the view was asked to create a deferred context.
	Created bool
	// Stale is true when a newer navigation superseded the bind.
	Stale bool
}

type registration struct {
	hooks hooks
	state State
}

// Binder binds contexts to views.
type Binder struct {
	cfg Config

	mu         sync.Mutex
	addressing Addressing
	views      map[View]*registration
}

// New creates a Binder.
func New(cfg Config) *Binder {
	if cfg.Locker == nil {
		cfg.Locker = busy.NewLocker()
	}
	if cfg.Texts == nil {
		cfg.Texts = internal.NewTexts("")
	}
	if cfg.Generation == nil {
		cfg.Generation = func() uint64 { return 0 }
	}
	if cfg.HiddenBindingGroup == "" {
		cfg.HiddenBindingGroup = constants.DefaultHiddenBindingGroup
	}
	return &Binder{cfg: cfg, views: make(map[View]*registration)}
}

// SetAddressing replaces the addressing metadata of the session.
func (b *Binder) SetAddressing(a Addressing) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.addressing = a
}

// Register resolves the optional hooks of view. Binding an unregistered view
// registers it.
func (b *Binder) Register(view View) {
	b.registration(view)
}

func (b *Binder) registration(view View) *registration {
	b.mu.Lock()
	defer b.mu.Unlock()
	reg, ok := b.views[view]
	if !ok {
		reg = &registration{hooks: resolveHooks(view)}
		b.views[view] = reg
	}
	return reg
}

// State returns the bind state of view.
func (b *Binder) State(view View) State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if reg, ok := b.views[view]; ok {
		return reg.state
	}
	return StateIdle
}

func (b *Binder) setState(reg *registration, s State) {
	b.mu.Lock()
	reg.state = s
	b.mu.Unlock()
}

func (b *Binder) currentAddressing() Addressing {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addressing
}

// Bind binds req.Target to view.
func (b *Binder) Bind(ctx context.Context, view View, req Request) Result {
	reg := b.registration(view)
	if req.Deferred {
		return b.bindDeferred(view, reg, req)
	}

	a := b.currentAddressing()
	target := req.Target
	if usesSemanticPath(a, req.Hash, target) {
		if req.UseContext == nil {
			keys := a.SemanticKeys
			entitySet := "/" + path.EntitySetOf(req.Hash)
			resolved, err := b.ResolveBySemanticKeys(ctx, entitySet, keys, a.Draft, HashKeySource(req.Hash, keys))
			if err != nil {
				b.fail(view, reg, err)
				return Result{State: StateBoundError}
			}
			target = resolved.Path()
		} else {
			target = req.UseContext.Path()
		}
	}
	return b.bindContext(ctx, view, reg, a, target, req)
}

func usesSemanticPath(a Addressing, hash, target string) bool {
	return len(a.SemanticKeys) > 0 &&
		a.Draft.IsDraftEnabled() &&
		path.Depth(hash) == 1 &&
		target != "" &&
		!a.MultiColumn
}

func (b *Binder) bindDeferred(view View, reg *registration, req Request) Result {
	reg.hooks.before(nil, Options{Editable: req.Editable})

	created := false
	if req.CreateDeferred && reg.hooks.create != nil {
		reg.hooks.create(req.Target)
		created = true
	}

	if current := view.BindingContext(); current != nil && current.HasPendingChanges() {
		internal.GetInternalLogger().Debug("Discarding pending changes of replaced context", "path", current.Path())
		if binding := current.Binding(); binding != nil {
			binding.ResetChanges()
		}
	}
	view.SetBindingContext(nil)

	b.setState(reg, StateDeferred)
	return Result{State: StateDeferred, Created: created}
}

func (b *Binder) bindContext(ctx context.Context, view View, reg *registration, a Addressing, target string, req Request) Result {
	current := view.BindingContext()

	var (
		currentPath            string
		existingParent, parent data.Binding
	)
	if !req.NoHashChange {
		if current != nil {
			currentPath = current.Path()
			existingParent = current.Binding()
		}
		if req.UseContext != nil {
			parent = req.UseContext.Binding()
		}
	}

	changed := req.NoHashChange ||
		currentPath != target ||
		(req.UseContext != nil && existingParent != parent && !a.MultiColumn)

	if !changed {
		if req.Dirty && current != nil {
			b.refreshDirty(ctx, reg, a, current)
		}
		return Result{State: b.State(view), Context: current}
	}

	if target == "" {
		reg.hooks.before(nil, Options{})
		reg.hooks.after(nil)
		b.setState(reg, StateIdle)
		return Result{State: StateIdle}
	}

	messagesPath := messagesPathOf(a, reg.hooks.entitySet)
	use := req.UseContext
	var listBinding data.Binding
	if use == nil || data.IsList(use.Binding()) {
		if use != nil {
			listBinding = use.Binding()
		}
		params := data.BindParams{
			GroupID:                 b.cfg.HiddenBindingGroup,
			PatchWithoutSideEffects: true,
		}
		if messagesPath != "" {
			params.Select = []string{messagesPath}
		}

		b.setState(reg, StateBinding)
		b.cfg.Locker.Lock(view)
		fetched, err := b.cfg.Model.BindContext(ctx, target, params)
		b.cfg.Locker.Unlock(view)

		if err != nil {
			b.fail(view, reg, err)
			return Result{State: StateBoundError}
		}
		if gen := b.cfg.Generation(); req.Generation != gen {
			internal.GetInternalLogger().Debug("Dropping stale bind", "path", target, "generation", req.Generation, "current", gen)
			b.setState(reg, StateIdle)
			return Result{State: StateIdle, Stale: true}
		}
		use = fetched

		if req.Dirty {
			if err := b.RequestSideEffectsRefresh(ctx, use, messagesPath); err != nil {
				internal.GetInternalLogger().Error("Side effects refresh failed", "path", use.Path(), "error", err)
			}
		}
	}

	reg.hooks.before(use, Options{
		Editable:              req.Editable,
		ListBinding:           listBinding,
		PersistScrollPosition: req.PersistScrollPosition,
	})
	view.SetBindingContext(use)
	reg.hooks.after(use)

	b.setState(reg, StateBoundClean)
	return Result{State: StateBoundClean, Context: use, Consumed: req.UseContext != nil}
}

func (b *Binder) refreshDirty(ctx context.Context, reg *registration, a Addressing, current data.Context) {
	b.setState(reg, StateBoundDirty)
	if err := b.RequestSideEffectsRefresh(ctx, current, messagesPathOf(a, reg.hooks.entitySet)); err != nil {
		internal.GetInternalLogger().Error("Side effects refresh failed", "path", current.Path(), "error", err)
		return
	}
	b.setState(reg, StateBoundClean)
}

func (b *Binder) fail(view View, reg *registration, err error) {
	b.setState(reg, StateBoundError)
	internal.GetInternalLogger().Error("Binding failed", "view", view, "error", err)
	if b.cfg.OnError == nil {
		return
	}
	b.cfg.OnError(ErrorInfo{
		View:        view,
		Message:     b.cfg.Texts.Get(internal.MsgDataReceivedError),
		Title:       b.cfg.Texts.Get(internal.MsgError),
		Description: err.Error(),
		Err:         err,
	})
}

func messagesPathOf(a Addressing, entitySet string) string {
	if entitySet == "" || a.MessagesPath == nil {
		return ""
	}
	return a.MessagesPath(entitySet)
}

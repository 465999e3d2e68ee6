package ctxnav

import (
	"context"
	"errors"
	"fmt"

	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/constants"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/data"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/history"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/internal"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/path"
)

// NavigateToContext navigates to target. The route has been matched and its
// pages bound when NavigateToContext returns, except for an Async target,
// whose record is navigated into once its context arrives.
//
// Navigating to the hash that is already displayed rebinds the displayed
// page instead of changing the hash. A navigation requested while another
// one runs, from an after-navigation listener for instance, is queued and
// runs once the running one completes.
func (n *Navigator) NavigateToContext(ctx context.Context, target Target, params NavigationParameters) error {
	return n.serialize("navigate", func() error {
		return n.navigateToContext(ctx, target, params)
	})
}

// NavigateBackFromContext navigates to the parent of target, closing one
// column of a multi-column layout.
func (n *Navigator) NavigateBackFromContext(ctx context.Context, target Target, params NavigationParameters) error {
	params.UpdateLayoutLevel = -1
	return n.NavigateToContext(ctx, target, params)
}

// NavigateForwardToContext navigates to target in a new column of a
// multi-column layout.
func (n *Navigator) NavigateForwardToContext(ctx context.Context, target Target, params NavigationParameters) error {
	params.UpdateLayoutLevel = 1
	return n.NavigateToContext(ctx, target, params)
}

func (n *Navigator) navigateToContext(ctx context.Context, target Target, params NavigationParameters) error {
	if err := params.validate(); err != nil {
		return err
	}
	if err := validateTarget(target); err != nil {
		return err
	}
	logger := internal.GetInternalLogger()

	if imm, ok := target.(Immediate); ok && n.holdsUnsavedRows(imm.Context) {
		if n.notifier == nil {
			return ErrNavigationDisabled
		}
		n.notifier.Warn(Warning{
			Title:   n.texts.Get(internal.MsgNavigationDisabledTitle),
			Message: n.texts.Get(internal.MsgNavigationDisabledMessage),
			Details: n.texts.Get(internal.MsgTransientContextDescription),
		})
		return nil
	}

	gen, superseded := n.session.begin()
	if superseded {
		logger.Debug("Async navigation superseded", "generation", gen)
		n.router.ResolveRouteMatch()
	}

	var (
		p       string
		pending bool
		c       data.Context
	)
	switch t := target.(type) {
	case Immediate:
		c = t.Context
		n.session.setPending(c)
		if params.UseCanonicalPath {
			p = c.CanonicalPath()
		} else {
			p = c.Path()
		}
	case Deferred:
		n.session.setDeferred()
		p, pending = collectionPath(t.Binding), true
	case Async:
		p, pending = collectionPath(t.Binding), true
	}
	n.session.setTargetOptions(params.Editable, params.PersistScrollPosition)
	level, aboveFirst := n.tracker.Next(params.UpdateLayoutLevel)

	if params.UpdateLayoutLevel == -1 {
		p = path.ParentPath(p)
		n.session.setPending(nil)
		// Closing the first column leaves the application's root page.
		if aboveFirst && n.tracker.Enabled() {
			p = ""
		}
		if p == "" && n.session.ExitOnNavigateBackToRoot() {
			return n.exitApplication()
		}
	}
	if pending {
		p += constants.PendingCreationMarker
	}

	hash := n.router.GetHash()

	if c != nil && params.UpdateLayoutLevel != -1 && n.usesSemanticKeys(hash, p) {
		built, addr := n.semanticPath(hash, p, c, params)
		switch addr {
		case semanticBuilt:
			if history.IsNoOp(built, hash) {
				return n.rebindCurrent(ctx, level)
			}
			p = built
		case semanticMissing:
			if params.UseHash {
				return n.rebindCurrent(ctx, level)
			}
		}
	}

	if params.TargetPath != "" {
		routed, err := n.routePath(ctx, params.TargetPath, sourceContext(target))
		if err != nil {
			return err
		}
		if routed != "" {
			p = routed
		}
	}

	if n.tracker.Enabled() {
		name := params.LayoutOverride
		if name == "" {
			name = n.tracker.ComputeLayout(level, p)
		}
		p = path.AppendQuery(p, constants.LayoutParam, name)
	}
	p = path.StripLeadingSlashes(p)

	if params.NoHashChange && (!n.tracker.Enabled() || p == hash) {
		return n.rebindCurrent(ctx, level)
	}

	if params.Transient && params.Editable && !path.HasPendingCreation(p) {
		p = path.AppendQuery(p, constants.ActionParam, constants.ActionCreate)
	}

	if n.reconciler.IsNoOpNavigation(p) {
		return n.rebindCurrent(ctx, level)
	}

	async, isAsync := target.(Async)
	var (
		actx   context.Context
		cancel context.CancelFunc
	)
	if isAsync {
		actx, cancel = context.WithCancel(n.ctx)
		n.session.setAsync(async.Pending, cancel)
		n.router.ActivateRouteMatchSynchronization()
	}

	n.tracker.SetLevel(level)
	if err := n.reconciler.NavigateTo(p, history.NavigateOptions{Level: level, Replace: params.NoHistoryEntry}); err != nil {
		if isAsync {
			cancel()
			n.session.finishAsync(async.Pending)
			n.router.ResolveRouteMatch()
		}
		return NewInfrastructureError("navigate", err)
	}

	if isAsync {
		n.wg.Add(1)
		go n.awaitAsync(actx, cancel, gen, async.Pending, params)
	}
	return nil
}

// awaitAsync navigates into the record of an async target once it has been
// created. It gives up when a newer navigation started meanwhile.
func (n *Navigator) awaitAsync(ctx context.Context, cancel context.CancelFunc, gen uint64, pending *data.Future, params NavigationParameters) {
	defer n.wg.Done()

	c, err := pending.Await(ctx)
	_ = n.serialize("async", func() error {
		defer cancel()
		n.finishAsyncNavigation(ctx, gen, pending, c, err, params)
		return nil
	})
}

func (n *Navigator) finishAsyncNavigation(ctx context.Context, gen uint64, pending *data.Future, c data.Context, err error, params NavigationParameters) {
	logger := internal.GetInternalLogger()

	if current := n.session.Generation(); current != gen {
		logger.Debug("Dropping stale async navigation", "generation", gen, "current", current)
		return
	}
	n.session.finishAsync(pending)
	defer n.router.ResolveRouteMatch()

	if ctx.Err() != nil {
		return
	}
	if err != nil {
		logger.Error("Async context failed", "error", err)
		if pageErr := n.navigateToErrorPage(n.texts.Get(internal.MsgDataReceivedError), ErrorPageParameters{
			Title:            n.texts.Get(internal.MsgError),
			TechnicalMessage: err.Error(),
		}); pageErr != nil {
			logger.Error("Could not show the error page", "error", pageErr)
		}
		return
	}

	// The column change was applied by the navigation to the pending-creation
	// hash, so the follow-up stays in that column.
	follow := NavigationParameters{
		NoHistoryEntry:        true,
		NoHashChange:          params.NoHashChange,
		UseCanonicalPath:      params.UseCanonicalPath,
		Editable:              params.Editable,
		PersistScrollPosition: params.PersistScrollPosition,
		LayoutOverride:        params.LayoutOverride,
		Transient:             params.Transient,
	}
	if err := n.navigateToContext(ctx, Immediate{Context: c}, follow); err != nil {
		logger.Error("Navigation to async context failed", "path", c.Path(), "error", err)
	}
}

// holdsUnsavedRows reports whether c was picked from a list that still holds
// rows being created. Navigating into a row being created is allowed.
func (n *Navigator) holdsUnsavedRows(c data.Context) bool {
	b := c.Binding()
	return data.IsList(b) && b.HasTransientContexts() && !c.IsTransient()
}

// usesSemanticKeys reports whether the record at p is addressed by its
// semantic keys in the hash.
func (n *Navigator) usesSemanticKeys(hash, p string) bool {
	return len(n.session.SemanticKeys()) > 0 &&
		n.session.Draft().IsDraftEnabled() &&
		path.Depth(hash) <= 1 &&
		!path.HasPendingCreation(hash) &&
		p != "" &&
		path.Depth(p) == 1 &&
		path.EntitySetOf(p) == n.session.EntitySet() &&
		!n.tracker.Enabled()
}

// semanticAddressing tells how semanticPath addressed a record.
type semanticAddressing int

const (
	semanticNotApplicable semanticAddressing = iota // the view level keeps technical keys
	semanticMissing                                 // the record lacks a semantic key value
	semanticBuilt
)

// semanticPath builds the semantic-key hash of c. Only navigations from the
// list (view level 0) and from an object page (view level 1) are addressed
// by semantic keys; from an object page the current hash is kept instead when
// params.UseHash is set.
func (n *Navigator) semanticPath(hash, p string, c data.Context, params NavigationParameters) (string, semanticAddressing) {
	if params.ViewLevel > 1 || (params.ViewLevel == 1 && hash == "") {
		return "", semanticNotApplicable
	}
	if params.ViewLevel == 1 && params.UseHash {
		return path.WithoutQuery(hash), semanticBuilt
	}
	built, ok := path.BuildPath(n.session.SemanticKeys(), path.EntitySetOf(p), path.FromObject(c))
	if !ok {
		return "", semanticMissing
	}
	return built, semanticBuilt
}

// routePath resolves a named navigation of the manifest into a hash. It
// returns "" when its parameters cannot be computed, to fall back to the
// record's own hash.
func (n *Navigator) routePath(ctx context.Context, name string, source data.Context) (string, error) {
	nav, ok := n.manifest.Navigation[name]
	if !ok {
		return "", newValidationError("TargetPath", fmt.Sprintf("unknown navigation %q", name))
	}
	route, ok := n.manifest.Route(nav.Route)
	if !ok {
		return "", newValidationError("TargetPath", fmt.Sprintf("navigation %q refers to unknown route %q", name, nav.Route))
	}

	params := n.prepareParameters(ctx, nav, source)
	if params == nil {
		return "", nil
	}
	hash, err := path.SubstituteRoutePattern(trimQueryPlaceholder(route.Pattern), params)
	if err != nil {
		internal.GetInternalLogger().Error(fmt.Sprintf("Could not parse the parameters for the navigation to route %s", nav.Route), "error", err)
		return "", nil
	}
	return path.Absolute(hash), nil
}

// rebindCurrent binds the pending context to the page displayed at level
// without changing the hash.
func (n *Navigator) rebindCurrent(ctx context.Context, level int) error {
	view := n.currentPage(level)
	if view == nil {
		return ErrNoContainer
	}
	pending := n.session.pendingContext()
	target := ""
	if pending != nil {
		target = pending.Path()
	} else if current := view.BindingContext(); current != nil {
		target = current.Path()
	}
	n.bindPage(ctx, view, target, n.router.GetHash(), true)
	return nil
}

func (n *Navigator) exitApplication() error {
	if err := n.reconciler.ExitApplication(); err != nil {
		return NewInfrastructureError("exit", err)
	}
	return nil
}

// NavigateToErrorPage replaces the displayed page with an error page showing
// message. While a record is being created, the creation page is opened
// again instead.
func (n *Navigator) NavigateToErrorPage(message string, params ErrorPageParameters) error {
	return n.serialize("error_page", func() error {
		return n.navigateToErrorPage(message, params)
	})
}

func (n *Navigator) navigateToErrorPage(message string, params ErrorPageParameters) error {
	n.locker.UnlockIfLocked(n.root)

	if path.HasCreateAction(n.router.GetHash()) {
		hash := n.session.EntitySet() + constants.PendingCreationMarker
		if err := n.reconciler.NavigateTo(hash, history.NavigateOptions{Level: n.tracker.Level(), Replace: true}); err != nil {
			return NewInfrastructureError("navigate", err)
		}
		return nil
	}

	container := params.Container
	if container == nil {
		container = n.container
	}
	if container == nil {
		return ErrNoContainer
	}

	page := MessagePage{
		Title:            params.Title,
		Text:             message,
		Description:      params.Description,
		TechnicalMessage: params.TechnicalMessage,
		TechnicalDetails: params.TechnicalDetails,
	}
	if page.HasTechnicalMessage() && page.Description == "" {
		page.Description = page.TechnicalMessage
	}
	container.ShowMessagePage(page)
	return nil
}

// NavigateBackFromTransientState leaves a pending-creation hash, rebuilding
// the history when the page was reached by a deep link.
func (n *Navigator) NavigateBackFromTransientState(params TransientStateParameters) error {
	return n.serialize("navigate_back", func() error {
		return n.navigateBackFromTransientState(params)
	})
}

func (n *Navigator) navigateBackFromTransientState(params TransientStateParameters) error {
	if !path.HasPendingCreation(n.router.GetHash()) {
		return nil
	}
	if params.UnlockTarget != nil {
		n.locker.UnlockIfLocked(params.UnlockTarget)
	}
	if _, superseded := n.session.begin(); superseded {
		n.router.ResolveRouteMatch()
	}

	if err := n.reconciler.NavigateBack(true); err != nil {
		if errors.Is(err, history.ErrExitUnsupported) {
			return err
		}
		return NewInfrastructureError("navigate_back", err)
	}
	return nil
}

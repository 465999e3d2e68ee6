package ctxnav

import (
	"context"
	"fmt"
	"strings"

	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/binder"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/constants"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/events"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/internal"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/path"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/router"
)

func (n *Navigator) onBeforeRouteMatched(ev router.MatchEvent) {
	n.locker.Lock(n.root)
	n.session.recordFirstBefore(ev)
}

// onRouteMatched binds the pages of a matched route. Route-match
// synchronization ends here unless an async navigation still waits for its
// context.
func (n *Navigator) onRouteMatched(ev router.MatchEvent) {
	defer func() {
		if !n.session.asyncPending() {
			n.router.ResolveRouteMatch()
		}
	}()
	logger := internal.GetInternalLogger()

	if n.tracker.Enabled() {
		n.tracker.UpdateLevels(ev.Views)
	}
	level := n.tracker.Level()

	if err := n.bus.Publish(events.NavigationEvent{
		Hash:       ev.Hash,
		Route:      ev.Route,
		Arguments:  ev.Arguments,
		Level:      level,
		Generation: n.session.Generation(),
	}); err != nil {
		logger.Error("Could not publish navigation event", "route", ev.Route, "error", err)
	}
	n.locker.UnlockIfLocked(n.root)

	if ev.ByAppState {
		return
	}

	target := ""
	if len(ev.Arguments) > 0 {
		target = n.buildBindingContext(ev.Pattern, ev.Arguments)
	}

	ctx := n.ctx
	if n.tracker.Enabled() {
		columns := make([]binder.View, 0, len(ev.Targets))
		for i, name := range ev.Targets {
			view, ok := ev.Views[i].(binder.View)
			if !ok {
				logger.Error("Route target has no view", "route", ev.Route, "target", name, "error", ErrNoContainer)
				continue
			}
			columns = append(columns, view)

			columnTarget := target
			if t, ok := n.manifest.Targets[name]; ok && t.Pattern != nil {
				columnTarget = ""
				if *t.Pattern != "" {
					columnTarget = n.buildBindingContext(*t.Pattern, ev.Arguments)
				}
			}
			n.bindPage(ctx, view, columnTarget, ev.Hash, false)
		}
		n.setColumns(columns)
	} else {
		view := n.fullscreenView(ev)
		if view == nil {
			logger.Error("Route target has no view", "route", ev.Route, "error", ErrNoContainer)
		} else {
			n.bindPage(ctx, view, target, ev.Hash, false)
		}
	}

	n.session.cleanProcessed()
	if _, err := n.reconciler.RestoreHistoryIfNeeded(level); err != nil {
		logger.Error("Could not restore history", "hash", ev.Hash, "error", err)
	}
}

// fullscreenView returns the view of the first route target and displays it
// in the container. Without a registered view the displayed page is bound.
func (n *Navigator) fullscreenView(ev router.MatchEvent) binder.View {
	for _, v := range ev.Views {
		if view, ok := v.(binder.View); ok {
			if n.container != nil {
				n.container.To(view)
			}
			n.setCurrent(view)
			return view
		}
	}
	return n.currentPage(0)
}

// buildBindingContext substitutes the route arguments into pattern. A "..."
// argument marks a record being created, which opens in edit mode.
func (n *Navigator) buildBindingContext(pattern string, args map[string]string) string {
	for _, v := range args {
		if v == constants.DeferredArgument {
			n.session.setEditable()
			break
		}
	}
	p, err := path.SubstituteRoutePattern(trimQueryPlaceholder(pattern), args)
	if err != nil {
		internal.GetInternalLogger().Error("Could not build the binding path", "pattern", pattern, "error", err)
		return ""
	}
	if p == "" {
		return ""
	}
	return path.Absolute(p)
}

// bindPage binds target to view with the options of the current navigation.
func (n *Navigator) bindPage(ctx context.Context, view binder.View, target, hash string, noHashChange bool) binder.Result {
	editable, persistScroll := n.session.targetOptions()
	req := binder.Request{
		Target:                target,
		Hash:                  hash,
		Deferred:              path.HasPendingCreation(target),
		CreateDeferred:        n.session.shouldCreateDeferred(),
		NoHashChange:          noHashChange,
		Editable:              editable,
		PersistScrollPosition: persistScroll,
		Dirty:                 n.session.isDirty(),
		Generation:            n.session.Generation(),
	}
	if pending := n.session.pendingContext(); pending != nil && n.pendingFits(pending.Path(), target, noHashChange) {
		req.UseContext = pending
	}

	res := n.binder.Bind(ctx, view, req)
	if res.Created {
		n.session.deferredCreated()
	}
	if res.Consumed {
		n.session.consumePending(req.UseContext)
	}
	if req.Dirty && res.State == binder.StateBoundClean {
		n.session.setUIState(constants.UIStateProcessed)
	}
	internal.GetInternalLogger().Debug("Page bound", "view", fmt.Sprint(view), "target", target, "state", res.State.GetName())
	return res
}

// pendingFits reports whether the pending context belongs to target. A
// multi-column layout binds several pages per route and hands the pending
// context to the page showing it only.
func (n *Navigator) pendingFits(pendingPath, target string, noHashChange bool) bool {
	if noHashChange {
		return true
	}
	if target == "" {
		return false
	}
	if n.tracker.Enabled() {
		return pendingPath == target
	}
	return true
}

func (n *Navigator) onBindError(info binder.ErrorInfo) {
	err := n.navigateToErrorPage(info.Message, ErrorPageParameters{
		Title:            info.Title,
		TechnicalMessage: info.Description,
	})
	if err != nil {
		internal.GetInternalLogger().Error("Could not show the error page", "view", fmt.Sprint(info.View), "error", err)
	}
}

func trimQueryPlaceholder(pattern string) string {
	return strings.ReplaceAll(pattern, constants.QueryPlaceholder, "")
}

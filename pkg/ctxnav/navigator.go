package ctxnav

import (
	"context"
	"errors"
	"sync"

	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/binder"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/busy"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/config"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/constants"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/data"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/events"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/history"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/internal"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/layout"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/metadata"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/router"
)

// Option configures a Navigator.
type Option func(*Navigator)

// WithRouter uses rt instead of a router on an empty hash.
func WithRouter(rt *router.Router) Option {
	return func(n *Navigator) {
		n.router = rt
	}
}

// WithMetadataProvider overrides the provider derived from the manifest.
func WithMetadataProvider(p metadata.Provider) Option {
	return func(n *Navigator) {
		n.meta = p
	}
}

// WithLocker shares a busy indicator with the shell.
func WithLocker(l *busy.Locker) Option {
	return func(n *Navigator) {
		n.locker = l
	}
}

// WithLayoutPolicy sets the policy mapping column levels to layouts.
func WithLayoutPolicy(p layout.Policy) Option {
	return func(n *Navigator) {
		n.policy = p
	}
}

// WithContainer sets the container of a fullscreen layout.
func WithContainer(c Container) Option {
	return func(n *Navigator) {
		n.container = c
	}
}

// WithNotifier sets where warnings are shown.
func WithNotifier(nt Notifier) Option {
	return func(n *Navigator) {
		n.notifier = nt
	}
}

// WithExitHook sets the function leaving the application.
func WithExitHook(fn history.ExitFunc) Option {
	return func(n *Navigator) {
		n.exit = fn
	}
}

// WithHistoryStore persists the navigation log to store. It overrides the
// manifest's history path.
func WithHistoryStore(store history.Store) Option {
	return func(n *Navigator) {
		n.store = store
	}
}

// WithView registers the view displaying a route target.
func WithView(target string, view binder.View) Option {
	return func(n *Navigator) {
		n.views[target] = view
	}
}

// WithRootView sets the object busy-locked while a route is being matched.
func WithRootView(root any) Option {
	return func(n *Navigator) {
		n.root = root
	}
}

// Navigator is the public entry point of the engine. It owns one routing
// Session.
type Navigator struct {
	manifest  *config.Config
	model     data.Model
	router    *router.Router
	meta      metadata.Provider
	locker    *busy.Locker
	policy    layout.Policy
	container Container
	notifier  Notifier
	exit      history.ExitFunc
	store     history.Store
	root      any

	session    *Session
	reconciler *history.Reconciler
	binder     *binder.Binder
	tracker    *layout.Tracker
	bus        *events.Bus
	texts      *internal.Texts

	// queueMu guards running and queued. Navigations run one at a time; one
	// requested while another runs is queued behind it.
	queueMu sync.Mutex
	running bool
	queued  []queuedNavigation

	viewsMu sync.Mutex
	views   map[string]binder.View
	columns []binder.View
	current binder.View

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	closeOnce sync.Once
	closeErr  error
}

type queuedNavigation struct {
	op  string
	run func() error
}

// serialize runs fn unless another navigation is running. Otherwise fn is
// queued and nil is returned: it runs on the goroutine of the running
// navigation once that completes, and its error is logged. Listeners, view
// hooks and containers are called while a navigation runs, so a navigation
// they request is queued this way.
func (n *Navigator) serialize(op string, fn func() error) error {
	n.queueMu.Lock()
	if n.running {
		n.queued = append(n.queued, queuedNavigation{op: op, run: fn})
		n.queueMu.Unlock()
		internal.GetInternalLogger().Debug("Navigation queued", "op", op)
		return nil
	}
	n.running = true
	n.queueMu.Unlock()

	err := fn()
	for {
		n.queueMu.Lock()
		if len(n.queued) == 0 {
			n.running = false
			n.queueMu.Unlock()
			return err
		}
		next := n.queued[0]
		n.queued = n.queued[1:]
		n.queueMu.Unlock()

		if qErr := next.run(); qErr != nil {
			internal.GetInternalLogger().Error("Queued navigation failed", "op", next.op, "error", qErr)
		}
	}
}

// New creates a Navigator for the routes of manifest over model. Routing
// starts with InitializeRouting.
func New(manifest *config.Config, model data.Model, opts ...Option) (*Navigator, error) {
	if manifest == nil {
		return nil, newValidationError("manifest", "no manifest given")
	}
	if model == nil {
		return nil, newValidationError("model", "no data model given")
	}

	n := &Navigator{
		manifest: manifest,
		model:    model,
		views:    make(map[string]binder.View),
		session:  newSession(),
		bus:      events.NewBus(),
		texts:    internal.NewTexts(manifest.App.Language),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.router == nil {
		n.router = router.New(nil)
	}
	for _, r := range manifest.Routes {
		if err := n.router.AddRoute(r.Name, r.Pattern, r.Targets...); err != nil {
			return nil, newValidationError("routes", err.Error())
		}
	}
	if n.locker == nil {
		n.locker = busy.NewLocker()
	}
	if n.root == nil {
		n.root = n
	}
	if n.meta == nil {
		n.meta = providerFor(manifest)
	}
	if n.policy == nil && len(manifest.Layout.Names) > 0 {
		n.policy = layout.ColumnPolicy{Names: manifest.Layout.Names, Overflow: manifest.Layout.Overflow}
	}
	n.tracker = layout.NewTracker(manifest.Layout.Enabled, n.policy)

	if n.store == nil && manifest.History.Path != "" {
		store, err := history.OpenBoltStore(manifest.History.Path)
		if err != nil {
			return nil, NewInfrastructureError("open_history", err)
		}
		n.store = store
	}
	var reconcilerOpts []history.Option
	if n.store != nil {
		reconcilerOpts = append(reconcilerOpts, history.WithStore(n.store))
	}
	if n.exit != nil {
		reconcilerOpts = append(reconcilerOpts, history.WithExitHook(n.exit))
	}
	n.reconciler = history.NewReconciler(n.router, reconcilerOpts...)
	if err := n.reconciler.Load(); err != nil {
		if n.store != nil {
			_ = n.store.Close()
		}
		return nil, NewInfrastructureError("load_history", err)
	}

	n.binder = binder.New(binder.Config{
		Model:      model,
		Locker:     n.locker,
		Texts:      n.texts,
		OnError:    n.onBindError,
		Generation: n.session.Generation,
	})

	n.router.SetViewResolver(n.resolveView)
	n.router.AttachBeforeRouteMatched(n.onBeforeRouteMatched)
	n.router.AttachRouteMatched(n.onRouteMatched)
	n.router.AttachBypassed(func(hash string) {
		n.locker.UnlockIfLocked(n.root)
		internal.GetInternalLogger().Debug("No route for hash", "hash", hash)
	})

	n.ctx, n.cancel = context.WithCancel(context.Background())
	return n, nil
}

func providerFor(manifest *config.Config) metadata.Provider {
	if manifest.Metadata.URL != "" {
		return metadata.NewHTTPProvider(manifest.Metadata.URL, metadata.WithCacheTTL(manifest.Metadata.TTL()))
	}
	return metadata.NewStaticProvider(manifest.EntitySets)
}

// RegisterView sets the view displaying a route target.
func (n *Navigator) RegisterView(target string, view binder.View) {
	n.viewsMu.Lock()
	n.views[target] = view
	n.viewsMu.Unlock()
	n.binder.Register(view)
}

func (n *Navigator) resolveView(target string) any {
	n.viewsMu.Lock()
	defer n.viewsMu.Unlock()
	if v, ok := n.views[target]; ok {
		return v
	}
	return nil
}

// Router returns the router driving the Navigator.
func (n *Navigator) Router() *router.Router {
	return n.router
}

// Session returns the routing state.
func (n *Navigator) Session() *Session {
	return n.session
}

// Locker returns the busy indicator.
func (n *Navigator) Locker() *busy.Locker {
	return n.locker
}

// History returns the navigation log, oldest entry first.
func (n *Navigator) History() []history.Entry {
	return n.reconciler.Log()
}

// Level returns the current column level of a multi-column layout.
func (n *Navigator) Level() int {
	return n.tracker.Level()
}

// BindState returns the bind state of view.
func (n *Navigator) BindState(view binder.View) binder.State {
	return n.binder.State(view)
}

// Outbounds returns the cross-application navigation targets of the manifest.
func (n *Navigator) Outbounds() map[string]config.Outbound {
	return n.manifest.Outbounds
}

// FirstBeforeRouteMatchedEvent returns the first route event of the session,
// kept for deep links without a layout.
func (n *Navigator) FirstBeforeRouteMatchedEvent() (router.MatchEvent, bool) {
	return n.session.firstBeforeEvent()
}

// AttachOnAfterNavigation adds a listener called whenever a route was matched.
// The returned function detaches it.
func (n *Navigator) AttachOnAfterNavigation(fn events.Listener) (detach func()) {
	return n.bus.Attach(fn)
}

// Subscribe returns a channel of navigation events published after the call.
func (n *Navigator) Subscribe(ctx context.Context) (<-chan events.NavigationEvent, error) {
	return n.bus.Subscribe(ctx)
}

// SetUIStateDirty flags that bound data changed and bindings must be refreshed.
func (n *Navigator) SetUIStateDirty() {
	n.session.setUIState(constants.UIStateDirty)
}

// SetUIStateProcessed flags that a refresh has started; the state becomes
// clean once the next route has been bound.
func (n *Navigator) SetUIStateProcessed() {
	n.session.setUIState(constants.UIStateProcessed)
}

// ResetUIState returns the UI state to clean.
func (n *Navigator) ResetUIState() {
	n.session.setUIState(constants.UIStateClean)
}

// IsUIStateDirty reports whether bindings still have to be refreshed.
func (n *Navigator) IsUIStateDirty() bool {
	return n.session.isDirty()
}

// CleanProcessedUIState sets a processed UI state back to clean.
func (n *Navigator) CleanProcessedUIState() {
	n.session.cleanProcessed()
}

// Wait blocks until all async navigations have completed or been superseded.
func (n *Navigator) Wait() {
	n.wg.Wait()
}

// Close stops async navigations and releases the event bus and history
// store. Calling it again returns the result of the first call.
func (n *Navigator) Close() error {
	n.closeOnce.Do(func() {
		n.cancel()
		n.wg.Wait()

		var errs []error
		if err := n.bus.Close(); err != nil {
			errs = append(errs, err)
		}
		if n.store != nil {
			if err := n.store.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if err := errors.Join(errs...); err != nil {
			n.closeErr = NewInfrastructureError("close", err)
		}
	})
	return n.closeErr
}

func (n *Navigator) setColumns(views []binder.View) {
	n.viewsMu.Lock()
	defer n.viewsMu.Unlock()
	n.columns = views
}

func (n *Navigator) setCurrent(view binder.View) {
	n.viewsMu.Lock()
	defer n.viewsMu.Unlock()
	n.current = view
}

// currentPage is the page displayed at level in a multi-column layout, or
// the displayed page of a fullscreen layout.
func (n *Navigator) currentPage(level int) binder.View {
	n.viewsMu.Lock()
	defer n.viewsMu.Unlock()
	if n.tracker.Enabled() && len(n.columns) > 0 {
		if level >= len(n.columns) {
			level = len(n.columns) - 1
		}
		return n.columns[level]
	}
	if n.container != nil {
		if page := n.container.CurrentPage(); page != nil {
			return page
		}
	}
	return n.current
}

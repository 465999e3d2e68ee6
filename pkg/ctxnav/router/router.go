package router

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/constants"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/internal"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/path"
)

// ErrUnknownRoute is returned by NavTo for route names that were never added.
var ErrUnknownRoute = errors.New("router: unknown route")

// Route is a named hash pattern such as "Orders({key})/Items({key2}):?query:".
// Targets name the views the route displays, one per column in a
// multi-column layout.
type Route struct {
	Name    string
	Pattern string
	Targets []string

	matcher *regexp.Regexp
	params  []string
}

// MatchEvent describes a matched route.
type MatchEvent struct {
	Route     string
	Pattern   string
	Hash      string
	Arguments map[string]string
	Query     map[string]string
	Targets   []string
	// Views holds the view of each target, nil where none is registered.
	Views []any
	// ByAppState is set when the hash change only updated the app state.
	ByAppState bool
}

// Handler receives route events.
type Handler func(MatchEvent)

// ViewResolver returns the view displaying a target, or nil.
type ViewResolver func(target string) any

// NavigateOptions controls how NavigateToHash changes the history.
type NavigateOptions struct {
	Replace    bool // overwrite the current history entry
	State      any  // state attached to the history entry
	ByAppState bool // the change only carries a new app state
}

// Router matches hashes against routes and fires events for matches.
// Hash changes made through NavigateToHash always match immediately; external
// changes (SetHash, Back, Forward) are held back while route-match
// synchronization is active.
type Router struct {
	mu          sync.Mutex
	routes      []*Route
	hash        *HashChanger
	views       ViewResolver
	before      []Handler
	matched     []Handler
	bypassed    []func(hash string)
	initialized bool
	syncing     bool
	held        bool
}

// New creates a Router on top of hash. A nil hash starts with an empty one.
func New(hash *HashChanger) *Router {
	if hash == nil {
		hash = NewHashChanger("")
	}
	return &Router{hash: hash}
}

// AddRoute registers a route. Routes are matched in the order they are added.
func (r *Router) AddRoute(name, pattern string, targets ...string) error {
	matcher, params, err := compile(pattern)
	if err != nil {
		return fmt.Errorf("router: route %q: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, &Route{
		Name:    name,
		Pattern: pattern,
		Targets: targets,
		matcher: matcher,
		params:  params,
	})
	return nil
}

// SetViewResolver sets the function resolving target names to views.
func (r *Router) SetViewResolver(fn ViewResolver) *Router {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = fn
	return r
}

// AttachBeforeRouteMatched adds a handler fired before the route-matched handlers.
func (r *Router) AttachBeforeRouteMatched(h Handler) *Router {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.before = append(r.before, h)
	return r
}

// AttachRouteMatched adds a handler fired for every matched route.
func (r *Router) AttachRouteMatched(h Handler) *Router {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matched = append(r.matched, h)
	return r
}

// AttachBypassed adds a handler fired for hashes no route matches.
func (r *Router) AttachBypassed(h func(hash string)) *Router {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bypassed = append(r.bypassed, h)
	return r
}

// HashChanger returns the hash owner of the router.
func (r *Router) HashChanger() *HashChanger {
	return r.hash
}

// GetHash returns the current hash.
func (r *Router) GetHash() string {
	return r.hash.GetHash()
}

// Initialize starts matching and matches the current hash.
func (r *Router) Initialize() {
	r.mu.Lock()
	r.initialized = true
	r.mu.Unlock()

	r.dispatch(r.hash.GetHash(), false)
}

// IsInitialized reports whether Initialize was called.
func (r *Router) IsInitialized() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.initialized
}

// NavigateToHash changes the hash and matches it. It supersedes any external
// change held back by route-match synchronization.
func (r *Router) NavigateToHash(hash string, opts NavigateOptions) {
	r.mu.Lock()
	r.held = false
	r.mu.Unlock()

	if opts.Replace {
		r.hash.ReplaceHash(hash, opts.State)
	} else {
		r.hash.SetHash(hash, opts.State)
	}
	r.dispatch(hash, opts.ByAppState)
}

// NavTo navigates to a named route, filling its placeholders from params.
func (r *Router) NavTo(name string, params map[string]string, opts NavigateOptions) error {
	route := r.route(name)
	if route == nil {
		return fmt.Errorf("%w: %q", ErrUnknownRoute, name)
	}
	pattern := strings.ReplaceAll(route.Pattern, constants.QueryPlaceholder, "")
	hash, err := path.SubstituteRoutePattern(pattern, params)
	if err != nil {
		return fmt.Errorf("router: route %q: %w", name, err)
	}
	r.NavigateToHash(hash, opts)
	return nil
}

// SetHash is an external hash change, such as a typed URL.
func (r *Router) SetHash(hash string) {
	r.hash.SetHash(hash, nil)
	r.externalChange()
}

// Back moves one entry back in the history. It returns false at the first entry.
func (r *Router) Back() bool {
	if !r.hash.Go(-1) {
		return false
	}
	r.externalChange()
	return true
}

// Forward moves one entry forward in the history.
func (r *Router) Forward() bool {
	if !r.hash.Go(1) {
		return false
	}
	r.externalChange()
	return true
}

func (r *Router) externalChange() {
	r.mu.Lock()
	if r.syncing {
		r.held = true
		r.mu.Unlock()
		internal.GetInternalLogger().Debug("Route match held back", "hash", r.hash.GetHash())
		return
	}
	r.mu.Unlock()
	r.dispatch(r.hash.GetHash(), false)
}

// ActivateRouteMatchSynchronization holds back matching of external hash
// changes until ResolveRouteMatch is called.
func (r *Router) ActivateRouteMatchSynchronization() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.syncing = true
}

// IsSynchronizing reports whether route-match synchronization is active.
func (r *Router) IsSynchronizing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.syncing
}

// ResolveRouteMatch ends route-match synchronization and matches the current
// hash if an external change was held back meanwhile.
func (r *Router) ResolveRouteMatch() {
	r.mu.Lock()
	held := r.held
	r.syncing = false
	r.held = false
	r.mu.Unlock()

	if held {
		r.dispatch(r.hash.GetHash(), false)
	}
}

// Match returns the first route matching hash, with its arguments and query.
func (r *Router) Match(hash string) (*Route, map[string]string, map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.match(hash)
}

func (r *Router) match(hash string) (*Route, map[string]string, map[string]string) {
	p, query := path.SplitQuery(hash)
	for _, route := range r.routes {
		m := route.matcher.FindStringSubmatch(p)
		if m == nil {
			continue
		}
		args := make(map[string]string, len(route.params))
		for i, name := range route.params {
			args[name] = m[i+1]
		}
		return route, args, parseQuery(query)
	}
	return nil, nil, nil
}

func (r *Router) route(name string) *Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, route := range r.routes {
		if route.Name == name {
			return route
		}
	}
	return nil
}

func (r *Router) dispatch(hash string, byAppState bool) {
	r.mu.Lock()
	if !r.initialized {
		r.mu.Unlock()
		return
	}
	route, args, query := r.match(hash)
	before := append([]Handler(nil), r.before...)
	matched := append([]Handler(nil), r.matched...)
	bypassed := slices.Clone(r.bypassed)
	resolve := r.views
	r.mu.Unlock()

	if route == nil {
		internal.GetInternalLogger().Debug("No route matched", "hash", hash)
		for _, h := range bypassed {
			h(hash)
		}
		return
	}

	ev := MatchEvent{
		Route:      route.Name,
		Pattern:    route.Pattern,
		Hash:       hash,
		Arguments:  args,
		Query:      query,
		Targets:    append([]string(nil), route.Targets...),
		Views:      make([]any, len(route.Targets)),
		ByAppState: byAppState,
	}
	if resolve != nil {
		for i, target := range route.Targets {
			ev.Views[i] = resolve(target)
		}
	}

	internal.GetInternalLogger().Debug("Route matched", "route", route.Name, "hash", hash)
	for _, h := range before {
		h(ev)
	}
	for _, h := range matched {
		h(ev)
	}
}

func compile(pattern string) (*regexp.Regexp, []string, error) {
	p := strings.ReplaceAll(pattern, constants.QueryPlaceholder, "")
	segments, err := path.Tokenize(p)
	if err != nil {
		return nil, nil, err
	}

	var (
		b      strings.Builder
		params []string
	)
	b.WriteString("^")
	for _, s := range segments {
		if s.IsPlaceholder() {
			b.WriteString("([^/?]+?)")
			params = append(params, s.Placeholder)
			continue
		}
		b.WriteString(regexp.QuoteMeta(s.Literal))
	}
	b.WriteString("$")

	matcher, err := regexp.Compile(b.String())
	if err != nil {
		return nil, nil, err
	}
	return matcher, params, nil
}

func parseQuery(query string) map[string]string {
	values := make(map[string]string)
	if query == "" {
		return values
	}
	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		values[key] = value
	}
	return values
}

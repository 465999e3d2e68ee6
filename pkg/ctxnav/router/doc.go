// Package router provides in-process hash routing with explicit route events.
//
// Routes map hash patterns to targets. Placeholders in braces become route
// arguments, and a trailing ":?query:" marks the query part as optional
// (a query is always accepted and reported separately in the event).
//
// # Basic Usage
//
//	r := router.New(nil)
//
//	// Fullscreen: one target per route
//	_ = r.AddRoute("list", ":?query:", "OrdersList")
//	_ = r.AddRoute("detail", "Orders({key}):?query:", "OrderDetail")
//
//	// Views are looked up by target name when a route matches
//	r.SetViewResolver(func(target string) any {
//	    return views[target]
//	})
//
//	r.AttachRouteMatched(func(ev router.MatchEvent) {
//	    // ev.Arguments["key"] holds the key predicate, e.g. "42" or "..."
//	})
//
//	r.Initialize()
//	r.NavigateToHash("Orders(42)", router.NavigateOptions{})
//
// # History
//
// The HashChanger keeps a browser-like history. Entries written through
// NavigateToHash carry caller-defined state; entries produced by SetHash
// (typed URLs, bookmarks) carry none, which lets callers detect hashes they
// did not produce themselves and rebuild the history accordingly.
//
// # Route-Match Synchronization
//
// While a navigation waits for an asynchronously created context, external
// hash changes must not bind other pages into the views. Between
// ActivateRouteMatchSynchronization and ResolveRouteMatch, SetHash, Back and
// Forward only change the hash; the last of them is matched when
// synchronization ends.
package router

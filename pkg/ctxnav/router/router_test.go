package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*Router, *[]MatchEvent) {
	t.Helper()
	r := New(nil)
	require.NoError(t, r.AddRoute("list", ":?query:", "List"))
	require.NoError(t, r.AddRoute("detail", "Orders({key}):?query:", "List", "Detail"))
	require.NoError(t, r.AddRoute("item", "Orders({key})/Items({key2}):?query:", "List", "Detail", "Item"))

	var events []MatchEvent
	r.AttachRouteMatched(func(ev MatchEvent) {
		events = append(events, ev)
	})
	return r, &events
}

func TestMatch(t *testing.T) {
	r, _ := newTestRouter(t)

	route, args, query := r.Match("Orders(OrderID=1,IsActiveEntity=true)/Items(7)?layout=ThreeColumnsEndExpanded")
	require.NotNil(t, route)
	assert.Equal(t, "item", route.Name)
	assert.Equal(t, map[string]string{"key": "OrderID=1,IsActiveEntity=true", "key2": "7"}, args)
	assert.Equal(t, map[string]string{"layout": "ThreeColumnsEndExpanded"}, query)

	route, args, _ = r.Match("")
	require.NotNil(t, route)
	assert.Equal(t, "list", route.Name)
	assert.Empty(t, args)

	route, _, _ = r.Match("Customers(1)")
	assert.Nil(t, route)
}

func TestAddRouteRejectsMalformedPattern(t *testing.T) {
	r := New(nil)
	assert.Error(t, r.AddRoute("bad", "Orders({key)"))
}

func TestNoDispatchBeforeInitialize(t *testing.T) {
	r, events := newTestRouter(t)
	r.NavigateToHash("Orders(1)", NavigateOptions{})
	assert.Empty(t, *events)

	r.Initialize()
	require.Len(t, *events, 1)
	assert.Equal(t, "Orders(1)", (*events)[0].Hash)
}

func TestBeforeRouteMatchedFiresFirst(t *testing.T) {
	r := New(nil)
	require.NoError(t, r.AddRoute("list", "", "List"))

	var order []string
	r.AttachRouteMatched(func(MatchEvent) { order = append(order, "matched") })
	r.AttachBeforeRouteMatched(func(MatchEvent) { order = append(order, "before") })
	r.Initialize()

	assert.Equal(t, []string{"before", "matched"}, order)
}

func TestViewsResolved(t *testing.T) {
	r, events := newTestRouter(t)
	views := map[string]any{"List": "list-view", "Detail": "detail-view"}
	r.SetViewResolver(func(target string) any { return views[target] })

	r.Initialize()
	r.NavigateToHash("Orders(1)/Items(2)", NavigateOptions{})

	last := (*events)[len(*events)-1]
	assert.Equal(t, []any{"list-view", "detail-view", nil}, last.Views)
	assert.Equal(t, []string{"List", "Detail", "Item"}, last.Targets)
}

func TestNavTo(t *testing.T) {
	r, events := newTestRouter(t)
	r.Initialize()

	require.NoError(t, r.NavTo("item", map[string]string{"key": "1", "key2": "2"}, NavigateOptions{}))
	assert.Equal(t, "Orders(1)/Items(2)", r.GetHash())
	assert.Equal(t, "item", (*events)[len(*events)-1].Route)

	assert.ErrorIs(t, r.NavTo("nope", nil, NavigateOptions{}), ErrUnknownRoute)
	assert.Error(t, r.NavTo("item", map[string]string{"key": "1"}, NavigateOptions{}))
}

func TestBypassed(t *testing.T) {
	r, _ := newTestRouter(t)
	var bypassed []string
	r.AttachBypassed(func(hash string) { bypassed = append(bypassed, hash) })
	r.Initialize()

	r.SetHash("Customers(1)")
	assert.Equal(t, []string{"Customers(1)"}, bypassed)
}

func TestNavigateOptions(t *testing.T) {
	r, events := newTestRouter(t)
	r.Initialize()

	r.NavigateToHash("Orders(1)", NavigateOptions{State: "marker"})
	r.NavigateToHash("Orders(2)", NavigateOptions{Replace: true, ByAppState: true})

	entries, index := r.HashChanger().Entries()
	assert.Equal(t, 1, index)
	assert.Equal(t, []Entry{{Hash: ""}, {Hash: "Orders(2)"}}, entries)
	assert.True(t, (*events)[len(*events)-1].ByAppState)
}

func TestSynchronizationHoldsExternalChanges(t *testing.T) {
	r, events := newTestRouter(t)
	r.Initialize()
	*events = nil

	r.ActivateRouteMatchSynchronization()
	assert.True(t, r.IsSynchronizing())

	r.SetHash("Orders(1)")
	assert.Empty(t, *events)

	r.NavigateToHash("Orders(...)", NavigateOptions{})
	require.Len(t, *events, 1)

	r.ResolveRouteMatch()
	assert.False(t, r.IsSynchronizing())
	assert.Len(t, *events, 1)

	r.ActivateRouteMatchSynchronization()
	r.Back()
	r.ResolveRouteMatch()
	require.Len(t, *events, 2)
	assert.Equal(t, "Orders(1)", (*events)[1].Hash)
}

func TestHashChangerHistory(t *testing.T) {
	h := NewHashChanger("")
	h.SetHash("A", 1)
	h.SetHash("B", 2)
	require.True(t, h.Go(-1))
	assert.Equal(t, "A", h.GetHash())
	assert.Equal(t, 1, h.State())

	h.SetHash("C", nil)
	entries, index := h.Entries()
	assert.Equal(t, 2, index)
	assert.Equal(t, []Entry{{Hash: ""}, {Hash: "A", State: 1}, {Hash: "C"}}, entries)

	assert.False(t, h.Go(1))
	h.ReplaceState(3)
	assert.Equal(t, 3, h.State())

	h.ReplaceHistory([]Entry{{Hash: "X"}, {Hash: "Y"}}, 5)
	assert.Equal(t, "Y", h.GetHash())

	h.ReplaceHistory(nil, 0)
	assert.Equal(t, "", h.GetHash())
}

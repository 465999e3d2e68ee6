package binder

import (
	"context"
	"errors"
	"testing"

	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/busy"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/constants"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/data"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/data/memdata"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/path"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type objectPage struct {
	*Page
	entitySet string
	calls     []string
	options   []Options
	created   []string
}

func newObjectPage(entitySet string) *objectPage {
	return &objectPage{Page: NewPage("ObjectPage"), entitySet: entitySet}
}

func (p *objectPage) OnBeforeBinding(c data.Context, opts Options) {
	p.calls = append(p.calls, "before:"+pathOf(c))
	p.options = append(p.options, opts)
}

func (p *objectPage) OnAfterBinding(c data.Context) {
	p.calls = append(p.calls, "after:"+pathOf(c))
}

func (p *objectPage) CreateDeferredContext(path string) {
	p.created = append(p.created, path)
}

func (p *objectPage) EntitySet() string {
	return p.entitySet
}

func pathOf(c data.Context) string {
	if c == nil {
		return "<nil>"
	}
	return c.Path()
}

type fixture struct {
	model  *memdata.Model
	locker *busy.Locker
	binder *Binder
	errors []ErrorInfo
	gen    uint64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	m := memdata.New().AddEntitySet("Orders",
		path.Key{Name: "OrderID"},
		path.Key{Name: "IsActiveEntity"},
	)
	for _, rec := range []memdata.Record{
		{"OrderID": 1, "IsActiveEntity": true, "OrderNo": "A1"},
		{"OrderID": 1, "IsActiveEntity": false, "OrderNo": "A1"},
		{"OrderID": 2, "IsActiveEntity": true, "OrderNo": "A2"},
	} {
		_, err := m.Insert("Orders", rec)
		require.NoError(t, err)
	}

	f := &fixture{model: m, locker: busy.NewLocker()}
	f.binder = New(Config{
		Model:      m,
		Locker:     f.locker,
		OnError:    func(info ErrorInfo) { f.errors = append(f.errors, info) },
		Generation: func() uint64 { return f.gen },
	})
	f.binder.SetAddressing(Addressing{
		MessagesPath: func(entitySet string) string {
			if entitySet == "Orders" {
				return "SAP__Messages"
			}
			return ""
		},
	})
	return f
}

func TestBindCreatesHiddenBinding(t *testing.T) {
	f := newFixture(t)
	view := newObjectPage("Orders")

	var busyChanges []bool
	f.locker.OnChange(func(_ busy.Target, busy bool) { busyChanges = append(busyChanges, busy) })

	res := f.binder.Bind(context.Background(), view, Request{Target: "/Orders(OrderID=2,IsActiveEntity=true)", Editable: true})
	assert.Equal(t, StateBoundClean, res.State)
	require.NotNil(t, view.BindingContext())
	assert.Equal(t, "/Orders(OrderID=2,IsActiveEntity=true)", view.BindingContext().Path())
	assert.Equal(t, []string{
		"before:/Orders(OrderID=2,IsActiveEntity=true)",
		"after:/Orders(OrderID=2,IsActiveEntity=true)",
	}, view.calls)
	assert.True(t, view.options[0].Editable)
	assert.Equal(t, []bool{true, false}, busyChanges)

	assert.Equal(t, []memdata.BindRequest{{
		Path: "/Orders(OrderID=2,IsActiveEntity=true)",
		Params: data.BindParams{
			GroupID:                 constants.DefaultHiddenBindingGroup,
			PatchWithoutSideEffects: true,
			Select:                  []string{"SAP__Messages"},
		},
	}}, f.model.BindRequests())
}

func TestBindSamePathDoesNotRebind(t *testing.T) {
	f := newFixture(t)
	view := newObjectPage("Orders")
	req := Request{Target: "/Orders(OrderID=2,IsActiveEntity=true)"}

	f.binder.Bind(context.Background(), view, req)
	f.binder.Bind(context.Background(), view, req)
	assert.Len(t, f.model.BindRequests(), 1)
	assert.Empty(t, f.model.SideEffectRequests())

	// A dirty UI refreshes the side effects instead.
	req.Dirty = true
	res := f.binder.Bind(context.Background(), view, req)
	assert.Equal(t, StateBoundClean, res.State)
	assert.Len(t, f.model.BindRequests(), 1)
	require.Len(t, f.model.SideEffectRequests(), 1)
	assert.Equal(t, []data.SideEffect{
		{NavigationPropertyPath: "/Orders(OrderID=2,IsActiveEntity=true)"},
		{PropertyPath: "SAP__Messages"},
	}, f.model.SideEffectRequests()[0].Effects)

	// NoHashChange forces a rebind.
	f.binder.Bind(context.Background(), view, Request{Target: req.Target, NoHashChange: true})
	assert.Len(t, f.model.BindRequests(), 2)
}

func TestBindUsesHandedOverContext(t *testing.T) {
	f := newFixture(t)
	view := newObjectPage("Orders")

	c, err := f.model.BindContext(context.Background(), "/Orders(OrderID=2,IsActiveEntity=true)", data.BindParams{})
	require.NoError(t, err)
	requests := len(f.model.BindRequests())

	res := f.binder.Bind(context.Background(), view, Request{Target: c.Path(), UseContext: c})
	assert.True(t, res.Consumed)
	assert.Same(t, c, view.BindingContext())
	assert.Len(t, f.model.BindRequests(), requests)
}

func TestBindListRowCreatesHiddenBinding(t *testing.T) {
	f := newFixture(t)
	view := newObjectPage("Orders")

	rows, err := f.model.BindList(context.Background(), "/Orders", data.Eq("OrderNo", "A2"))
	require.NoError(t, err)
	row := rows[0]

	res := f.binder.Bind(context.Background(), view, Request{Target: row.Path(), UseContext: row})
	assert.Equal(t, StateBoundClean, res.State)
	assert.NotSame(t, row, view.BindingContext())
	assert.Same(t, row.Binding(), view.options[0].ListBinding)
	assert.Len(t, f.model.BindRequests(), 1)
}

func TestBindEmptyTarget(t *testing.T) {
	f := newFixture(t)

	unbound := newObjectPage("Orders")
	res := f.binder.Bind(context.Background(), unbound, Request{Target: ""})
	assert.Equal(t, StateIdle, res.State)
	assert.Empty(t, unbound.calls)

	view := newObjectPage("Orders")
	f.binder.Bind(context.Background(), view, Request{Target: "/Orders(OrderID=2,IsActiveEntity=true)"})
	view.calls = nil

	res = f.binder.Bind(context.Background(), view, Request{Target: ""})
	assert.Equal(t, StateIdle, res.State)
	assert.Equal(t, []string{"before:<nil>", "after:<nil>"}, view.calls)
}

func TestBindFailureShowsErrorPage(t *testing.T) {
	f := newFixture(t)
	view := newObjectPage("Orders")
	boom := errors.New("503 service unavailable")
	f.model.FailBind("/Orders(OrderID=2,IsActiveEntity=true)", boom)

	res := f.binder.Bind(context.Background(), view, Request{Target: "/Orders(OrderID=2,IsActiveEntity=true)"})
	assert.Equal(t, StateBoundError, res.State)
	assert.Equal(t, StateBoundError, f.binder.State(view))
	assert.False(t, f.locker.IsLocked(view))

	require.Len(t, f.errors, 1)
	assert.Equal(t, "Could not load data", f.errors[0].Message)
	assert.Equal(t, "Error", f.errors[0].Title)
	assert.Equal(t, boom.Error(), f.errors[0].Description)
	assert.Equal(t, view, f.errors[0].View)
}

func TestStaleBindIsDropped(t *testing.T) {
	f := newFixture(t)
	view := newObjectPage("Orders")
	f.gen = 2

	res := f.binder.Bind(context.Background(), view, Request{Target: "/Orders(OrderID=2,IsActiveEntity=true)", Generation: 1})
	assert.True(t, res.Stale)
	assert.Nil(t, view.BindingContext())
	assert.Empty(t, view.calls)
}

func TestBindDeferred(t *testing.T) {
	f := newFixture(t)
	view := newObjectPage("Orders")
	f.binder.Bind(context.Background(), view, Request{Target: "/Orders(OrderID=2,IsActiveEntity=true)"})
	view.BindingContext().(*memdata.Context).SetProperty("OrderNo", "changed")
	bound := view.BindingContext()
	view.calls = nil

	res := f.binder.Bind(context.Background(), view, Request{
		Target:         "/Orders(...)",
		Deferred:       true,
		CreateDeferred: true,
		Editable:       true,
	})
	assert.Equal(t, StateDeferred, res.State)
	assert.True(t, res.Created)
	assert.Equal(t, []string{"/Orders(...)"}, view.created)
	assert.Equal(t, []string{"before:<nil>"}, view.calls)
	assert.True(t, view.options[len(view.options)-1].Editable)
	assert.False(t, bound.HasPendingChanges())
	assert.Nil(t, view.BindingContext())

	// An async context is on its way: the view must not create one.
	res = f.binder.Bind(context.Background(), view, Request{Target: "/Orders(...)", Deferred: true})
	assert.False(t, res.Created)
	assert.Len(t, view.created, 1)
}

func TestSemanticKeyAddressing(t *testing.T) {
	f := newFixture(t)
	f.binder.SetAddressing(Addressing{SemanticKeys: []string{"OrderNo"}, Draft: constants.DraftRoot})
	view := newObjectPage("Orders")

	res := f.binder.Bind(context.Background(), view, Request{Target: "/Orders('A1')", Hash: "Orders('A1')"})
	require.Equal(t, StateBoundClean, res.State)
	assert.Equal(t, "/Orders(OrderID=1,IsActiveEntity=false)", view.BindingContext().Path())

	filters := f.model.ListFilters()
	require.Len(t, filters, 1)
	assert.Equal(t, "OrderNo eq 'A1' and (IsActiveEntity eq false or SiblingEntity/IsActiveEntity eq null)", filters[0].String())

	res = f.binder.Bind(context.Background(), newObjectPage("Orders"), Request{Target: "/Orders('A9')", Hash: "Orders('A9')"})
	assert.Equal(t, StateBoundError, res.State)
	require.Len(t, f.errors, 1)
	assert.ErrorIs(t, f.errors[0].Err, ErrNotFound)
}

func TestSemanticKeyAddressingSkipped(t *testing.T) {
	f := newFixture(t)
	f.binder.SetAddressing(Addressing{SemanticKeys: []string{"OrderNo"}, Draft: constants.DraftRoot, MultiColumn: true})
	view := newObjectPage("Orders")

	f.binder.Bind(context.Background(), view, Request{
		Target: "/Orders(OrderID=2,IsActiveEntity=true)",
		Hash:   "Orders(OrderID=2,IsActiveEntity=true)",
	})
	assert.Empty(t, f.model.ListFilters())
}

func TestSemanticFilter(t *testing.T) {
	f := SemanticFilter([]string{"OrderNo"}, []any{"A1"}, constants.DraftRoot)
	assert.Equal(t, "OrderNo eq 'A1' and (IsActiveEntity eq false or SiblingEntity/IsActiveEntity eq null)", f.String())

	f = SemanticFilter([]string{"OrderNo", "Year"}, []any{"A1", "2020"}, constants.DraftNone)
	assert.Equal(t, "OrderNo eq 'A1' and Year eq '2020'", f.String())
}

func TestHashKeySource(t *testing.T) {
	src := HashKeySource("Orders('A1')?layout=OneColumn", []string{"OrderNo"})
	v, ok := src.KeyValue("OrderNo")
	require.True(t, ok)
	assert.Equal(t, "A1", v)

	src = HashKeySource("Orders(OrderNo='A1',Year=2020)", []string{"OrderNo", "Year"})
	v, _ = src.KeyValue("Year")
	assert.Equal(t, "2020", v)

	_, ok = HashKeySource("Orders", []string{"OrderNo"}).KeyValue("OrderNo")
	assert.False(t, ok)
}

func TestCollectSideEffects(t *testing.T) {
	root := memdata.NewContextBinding("/Orders(1)",
		memdata.NewListBinding("_Items", true),
		memdata.NewPropertyBinding("OrderNo"),
		memdata.NewContextBinding("_Customer", memdata.NewPropertyBinding("Name")),
		memdata.NewContextBinding("_Status"),
		memdata.NewListBinding("_Items", true),
	)

	effects := CollectSideEffects(root, "SAP__Messages", "OrderNo")
	assert.Equal(t, []data.SideEffect{
		{NavigationPropertyPath: "_Items"},
		{NavigationPropertyPath: "_Status"},
		{PropertyPath: "OrderNo"},
		{PropertyPath: "Name"},
		{PropertyPath: "SAP__Messages"},
	}, effects)

	assert.Empty(t, CollectSideEffects(nil))
}

func TestStateNames(t *testing.T) {
	assert.Equal(t, "BoundDirty", StateBoundDirty.GetName())
	assert.Equal(t, "Deferred", StateDeferred.String())
	assert.Equal(t, "Unknown", State(42).GetName())
}

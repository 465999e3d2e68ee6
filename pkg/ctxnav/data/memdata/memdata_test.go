package memdata

import (
	"context"
	"errors"
	"testing"

	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/constants"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/data"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/path"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draftOrders(t *testing.T) *Model {
	t.Helper()
	m := New().AddEntitySet("Orders",
		path.Key{Name: "OrderID"},
		path.Key{Name: "IsActiveEntity"},
	)
	rows := []Record{
		{"OrderID": 1, "IsActiveEntity": true, "OrderNo": "A1"},
		{"OrderID": 1, "IsActiveEntity": false, "OrderNo": "A1"},
		{"OrderID": 2, "IsActiveEntity": true, "OrderNo": "A2"},
	}
	for _, rec := range rows {
		_, err := m.Insert("Orders", rec)
		require.NoError(t, err)
	}
	return m
}

func TestBindContext(t *testing.T) {
	m := draftOrders(t)
	ctx := context.Background()

	c, err := m.BindContext(ctx, "Orders(OrderID=2,IsActiveEntity=true)", data.BindParams{GroupID: "$auto"})
	require.NoError(t, err)
	assert.Equal(t, "/Orders(OrderID=2,IsActiveEntity=true)", c.Path())
	assert.Equal(t, c.Path(), c.CanonicalPath())

	no, ok := c.Object("OrderNo")
	require.True(t, ok)
	assert.Equal(t, "A2", no)

	b := c.Binding()
	require.NotNil(t, b)
	assert.Equal(t, constants.BindingContext, b.Kind())
	assert.False(t, b.IsRelative())
	assert.Nil(t, b.Dependents())

	assert.Equal(t, []BindRequest{{
		Path:   "/Orders(OrderID=2,IsActiveEntity=true)",
		Params: data.BindParams{GroupID: "$auto"},
	}}, m.BindRequests())

	_, err = m.BindContext(ctx, "/Orders(OrderID=9,IsActiveEntity=true)", data.BindParams{})
	assert.ErrorIs(t, err, data.ErrNoSuchEntity)
}

func TestBindContextFailure(t *testing.T) {
	m := draftOrders(t)
	boom := errors.New("boom")
	m.FailBind("Orders(OrderID=2,IsActiveEntity=true)", boom)

	_, err := m.BindContext(context.Background(), "/Orders(OrderID=2,IsActiveEntity=true)", data.BindParams{})
	assert.ErrorIs(t, err, boom)

	m.FailBind("/Orders(OrderID=2,IsActiveEntity=true)", nil)
	_, err = m.BindContext(context.Background(), "/Orders(OrderID=2,IsActiveEntity=true)", data.BindParams{})
	assert.NoError(t, err)
}

func TestBindListDraftFilter(t *testing.T) {
	m := draftOrders(t)
	filter := data.All(
		data.Eq("OrderNo", "A1"),
		data.Any(
			data.Eq(constants.IsActiveEntityProperty, false),
			data.Eq(constants.SiblingActiveProperty, nil),
		),
	)

	rows, err := m.BindList(context.Background(), "/Orders", filter)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "/Orders(OrderID=1,IsActiveEntity=false)", rows[0].Path())
	assert.True(t, data.IsList(rows[0].Binding()))

	rows, err = m.BindList(context.Background(), "/Orders", data.All(
		data.Eq("OrderNo", "A2"),
		data.Any(
			data.Eq(constants.IsActiveEntityProperty, false),
			data.Eq(constants.SiblingActiveProperty, nil),
		),
	))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "/Orders(OrderID=2,IsActiveEntity=true)", rows[0].Path())

	assert.Len(t, m.ListFilters(), 2)
}

func TestSiblingNavigation(t *testing.T) {
	m := draftOrders(t)
	c, err := m.BindContext(context.Background(), "/Orders(OrderID=1,IsActiveEntity=false)", data.BindParams{})
	require.NoError(t, err)

	v, ok := c.Object(constants.SiblingActiveProperty)
	require.True(t, ok)
	assert.Equal(t, true, v)
}

func TestPendingChanges(t *testing.T) {
	m := draftOrders(t)
	c, err := m.BindContext(context.Background(), "/Orders(OrderID=2,IsActiveEntity=true)", data.BindParams{})
	require.NoError(t, err)

	assert.False(t, c.HasPendingChanges())
	c.(*Context).SetProperty("OrderNo", "B2")
	assert.True(t, c.HasPendingChanges())
	v, _ := c.Object("OrderNo")
	assert.Equal(t, "B2", v)

	c.Binding().ResetChanges()
	assert.False(t, c.HasPendingChanges())
	v, _ = c.Object("OrderNo")
	assert.Equal(t, "A2", v)
}

func TestTransientRows(t *testing.T) {
	m := draftOrders(t)
	list, err := m.List(context.Background(), "/Orders", nil)
	require.NoError(t, err)
	assert.Len(t, list.Contexts(), 3)
	assert.False(t, list.HasTransientContexts())
	assert.Equal(t, "/Orders", list.HeaderContext().Path())

	row := list.CreateTransient(Record{"OrderNo": "new"})
	assert.True(t, row.IsTransient())
	assert.True(t, list.HasTransientContexts())
}

func TestObservedDependents(t *testing.T) {
	m := draftOrders(t)
	m.Observe("Orders",
		NewListBinding("_Items", true),
		NewPropertyBinding("OrderNo"),
		NewContextBinding("_Customer", NewPropertyBinding("Name")),
	)

	c, err := m.BindContext(context.Background(), "/Orders(OrderID=2,IsActiveEntity=true)", data.BindParams{})
	require.NoError(t, err)
	deps := c.Binding().Dependents()
	require.Len(t, deps, 3)
	assert.Equal(t, constants.BindingList, deps[0].Kind())
	assert.Equal(t, constants.BindingProperty, deps[1].Kind())
	assert.True(t, deps[2].IsRelative())
	assert.Len(t, deps[2].Dependents(), 1)

	effects := []data.SideEffect{{PropertyPath: "OrderNo"}}
	require.NoError(t, c.RequestSideEffects(context.Background(), effects))
	assert.Equal(t, []SideEffectRequest{{Path: c.Path(), Effects: effects}}, m.SideEffectRequests())
}

func TestCreate(t *testing.T) {
	m := New().AddEntitySet("Orders", path.Key{Name: "OrderID"})
	c, err := m.Create(context.Background(), "Orders", Record{"OrderID": 7})
	require.NoError(t, err)
	assert.Equal(t, "/Orders(7)", c.Path())

	_, err = m.Create(context.Background(), "Orders", Record{})
	assert.Error(t, err)
	_, err = m.Create(context.Background(), "Customers", Record{"ID": 1})
	assert.Error(t, err)
}

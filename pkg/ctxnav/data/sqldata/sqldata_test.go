package sqldata

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/constants"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/data"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ordersSet = metadata.EntitySet{
	Name: "Orders",
	Keys: []string{"OrderID", "IsActiveEntity"},
	Properties: map[string]string{
		"OrderID":        metadata.TypeInt32,
		"IsActiveEntity": metadata.TypeBoolean,
		"OrderNo":        metadata.TypeString,
		"Amount":         metadata.TypeDecimal,
	},
}

func openTestModel(t *testing.T) *Model {
	t.Helper()
	m, err := Open(filepath.Join(t.TempDir(), "data.db"), ordersSet)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })

	ctx := context.Background()
	rows := []map[string]any{
		{"OrderID": 1, "IsActiveEntity": true, "OrderNo": "A1", "Amount": 10.5},
		{"OrderID": 1, "IsActiveEntity": false, "OrderNo": "A1", "Amount": 12.0},
		{"OrderID": 2, "IsActiveEntity": true, "OrderNo": "A2", "Amount": 3.0},
	}
	for _, row := range rows {
		_, err := m.Insert(ctx, "Orders", row)
		require.NoError(t, err)
	}
	return m
}

func TestBindContext(t *testing.T) {
	m := openTestModel(t)

	c, err := m.BindContext(context.Background(), "Orders(OrderID=2,IsActiveEntity=true)", data.BindParams{})
	require.NoError(t, err)
	assert.Equal(t, "/Orders(OrderID=2,IsActiveEntity=true)", c.Path())
	assert.Equal(t, c.Path(), c.CanonicalPath())

	no, ok := c.Object("OrderNo")
	require.True(t, ok)
	assert.Equal(t, "A2", no)
	active, _ := c.Object("IsActiveEntity")
	assert.Equal(t, true, active)
	assert.Equal(t, constants.BindingContext, c.Binding().Kind())

	_, err = m.BindContext(context.Background(), "Orders(OrderID=3,IsActiveEntity=true)", data.BindParams{})
	assert.ErrorIs(t, err, data.ErrNoSuchEntity)
	_, err = m.BindContext(context.Background(), "Customers(1)", data.BindParams{})
	assert.ErrorIs(t, err, data.ErrNoSuchEntity)
}

func TestBindListDraftFilter(t *testing.T) {
	m := openTestModel(t)
	draftFilter := func(orderNo string) *data.Filter {
		return data.All(
			data.Eq("OrderNo", orderNo),
			data.Any(
				data.Eq(constants.IsActiveEntityProperty, false),
				data.Eq(constants.SiblingActiveProperty, nil),
			),
		)
	}

	rows, err := m.BindList(context.Background(), "/Orders", draftFilter("A1"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "/Orders(OrderID=1,IsActiveEntity=false)", rows[0].Path())
	assert.True(t, data.IsList(rows[0].Binding()))
	assert.Equal(t, "/Orders", rows[0].Binding().HeaderContext().Path())

	rows, err = m.BindList(context.Background(), "/Orders", draftFilter("A2"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "/Orders(OrderID=2,IsActiveEntity=true)", rows[0].Path())

	rows, err = m.BindList(context.Background(), "/Orders", nil)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestBindListRejectsUnknownPaths(t *testing.T) {
	m := openTestModel(t)
	_, err := m.BindList(context.Background(), "/Orders", data.Eq("Customer/Name", "x"))
	assert.ErrorIs(t, err, ErrUnsupportedFilter)
	_, err = m.BindList(context.Background(), "/Orders", data.Eq("Missing", "x"))
	assert.ErrorIs(t, err, ErrUnsupportedFilter)
}

func TestRequestSideEffectsRereadsColumns(t *testing.T) {
	m := openTestModel(t)
	ctx := context.Background()
	c, err := m.BindContext(ctx, "/Orders(OrderID=2,IsActiveEntity=true)", data.BindParams{})
	require.NoError(t, err)

	_, err = m.db.Exec(`UPDATE "Orders" SET "Amount" = 99.5 WHERE "OrderID" = 2`)
	require.NoError(t, err)

	amount, _ := c.Object("Amount")
	assert.Equal(t, 3.0, amount)

	require.NoError(t, c.RequestSideEffects(ctx, []data.SideEffect{
		{PropertyPath: "Amount"},
		{NavigationPropertyPath: "_Items"},
	}))
	amount, _ = c.Object("Amount")
	assert.Equal(t, 99.5, amount)
}

func TestPendingChanges(t *testing.T) {
	m := openTestModel(t)
	c, err := m.BindContext(context.Background(), "/Orders(OrderID=2,IsActiveEntity=true)", data.BindParams{})
	require.NoError(t, err)

	c.(*Context).SetProperty("OrderNo", "B2")
	assert.True(t, c.HasPendingChanges())
	c.Binding().ResetChanges()
	assert.False(t, c.HasPendingChanges())
}

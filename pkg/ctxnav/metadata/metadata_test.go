package metadata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/constants"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/path"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var orders = EntitySet{
	Keys:         []string{"OrderID", "IsActiveEntity"},
	Properties:   map[string]string{"OrderID": TypeInt32, "OrderNo": TypeString, "IsActiveEntity": TypeBoolean},
	SemanticKeys: []string{"OrderNo"},
	Draft:        "DraftRoot",
	MessagesPath: "SAP_Messages",
}

func TestStaticProvider(t *testing.T) {
	p := NewStaticProvider(map[string]EntitySet{"Orders": orders})

	et, err := p.RequestEntityType(context.Background(), "Orders")
	require.NoError(t, err)
	assert.Equal(t, "Orders", et.Name)
	assert.Equal(t, []string{"OrderID", "IsActiveEntity"}, et.Keys)
	assert.True(t, et.IsString("OrderNo"))
	assert.False(t, et.IsString("OrderID"))
	assert.Equal(t, []path.Key{{Name: "OrderNo", String: true}}, et.PathKeys([]string{"OrderNo"}))

	ann, err := p.RequestAnnotations(context.Background(), "Orders")
	require.NoError(t, err)
	assert.Equal(t, []string{"OrderNo"}, ann.SemanticKeys)
	assert.Equal(t, constants.DraftRoot, ann.Draft)
	assert.Equal(t, "SAP_Messages", ann.MessagesPath)

	_, err = p.RequestEntityType(context.Background(), "Missing")
	assert.ErrorIs(t, err, ErrUnknownEntitySet)

	assert.Equal(t, []string{"Orders"}, p.Names())
}

func TestHTTPProviderCaches(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/Orders" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(orders)
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL+"/", WithHTTPClient(srv.Client()))

	et, err := p.RequestEntityType(context.Background(), "Orders")
	require.NoError(t, err)
	assert.Equal(t, "Orders", et.Name)

	ann, err := p.RequestAnnotations(context.Background(), "Orders")
	require.NoError(t, err)
	assert.Equal(t, constants.DraftRoot, ann.Draft)
	assert.Equal(t, int32(1), hits.Load())

	p.Invalidate("Orders")
	_, err = p.RequestEntityType(context.Background(), "Orders")
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())

	_, err = p.RequestEntityType(context.Background(), "Customers")
	assert.ErrorIs(t, err, ErrUnknownEntitySet)
}

func TestHTTPProviderServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewHTTPProvider(srv.URL).RequestAnnotations(context.Background(), "Orders")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnknownEntitySet)
}

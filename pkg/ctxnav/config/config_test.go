package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTOML(t *testing.T) {
	c, err := Load("testdata/manifest.toml")
	require.NoError(t, err)

	assert.True(t, c.App.ExitOnNavigateBackToRoot)
	assert.Equal(t, "de", c.App.Language)
	assert.Len(t, c.Routes, 3)
	assert.Equal(t, "Orders", c.EntitySet())

	detail := c.Targets["OrderDetail"]
	require.NotNil(t, detail.Pattern)
	assert.Equal(t, "Orders({key})", *detail.Pattern)
	assert.Nil(t, c.Targets["ItemDetail"].Pattern)

	assert.True(t, c.Layout.Enabled)
	assert.Equal(t, 5*time.Minute, c.Metadata.TTL())

	orders := c.EntitySets["Orders"]
	assert.Equal(t, []string{"OrderNo"}, orders.SemanticKeys)
	assert.Equal(t, "Edm.String", orders.Properties["OrderNo"])

	assert.Equal(t, "{../OrderID}", c.Navigation["toItems"].Parameters["key"])
	assert.Equal(t, "Customer", c.Outbounds["customer"].SemanticObject)

	r, ok := c.Route("item")
	require.True(t, ok)
	assert.Equal(t, []string{"OrdersList", "OrderDetail", "ItemDetail"}, r.Targets)
}

func TestLoadYAML(t *testing.T) {
	c, err := Load("testdata/manifest.yaml")
	require.NoError(t, err)

	assert.Equal(t, "Orders", c.EntitySet())
	assert.Equal(t, "/tmp/ctxnav-history.db", c.History.Path)
	assert.Equal(t, time.Duration(0), c.Metadata.TTL())
}

func TestParseRejectsUnknownTarget(t *testing.T) {
	raw := `
[[routes]]
name = "main"
pattern = ""
targets = ["Missing"]
`
	_, err := Parse([]byte(raw), "toml")
	assert.ErrorContains(t, err, "unknown target")
}

func TestParseRejectsInvalidFields(t *testing.T) {
	raw := `
routes:
  - pattern: ""
    targets: [Main]
targets:
  Main:
    view: main
`
	_, err := Parse([]byte(raw), "yaml")
	assert.Error(t, err)

	raw = `
[log]
level = "loud"
`
	_, err = Parse([]byte(raw), "toml")
	assert.Error(t, err)
}

func TestParseUnsupportedFormat(t *testing.T) {
	_, err := Parse([]byte("{}"), "json")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestEntitySetExplicit(t *testing.T) {
	c := &Config{App: App{EntitySet: "Customers"}}
	assert.Equal(t, "Customers", c.EntitySet())

	c = &Config{Routes: []Route{{Name: "a", Pattern: "A"}, {Name: "b", Pattern: "B"}}}
	assert.Equal(t, "", c.EntitySet())
}

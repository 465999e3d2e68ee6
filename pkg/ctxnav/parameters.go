package ctxnav

import (
	"context"
	"fmt"
	"strings"

	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/config"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/data"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/internal"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/path"
)

const parentPrefix = "../"

// prepareParameters computes the route parameters of a named navigation from
// the source context. Each parameter is an expression such as "{OrderID}",
// "{../OrderID}" or "{Year}-{Number}". It returns nil when a parameter cannot
// be computed.
func (n *Navigator) prepareParameters(ctx context.Context, nav config.NavigationTarget, source data.Context) map[string]string {
	params := make(map[string]string, len(nav.Parameters))
	for name, expr := range nav.Parameters {
		value, err := n.evaluate(ctx, expr, source)
		if err != nil {
			internal.GetInternalLogger().Error(
				fmt.Sprintf("Could not parse the parameters for the navigation to route %s", nav.Route),
				"parameter", name,
				"error", err,
			)
			return nil
		}
		params[name] = value
	}
	return params
}

func (n *Navigator) evaluate(ctx context.Context, expr string, source data.Context) (string, error) {
	segments, err := path.Tokenize(expr)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, s := range segments {
		if !s.IsPlaceholder() {
			b.WriteString(s.Literal)
			continue
		}
		value, err := n.resolveProperty(ctx, s.Placeholder, source)
		if err != nil {
			return "", err
		}
		b.WriteString(fmt.Sprint(value))
	}
	return b.String(), nil
}

// resolveProperty reads property from source. Each leading "../" reads it
// from the parent record instead.
func (n *Navigator) resolveProperty(ctx context.Context, property string, source data.Context) (any, error) {
	if source == nil {
		return nil, fmt.Errorf("no context to read %q from", property)
	}

	c := source
	up := 0
	for strings.HasPrefix(property, parentPrefix) {
		property = strings.TrimPrefix(property, parentPrefix)
		up++
	}
	if up > 0 {
		p := source.Path()
		for i := 0; i < up; i++ {
			p = path.ParentPath(p)
		}
		if p == "" {
			return nil, fmt.Errorf("%q walks above the root of %s", property, source.Path())
		}
		parent, err := n.model.BindContext(ctx, p, data.BindParams{})
		if err != nil {
			return nil, fmt.Errorf("read parent %s: %w", p, err)
		}
		c = parent
	}

	value, ok := c.Object(property)
	if !ok || value == nil {
		return nil, fmt.Errorf("%s has no value for %q", c.Path(), property)
	}
	return value, nil
}

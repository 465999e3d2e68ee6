package sqldata

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/constants"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/data"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/path"
)

// Context is a row read from a Model.
type Context struct {
	model   *Model
	table   *table
	path    string
	binding *binding

	mu      sync.Mutex
	values  map[string]any
	changes map[string]any
}

var _ data.Context = (*Context)(nil)

func (c *Context) Path() string {
	return c.path
}

func (c *Context) CanonicalPath() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.values == nil {
		return c.path
	}
	p, ok := path.BuildPath(c.table.keys, c.table.name, path.Values(c.values))
	if !ok {
		return c.path
	}
	return "/" + p
}

func (c *Context) Object(property string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.changes[property]; ok {
		return v, true
	}
	v, ok := c.values[property]
	return v, ok
}

func (c *Context) Binding() data.Binding {
	if c.binding == nil {
		return nil
	}
	return c.binding
}

func (c *Context) HasPendingChanges() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.changes) > 0
}

// IsTransient is always false: rows of a Model are stored before they are read.
func (c *Context) IsTransient() bool {
	return false
}

// SetProperty changes a property without writing it.
func (c *Context) SetProperty(name string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.changes == nil {
		c.changes = make(map[string]any)
	}
	c.changes[name] = value
}

// RequestSideEffects re-reads the requested property columns of the row.
// Navigation paths address other tables and are not re-read.
func (c *Context) RequestSideEffects(ctx context.Context, effects []data.SideEffect) error {
	var cols []string
	for _, e := range effects {
		if e.PropertyPath != "" && c.table.has(e.PropertyPath) {
			cols = append(cols, e.PropertyPath)
		}
	}
	if len(cols) == 0 || c.values == nil {
		return nil
	}

	c.mu.Lock()
	var (
		conds []string
		args  []any
	)
	for _, key := range c.table.keys {
		conds = append(conds, quote(key.Name)+" = ?")
		args = append(args, toSQL(c.values[key.Name]))
	}
	c.mu.Unlock()

	quoted := make([]string, len(cols))
	for i, col := range cols {
		quoted[i] = quote(col)
	}
	stmt := fmt.Sprintf("SELECT %s FROM %s WHERE %s",
		strings.Join(quoted, ", "), quote(c.table.name), strings.Join(conds, " AND "))

	raw := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := c.model.db.QueryRowContext(ctx, stmt, args...).Scan(ptrs...); err != nil {
		return fmt.Errorf("sqldata: refresh %s: %w", c.path, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i, col := range cols {
		c.values[col] = fromSQL(raw[i], c.table.types[col])
	}
	return nil
}

func (c *Context) resetChanges() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.changes = nil
}

type binding struct {
	kind     constants.BindingKind
	path     string
	header   *Context
	contexts []*Context
}

func (b *binding) Kind() constants.BindingKind {
	return b.kind
}

func (b *binding) Path() string {
	return b.path
}

func (b *binding) IsRelative() bool {
	return false
}

func (b *binding) Dependents() []data.Binding {
	return nil
}

func (b *binding) HeaderContext() data.Context {
	if b.header == nil {
		return nil
	}
	return b.header
}

func (b *binding) HasTransientContexts() bool {
	return false
}

func (b *binding) ResetChanges() {
	for _, c := range b.contexts {
		c.resetChanges()
	}
}

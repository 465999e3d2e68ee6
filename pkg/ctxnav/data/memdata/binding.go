package memdata

import (
	"context"
	"sync"

	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/constants"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/data"
)

// Context is a record of a Model.
type Context struct {
	model     *Model
	set       string
	path      string
	rec       Record
	binding   *Binding
	transient bool

	mu      sync.Mutex
	changes Record
}

var _ data.Context = (*Context)(nil)

func (c *Context) Path() string {
	return c.path
}

// CanonicalPath addresses the record by its entity set.
func (c *Context) CanonicalPath() string {
	if c.rec == nil {
		return c.path
	}
	c.model.mu.Lock()
	defer c.model.mu.Unlock()
	if es, ok := c.model.sets[c.set]; ok {
		if p, ok := buildCanonical(es, c.set, c.rec); ok {
			return p
		}
	}
	return c.path
}

// Object returns a property value, pending changes first.
func (c *Context) Object(property string) (any, bool) {
	c.mu.Lock()
	if v, ok := c.changes[property]; ok {
		c.mu.Unlock()
		return v, true
	}
	c.mu.Unlock()

	if c.rec == nil {
		return nil, false
	}
	c.model.mu.Lock()
	defer c.model.mu.Unlock()
	es, ok := c.model.sets[c.set]
	if !ok {
		return nil, false
	}
	return c.model.resolver(es, c.rec)(property)
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

func (c *Context) IsTransient() bool {
	return c.transient
}

// SetProperty changes a property without saving it.
func (c *Context) SetProperty(name string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.changes == nil {
		c.changes = make(Record)
	}
	c.changes[name] = value
}

// RequestSideEffects records the request with the model.
func (c *Context) RequestSideEffects(ctx context.Context, effects []data.SideEffect) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.model.mu.Lock()
	defer c.model.mu.Unlock()
	c.model.effects = append(c.model.effects, SideEffectRequest{
		Path:    c.path,
		Effects: append([]data.SideEffect(nil), effects...),
	})
	return nil
}

func (c *Context) resetChanges() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.changes = nil
}

// Binding is a context, list or property binding of a Model.
type Binding struct {
	kind       constants.BindingKind
	path       string
	relative   bool
	dependents []*Binding
	header     *Context
	contexts   []*Context
}

var _ data.Binding = (*Binding)(nil)

// NewContextBinding creates a context binding with dependent bindings.
func NewContextBinding(p string, dependents ...*Binding) *Binding {
	return &Binding{kind: constants.BindingContext, path: p, relative: isRelative(p), dependents: dependents}
}

// NewListBinding creates a list binding.
func NewListBinding(p string, relative bool) *Binding {
	return &Binding{kind: constants.BindingList, path: p, relative: relative}
}

// NewPropertyBinding creates a relative property binding.
func NewPropertyBinding(p string) *Binding {
	return &Binding{kind: constants.BindingProperty, path: p, relative: true}
}

func (b *Binding) Kind() constants.BindingKind {
	return b.kind
}

func (b *Binding) Path() string {
	return b.path
}

func (b *Binding) IsRelative() bool {
	return b.relative
}

func (b *Binding) Dependents() []data.Binding {
	if len(b.dependents) == 0 {
		return nil
	}
	result := make([]data.Binding, len(b.dependents))
	for i, d := range b.dependents {
		result[i] = d
	}
	return result
}

func (b *Binding) HeaderContext() data.Context {
	if b.header == nil {
		return nil
	}
	return b.header
}

// Contexts returns the contexts owned by the binding.
func (b *Binding) Contexts() []*Context {
	return append([]*Context(nil), b.contexts...)
}

func (b *Binding) HasTransientContexts() bool {
	for _, c := range b.contexts {
		if c.transient {
			return true
		}
	}
	return false
}

// CreateTransient adds an unsaved row to a list binding.
func (b *Binding) CreateTransient(rec Record) *Context {
	var m *Model
	set := ""
	if b.header != nil {
		m, set = b.header.model, b.header.set
	}
	c := &Context{model: m, set: set, path: b.path + "($uid)", binding: b, transient: true, changes: rec}
	b.contexts = append(b.contexts, c)
	return c
}

// ResetChanges discards the pending changes of every context of the binding.
func (b *Binding) ResetChanges() {
	for _, c := range b.contexts {
		c.resetChanges()
	}
}

func isRelative(p string) bool {
	return p != "" && p[0] != '/'
}

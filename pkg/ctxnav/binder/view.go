package binder

import (
	"sync"

	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/data"
)

// View displays one page and holds the context it is bound to.
type View interface {
	BindingContext() data.Context
	SetBindingContext(data.Context)
}

// Options are passed to OnBeforeBinding.
type Options struct {
	// Editable asks the page to render in edit mode right away.
	Editable bool
	// ListBinding is the collection binding the context was picked from.
	ListBinding data.Binding
	// PersistScrollPosition keeps the page's scroll position.
	PersistScrollPosition bool
}

// BeforeBinder is implemented by views that prepare for a new context.
type BeforeBinder interface {
	OnBeforeBinding(c data.Context, opts Options)
}

// AfterBinder is implemented by views that react to a new context.
type AfterBinder interface {
	OnAfterBinding(c data.Context)
}

// DeferredCreator is implemented by views that create their own context for
// a pending-creation path such as "/Orders(...)".
type DeferredCreator interface {
	CreateDeferredContext(path string)
}

// EntitySetView is implemented by views displaying a known entity set. Their
// hidden bindings select the entity set's messages path.
type EntitySetView interface {
	EntitySet() string
}

// Page is a minimal View. Embed it to get BindingContext and SetBindingContext.
type Page struct {
	Name string

	mu  sync.Mutex
	ctx data.Context
}

// NewPage creates an unbound Page.
func NewPage(name string) *Page {
	return &Page{Name: name}
}

func (p *Page) BindingContext() data.Context {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ctx
}

func (p *Page) SetBindingContext(c data.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ctx = c
}

func (p *Page) String() string {
	return p.Name
}

// hooks are the optional view capabilities, resolved once per view.
type hooks struct {
	before    func(data.Context, Options)
	after     func(data.Context)
	create    func(string)
	entitySet string
}

func resolveHooks(view View) hooks {
	h := hooks{
		before: func(data.Context, Options) {},
		after:  func(data.Context) {},
	}
	if v, ok := view.(BeforeBinder); ok {
		h.before = v.OnBeforeBinding
	}
	if v, ok := view.(AfterBinder); ok {
		h.after = v.OnAfterBinding
	}
	if v, ok := view.(DeferredCreator); ok {
		h.create = v.CreateDeferredContext
	}
	if v, ok := view.(EntitySetView); ok {
		h.entitySet = v.EntitySet()
	}
	return h
}

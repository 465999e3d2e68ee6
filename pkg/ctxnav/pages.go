package ctxnav

import (
	"sync"

	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/binder"
)

// MessagePage is the generic error page. TechnicalMessage and
// TechnicalDetails are shown on demand only; Description is the text of the
// link revealing them when a technical message is set.
type MessagePage struct {
	Title            string
	Text             string
	Description      string
	TechnicalMessage string
	TechnicalDetails string
}

// HasTechnicalMessage reports whether the page offers technical details on demand.
func (p MessagePage) HasTechnicalMessage() bool {
	return p.TechnicalMessage != ""
}

// Container displays pages in a fullscreen layout.
type Container interface {
	// CurrentPage returns the displayed page, or nil.
	CurrentPage() binder.View
	// To displays page.
	To(page binder.View)
	// ShowMessagePage replaces the displayed page with an error page.
	ShowMessagePage(page MessagePage)
}

// Warning is a message box shown to the user.
type Warning struct {
	Title   string
	Message string
	Details string
}

// Notifier shows warnings to the user.
type Notifier interface {
	Warn(w Warning)
}

// NotifierFunc adapts a function to a Notifier.
type NotifierFunc func(w Warning)

func (f NotifierFunc) Warn(w Warning) {
	f(w)
}

// PageContainer is a Container keeping the displayed page in memory.
type PageContainer struct {
	mu      sync.Mutex
	current binder.View
	message *MessagePage
}

// NewPageContainer creates a PageContainer displaying page.
func NewPageContainer(page binder.View) *PageContainer {
	return &PageContainer{current: page}
}

func (c *PageContainer) To(page binder.View) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = page
	c.message = nil
}

func (c *PageContainer) CurrentPage() binder.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *PageContainer) ShowMessagePage(page MessagePage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.message = &page
}

// MessagePage returns the displayed error page.
func (c *PageContainer) MessagePage() (MessagePage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.message == nil {
		return MessagePage{}, false
	}
	return *c.message, true
}

package ctxnav

import (
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/data"
)

// Target is what a navigation goes to: an existing record (Immediate), a
// record the target page creates itself (Deferred) or a record whose creation
// is under way (Async).
type Target interface {
	isTarget()
}

// Immediate navigates to an existing record.
type Immediate struct {
	Context data.Context
}

// Deferred navigates to a pending-creation page for the collection Binding.
// The target page creates the record.
type Deferred struct {
	Binding data.Binding
}

// Async navigates to a pending-creation page for the collection Binding and
// then into the record Pending resolves to.
type Async struct {
	Binding data.Binding
	Pending *data.Future
}

func (Immediate) isTarget() {}
func (Deferred) isTarget()  {}
func (Async) isTarget()     {}

// collectionPath returns the path used to address the records of b: the
// header context path of a relative binding, its own path otherwise.
func collectionPath(b data.Binding) string {
	if b.IsRelative() {
		if header := b.HeaderContext(); header != nil {
			return header.Path()
		}
	}
	return b.Path()
}

// sourceContext is the context a navigation starts from, used to resolve
// navigation parameters.
func sourceContext(t Target) data.Context {
	switch t := t.(type) {
	case Immediate:
		return t.Context
	case Deferred:
		return t.Binding.HeaderContext()
	case Async:
		return t.Binding.HeaderContext()
	}
	return nil
}

func validateTarget(t Target) error {
	switch t := t.(type) {
	case nil:
		return newValidationError("target", "no target given")
	case Immediate:
		if t.Context == nil {
			return newValidationError("target", "immediate target without a context")
		}
		if b := t.Context.Binding(); data.IsList(b) && b.HeaderContext() == t.Context {
			return ErrTransientNavigationBlocked
		}
	case Deferred:
		if !data.IsList(t.Binding) {
			return newValidationError("target", "deferred target needs a list binding")
		}
	case Async:
		if !data.IsList(t.Binding) {
			return newValidationError("target", "async target needs a list binding")
		}
		if t.Pending == nil {
			return newValidationError("target", "async target without a pending context")
		}
	}
	return nil
}

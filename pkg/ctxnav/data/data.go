// Package data defines the contract between the navigation engine and the
// data access layer: contexts addressing single records, bindings owning
// them, list queries with filter trees, and targeted side-effect refreshes.
//
// Implementations live in the memdata (in-memory) and sqldata (SQLite)
// subpackages; applications may provide their own.
package data

import (
	"context"
	"errors"

	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/constants"
)

// ErrNoSuchEntity is returned by a Model when a path addresses no record.
var ErrNoSuchEntity = errors.New("data: no such entity")

// Context is a handle to a single data record.
type Context interface {
	// Path is the absolute path of the record, e.g. "/Orders(42)".
	Path() string
	// CanonicalPath is the path addressing the record directly by its entity set.
	CanonicalPath() string
	// Object returns the value of a property relative to the record.
	Object(property string) (any, bool)
	// Binding returns the binding owning the context, or nil.
	Binding() Binding
	HasPendingChanges() bool
	// IsTransient reports whether the record is being created and not yet saved.
	IsTransient() bool
	// RequestSideEffects re-reads exactly the given paths of the record.
	RequestSideEffects(ctx context.Context, effects []SideEffect) error
}

// Binding is a context, list or property binding.
type Binding interface {
	Kind() constants.BindingKind
	Path() string
	// IsRelative reports whether Path is relative to a parent context.
	IsRelative() bool
	// Dependents returns the bindings resolved relative to this binding.
	// A nil result means the binding has no dependent bindings at all.
	Dependents() []Binding
	// HeaderContext returns the context addressing a list binding as a whole.
	HeaderContext() Context
	// HasTransientContexts reports whether a list binding holds unsaved rows.
	HasTransientContexts() bool
	ResetChanges()
}

// BindParams configures a hidden context binding.
type BindParams struct {
	GroupID                 string
	PatchWithoutSideEffects bool
	Select                  []string
}

// Model is the data access layer used by the engine.
type Model interface {
	// BindContext creates a context binding for path and fetches its record.
	BindContext(ctx context.Context, path string, params BindParams) (Context, error)
	// BindList queries the records of an entity set path matching filter.
	BindList(ctx context.Context, path string, filter *Filter) ([]Context, error)
}

// SideEffect names one path to re-read during a side-effects refresh.
// Exactly one of the fields is set.
type SideEffect struct {
	NavigationPropertyPath string `json:"$NavigationPropertyPath,omitempty"`
	PropertyPath           string `json:"$PropertyPath,omitempty"`
}

// IsList reports whether the binding is a list binding.
func IsList(b Binding) bool {
	return b != nil && b.Kind() == constants.BindingList
}

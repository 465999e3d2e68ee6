package ctxnav

import (
	"errors"
	"fmt"

	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/binder"
)

// Sentinel errors for common conditions.
var (
	// ErrNotFound indicates that no record matches the semantic keys of a hash.
	// Binding failures with this error are shown on the error page.
	ErrNotFound = binder.ErrNotFound

	// ErrTransientNavigationBlocked indicates a navigation to a collection
	// without an async or deferred target.
	ErrTransientNavigationBlocked = errors.New("ctxnav: navigation to a collection needs an async or deferred target")

	// ErrNavigationDisabled indicates a navigation out of a list that still
	// holds unsaved rows.
	ErrNavigationDisabled = errors.New("ctxnav: navigation disabled while the list holds unsaved rows")

	// ErrNoContainer indicates a route target without a view, or an error page
	// without a container to show it in.
	ErrNoContainer = errors.New("ctxnav: no container found")
)

// ValidationError reports malformed navigation parameters. These are
// programmer errors and are returned to the caller.
type ValidationError struct {
	Field  string // Parameter that failed validation
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("ctxnav: invalid %s: %s", e.Field, e.Reason)
}

// MetadataError reports entity set metadata that could not be loaded while
// routing was initialized. It is fatal to the routing session.
type MetadataError struct {
	EntitySet string
	Err       error
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("ctxnav: metadata of %q not loaded: %v", e.EntitySet, e.Err)
}

func (e *MetadataError) Unwrap() error {
	return e.Err
}

// InfrastructureError represents a failure of a collaborator of the engine
// itself (history store, router, event bus) rather than of the data it shows.
type InfrastructureError struct {
	Op  string // Operation that failed (e.g., "navigate", "open_history")
	Err error  // Underlying error
}

func (e *InfrastructureError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ctxnav: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("ctxnav: %s", e.Op)
}

func (e *InfrastructureError) Unwrap() error {
	return e.Err
}

// NewInfrastructureError creates a new infrastructure error.
func NewInfrastructureError(op string, err error) *InfrastructureError {
	return &InfrastructureError{Op: op, Err: err}
}

func newValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsMetadataError checks if an error is a metadata error.
func IsMetadataError(err error) bool {
	var m *MetadataError
	return errors.As(err, &m)
}

// IsInfrastructureError checks if an error is an infrastructure error.
func IsInfrastructureError(err error) bool {
	var infraErr *InfrastructureError
	return errors.As(err, &infraErr)
}

// IsNotFound checks if an error indicates a failed semantic-key lookup.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsTransientNavigationBlocked checks if an error indicates a blocked navigation to a collection.
func IsTransientNavigationBlocked(err error) bool {
	return errors.Is(err, ErrTransientNavigationBlocked)
}

// IsNavigationDisabled checks if an error indicates a navigation out of a list with unsaved rows.
func IsNavigationDisabled(err error) bool {
	return errors.Is(err, ErrNavigationDisabled)
}

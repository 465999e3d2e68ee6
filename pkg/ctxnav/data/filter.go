package data

import (
	"fmt"
	"strings"
)

// Operator is a comparison operator of a filter leaf.
type Operator string

const (
	OpEQ Operator = "eq"
	OpNE Operator = "ne"
)

// Filter is a node of a filter tree. A leaf compares Path with Value; an
// inner node combines Filters with "and" (And true) or "or".
type Filter struct {
	Path  string
	Op    Operator
	Value any

	Filters []*Filter
	And     bool
}

// Eq creates a leaf comparing path with value.
func Eq(path string, value any) *Filter {
	return &Filter{Path: path, Op: OpEQ, Value: value}
}

// All combines filters with "and".
func All(filters ...*Filter) *Filter {
	return &Filter{Filters: filters, And: true}
}

// Any combines filters with "or".
func Any(filters ...*Filter) *Filter {
	return &Filter{Filters: filters}
}

// IsLeaf reports whether f is a comparison.
func (f *Filter) IsLeaf() bool {
	return len(f.Filters) == 0 && f.Path != ""
}

// String renders the filter in OData $filter syntax, e.g.
// "OrderNo eq 'A1' and (IsActiveEntity eq false or SiblingEntity/IsActiveEntity eq null)".
func (f *Filter) String() string {
	return f.render(true)
}

func (f *Filter) render(top bool) string {
	if f == nil {
		return ""
	}
	if f.IsLeaf() {
		return fmt.Sprintf("%s %s %s", f.Path, f.Op, Literal(f.Value))
	}

	parts := make([]string, 0, len(f.Filters))
	for _, child := range f.Filters {
		parts = append(parts, child.render(false))
	}
	joiner := " or "
	if f.And {
		joiner = " and "
	}
	s := strings.Join(parts, joiner)
	if !top && len(parts) > 1 {
		return "(" + s + ")"
	}
	return s
}

// Literal renders a filter value as an OData literal.
func Literal(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'"
	default:
		return fmt.Sprint(v)
	}
}

// Match evaluates the filter against a record. Resolve returns the value of
// a (possibly navigation) path for the record; a missing value compares as nil.
func (f *Filter) Match(resolve func(path string) (any, bool)) bool {
	if f == nil {
		return true
	}
	if f.IsLeaf() {
		actual, ok := resolve(f.Path)
		if !ok {
			actual = nil
		}
		equal := Equal(actual, f.Value)
		if f.Op == OpNE {
			return !equal
		}
		return equal
	}

	for _, child := range f.Filters {
		matched := child.Match(resolve)
		if f.And && !matched {
			return false
		}
		if !f.And && matched {
			return true
		}
	}
	return f.And
}

// Equal compares two record values loosely, so that a key value parsed from a
// hash ("42") matches a stored number (42).
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

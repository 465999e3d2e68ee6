// Package path builds and parses the entity-addressing segments used in hash
// fragments, such as "Orders(42)", "Orders('A1')" or "Items(OrderID=42,ItemNo=10)".
//
// It has no dependencies on the rest of the engine: values come from a KeySource,
// which can wrap a live data context or the startup parameters of an application.
package path

import (
	"fmt"
	"strings"
)

// Key is a key property together with whether its declared type is string-like.
// String keys are emitted in single quotes, all other values verbatim.
type Key struct {
	Name   string
	String bool
}

// KeySource supplies the values used to build a path.
type KeySource interface {
	KeyValue(name string) (any, bool)
}

// ObjectReader is satisfied by data contexts.
type ObjectReader interface {
	Object(property string) (any, bool)
}

// FromObject adapts a data context to a KeySource.
func FromObject(o ObjectReader) KeySource {
	return objectSource{o}
}

type objectSource struct {
	o ObjectReader
}

func (s objectSource) KeyValue(name string) (any, bool) {
	return s.o.Object(name)
}

// StartupParameters are the multi-valued parameters an application is started with.
// Only the first value of each parameter is used as a key value.
type StartupParameters map[string][]string

func (p StartupParameters) KeyValue(name string) (any, bool) {
	values, ok := p[name]
	if !ok || len(values) == 0 {
		return nil, false
	}
	return values[0], true
}

// First returns the first value of a parameter, or "".
func (p StartupParameters) First(name string) string {
	if v, ok := p.KeyValue(name); ok {
		return v.(string)
	}
	return ""
}

// Values is a plain map used as a KeySource.
type Values map[string]any

func (v Values) KeyValue(name string) (any, bool) {
	value, ok := v[name]
	return value, ok
}

// BuildPath returns "EntitySet(value)" for a single key and
// "EntitySet(k1=v1,k2=v2)" for composite keys, in the keys' declared order.
//
// The second result is false when a key has no value in source. This is not
// an error: callers fall back to technical-key addressing.
func BuildPath(keys []Key, entitySet string, source KeySource) (string, bool) {
	if len(keys) == 0 || source == nil {
		return "", false
	}

	var b strings.Builder
	b.WriteString(entitySet)
	b.WriteByte('(')

	if len(keys) == 1 {
		value, ok := lookup(source, keys[0].Name)
		if !ok {
			return "", false
		}
		b.WriteString(FormatValue(value, keys[0].String))
	} else {
		for i, key := range keys {
			value, ok := lookup(source, key.Name)
			if !ok {
				return "", false
			}
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(key.Name)
			b.WriteByte('=')
			b.WriteString(FormatValue(value, key.String))
		}
	}

	b.WriteByte(')')
	return b.String(), true
}

func lookup(source KeySource, name string) (any, bool) {
	value, ok := source.KeyValue(name)
	if !ok || value == nil {
		return nil, false
	}
	if s, isString := value.(string); isString && s == "" {
		return nil, false
	}
	return value, true
}

// FormatValue renders a key value for a key predicate. String values are
// quoted, embedded quotes are doubled.
func FormatValue(value any, quoted bool) string {
	s := fmt.Sprint(value)
	if !quoted {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// KeyValue is one entry of a parsed key predicate. Name is empty for the
// single-value form "Orders(42)".
type KeyValue struct {
	Name   string
	Value  string
	Quoted bool
}

// ParseKeyPredicate splits "EntitySet(k1=v1,k2='v2')" into the entity set name
// and its key values. Quotes are removed from quoted values.
func ParseKeyPredicate(segment string) (string, []KeyValue, error) {
	segment = StripLeadingSlashes(segment)
	open := strings.Index(segment, "(")
	if open < 0 {
		return segment, nil, nil
	}
	if !strings.HasSuffix(segment, ")") {
		return "", nil, fmt.Errorf("path: unterminated key predicate in %q", segment)
	}

	entitySet := segment[:open]
	inner := segment[open+1 : len(segment)-1]
	if inner == "" || inner == "..." {
		return entitySet, nil, nil
	}

	parts := splitOutsideQuotes(inner)
	values := make([]KeyValue, 0, len(parts))
	for _, part := range parts {
		kv := KeyValue{Value: part}
		if eq := indexOutsideQuotes(part, '='); eq >= 0 {
			kv.Name = part[:eq]
			kv.Value = part[eq+1:]
		}
		kv.Value, kv.Quoted = unquote(kv.Value)
		values = append(values, kv)
	}
	return entitySet, values, nil
}

func unquote(s string) (string, bool) {
	if len(s) >= 2 && strings.HasPrefix(s, "'") && strings.HasSuffix(s, "'") {
		return strings.ReplaceAll(s[1:len(s)-1], "''", "'"), true
	}
	return s, false
}

func splitOutsideQuotes(s string) []string {
	var parts []string
	inQuote := false
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\'':
			inQuote = !inQuote
		case ',':
			if !inQuote {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

func indexOutsideQuotes(s string, c byte) int {
	inQuote := false
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '\'':
			inQuote = !inQuote
		case s[i] == c && !inQuote:
			return i
		}
	}
	return -1
}

package path

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedPattern is returned for route patterns with unbalanced braces.
var ErrMalformedPattern = errors.New("path: malformed route pattern")

// Segment is either a literal run of a route pattern or a placeholder name.
type Segment struct {
	Literal     string
	Placeholder string
}

// IsPlaceholder reports whether the segment is a "{name}" placeholder.
func (s Segment) IsPlaceholder() bool {
	return s.Placeholder != ""
}

// Tokenize scans a route pattern into literal and placeholder segments.
func Tokenize(pattern string) ([]Segment, error) {
	var segments []Segment
	rest := pattern
	for rest != "" {
		open := strings.IndexAny(rest, "{}")
		if open < 0 {
			segments = append(segments, Segment{Literal: rest})
			break
		}
		if rest[open] == '}' {
			return nil, fmt.Errorf("%w: unexpected '}' in %q", ErrMalformedPattern, pattern)
		}
		if open > 0 {
			segments = append(segments, Segment{Literal: rest[:open]})
		}

		closing := strings.IndexAny(rest[open+1:], "{}")
		if closing < 0 || rest[open+1+closing] == '{' {
			return nil, fmt.Errorf("%w: unbalanced '{' in %q", ErrMalformedPattern, pattern)
		}
		name := rest[open+1 : open+1+closing]
		if name == "" {
			return nil, fmt.Errorf("%w: empty placeholder in %q", ErrMalformedPattern, pattern)
		}
		segments = append(segments, Segment{Placeholder: name})
		rest = rest[open+closing+2:]
	}
	return segments, nil
}

// Placeholders returns the placeholder names of a pattern in order of appearance.
func Placeholders(pattern string) ([]string, error) {
	segments, err := Tokenize(pattern)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, s := range segments {
		if s.IsPlaceholder() {
			names = append(names, s.Placeholder)
		}
	}
	return names, nil
}

// SubstituteRoutePattern replaces every "{name}" placeholder in pattern with
// its value from args. An empty pattern yields "".
func SubstituteRoutePattern(pattern string, args map[string]string) (string, error) {
	segments, err := Tokenize(pattern)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, s := range segments {
		if !s.IsPlaceholder() {
			b.WriteString(s.Literal)
			continue
		}
		value, ok := args[s.Placeholder]
		if !ok {
			return "", fmt.Errorf("path: no value for placeholder %q in %q", s.Placeholder, pattern)
		}
		b.WriteString(value)
	}
	return b.String(), nil
}

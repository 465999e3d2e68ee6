package path

import (
	"strings"

	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/constants"
)

// StripLeadingSlashes removes all leading '/' characters.
func StripLeadingSlashes(p string) string {
	return strings.TrimLeft(p, "/")
}

// Absolute prefixes p with a single '/' unless it is empty or already absolute.
func Absolute(p string) string {
	if p == "" || strings.HasPrefix(p, "/") {
		return p
	}
	return "/" + p
}

// SplitQuery splits a hash into its path and query parts.
func SplitQuery(hash string) (string, string) {
	if i := strings.Index(hash, "?"); i >= 0 {
		return hash[:i], hash[i+1:]
	}
	return hash, ""
}

// WithoutQuery returns the path part of a hash.
func WithoutQuery(hash string) string {
	p, _ := SplitQuery(hash)
	return p
}

// QueryValue returns the value of a query parameter of hash.
func QueryValue(hash, name string) (string, bool) {
	_, query := SplitQuery(hash)
	for _, pair := range strings.Split(query, "&") {
		key, value, _ := strings.Cut(pair, "=")
		if key == name {
			return value, true
		}
	}
	return "", false
}

// AppendQuery appends "name=value" to hash using '?' or '&' as needed.
func AppendQuery(hash, name, value string) string {
	sep := "?"
	if strings.Contains(hash, "?") {
		sep = "&"
	}
	return hash + sep + name + "=" + value
}

// RemoveQueryParam removes every occurrence of the query parameter name,
// keeping the order of the remaining parameters.
func RemoveQueryParam(hash, name string) string {
	p, query := SplitQuery(hash)
	if query == "" {
		return hash
	}
	var kept []string
	for _, pair := range strings.Split(query, "&") {
		key, _, _ := strings.Cut(pair, "=")
		if key != name && pair != "" {
			kept = append(kept, pair)
		}
	}
	if len(kept) == 0 {
		return p
	}
	return p + "?" + strings.Join(kept, "&")
}

// StripAppState removes the opaque app-state marker from a hash.
func StripAppState(hash string) string {
	return RemoveQueryParam(hash, constants.AppStateParam)
}

// HasPendingCreation reports whether the hash addresses a pending creation target.
func HasPendingCreation(hash string) bool {
	return strings.Contains(hash, constants.PendingCreationMarker)
}

// HasCreateAction reports whether the hash carries the in-progress creation flag.
func HasCreateAction(hash string) bool {
	return strings.Contains(hash, constants.CreateActionQuery)
}

// ParentPath removes the last "/segment" of a context path. A path without
// '/' is returned unchanged.
func ParentPath(p string) string {
	i := strings.LastIndex(p, "/")
	if i < 0 {
		return p
	}
	return p[:i]
}

// EntitySetOf returns the entity set name addressed by the first segment of p.
func EntitySetOf(p string) string {
	p = StripLeadingSlashes(WithoutQuery(p))
	if i := strings.Index(p, "/"); i >= 0 {
		p = p[:i]
	}
	if i := strings.Index(p, "("); i >= 0 {
		return p[:i]
	}
	return p
}

// Depth returns the number of segments of the path part of hash.
func Depth(hash string) int {
	p := StripLeadingSlashes(WithoutQuery(hash))
	if p == "" {
		return 0
	}
	return len(strings.Split(p, "/"))
}

// Ancestors returns the hierarchy leading to hash, root first and hash
// (without its query) last: "A(1)/B(2)" yields ["", "A(1)", "A(1)/B(2)"].
func Ancestors(hash string) []string {
	p := StripLeadingSlashes(WithoutQuery(hash))
	result := []string{""}
	if p == "" {
		return result
	}
	parts := strings.Split(p, "/")
	for i := range parts {
		result = append(result, strings.Join(parts[:i+1], "/"))
	}
	return result
}

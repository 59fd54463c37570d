package observability

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Limits for request-derived values copied into log fields.
const (
	routeLimit  = 180
	methodLimit = 10
	eventLimit  = 64
	errorLimit  = 512
)

// sanitizeString drops control characters and invalid UTF-8 and keeps at most limit runes.
func sanitizeString(value string, limit int) string {
	var b strings.Builder
	kept := 0
	for _, r := range value {
		if kept == limit {
			break
		}
		if r == utf8.RuneError || unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
		kept++
	}
	return strings.TrimSpace(b.String())
}

// SanitizeRoute bounds a chi route pattern; an empty route logs as "/".
func SanitizeRoute(route string) string {
	if route = sanitizeString(route, routeLimit); route == "" {
		return "/"
	}
	return route
}

// SanitizeMethod upper-cases and bounds an HTTP method.
func SanitizeMethod(method string) string {
	return strings.ToUpper(sanitizeString(method, methodLimit))
}

// SanitizeEvent bounds caller-influenced values such as plan identifiers, criteria fields and client
// keys before they are logged.
func SanitizeEvent(value string) string {
	return sanitizeString(value, eventLimit)
}

package hlsfeed

import "strings"

// PlaceholderHost is the host the origin server writes into every stream URL.
const PlaceholderHost = "localhost"

// NormalizeStreamURL rewrites the placeholder host inside a stream URL to one
// the client can reach. An empty host leaves the URL untouched.
func NormalizeStreamURL(raw, host string) string {
	if host == "" || host == PlaceholderHost {
		return raw
	}
	return strings.ReplaceAll(raw, PlaceholderHost, host)
}

// ValidReachableHost reports whether normalizing with host is idempotent,
// i.e. the substituted host cannot itself contain the placeholder.
func ValidReachableHost(host string) bool {
	return host == PlaceholderHost || !strings.Contains(host, PlaceholderHost)
}

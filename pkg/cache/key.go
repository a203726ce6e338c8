package cache

import (
	"net/url"
	"sort"
	"strings"
)

// KeyPrefix namespaces every key this package writes to Redis.
const KeyPrefix = "fetchkit"

// CacheKey identifies a cached response by its request URL.
type CacheKey struct {
	// URL is the absolute request URL.
	URL string
}

// KeyForURL builds a CacheKey for a plain GET of rawURL.
func KeyForURL(rawURL string) CacheKey {
	return CacheKey{URL: rawURL}
}

// String generates a deterministic cache key string.
// Format: fetchkit:<scheme>://<host><path>:query1=val1
//
// Scheme and host are lower-cased, a trailing slash on the path is dropped,
// and query parameters are sorted so equivalent URLs share one entry.
func (k CacheKey) String() string {
	parts := []string{KeyPrefix}

	u, err := url.Parse(k.URL)
	if err != nil || u.Host == "" {
		parts = append(parts, strings.TrimSpace(k.URL))
	} else {
		path := strings.TrimSuffix(u.EscapedPath(), "/")
		parts = append(parts, strings.ToLower(u.Scheme)+"://"+strings.ToLower(u.Host)+path)

		query := u.Query()
		if len(query) > 0 {
			names := make([]string, 0, len(query))
			for name := range query {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				parts = append(parts, name+"="+query.Get(name))
			}
		}
	}

	return strings.Join(parts, ":")
}

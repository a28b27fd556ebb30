package crawler

import (
	"net/url"
	"strings"
)

// trackedParams are query parameters that identify marketing campaigns,
// not content. Two URLs differing only in these parameters are the same
// page and must deduplicate to one visit.
var trackedParams = map[string]bool{
	"gclid":  true,
	"fbclid": true,
	"msclkid": true,
	"ref":    true,
	"mc_cid": true,
	"mc_eid": true,
}

// trackedPrefixes are query-parameter name prefixes treated like
// trackedParams. Covers the whole utm_* family.
var trackedPrefixes = []string{"utm_"}

// Canonicalize normalizes a URL string for deduplication.
//
// Design decision: We normalize because the same page reaches the crawler
// under many spellings: fragment variants, tracking-tagged links, optional
// trailing slashes, mixed-case hosts. The canonical form is the page-node
// uniqueness key, so it must be stable across all of them:
//   - scheme and host lowercased, default ports dropped
//   - fragment removed
//   - tracking query parameters removed, the rest re-encoded (sorted)
//   - trailing slash trimmed except on the root path
//
// Unparsable input is returned unchanged; the fetch will fail on it anyway.
func Canonicalize(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return rawURL
	}
	return CanonicalURL(u)
}

// CanonicalURL normalizes an already-parsed URL. See Canonicalize.
func CanonicalURL(u *url.URL) string {
	c := *u

	c.Fragment = ""
	c.Scheme = strings.ToLower(c.Scheme)
	c.Host = strings.ToLower(c.Host)

	// Drop default ports
	switch {
	case c.Scheme == "http" && strings.HasSuffix(c.Host, ":80"):
		c.Host = strings.TrimSuffix(c.Host, ":80")
	case c.Scheme == "https" && strings.HasSuffix(c.Host, ":443"):
		c.Host = strings.TrimSuffix(c.Host, ":443")
	}

	// Strip tracking parameters; re-encoding sorts the remainder so
	// parameter order never splits one page into two nodes.
	if c.RawQuery != "" {
		q := c.Query()
		for name := range q {
			if isTrackedParam(name) {
				q.Del(name)
			}
		}
		c.RawQuery = q.Encode()
	}

	// Root path and empty path are the same page
	if c.Path == "" {
		c.Path = "/"
	}

	// Trailing slash is not significant except at the root
	if len(c.Path) > 1 && strings.HasSuffix(c.Path, "/") {
		c.Path = strings.TrimSuffix(c.Path, "/")
	}

	return c.String()
}

// isTrackedParam reports whether a query parameter is a tracking parameter.
func isTrackedParam(name string) bool {
	lower := strings.ToLower(name)
	if trackedParams[lower] {
		return true
	}
	for _, prefix := range trackedPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// SameSite reports whether two URLs belong to the same registrable site.
// The comparison is case-insensitive and ignores a leading "www." so a
// sitemap listing www.rival.example still matches a seed of rival.example.
func SameSite(a, b *url.URL) bool {
	return strings.EqualFold(siteHost(a.Hostname()), siteHost(b.Hostname()))
}

// siteHost strips the conventional www prefix from a hostname.
func siteHost(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}

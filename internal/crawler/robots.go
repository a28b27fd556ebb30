package crawler

import (
	"context"
	"net/url"
	"time"

	"github.com/temoto/robotstxt"
)

// RobotsPolicy interprets a domain's robots rules for one crawl run.
// The rules are fetched once and cached on the policy value for the
// lifetime of the run; runs never share a policy.
//
// Design decision: When the robots resource is absent, unreachable, or
// unparsable, the policy defaults to allow-all. This matches the observed
// behavior of comparable crawlers and keeps a missing robots.txt from
// silently disabling competitor analysis. A deny-all default would need a
// product decision; see DESIGN.md.
type RobotsPolicy struct {
	// group holds the rule group for our user agent (falling back to *).
	// Nil means allow-all.
	group *robotstxt.Group

	// crawlDelay is the crawl-delay the robots file declares, zero if none.
	crawlDelay time.Duration
}

// FetchRobots retrieves and parses /robots.txt for the seed's host using
// the run's fetcher. It never fails: every error path yields the
// documented allow-all policy.
func FetchRobots(ctx context.Context, f Fetcher, seed *url.URL, userAgent string) *RobotsPolicy {
	policy := &RobotsPolicy{}

	robotsURL := seed.Scheme + "://" + seed.Host + "/robots.txt"
	result, err := f.Fetch(ctx, robotsURL)
	if err != nil || result == nil {
		return policy
	}

	// FromStatusAndBytes applies the robots exclusion protocol's own
	// status-code semantics: 404 means allow-all, 401/403 mean allow-all,
	// 5xx conventionally means disallow-all but we treat an unreachable
	// file the same as a missing one.
	if !result.OK() {
		return policy
	}

	data, err := robotstxt.FromStatusAndBytes(result.StatusCode, result.Body)
	if err != nil {
		return policy
	}

	group := data.FindGroup(userAgent)
	if group == nil {
		return policy
	}

	policy.group = group
	policy.crawlDelay = group.CrawlDelay
	return policy
}

// IsAllowed reports whether the policy permits fetching the given URL.
func (p *RobotsPolicy) IsAllowed(u *url.URL) bool {
	if p.group == nil {
		return true
	}

	path := u.Path
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}

	return p.group.Test(path)
}

// CrawlDelay returns the crawl-delay declared by the robots file, zero if
// none. Callers use it as a floor for the politeness delay, never as a
// replacement that could lower it.
func (p *RobotsPolicy) CrawlDelay() time.Duration {
	return p.crawlDelay
}

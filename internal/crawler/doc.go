// Package crawler provides the page-level machinery for competitor crawls:
// URL canonicalization, bounded polite fetching, robots interpretation,
// sitemap resolution, HTML parsing, and the breadth-first discovery frontier.
//
// # Components
//
//   - Fetcher: capability interface for a single bounded GET; HTTPFetcher
//     is the real implementation, fixture fetchers back deterministic tests
//   - RobotsPolicy: per-run robots rules with an explicit allow-all default
//   - ResolveSitemap: in-domain URL enumeration from /sitemap.xml
//   - Frontier: arena-style BFS queue with a canonical-URL visited set
//   - Parser: HTML extraction of titles, headings, links, and visible text
//
// # Politeness
//
// The fetcher enforces a minimum inter-request delay per host, retries only
// transient failures with backoff, caps redirects, and sends a descriptive
// User-Agent. Fetches within one run are sequential so the delay holds.
//
// Design decision: The orchestrator receives a Fetcher capability rather
// than constructing HTTP clients itself. Real crawls inject HTTPFetcher;
// tests inject fixture-backed fetchers and never touch the network.
package crawler

package crawler

import (
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"net/url"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

const (
	// maxChildSitemaps caps how many child sitemaps of a sitemap index are
	// fetched. Competitor analysis needs a page sample, not exhaustive
	// coverage, and large shops publish hundreds of children.
	maxChildSitemaps = 3

	// sitemapPath is the conventional location probed on the seed host.
	sitemapPath = "/sitemap.xml"
)

// ResolveSitemap probes the seed host's /sitemap.xml and returns the
// same-site page URLs it lists, canonicalized and deduplicated, in
// document order. When the sitemap is an index, up to maxChildSitemaps
// children are expanded. The limit caps the number of URLs collected.
//
// A missing, unreachable, or unparsable sitemap yields an empty slice and
// no error: the caller falls back to navigation crawling.
func ResolveSitemap(ctx context.Context, f Fetcher, seed *url.URL, limit int) ([]string, error) {
	sitemapURL := seed.Scheme + "://" + seed.Host + sitemapPath

	result, err := f.Fetch(ctx, sitemapURL)
	if err != nil || result == nil || !result.OK() {
		return nil, nil
	}

	pages, children := parseSitemap(result.Body)

	seen := mapset.NewThreadUnsafeSet[string]()
	urls := collectSitemapURLs(seed, pages, seen, limit, nil)

	if len(children) > maxChildSitemaps {
		children = children[:maxChildSitemaps]
	}
	for _, child := range children {
		if len(urls) >= limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return urls, err
		}
		childResult, err := f.Fetch(ctx, child)
		if err != nil || childResult == nil || !childResult.OK() {
			continue
		}
		childPages, _ := parseSitemap(childResult.Body)
		urls = collectSitemapURLs(seed, childPages, seen, limit, urls)
	}

	return urls, nil
}

// collectSitemapURLs filters locs to same-site pages, canonicalizes them,
// and appends the unseen ones to dst until it holds limit entries.
func collectSitemapURLs(seed *url.URL, locs []string, seen mapset.Set[string], limit int, dst []string) []string {
	for _, loc := range locs {
		if len(dst) >= limit {
			break
		}
		canonical := Canonicalize(loc)
		u, err := url.Parse(canonical)
		if err != nil || !SameSite(seed, u) {
			continue
		}
		if !seen.Add(canonical) {
			continue
		}
		dst = append(dst, canonical)
	}
	return dst
}

// parseSitemap walks the XML token stream and collects <loc> values. A
// <urlset> document yields page locations; a <sitemapindex> yields child
// sitemap locations. The token walk tolerates unknown elements and
// foreign namespaces, which real-world sitemaps are full of.
func parseSitemap(body []byte) (pages, children []string) {
	dec := xml.NewDecoder(bytes.NewReader(body))

	// inSitemap tracks whether the current <loc> sits under a <sitemap>
	// element (index entry) rather than a <url> element (page entry).
	var inSitemap bool

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Truncated or malformed documents still contribute whatever
			// was readable up to the error.
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "sitemap":
				inSitemap = true
			case "url":
				inSitemap = false
			case "loc":
				var loc string
				if err := dec.DecodeElement(&loc, &t); err != nil {
					continue
				}
				loc = strings.TrimSpace(loc)
				if loc == "" {
					continue
				}
				if inSitemap {
					children = append(children, loc)
				} else {
					pages = append(pages, loc)
				}
			}
		case xml.EndElement:
			if t.Name.Local == "sitemap" {
				inSitemap = false
			}
		}
	}

	return pages, children
}

package classify

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/2020visiontrader/competitorscan/internal/model"
)

// Tunable classification thresholds. Values are heuristic starting points
// validated against common storefront layouts; treat them as contract
// constants, not incidental numbers.
const (
	// CategoryLinkGridMin is the minimum number of same-container anchor
	// links that reads as a category listing grid.
	CategoryLinkGridMin = 8

	// ProductHeadingMax is the largest number of h2 headings a page can
	// carry and still look like a single-product page. Product pages
	// center on one item; long heading lists suggest a listing or article.
	ProductHeadingMax = 4
)

// pricePattern matches currency-prefixed amounts and explicit currency
// codes, the two shapes storefronts render prices in.
var pricePattern = regexp.MustCompile(`[$€£]\s?\d|(?i)\d+[.,]\d{2}\s?(usd|eur|gbp)`)

// cartPhrases are the purchase affordance texts probed for on buttons and
// links.
var cartPhrases = []string{"add to cart", "add to bag", "add to basket", "buy now"}

// Path tokens observed across storefront platforms. Matched as full path
// segments, never substrings, so /about-our-products does not read as a
// product page.
var (
	productSegments  = map[string]bool{"products": true, "product": true, "p": true, "item": true, "items": true}
	categorySegments = map[string]bool{"collections": true, "collection": true, "category": true, "categories": true, "shop": true, "c": true}
	aboutSegments    = map[string]bool{"about": true, "about-us": true, "our-story": true, "story": true}
	contactSegments  = map[string]bool{"contact": true, "contact-us": true, "support": true, "help": true}
)

// Page is the classifier's read-only view of one fetched page.
type Page struct {
	// URL is the canonical page URL.
	URL *url.URL

	// Depth is the crawl depth the page was discovered at.
	Depth int

	// H1 and H2s are the extracted headings.
	H1  string
	H2s []string

	// doc is the parsed content, nil when the capture was empty or broken.
	doc *goquery.Document
}

// NewPage builds the classification view for a fetched page node. Broken
// or missing HTML degrades to URL-shape classification only.
func NewPage(node *model.PageNode) (*Page, error) {
	u, err := url.Parse(node.URL)
	if err != nil {
		return nil, err
	}

	p := &Page{
		URL:   u,
		Depth: node.Depth,
		H1:    node.H1,
		H2s:   node.H2s,
	}

	if node.RawHTML != "" {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(node.RawHTML)); err == nil {
			p.doc = doc
		}
	}

	return p, nil
}

// Rule pairs a page type with the predicate that claims it.
type Rule struct {
	Type  model.PageType
	Match func(*Page) bool
}

// Rules is the ordered classification table. Earlier rules win ties; the
// order (home, product, category, about, contact) is the published
// tie-break contract.
var Rules = []Rule{
	{Type: model.PageTypeHome, Match: isHome},
	{Type: model.PageTypeProduct, Match: isProduct},
	{Type: model.PageTypeCategory, Match: isCategory},
	{Type: model.PageTypeAbout, Match: isAbout},
	{Type: model.PageTypeContact, Match: isContact},
}

// Classify labels a fetched page node. Pages no rule claims are labeled
// other. Unparsable URLs are labeled other as well; the fetch layer
// filters those long before classification in practice.
func Classify(node *model.PageNode) model.PageType {
	page, err := NewPage(node)
	if err != nil {
		return model.PageTypeOther
	}
	for _, rule := range Rules {
		if rule.Match(page) {
			return rule.Type
		}
	}
	return model.PageTypeOther
}

// isHome claims the site root. Depth is deliberately not a signal:
// sitemap candidates all enter the frontier at depth zero, so only the
// URL path identifies the landing page.
func isHome(p *Page) bool {
	return p.URL.Path == "" || p.URL.Path == "/"
}

// isProduct claims pages whose path carries a product segment, or whose
// content shows a purchase affordance next to a price with single-item
// heading structure.
func isProduct(p *Page) bool {
	if hasSegment(p.URL, productSegments) {
		return true
	}
	if p.doc == nil {
		return false
	}
	if len(p.H2s) > ProductHeadingMax {
		return false
	}
	return hasCartAffordance(p.doc) && hasPriceToken(p.doc)
}

// isCategory claims pages whose path carries a category segment, or whose
// content is dominated by a grid of product links.
func isCategory(p *Page) bool {
	if hasSegment(p.URL, categorySegments) {
		return true
	}
	if p.doc == nil {
		return false
	}
	return productLinkCount(p.doc) >= CategoryLinkGridMin
}

func isAbout(p *Page) bool {
	return hasSegment(p.URL, aboutSegments)
}

func isContact(p *Page) bool {
	return hasSegment(p.URL, contactSegments)
}

// hasSegment reports whether any path segment of u is in the token set.
func hasSegment(u *url.URL, segments map[string]bool) bool {
	for _, seg := range strings.Split(strings.ToLower(u.Path), "/") {
		if segments[seg] {
			return true
		}
	}
	return false
}

// hasCartAffordance probes buttons, inputs, and links for purchase text.
func hasCartAffordance(doc *goquery.Document) bool {
	found := false
	doc.Find("button, input[type=submit], a").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.ToLower(strings.TrimSpace(s.Text()))
		if text == "" {
			text = strings.ToLower(s.AttrOr("value", ""))
		}
		for _, phrase := range cartPhrases {
			if strings.Contains(text, phrase) {
				found = true
				return false
			}
		}
		return true
	})
	return found
}

// hasPriceToken reports whether the document body contains a price-like
// token.
func hasPriceToken(doc *goquery.Document) bool {
	return pricePattern.MatchString(doc.Find("body").Text())
}

// productLinkCount counts anchors that point at product-shaped paths.
// A listing page links to many of them; a product page links to a few
// related items at most.
func productLinkCount(doc *goquery.Document) int {
	count := 0
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := s.AttrOr("href", "")
		u, err := url.Parse(href)
		if err != nil {
			return
		}
		if hasSegment(u, productSegments) {
			count++
		}
	})
	return count
}

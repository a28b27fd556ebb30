package ia

import (
	"net/url"
	"sort"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"

	"github.com/2020visiontrader/competitorscan/internal/crawler"
	"github.com/2020visiontrader/competitorscan/internal/model"
)

// Extraction limits. Navigation and keyword caps keep the signature a
// seed input for downstream generators, not a full site dump.
const (
	// MaxNavPerPage caps how many navigation links one page contributes.
	// Mega-menus carry hundreds; the first ten define the primary nav.
	MaxNavPerPage = 10

	// MaxKeywords is the number of ranked keyword seeds emitted.
	MaxKeywords = 25

	// MinKeywordLen is the shortest term kept by keyword extraction.
	MinKeywordLen = 3
)

// navSelector matches the regions storefronts render primary navigation
// in: nav elements and nav-classed lists.
const navSelector = "nav a[href], ul[class*=nav] a[href], div[class*=navbar] a[href]"

// keywordFolder case-folds terms so "Tea", "tea", and "TEA" count as one.
var keywordFolder = cases.Fold()

// Extract synthesizes the IA signature for a run from its fetched pages.
// Returns nil when no page was fetched; runs without content have no
// information architecture to describe.
func Extract(run *model.CrawlRun, pages []*model.PageNode) *model.IASignature {
	var fetched []*model.PageNode
	for _, p := range pages {
		if p.Fetched() {
			fetched = append(fetched, p)
		}
	}
	if len(fetched) == 0 {
		return nil
	}

	sig := model.NewIASignature(run.ID)
	sig.Navigation = extractNavigation(fetched)
	sig.Taxonomy = extractTaxonomy(fetched)
	sig.Keywords = extractKeywords(fetched)
	sig.Sections = extractSections(fetched)
	return sig
}

// extractNavigation collects navigation links from home and category
// pages, deduplicated by target URL, ordered by how many pages carry them
// and then by first appearance.
func extractNavigation(pages []*model.PageNode) []model.NavItem {
	type navEntry struct {
		item  model.NavItem
		order int
	}
	entries := make(map[string]*navEntry)
	order := 0

	for _, page := range pages {
		if page.Type != model.PageTypeHome && page.Type != model.PageTypeCategory {
			continue
		}
		base, err := url.Parse(page.URL)
		if err != nil {
			continue
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.RawHTML))
		if err != nil {
			continue
		}

		// Dedup within the page first so a link repeated in header and
		// footer nav still counts the page once.
		seen := make(map[string]bool)
		count := 0
		doc.Find(navSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if count >= MaxNavPerPage {
				return false
			}
			label := strings.Join(strings.Fields(s.Text()), " ")
			href := s.AttrOr("href", "")
			if label == "" || href == "" || strings.HasPrefix(href, "#") {
				return true
			}
			ref, err := url.Parse(href)
			if err != nil {
				return true
			}
			resolved := base.ResolveReference(ref)
			if resolved.Scheme != "http" && resolved.Scheme != "https" {
				return true
			}
			target := crawler.CanonicalURL(resolved)
			if seen[target] {
				return true
			}
			seen[target] = true
			count++

			if e, ok := entries[target]; ok {
				e.item.Count++
			} else {
				entries[target] = &navEntry{
					item:  model.NavItem{Label: label, URL: target, Count: 1},
					order: order,
				}
				order++
			}
			return true
		})
	}

	sorted := make([]*navEntry, 0, len(entries))
	for _, e := range entries {
		sorted = append(sorted, e)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].item.Count != sorted[j].item.Count {
			return sorted[i].item.Count > sorted[j].item.Count
		}
		return sorted[i].order < sorted[j].order
	})

	items := make([]model.NavItem, len(sorted))
	for i, e := range sorted {
		items[i] = e.item
	}
	return items
}

// extractTaxonomy builds the category tree from the URL paths of category
// and product pages. Each page increments the count of every prefix node
// on its path. Children sort by page count, then segment.
func extractTaxonomy(pages []*model.PageNode) *model.TaxonomyNode {
	root := &model.TaxonomyNode{}

	for _, page := range pages {
		if page.Type != model.PageTypeCategory && page.Type != model.PageTypeProduct {
			continue
		}
		u, err := url.Parse(page.URL)
		if err != nil {
			continue
		}
		root.PageCount++
		node := root
		for _, seg := range strings.Split(strings.Trim(u.Path, "/"), "/") {
			if seg == "" {
				continue
			}
			node = childNode(node, seg)
			node.PageCount++
		}
	}

	if root.PageCount == 0 {
		return nil
	}
	sortTaxonomy(root)
	return root
}

func childNode(parent *model.TaxonomyNode, segment string) *model.TaxonomyNode {
	for _, c := range parent.Children {
		if c.Segment == segment {
			return c
		}
	}
	c := &model.TaxonomyNode{Segment: segment}
	parent.Children = append(parent.Children, c)
	return c
}

func sortTaxonomy(node *model.TaxonomyNode) {
	sort.Slice(node.Children, func(i, j int) bool {
		if node.Children[i].PageCount != node.Children[j].PageCount {
			return node.Children[i].PageCount > node.Children[j].PageCount
		}
		return node.Children[i].Segment < node.Children[j].Segment
	})
	for _, c := range node.Children {
		sortTaxonomy(c)
	}
}

// extractKeywords ranks terms by total frequency across the visible text
// of all fetched pages. Terms are case-folded; stop words, short tokens,
// and pure numbers are dropped. Ties break by first occurrence so ranking
// is stable across runs.
func extractKeywords(pages []*model.PageNode) []model.KeywordSeed {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	position := 0

	for _, page := range pages {
		for _, tok := range tokenize(page.Text) {
			if _, ok := firstSeen[tok]; !ok {
				firstSeen[tok] = position
			}
			counts[tok]++
			position++
		}
	}

	terms := make([]string, 0, len(counts))
	for term := range counts {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return firstSeen[terms[i]] < firstSeen[terms[j]]
	})

	if len(terms) > MaxKeywords {
		terms = terms[:MaxKeywords]
	}

	seeds := make([]model.KeywordSeed, len(terms))
	for i, term := range terms {
		seeds[i] = model.KeywordSeed{Term: term, Count: counts[term], Rank: i + 1}
	}
	return seeds
}

// tokenize splits visible text into case-folded candidate terms.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var tokens []string
	for _, f := range fields {
		term := keywordFolder.String(f)
		if len([]rune(term)) < MinKeywordLen {
			continue
		}
		if stopWords[term] || isNumeric(term) {
			continue
		}
		tokens = append(tokens, term)
	}
	return tokens
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

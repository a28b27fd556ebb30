package model

import "github.com/google/uuid"

// IASignature is the synthesized information-architecture summary of a
// crawl run: the competitor's navigation, taxonomy, lexical seeds, and
// recurring section patterns. One signature exists per SUCCEEDED or
// PARTIAL run with at least one fetched page.
//
// Design decision: The signature is a pure function of the run's page
// nodes. Given the same node set, extraction always yields an identical
// signature, so downstream content and SEO generation can cache it by
// run ID without invalidation logic.
type IASignature struct {
	// ID is the unique identifier of the signature.
	ID string `json:"id"`

	// RunID references the CrawlRun the signature was extracted from.
	RunID string `json:"run_id"`

	// Navigation holds the site's navigation items, deduplicated and
	// ordered by cross-page frequency, ties broken by first appearance.
	Navigation []NavItem `json:"navigation"`

	// Taxonomy is the category hierarchy inferred from shared URL path
	// prefixes among category and product pages.
	Taxonomy *TaxonomyNode `json:"taxonomy,omitempty"`

	// Keywords are ranked term-frequency seeds over the visible text of
	// all fetched pages, stop words removed.
	Keywords []KeywordSeed `json:"keywords"`

	// Sections are recurring structural motifs (hero, feature grid,
	// testimonials, ...) with their occurrence counts across pages.
	Sections []SectionPattern `json:"sections"`
}

// NavItem is a single navigation entry observed on home or category pages.
type NavItem struct {
	// Label is the anchor text of the navigation link.
	Label string `json:"label"`

	// URL is the canonicalized link target.
	URL string `json:"url"`

	// Count is the number of pages the item appeared on.
	Count int `json:"count"`
}

// TaxonomyNode is one level of the inferred category tree.
// The root node has an empty segment; children are keyed by URL path
// segments and sorted by page count, then alphabetically.
type TaxonomyNode struct {
	// Segment is the URL path segment this node represents.
	Segment string `json:"segment,omitempty"`

	// PageCount is the number of crawled pages under this prefix.
	PageCount int `json:"page_count"`

	// Children are the nested path segments.
	Children []*TaxonomyNode `json:"children,omitempty"`
}

// KeywordSeed is one ranked term from the lexical extraction.
type KeywordSeed struct {
	// Term is the case-folded keyword.
	Term string `json:"term"`

	// Count is the total occurrences across all fetched pages.
	Count int `json:"count"`

	// Rank is the 1-based position in the frequency ordering.
	Rank int `json:"rank"`
}

// SectionPattern is a detected structural motif with its occurrence count.
type SectionPattern struct {
	// Label names the motif (hero, feature_grid, testimonials, ...).
	Label string `json:"label"`

	// Count is how many times the motif was detected across all pages.
	Count int `json:"count"`

	// Sample is the first 200 runes of visible text from the first
	// occurrence, for human review of what was matched.
	Sample string `json:"sample,omitempty"`
}

// NewIASignature creates an empty signature for the given run.
func NewIASignature(runID string) *IASignature {
	return &IASignature{
		ID:    uuid.NewString(),
		RunID: runID,
	}
}

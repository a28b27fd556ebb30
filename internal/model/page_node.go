package model

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
)

// PageType labels the role a page plays in the competitor's site structure.
type PageType string

const (
	// PageTypeHome is the site's landing page (the seed URL at depth 0).
	PageTypeHome PageType = "home"

	// PageTypeProduct is a single-product detail page.
	PageTypeProduct PageType = "product"

	// PageTypeCategory is a collection or category listing page.
	PageTypeCategory PageType = "category"

	// PageTypeAbout is a brand-story or about page.
	PageTypeAbout PageType = "about"

	// PageTypeContact is a contact or support page.
	PageTypeContact PageType = "contact"

	// PageTypeOther is the fall-through label when no rule matches.
	PageTypeOther PageType = "other"
)

// FetchOutcome classifies the result of fetching a single URL.
// Every fetch resolves to exactly one outcome.
type FetchOutcome int

const (
	// OutcomeOK means the server returned a 2xx response with content.
	OutcomeOK FetchOutcome = iota

	// OutcomeClientError means the server returned a 4xx status.
	// Client errors are terminal for the URL; retrying cannot help.
	OutcomeClientError

	// OutcomeServerError means the server returned a 5xx status.
	OutcomeServerError

	// OutcomeTimeout means the request exceeded its deadline.
	OutcomeTimeout

	// OutcomeNetworkError means the connection itself failed
	// (DNS, refused connection, reset, TLS failure).
	OutcomeNetworkError
)

// String returns the canonical text form of the outcome.
func (o FetchOutcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeClientError:
		return "client_error"
	case OutcomeServerError:
		return "server_error"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeNetworkError:
		return "network_error"
	default:
		return "unknown"
	}
}

// ParseFetchOutcome converts the canonical text form back into an outcome.
// Unknown strings map to OutcomeNetworkError, the most conservative reading.
func ParseFetchOutcome(s string) FetchOutcome {
	switch s {
	case "ok":
		return OutcomeOK
	case "client_error":
		return OutcomeClientError
	case "server_error":
		return OutcomeServerError
	case "timeout":
		return OutcomeTimeout
	default:
		return OutcomeNetworkError
	}
}

// Retryable reports whether the outcome is worth retrying.
// Only transient failures (server errors and timeouts) qualify; client
// errors and hard network failures are terminal for the URL.
func (o FetchOutcome) Retryable() bool {
	return o == OutcomeServerError || o == OutcomeTimeout
}

// MaxTextSnapshot is the maximum number of runes of visible text stored
// on a page node. Keyword extraction works on this snapshot, so the cap
// bounds both memory and extraction cost.
const MaxTextSnapshot = 5000

// MaxRawHTML is the maximum number of bytes of raw markup stored on a
// page node. The raw snapshot feeds classification and section-pattern
// detection; anything beyond this cap adds little structural signal.
const MaxRawHTML = 50 * 1024

// MaxHeadings is the maximum number of h2/h3 headings kept per page.
const MaxHeadings = 5

// PageNode is one fetched page within a crawl run.
// Nodes are append-only: a URL appears at most once per run after
// canonicalization.
type PageNode struct {
	// ID is the unique identifier of the node.
	ID string `json:"id"`

	// RunID references the CrawlRun this node belongs to.
	RunID string `json:"run_id"`

	// URL is the canonicalized URL of the page.
	URL string `json:"url"`

	// Outcome classifies how the fetch ended.
	Outcome FetchOutcome `json:"outcome"`

	// StatusCode is the HTTP status, zero when no response was received.
	StatusCode int `json:"status_code,omitempty"`

	// Type is the classified role of the page.
	Type PageType `json:"page_type"`

	// Title is the page title from the <title> tag.
	Title string `json:"title,omitempty"`

	// H1 is the first top-level heading on the page.
	H1 string `json:"h1,omitempty"`

	// H2s holds up to MaxHeadings second-level headings in document order.
	H2s []string `json:"h2,omitempty"`

	// H3s holds up to MaxHeadings third-level headings in document order.
	H3s []string `json:"h3,omitempty"`

	// MetaDescription is the content of the description meta tag.
	MetaDescription string `json:"meta_description,omitempty"`

	// InternalLinks are the same-domain links found on the page,
	// canonicalized and deduplicated, in document order.
	InternalLinks []string `json:"internal_links,omitempty"`

	// Depth is the link distance from the seed page. Sitemap-discovered
	// pages carry depth 0 except the seed page itself.
	Depth int `json:"depth"`

	// Text is a visible-text snapshot capped at MaxTextSnapshot runes.
	Text string `json:"-"` // Excluded from JSON to keep reports small

	// RawHTML is a markup snapshot capped at MaxRawHTML bytes.
	RawHTML string `json:"-"` // Excluded from JSON due to size

	// Hash is the SHA-256 hash of the raw response body.
	// Used for change detection between runs.
	Hash string `json:"hash,omitempty"`
}

// NewPageNode creates a node for the given run and canonical URL.
func NewPageNode(runID, url string, depth int) *PageNode {
	return &PageNode{
		ID:    uuid.NewString(),
		RunID: runID,
		URL:   url,
		Depth: depth,
		Type:  PageTypeOther,
	}
}

// Fetched reports whether the page was actually retrieved.
// Only fetched pages participate in IA extraction.
func (p *PageNode) Fetched() bool {
	return p.Outcome == OutcomeOK
}

// ComputeHash calculates and sets the SHA-256 hash of the response body.
func (p *PageNode) ComputeHash(body []byte) {
	if len(body) == 0 {
		p.Hash = ""
		return
	}
	sum := sha256.Sum256(body)
	p.Hash = hex.EncodeToString(sum[:])
}

// TruncateText enforces the MaxTextSnapshot cap on the text snapshot.
// The cap is in runes so multi-byte text is never cut mid-character.
func (p *PageNode) TruncateText() {
	runes := []rune(p.Text)
	if len(runes) > MaxTextSnapshot {
		p.Text = string(runes[:MaxTextSnapshot])
	}
}

// TruncateRawHTML enforces the MaxRawHTML cap on the markup snapshot.
func (p *PageNode) TruncateRawHTML() {
	if len(p.RawHTML) > MaxRawHTML {
		p.RawHTML = p.RawHTML[:MaxRawHTML]
	}
}

package model

// CrawlResult aggregates everything one crawl run produced: the run
// record itself, the per-page audit list, and the IA signature when one
// could be extracted. It is the unit the pipeline steps accumulate into
// and the unit persisted to the database.
//
// Design decision: We keep a single aggregate rather than returning the
// three pieces separately because every consumer (report writers, the
// database layer, the insights command) wants them together, and the
// aggregate makes the "signature only for runs with fetched pages"
// invariant a property of one value instead of three.
type CrawlResult struct {
	// Run is the crawl run record. Never nil.
	Run *CrawlRun `json:"run"`

	// Pages is the append-only page node list in discovery order.
	Pages []*PageNode `json:"pages,omitempty"`

	// Signature is the extracted IA signature.
	// Nil for FAILED runs and runs with zero fetched pages.
	Signature *IASignature `json:"signature,omitempty"`
}

// NewCrawlResult creates a result wrapping the given run.
func NewCrawlResult(run *CrawlRun) *CrawlResult {
	return &CrawlResult{
		Run:   run,
		Pages: make([]*PageNode, 0),
	}
}

// AddPage appends a node and keeps the run's crawled counter in sync.
func (r *CrawlResult) AddPage(node *PageNode) {
	r.Pages = append(r.Pages, node)
	r.Run.PagesCrawled = len(r.Pages)
}

// FetchedPages returns the subset of pages that were actually retrieved,
// in discovery order. This is the input set for IA extraction.
func (r *CrawlResult) FetchedPages() []*PageNode {
	fetched := make([]*PageNode, 0, len(r.Pages))
	for _, p := range r.Pages {
		if p.Fetched() {
			fetched = append(fetched, p)
		}
	}
	return fetched
}

package crawler

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// Frontier is the ordered queue of canonical URLs a run still has to
// visit. It deduplicates on push, so a URL discovered through several
// navigation paths is fetched once. Frontiers are run-local and not safe
// for concurrent use; runs fetch sequentially.
type Frontier struct {
	// entries is an append-only arena; cursor marks the next unvisited one.
	entries []frontierEntry
	cursor  int

	visited  mapset.Set[string]
	maxDepth int

	// expandable frontiers accept newly discovered links; sitemap-built
	// frontiers are fixed at construction.
	expandable bool
}

type frontierEntry struct {
	url   string
	depth int
}

// NewNavFrontier builds an expandable frontier seeded with a single
// canonical URL at depth zero. Links discovered on fetched pages are
// added via Push up to maxDepth.
func NewNavFrontier(seed string, maxDepth int) *Frontier {
	f := &Frontier{
		visited:    mapset.NewThreadUnsafeSet[string](),
		maxDepth:   maxDepth,
		expandable: true,
	}
	f.push(seed, 0)
	return f
}

// NewStaticFrontier builds a fixed frontier from an already-resolved URL
// list, preserving order. Pushes onto it are ignored.
func NewStaticFrontier(urls []string) *Frontier {
	f := &Frontier{
		visited: mapset.NewThreadUnsafeSet[string](),
	}
	for _, u := range urls {
		f.push(u, 0)
	}
	return f
}

// Next pops the next unvisited URL with its depth. ok is false when the
// frontier is exhausted.
func (f *Frontier) Next() (url string, depth int, ok bool) {
	if f.cursor >= len(f.entries) {
		return "", 0, false
	}
	entry := f.entries[f.cursor]
	f.cursor++
	return entry.url, entry.depth, true
}

// Push adds newly discovered URLs at the given depth. URLs already seen,
// URLs past the depth limit, and pushes onto a static frontier are all
// silently dropped.
func (f *Frontier) Push(urls []string, depth int) {
	if !f.expandable || depth > f.maxDepth {
		return
	}
	for _, u := range urls {
		f.push(u, depth)
	}
}

func (f *Frontier) push(u string, depth int) {
	if u == "" || !f.visited.Add(u) {
		return
	}
	f.entries = append(f.entries, frontierEntry{url: u, depth: depth})
}

// Exhausted reports whether every queued URL has been handed out. A run
// that stops while the frontier still holds work finished early.
func (f *Frontier) Exhausted() bool {
	return f.cursor >= len(f.entries)
}

// Expandable reports whether the frontier accepts discovered links.
func (f *Frontier) Expandable() bool {
	return f.expandable
}

// Len returns the total number of URLs ever queued.
func (f *Frontier) Len() int {
	return len(f.entries)
}

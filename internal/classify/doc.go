// Package classify labels fetched pages with the role they play in a
// competitor's site structure.
//
// Classification is an ordered rule table evaluated top-down with
// first-match-wins semantics. The evaluation order is the tie-break: a
// page matching both product and category heuristics is a product because
// the product rule sits higher in the table. The order and the numeric
// thresholds are exported constants so they can be tuned and tested
// rather than rediscovered in code.
//
// Classification is deterministic and side-effect-free: it looks only at
// the page's URL, depth, and captured content, and never performs network
// calls.
package classify

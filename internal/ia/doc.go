// Package ia synthesizes an information-architecture signature from a
// crawl run's fetched pages.
//
// The signature has four parts: navigation items observed on home and
// category pages, a taxonomy tree inferred from shared URL path prefixes,
// ranked keyword seeds from the pages' visible text, and recurring
// structural section motifs (hero, feature grid, testimonials, ...).
//
// Extraction is deterministic and side-effect-free. Ordering rules are
// explicit everywhere a collection is emitted: frequency first, then
// first-seen order or alphabetical, so the same page set always produces
// a byte-identical signature.
package ia

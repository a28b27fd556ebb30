// Package database provides SQLite-based storage for crawl results.
//
// This package implements the CrawlDB, which stores:
//   - Competitor profiles with their last-crawl metadata
//   - Crawl runs with status, counts, and timestamps
//   - Page nodes for audit and debugging of individual fetches
//   - IA signatures consumed by downstream content and SEO generators
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
package database

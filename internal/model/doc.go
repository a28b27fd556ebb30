// Package model defines the core data structures for competitor crawling.
//
// This package contains the following main types:
//   - CompetitorProfile: A competitor site registered for crawling
//   - CrawlRun: One bounded, capped crawl attempt against a competitor domain
//   - PageNode: A single fetched page within a crawl run
//   - IASignature: The synthesized information-architecture summary of a run
//   - CrawlResult: The aggregate of a run, its pages, and its signature
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (crawler, classify, ia, pipeline, database,
// report) need to use these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model

// Package pipeline orchestrates a crawl run as a sequence of steps.
//
// A run moves through four stages: probing the seed host, discovering
// candidate URLs (sitemap with navigation fallback), the fetch/classify
// loop, and IA extraction. Each stage is a Step that receives the
// accumulating crawl result and may modify it.
//
// Design decision: We use a pipeline pattern instead of direct function
// calls because:
// 1. It allows easy addition/removal of stages without modifying core logic
// 2. It provides consistent error handling and logging across stages
// 3. It supports cancellation via context for long-running crawls
//
// The package also provides batch processing: many competitors crawl
// concurrently under an errgroup limit, while fetches within one run stay
// strictly sequential for politeness.
package pipeline

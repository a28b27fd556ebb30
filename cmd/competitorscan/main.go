// Package main provides the entry point for the competitorscan CLI.
//
// competitorscan crawls competitor e-commerce storefronts within a small
// page budget and extracts their information architecture: navigation,
// category taxonomy, keyword seeds, and recurring section patterns.
//
// Usage:
//
//	competitorscan crawl <seed-url>
//	competitorscan insights <seed-url>
//
// See --help for all available options.
package main

// main is the entry point for competitorscan.
func main() {
	Execute()
}

// Package config provides configuration structures and utilities for
// competitorscan. It defines the crawl budgets, politeness settings, and
// per-competitor configuration loaded from the .competitorscan file.
package config

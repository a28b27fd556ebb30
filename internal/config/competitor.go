package config

import "github.com/2020visiontrader/competitorscan/internal/crawler"

// CompetitorConfig holds per-competitor configuration for a single seed URL.
// This carries the onboarding metadata the crawl core needs: the page
// budget flag, the display name, and the operator notes stored alongside
// crawl results for the insights view.
type CompetitorConfig struct {
	// Name is a human-readable label for the competitor.
	Name string `yaml:"name,omitempty"`

	// SingleSKU marks a single-product competitor, lowering the page
	// budget from 10 to 5.
	SingleSKU bool `yaml:"singleSku,omitempty"`

	// IsPrimary marks the brand's main competitor.
	IsPrimary bool `yaml:"isPrimary,omitempty"`

	// MaxPages overrides the requested page budget for this competitor.
	// It is still clamped to the policy budget; zero means no override.
	MaxPages int `yaml:"maxPages,omitempty"`

	// EmulateNotes are operator notes about what to imitate.
	EmulateNotes string `yaml:"emulateNotes,omitempty"`

	// AvoidNotes are operator notes about what to avoid.
	AvoidNotes string `yaml:"avoidNotes,omitempty"`
}

// File represents the structure of the .competitorscan configuration file.
type File struct {
	// Competitors maps seed URLs to their per-competitor configurations.
	Competitors map[string]CompetitorConfig `yaml:"competitors,omitempty"`

	// Defaults contains default competitor configuration applied to all
	// competitors without an explicit entry.
	Defaults CompetitorConfig `yaml:"defaults,omitempty"`
}

// GetCompetitorConfig returns the configuration for a specific seed URL.
// The seed is canonicalized before lookup so any spelling of the same
// site finds its entry. An explicit entry is authoritative for its
// boolean flags; otherwise the defaults apply as-is. String and numeric
// fields fall back field-by-field.
func (cf *File) GetCompetitorConfig(seedURL string) CompetitorConfig {
	entry, ok := cf.Competitors[crawler.Canonicalize(seedURL)]
	if !ok {
		return cf.Defaults
	}

	if entry.Name == "" {
		entry.Name = cf.Defaults.Name
	}
	if entry.MaxPages == 0 {
		entry.MaxPages = cf.Defaults.MaxPages
	}
	if entry.EmulateNotes == "" {
		entry.EmulateNotes = cf.Defaults.EmulateNotes
	}
	if entry.AvoidNotes == "" {
		entry.AvoidNotes = cf.Defaults.AvoidNotes
	}

	return entry
}

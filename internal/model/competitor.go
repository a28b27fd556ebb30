package model

import (
	"time"

	"github.com/google/uuid"
)

// CompetitorProfile is a competitor site registered for crawling.
// Profiles are created by the onboarding layer; this subsystem only reads
// them and updates the last-crawl metadata after each run.
type CompetitorProfile struct {
	// ID is the unique identifier of the profile.
	ID string `json:"id"`

	// BrandID is the identifier of the brand that owns this competitor.
	// Empty when the profile was created ad hoc from the CLI.
	BrandID string `json:"brand_id,omitempty"`

	// SeedURL is the competitor's root URL, the starting point of every crawl.
	SeedURL string `json:"seed_url"`

	// Name is a human-readable label for the competitor.
	Name string `json:"name,omitempty"`

	// SingleSKU marks single-product brands. Single-SKU competitors get a
	// smaller page budget because their sites are structurally shallow.
	SingleSKU bool `json:"single_sku"`

	// IsPrimary marks the main competitor of a brand.
	IsPrimary bool `json:"is_primary"`

	// EmulateNotes are operator notes about what to imitate from this competitor.
	EmulateNotes string `json:"emulate_notes,omitempty"`

	// AvoidNotes are operator notes about what to avoid from this competitor.
	AvoidNotes string `json:"avoid_notes,omitempty"`

	// LastCrawledAt is the start time of the most recent crawl run.
	// Zero if the competitor has never been crawled.
	LastCrawledAt time.Time `json:"last_crawled_at,omitempty"`
}

// NewCompetitorProfile creates a profile for the given seed URL with a
// generated ID. Optional fields are set by the caller after creation.
func NewCompetitorProfile(seedURL string) *CompetitorProfile {
	return &CompetitorProfile{
		ID:      uuid.NewString(),
		SeedURL: seedURL,
	}
}

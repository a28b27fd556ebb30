package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestNewConfigDefaults tests that the constructor sets sensible defaults.
func TestNewConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	if cfg.FetchTimeout != DefaultFetchTimeout {
		t.Errorf("expected fetch timeout %v, got %v", DefaultFetchTimeout, cfg.FetchTimeout)
	}
	if cfg.RunTimeout != DefaultRunTimeout {
		t.Errorf("expected run timeout %v, got %v", DefaultRunTimeout, cfg.RunTimeout)
	}
	if cfg.CrawlDepth != DefaultCrawlDepth {
		t.Errorf("expected crawl depth %d, got %d", DefaultCrawlDepth, cfg.CrawlDepth)
	}
	if cfg.CrawlDelay != DefaultCrawlDelay {
		t.Errorf("expected crawl delay %v, got %v", DefaultCrawlDelay, cfg.CrawlDelay)
	}
	if cfg.OverfetchFactor != DefaultOverfetchFactor {
		t.Errorf("expected overfetch factor %d, got %d", DefaultOverfetchFactor, cfg.OverfetchFactor)
	}
	if cfg.UserAgent == "" {
		t.Error("expected a default user agent")
	}
}

// TestPageBudget tests the single-SKU budget policy.
func TestPageBudget(t *testing.T) {
	t.Parallel()

	if got := PageBudget(true); got != 5 {
		t.Errorf("single-SKU budget = %d, want 5", got)
	}
	if got := PageBudget(false); got != 10 {
		t.Errorf("regular budget = %d, want 10", got)
	}
}

// TestResolveMaxPages tests budget resolution and clamping.
func TestResolveMaxPages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		requested int
		singleSKU bool
		want      int
	}{
		{"zero uses policy budget", 0, false, 10},
		{"zero uses single-SKU budget", 0, true, 5},
		{"request below budget honored", 3, false, 3},
		{"request above budget clamped", 25, false, 10},
		{"request above single-SKU budget clamped", 8, true, 5},
		{"negative treated as zero", -1, false, 10},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ResolveMaxPages(tt.requested, tt.singleSKU); got != tt.want {
				t.Errorf("ResolveMaxPages(%d, %v) = %d, want %d", tt.requested, tt.singleSKU, got, tt.want)
			}
		})
	}
}

// TestConfigValidate tests the fail-fast validation rules.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		cfg := NewConfig()
		cfg.Targets = []string{"https://example.com"}
		return cfg
	}

	t.Run("valid config passes", func(t *testing.T) {
		t.Parallel()

		if err := valid().Validate(); err != nil {
			t.Errorf("unexpected validation error: %v", err)
		}
	})

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"no targets", func(c *Config) { c.Targets = nil }, ErrNoTarget},
		{"zero fetch timeout", func(c *Config) { c.FetchTimeout = 0 }, ErrInvalidTimeout},
		{"negative run timeout", func(c *Config) { c.RunTimeout = -time.Second }, ErrInvalidTimeout},
		{"zero batch size", func(c *Config) { c.BatchSize = 0 }, ErrInvalidBatchSize},
		{"negative crawl delay", func(c *Config) { c.CrawlDelay = -time.Second }, ErrInvalidCrawlDelay},
		{"negative crawl depth", func(c *Config) { c.CrawlDepth = -1 }, ErrInvalidCrawlDepth},
		{"zero overfetch factor", func(c *Config) { c.OverfetchFactor = 0 }, ErrInvalidOverfetchFactor},
		{"negative body size", func(c *Config) { c.MaxBodySize = -1 }, ErrInvalidMaxBodySize},
		{"conflicting formats", func(c *Config) { c.JSONReport = true; c.MarkdownReport = true }, ErrConflictingReportFormats},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

// TestLoadConfigFile tests YAML loading and the not-found sentinel.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("missing file returns sentinel", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("parses competitors and defaults", func(t *testing.T) {
		t.Parallel()

		content := `
defaults:
  maxPages: 8
competitors:
  https://rival.example:
    name: Rival Co
    singleSku: true
    isPrimary: true
    emulateNotes: clean nav
`
		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		cc := cf.GetCompetitorConfig("https://rival.example")
		if cc.Name != "Rival Co" {
			t.Errorf("expected name 'Rival Co', got %q", cc.Name)
		}
		if !cc.SingleSKU || !cc.IsPrimary {
			t.Error("expected singleSku and isPrimary to be set")
		}
		if cc.MaxPages != 8 {
			t.Errorf("expected default maxPages 8 to apply, got %d", cc.MaxPages)
		}
		if cc.EmulateNotes != "clean nav" {
			t.Errorf("unexpected emulate notes: %q", cc.EmulateNotes)
		}
	})

	t.Run("entry keys match canonicalized seeds", func(t *testing.T) {
		t.Parallel()

		content := `
competitors:
  https://RivalBrand.com:
    name: Rival Brand
`
		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		// Seeds arrive canonicalized: lowercased host, root trailing slash.
		if cc := cf.GetCompetitorConfig("https://rivalbrand.com/"); cc.Name != "Rival Brand" {
			t.Errorf("canonicalized seed missed its entry, got %+v", cc)
		}
	})

	t.Run("unknown competitor gets defaults", func(t *testing.T) {
		t.Parallel()

		cf := &File{
			Competitors: map[string]CompetitorConfig{},
			Defaults:    CompetitorConfig{MaxPages: 6, Name: "fallback"},
		}

		cc := cf.GetCompetitorConfig("https://unknown.example")
		if cc.MaxPages != 6 || cc.Name != "fallback" {
			t.Errorf("expected defaults, got %+v", cc)
		}
	})

	t.Run("malformed yaml returns error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte(":\tnot yaml"), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected parse error for malformed yaml")
		}
	})
}

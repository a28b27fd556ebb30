package crawler

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/2020visiontrader/competitorscan/internal/model"
)

const testUserAgent = "competitorscan/1.0"

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func TestFetchRobotsDisallow(t *testing.T) {
	t.Parallel()

	seed := mustParse(t, "https://rival.example/")
	f := &stubFetcher{results: map[string]*FetchResult{
		"https://rival.example/robots.txt": okResult(
			"https://rival.example/robots.txt",
			"User-agent: *\nDisallow: /checkout\nDisallow: /cart\n",
		),
	}}

	policy := FetchRobots(context.Background(), f, seed, testUserAgent)

	tests := []struct {
		path string
		want bool
	}{
		{"/", true},
		{"/collections/tea", true},
		{"/checkout", false},
		{"/checkout/step2", false},
		{"/cart", false},
	}
	for _, tt := range tests {
		tt := tt
		u := mustParse(t, "https://rival.example"+tt.path)
		if got := policy.IsAllowed(u); got != tt.want {
			t.Errorf("IsAllowed(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestFetchRobotsAgentSpecificGroup(t *testing.T) {
	t.Parallel()

	seed := mustParse(t, "https://rival.example/")
	f := &stubFetcher{results: map[string]*FetchResult{
		"https://rival.example/robots.txt": okResult(
			"https://rival.example/robots.txt",
			"User-agent: competitorscan\nDisallow: /private\n\nUser-agent: *\nDisallow: /\n",
		),
	}}

	policy := FetchRobots(context.Background(), f, seed, testUserAgent)

	if policy.IsAllowed(mustParse(t, "https://rival.example/private")) {
		t.Error("IsAllowed(/private) = true, want our group's disallow to apply")
	}
	if !policy.IsAllowed(mustParse(t, "https://rival.example/shop")) {
		t.Error("IsAllowed(/shop) = false, want the wildcard disallow-all ignored for our agent")
	}
}

func TestFetchRobotsAllowAllDefaults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		results map[string]*FetchResult
	}{
		{
			name: "missing robots file",
			results: map[string]*FetchResult{
				"https://rival.example/robots.txt": {
					URL:        "https://rival.example/robots.txt",
					Outcome:    model.OutcomeClientError,
					StatusCode: http.StatusNotFound,
				},
			},
		},
		{
			name:    "unreachable host",
			results: nil,
		},
		{
			name: "server error",
			results: map[string]*FetchResult{
				"https://rival.example/robots.txt": {
					URL:        "https://rival.example/robots.txt",
					Outcome:    model.OutcomeServerError,
					StatusCode: http.StatusInternalServerError,
				},
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			seed := mustParse(t, "https://rival.example/")
			policy := FetchRobots(context.Background(), &stubFetcher{results: tt.results}, seed, testUserAgent)

			if !policy.IsAllowed(mustParse(t, "https://rival.example/anything")) {
				t.Error("IsAllowed() = false, want allow-all when robots is unavailable")
			}
			if policy.CrawlDelay() != 0 {
				t.Errorf("CrawlDelay() = %v, want 0", policy.CrawlDelay())
			}
		})
	}
}

func TestFetchRobotsCrawlDelay(t *testing.T) {
	t.Parallel()

	seed := mustParse(t, "https://rival.example/")
	f := &stubFetcher{results: map[string]*FetchResult{
		"https://rival.example/robots.txt": okResult(
			"https://rival.example/robots.txt",
			"User-agent: *\nCrawl-delay: 2\n",
		),
	}}

	policy := FetchRobots(context.Background(), f, seed, testUserAgent)

	if got := policy.CrawlDelay(); got != 2*time.Second {
		t.Errorf("CrawlDelay() = %v, want 2s", got)
	}
}

func TestRobotsPolicyQueryString(t *testing.T) {
	t.Parallel()

	seed := mustParse(t, "https://rival.example/")
	f := &stubFetcher{results: map[string]*FetchResult{
		"https://rival.example/robots.txt": okResult(
			"https://rival.example/robots.txt",
			"User-agent: *\nDisallow: /search?\n",
		),
	}}

	policy := FetchRobots(context.Background(), f, seed, testUserAgent)

	if policy.IsAllowed(mustParse(t, "https://rival.example/search?q=tea")) {
		t.Error("IsAllowed(/search?q=tea) = true, want the query form matched against the rule")
	}
	if !policy.IsAllowed(mustParse(t, "https://rival.example/search")) {
		t.Error("IsAllowed(/search) = false, want the bare path allowed")
	}
}

package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/2020visiontrader/competitorscan/internal/model"
)

// Default fetcher settings. Exposed as constants so the orchestrator and
// CLI reference the same values the fetcher documents.
const (
	// DefaultRedirectLimit caps redirect chains per request.
	DefaultRedirectLimit = 5

	// DefaultMaxRetries is the number of additional attempts after the
	// first, applied only to retryable outcomes (5xx and timeouts).
	DefaultMaxRetries = 2

	// DefaultRetryBackoff is the sleep before the first retry; it doubles
	// on each subsequent attempt.
	DefaultRetryBackoff = 250 * time.Millisecond
)

// FetchResult is the classified outcome of one bounded GET.
type FetchResult struct {
	// URL is the requested URL (pre-redirect).
	URL string

	// Outcome classifies how the fetch ended. Exactly one outcome applies.
	Outcome model.FetchOutcome

	// StatusCode is the HTTP status, zero when no response was received.
	StatusCode int

	// Body is the response body, UTF-8 decoded and capped at the
	// configured maximum size. Nil for non-OK outcomes.
	Body []byte

	// ContentType is the response Content-Type header.
	ContentType string
}

// OK reports whether content was retrieved.
func (r *FetchResult) OK() bool {
	return r.Outcome == model.OutcomeOK
}

// Fetcher is the capability to perform a single bounded page fetch.
//
// Design decision: The crawl core depends on this interface rather than on
// *http.Client so that orchestrator tests can substitute fixture-backed
// fetchers and run without network access. Implementations must classify
// every failure into a FetchOutcome instead of returning transport errors;
// the error return is reserved for malformed input.
type Fetcher interface {
	// Fetch performs one GET against rawURL, including any configured
	// retries and politeness delay. The returned result is non-nil
	// whenever err is nil.
	Fetch(ctx context.Context, rawURL string) (*FetchResult, error)
}

// HTTPFetcher is the production Fetcher. It performs bounded GETs with a
// per-request timeout, a redirect cap, retry with exponential backoff for
// transient failures, and a minimum inter-request delay per host.
//
// An HTTPFetcher is owned by exactly one crawl run. Fetches within a run
// are sequential, so the politeness bookkeeping needs no locking.
type HTTPFetcher struct {
	// client is the configured HTTP client.
	client *http.Client

	// userAgent is the User-Agent header sent with every request.
	userAgent string

	// maxBodySize limits the size of response bodies to read.
	maxBodySize int64

	// delay is the minimum gap between consecutive requests to the same host.
	delay time.Duration

	// maxRetries is the number of additional attempts for retryable outcomes.
	maxRetries int

	// backoff is the sleep before the first retry, doubled per attempt.
	backoff time.Duration

	// lastHost and lastRequest track the previous request for the
	// politeness delay.
	lastHost    string
	lastRequest time.Time
}

// FetcherOption configures an HTTPFetcher.
type FetcherOption func(*HTTPFetcher)

// WithTimeout sets the per-request connect/read timeout.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *HTTPFetcher) {
		f.client.Timeout = d
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *HTTPFetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum response body size.
func WithMaxBodySize(size int64) FetcherOption {
	return func(f *HTTPFetcher) {
		f.maxBodySize = size
	}
}

// WithDelay sets the minimum inter-request delay to the same host.
// Zero disables the delay; fixture-backed tests use this.
func WithDelay(d time.Duration) FetcherOption {
	return func(f *HTTPFetcher) {
		f.delay = d
	}
}

// RaiseDelay raises the inter-request delay to at least d. The robots
// crawl-delay is applied through here once the policy is parsed, so a
// declared delay can lengthen the gap but never shorten it.
func (f *HTTPFetcher) RaiseDelay(d time.Duration) {
	if d > f.delay {
		f.delay = d
	}
}

// WithMaxRetries sets the number of additional attempts for retryable
// outcomes. Zero disables retries.
func WithMaxRetries(n int) FetcherOption {
	return func(f *HTTPFetcher) {
		if n >= 0 {
			f.maxRetries = n
		}
	}
}

// WithRetryBackoff sets the sleep before the first retry.
func WithRetryBackoff(d time.Duration) FetcherOption {
	return func(f *HTTPFetcher) {
		f.backoff = d
	}
}

// NewHTTPFetcher creates a fetcher with conservative defaults: a 10 second
// timeout, 5 redirect cap, 2MB body cap, 500ms politeness delay, and two
// retries with exponential backoff for transient failures.
func NewHTTPFetcher(opts ...FetcherOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client: &http.Client{
			Timeout: 10 * time.Second,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= DefaultRedirectLimit {
					return fmt.Errorf("stopped after %d redirects", DefaultRedirectLimit)
				}
				return nil
			},
		},
		userAgent:   "competitorscan/1.0",
		maxBodySize: 2 * 1024 * 1024,
		delay:       500 * time.Millisecond,
		maxRetries:  DefaultMaxRetries,
		backoff:     DefaultRetryBackoff,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch performs one bounded GET with retries and politeness delay.
// Only malformed URLs produce an error; every transport or HTTP failure
// is classified into the result's Outcome.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q in %q", u.Scheme, rawURL)
	}

	result := &FetchResult{URL: rawURL}

	for attempt := 0; ; attempt++ {
		if err := f.politeWait(ctx, u.Hostname()); err != nil {
			return nil, err
		}

		f.attempt(ctx, rawURL, result)

		// Retry only transient failures, up to the configured budget
		if !result.Outcome.Retryable() || attempt >= f.maxRetries {
			return result, nil
		}

		wait := f.backoff << attempt
		select {
		case <-ctx.Done():
			return result, nil
		case <-time.After(wait):
		}
	}
}

// attempt performs a single request and classifies it into result.
func (f *HTTPFetcher) attempt(ctx context.Context, rawURL string, result *FetchResult) {
	result.Body = nil
	result.StatusCode = 0

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		result.Outcome = model.OutcomeNetworkError
		return
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		result.Outcome = classifyTransportError(err)
		return
	}
	defer resp.Body.Close()

	result.StatusCode = resp.StatusCode
	result.ContentType = resp.Header.Get("Content-Type")

	switch {
	case resp.StatusCode >= 500:
		result.Outcome = model.OutcomeServerError
		return
	case resp.StatusCode >= 400:
		result.Outcome = model.OutcomeClientError
		return
	}

	body, err := f.readBody(resp)
	if err != nil {
		result.Outcome = classifyTransportError(err)
		return
	}

	result.Outcome = model.OutcomeOK
	result.Body = body
}

// readBody reads the response body up to the size cap, decoding to UTF-8
// when the Content-Type declares a different charset.
func (f *HTTPFetcher) readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = io.LimitReader(resp.Body, f.maxBodySize)

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "html") || strings.Contains(contentType, "xml") {
		decoded, err := charset.NewReader(reader, contentType)
		if err == nil {
			reader = decoded
		}
		// On charset detection failure we fall back to the raw bytes;
		// a mislabeled page is still better than no page.
	}

	return io.ReadAll(reader)
}

// politeWait sleeps out the remaining inter-request delay for the host.
func (f *HTTPFetcher) politeWait(ctx context.Context, host string) error {
	defer func() {
		f.lastHost = host
		f.lastRequest = time.Now()
	}()

	if f.delay <= 0 || f.lastHost != host || f.lastRequest.IsZero() {
		return nil
	}

	remaining := f.delay - time.Since(f.lastRequest)
	if remaining <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(remaining):
		return nil
	}
}

// classifyTransportError maps a transport-level error to a fetch outcome.
// Timeouts (including context deadline) are distinguished from hard
// network failures because only timeouts are worth retrying.
func classifyTransportError(err error) model.FetchOutcome {
	if errors.Is(err, context.DeadlineExceeded) {
		return model.OutcomeTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return model.OutcomeTimeout
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return model.OutcomeTimeout
	}

	return model.OutcomeNetworkError
}

package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"

	"github.com/2020visiontrader/competitorscan/internal/crawler"
	"github.com/2020visiontrader/competitorscan/internal/model"
)

// fixtureFetcher serves canned pages keyed by URL without network access.
// URLs with no entry behave like an unreachable host.
type fixtureFetcher struct {
	mu    sync.Mutex
	pages map[string]*crawler.FetchResult
	calls []string
}

func newFixtureFetcher() *fixtureFetcher {
	return &fixtureFetcher{pages: make(map[string]*crawler.FetchResult)}
}

func (f *fixtureFetcher) Fetch(_ context.Context, rawURL string) (*crawler.FetchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, rawURL)
	if r, ok := f.pages[rawURL]; ok {
		return r, nil
	}
	return &crawler.FetchResult{URL: rawURL, Outcome: model.OutcomeNetworkError}, nil
}

func (f *fixtureFetcher) addHTML(url, body string) {
	f.pages[url] = &crawler.FetchResult{
		URL:         url,
		Outcome:     model.OutcomeOK,
		StatusCode:  http.StatusOK,
		Body:        []byte(body),
		ContentType: "text/html; charset=utf-8",
	}
}

func (f *fixtureFetcher) addXML(url, body string) {
	f.pages[url] = &crawler.FetchResult{
		URL:         url,
		Outcome:     model.OutcomeOK,
		StatusCode:  http.StatusOK,
		Body:        []byte(body),
		ContentType: "application/xml",
	}
}

func (f *fixtureFetcher) addText(url, body string) {
	f.pages[url] = &crawler.FetchResult{
		URL:         url,
		Outcome:     model.OutcomeOK,
		StatusCode:  http.StatusOK,
		Body:        []byte(body),
		ContentType: "text/plain",
	}
}

func (f *fixtureFetcher) addStatus(url string, status int, outcome model.FetchOutcome) {
	f.pages[url] = &crawler.FetchResult{
		URL:        url,
		Outcome:    outcome,
		StatusCode: status,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeStep records execution and optionally fails.
type fakeStep struct {
	name string
	err  error
	ran  *[]string
}

func (s *fakeStep) Name() string { return s.name }

func (s *fakeStep) Do(_ context.Context, _ *model.CrawlResult) error {
	*s.ran = append(*s.ran, s.name)
	return s.err
}

func TestPipelineExecutesInOrder(t *testing.T) {
	t.Parallel()

	var ran []string
	p := New(WithLogger(testLogger()))
	p.AddSteps(
		&fakeStep{name: "first", ran: &ran},
		&fakeStep{name: "second", ran: &ran},
		&fakeStep{name: "third", ran: &ran},
	)

	run := model.NewCrawlRun("comp-1", "https://rival.example/", 10)
	if err := p.Execute(context.Background(), model.NewCrawlResult(run)); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	want := []string{"first", "second", "third"}
	if len(ran) != len(want) {
		t.Fatalf("ran %v, want %v", ran, want)
	}
	for i := range want {
		if ran[i] != want[i] {
			t.Errorf("step %d = %q, want %q", i, ran[i], want[i])
		}
	}
}

func TestPipelineStopsOnError(t *testing.T) {
	t.Parallel()

	var ran []string
	boom := errors.New("boom")
	p := New(WithLogger(testLogger()))
	p.AddSteps(
		&fakeStep{name: "first", ran: &ran},
		&fakeStep{name: "second", err: boom, ran: &ran},
		&fakeStep{name: "third", ran: &ran},
	)

	run := model.NewCrawlRun("comp-1", "https://rival.example/", 10)
	err := p.Execute(context.Background(), model.NewCrawlResult(run))
	if !errors.Is(err, boom) {
		t.Fatalf("Execute() error = %v, want %v", err, boom)
	}
	if len(ran) != 2 {
		t.Errorf("ran %v, want execution to stop after the failing step", ran)
	}
}

func TestPipelineHonorsCancellation(t *testing.T) {
	t.Parallel()

	var ran []string
	p := New(WithLogger(testLogger()))
	p.AddSteps(&fakeStep{name: "never", ran: &ran})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run := model.NewCrawlRun("comp-1", "https://rival.example/", 10)
	err := p.Execute(ctx, model.NewCrawlResult(run))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Execute() error = %v, want context.Canceled", err)
	}
	if len(ran) != 0 {
		t.Errorf("ran %v, want no steps after cancellation", ran)
	}
}

func TestPipelineStepNames(t *testing.T) {
	t.Parallel()

	var ran []string
	p := New(WithLogger(testLogger()))
	p.AddSteps(
		&fakeStep{name: "probe", ran: &ran},
		&fakeStep{name: "fetch", ran: &ran},
	)

	names := p.StepNames()
	if len(names) != 2 || names[0] != "probe" || names[1] != "fetch" {
		t.Errorf("StepNames() = %v, want [probe fetch]", names)
	}
}

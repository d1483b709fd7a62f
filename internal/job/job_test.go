package job

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/vitor-labes/catalogue-scraper/internal/crawler"
	"github.com/vitor-labes/catalogue-scraper/internal/domain"
)

type stubCrawler struct {
	result *crawler.Result
	err    error
	gotURL string
	gotSet domain.CrawlSettings
}

func (s *stubCrawler) Crawl(_ context.Context, baseURL string, settings domain.CrawlSettings) (*crawler.Result, error) {
	s.gotURL = baseURL
	s.gotSet = settings
	return s.result, s.err
}

type recordingSink struct {
	saved [][]domain.Product
	err   error
}

func (s *recordingSink) Save(_ context.Context, products []domain.Product) error {
	s.saved = append(s.saved, products)
	return s.err
}

type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) Notify(_ context.Context, message string) error {
	n.messages = append(n.messages, message)
	return nil
}

func TestRunnerRun(t *testing.T) {
	accepted := []domain.Product{{Name: "A", Price: "1"}, {Name: "B", Price: "2"}, {Name: "C", Price: "3"}}
	crawlErr := errors.New("page 4: connection refused")
	saveErr := errors.New("disk full")

	tests := []struct {
		name        string
		crawler     *stubCrawler
		sinkErr     error
		wantCount   int
		wantErr     []error
		wantSaves   int
		wantMessage string
	}{
		{
			name:        "success",
			crawler:     &stubCrawler{result: &crawler.Result{Products: accepted, StopReason: crawler.StopEndOfCatalogue}},
			wantCount:   3,
			wantSaves:   1,
			wantMessage: "Scraping complete. 3 products scraped.",
		},
		{
			name:        "nothing new still saves",
			crawler:     &stubCrawler{result: &crawler.Result{StopReason: crawler.StopRetriesExhausted}},
			wantCount:   0,
			wantSaves:   1,
			wantMessage: "Scraping complete. 0 products scraped.",
		},
		{
			name:        "partial crawl saves accepted products",
			crawler:     &stubCrawler{result: &crawler.Result{Products: accepted[:2], StopReason: crawler.StopFailed}, err: crawlErr},
			wantCount:   2,
			wantErr:     []error{crawlErr},
			wantSaves:   1,
			wantMessage: "Scraping aborted after 2 products",
		},
		{
			name:        "failed crawl with nothing accepted",
			crawler:     &stubCrawler{result: &crawler.Result{StopReason: crawler.StopFailed}, err: crawlErr},
			wantErr:     []error{crawlErr},
			wantMessage: "Scraping aborted after 0 products",
		},
		{
			name:        "sink failure",
			crawler:     &stubCrawler{result: &crawler.Result{Products: accepted}},
			sinkErr:     saveErr,
			wantCount:   3,
			wantErr:     []error{saveErr},
			wantSaves:   1,
			wantMessage: "Scraping failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{err: tt.sinkErr}
			notifier := &recordingNotifier{}
			runner := NewRunner(tt.crawler, sink, notifier)

			req := Request{BaseURL: "shop/catalogue", Settings: domain.CrawlSettings{MaxPages: 3}}
			resp, err := runner.Run(context.Background(), req)

			for _, want := range tt.wantErr {
				if !errors.Is(err, want) {
					t.Errorf("Run() error = %v, want %v", err, want)
				}
			}
			if len(tt.wantErr) == 0 && err != nil {
				t.Errorf("Run() unexpected error = %v", err)
			}
			if resp.ProductsScraped != tt.wantCount {
				t.Errorf("ProductsScraped = %d, want %d", resp.ProductsScraped, tt.wantCount)
			}
			if len(sink.saved) != tt.wantSaves {
				t.Errorf("saves = %d, want %d", len(sink.saved), tt.wantSaves)
			}
			if len(notifier.messages) != 1 || !strings.HasPrefix(notifier.messages[0], tt.wantMessage) {
				t.Errorf("messages = %q, want prefix %q", notifier.messages, tt.wantMessage)
			}
			if tt.crawler.gotURL != "shop/catalogue" || tt.crawler.gotSet.MaxPages != 3 {
				t.Errorf("crawler called with %q %+v", tt.crawler.gotURL, tt.crawler.gotSet)
			}
		})
	}
}

func TestRunnerRequiresBaseURL(t *testing.T) {
	runner := NewRunner(&stubCrawler{}, &recordingSink{}, &recordingNotifier{})
	if _, err := runner.Run(context.Background(), Request{}); !errors.Is(err, ErrMissingBaseURL) {
		t.Errorf("Run() error = %v, want ErrMissingBaseURL", err)
	}
}

func TestSinksStopAtFirstError(t *testing.T) {
	failing := &recordingSink{err: errors.New("boom")}
	after := &recordingSink{}
	sinks := Sinks{&recordingSink{}, failing, after}

	if err := sinks.Save(context.Background(), nil); err == nil {
		t.Fatal("Save() error = nil, want error")
	}
	if len(after.saved) != 0 {
		t.Error("sink after the failing one should not be called")
	}
}

package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/alvmarrod/fontscan/internal/config"
)

// StylesheetFetcher downloads raw stylesheet text. Each call is a single
// attempt; non-2xx responses are errors.
type StylesheetFetcher struct {
	timeout   time.Duration
	userAgent string
}

// NewStylesheetFetcher creates a fetcher from configuration
func NewStylesheetFetcher(cfg *config.Config) *StylesheetFetcher {
	return &StylesheetFetcher{
		timeout:   time.Duration(cfg.RequestTimeoutMs) * time.Millisecond,
		userAgent: cfg.UserAgent,
	}
}

// Fetch returns the body of sheetURL
func (f *StylesheetFetcher) Fetch(ctx context.Context, sheetURL string) ([]byte, error) {
	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.UserAgent(f.userAgent),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(f.timeout)

	var body []byte
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})

	if err := c.Visit(sheetURL); err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", sheetURL, err)
	}
	return body, nil
}

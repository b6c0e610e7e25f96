package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alvmarrod/fontscan/internal/config"
	"github.com/alvmarrod/fontscan/internal/fonts"
)

// LinkDiscoverer returns the internal pages reachable from a start URL
type LinkDiscoverer interface {
	Discover(ctx context.Context, startURL string) ([]string, error)
}

// Page is a loaded browser tab
type Page interface {
	// UsedFonts reports the fonts applied to rendered elements
	UsedFonts(ctx context.Context) ([]fonts.Observation, error)
	// StylesheetURLs lists the external stylesheets attached to the document
	StylesheetURLs(ctx context.Context) ([]string, error)
	// PreloadFontURLs lists hrefs of <link rel="preload" as="font"> elements
	PreloadFontURLs(ctx context.Context) ([]string, error)
	Close() error
}

// OpenFunc opens a new tab, navigates to url and waits for it to settle
type OpenFunc func(ctx context.Context, url string) (Page, error)

// Fetcher downloads a stylesheet body
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Recorder receives crawl progress counters
type Recorder interface {
	AddPagesDiscovered(n int)
	IncrementPagesAnalyzed()
	IncrementPagesFailed()
	IncrementStylesheetsFetched()
	IncrementStylesheetsFailed()
	AddPreloads(matched, skipped int)
	RecordLoadTime(d time.Duration)
}

// Crawler drives one scan: discover pages, analyze them one at a time and
// fold every page's observations into a single aggregator.
type Crawler struct {
	cfg        *config.Config
	discoverer LinkDiscoverer
	open       OpenFunc
	fetcher    Fetcher
	recorder   Recorder
	queue      *Queue
	agg        *fonts.Aggregator
	sheets     map[string][]fonts.Declaration
}

// NewCrawler creates a new crawler instance
func NewCrawler(cfg *config.Config, discoverer LinkDiscoverer, open OpenFunc, fetcher Fetcher, recorder Recorder) *Crawler {
	return &Crawler{
		cfg:        cfg,
		discoverer: discoverer,
		open:       open,
		fetcher:    fetcher,
		recorder:   recorder,
		queue:      NewQueue(),
		agg:        fonts.NewAggregator(),
		sheets:     make(map[string][]fonts.Declaration),
	}
}

// Run performs the scan and returns the reconciliation report. A cancelled
// context stops the scan after the current page and yields a partial report.
func (c *Crawler) Run(ctx context.Context) (*fonts.Report, error) {
	stats := fonts.Stats{
		StartURL:  c.cfg.StartURL,
		StartedAt: time.Now(),
	}

	logrus.Infof("Starting crawl from: %s", c.cfg.StartURL)

	links, err := c.discoverer.Discover(ctx, c.cfg.StartURL)
	if err != nil {
		return nil, fmt.Errorf("link discovery failed: %w", err)
	}

	for _, link := range links {
		if c.queue.Push(PageEntry{URL: link}) {
			stats.PagesFound++
		}
	}
	c.recorder.AddPagesDiscovered(stats.PagesFound)
	logrus.Infof("Found internal pages: %d", stats.PagesFound)

	processed := 0
	for {
		if ctx.Err() != nil {
			stats.Interrupted = true
			remaining := c.queue.Remaining()
			logrus.Warnf("Crawl interrupted, %d pages not analyzed", len(remaining))
			for _, e := range remaining {
				logrus.Debugf("Not analyzed: %s", e.URL)
			}
			break
		}
		if c.cfg.MaxPages > 0 && processed >= c.cfg.MaxPages {
			logrus.Infof("Reached max_pages=%d, %d pages not analyzed", c.cfg.MaxPages, c.queue.Size())
			break
		}

		entry, ok := c.queue.Pop()
		if !ok {
			break
		}
		processed++

		logrus.Infof("Analyzing (%d/%d): %s", processed, stats.PagesFound, entry.URL)
		if err := c.processPage(ctx, entry.URL, &stats); err != nil {
			logrus.Warnf("Skipping %s: %v", entry.URL, err)
			stats.PagesFailed = append(stats.PagesFailed, entry.URL)
			c.recorder.IncrementPagesFailed()
			continue
		}

		stats.PagesAnalyzed = append(stats.PagesAnalyzed, entry.URL)
		c.recorder.IncrementPagesAnalyzed()
	}

	stats.FinishedAt = time.Now()
	used, declared := c.agg.Counts()
	logrus.Infof("Crawl finished: %d pages analyzed, %d failed, %d fonts used, %d fonts declared",
		len(stats.PagesAnalyzed), len(stats.PagesFailed), used, declared)

	return c.agg.Report(stats), nil
}

// processPage analyzes one page. Nothing is merged into the aggregator
// unless the page was fully inspected. Cancelling ctx does not interrupt a
// page already in progress; only the page timeout does.
func (c *Crawler) processPage(ctx context.Context, pageURL string, stats *fonts.Stats) error {
	ctx = context.WithoutCancel(ctx)
	pageCtx, cancel := context.WithTimeout(ctx, time.Duration(c.cfg.PageTimeoutMs)*time.Millisecond)
	defer cancel()

	start := time.Now()
	page, err := c.open(pageCtx, pageURL)
	if err != nil {
		return fmt.Errorf("failed to load page: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			logrus.Debugf("Failed to close tab for %s: %v", pageURL, err)
		}
	}()
	c.recorder.RecordLoadTime(time.Since(start))

	used, err := page.UsedFonts(pageCtx)
	if err != nil {
		return fmt.Errorf("failed to inspect computed styles: %w", err)
	}

	decls, err := c.collectDeclarations(ctx, pageCtx, page, stats)
	if err != nil {
		return err
	}

	c.agg.RecordDeclarations(decls)
	c.agg.RecordUsage(used)

	logrus.Debugf("%s: %d rendered fonts, %d declarations", pageURL, len(used), len(decls))
	return nil
}

package crawler

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/alvmarrod/fontscan/internal/config"
)

// AnchorFunc loads pageURL in a browser and returns the href of every
// anchor in the rendered document, including script-inserted ones.
type AnchorFunc func(ctx context.Context, pageURL string) ([]string, error)

// Discoverer collects same-origin page URLs from anchor tags, starting at
// the start page and following links up to maxDepth levels. The start page
// is read through anchors when set; deeper levels are fetched with colly.
type Discoverer struct {
	maxDepth    int
	timeout     time.Duration
	pageTimeout time.Duration
	userAgent   string
	filter      *Filter
	anchors     AnchorFunc
}

// NewDiscoverer creates a link discoverer from configuration. anchors may be
// nil, in which case the start page's static HTML is used.
func NewDiscoverer(cfg *config.Config, filter *Filter, anchors AnchorFunc) *Discoverer {
	return &Discoverer{
		maxDepth:    cfg.MaxDepth,
		timeout:     time.Duration(cfg.RequestTimeoutMs) * time.Millisecond,
		pageTimeout: time.Duration(cfg.PageTimeoutMs) * time.Millisecond,
		userAgent:   cfg.UserAgent,
		filter:      filter,
		anchors:     anchors,
	}
}

// linkSet keeps discovered links in the order they were found
type linkSet struct {
	seen  map[string]bool
	links []string
}

func (s *linkSet) add(link string) bool {
	if s.seen[link] {
		return false
	}
	s.seen[link] = true
	s.links = append(s.links, link)
	return true
}

// Discover returns the deduplicated internal links in the order they were found.
// Only a failure to load the start page is an error; deeper pages that fail
// are logged and skipped.
func (d *Discoverer) Discover(ctx context.Context, startURL string) ([]string, error) {
	start, err := url.Parse(startURL)
	if err != nil {
		return nil, fmt.Errorf("invalid start URL: %w", err)
	}

	set := &linkSet{seen: make(map[string]bool)}

	if d.anchors == nil {
		if err := d.follow(ctx, []string{startURL}, d.maxDepth, set); err != nil {
			return nil, fmt.Errorf("failed to load start page %s: %w", startURL, err)
		}
		return set.links, nil
	}

	renderCtx, cancel := context.WithTimeout(ctx, d.pageTimeout)
	hrefs, err := d.anchors(renderCtx, startURL)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("failed to load start page %s: %w", startURL, err)
	}

	for _, href := range hrefs {
		if link, ok := d.filter.Normalize(start, href); ok {
			set.add(link)
		}
	}
	logrus.Debugf("Start page rendered %d anchors, %d internal pages", len(hrefs), len(set.links))

	if d.maxDepth > 1 {
		seeds := append([]string(nil), set.links...)
		if err := d.follow(ctx, seeds, d.maxDepth-1, set); err != nil {
			for _, e := range multierr.Errors(err) {
				logrus.Warnf("Discovery could not load page: %v", e)
			}
		}
	}
	return set.links, nil
}

// follow fetches seeds with colly and records their anchors, descending while
// the request depth is below depth. Seeds count as depth 1.
func (d *Discoverer) follow(ctx context.Context, seeds []string, depth int, set *linkSet) error {
	c := colly.NewCollector(
		colly.MaxDepth(depth),
		colly.UserAgent(d.userAgent),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(d.timeout)

	c.OnHTML("a[href]", func(e *colly.HTMLElement) {
		link, ok := d.filter.Normalize(e.Request.URL, e.Attr("href"))
		if !ok || !set.add(link) {
			return
		}

		if e.Request.Depth < depth {
			if err := e.Request.Visit(link); err != nil {
				logrus.Debugf("Not following %s: %v", link, err)
			}
		}
	})

	c.OnResponse(func(r *colly.Response) {
		logrus.Debugf("Discovery fetched %s (depth=%d, status=%d)", r.Request.URL, r.Request.Depth, r.StatusCode)
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.Request != nil && r.Request.Depth > 1 {
			logrus.Warnf("Discovery could not load %s: %v", r.Request.URL, err)
		}
	})

	var errs error
	for _, seed := range seeds {
		if err := c.Visit(seed); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", seed, err))
		}
	}
	c.Wait()
	return errs
}

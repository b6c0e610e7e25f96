package browser

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/alvmarrod/fontscan/internal/fonts"
)

// Lifecycle event marking at most two open connections for 500ms
const networkAlmostIdle = "networkAlmostIdle"

const computedFontsJS = `(() => {
	const seen = new Set();
	const out = [];
	for (const el of document.querySelectorAll('*')) {
		const cs = window.getComputedStyle(el);
		const key = cs.fontFamily + '|' + cs.fontWeight + '|' + cs.fontStyle;
		if (seen.has(key)) continue;
		seen.add(key);
		out.push({family: cs.fontFamily, weight: cs.fontWeight, style: cs.fontStyle});
	}
	return out;
})()`

const stylesheetsJS = `Array.from(document.styleSheets).map(s => s.href).filter(Boolean)`

const anchorsJS = `Array.from(document.querySelectorAll('a[href]')).map(a => a.href)`

// computedStyle is the font triple read from one element
type computedStyle struct {
	Family string `json:"family"`
	Weight string `json:"weight"`
	Style  string `json:"style"`
}

// Page is one loaded browser tab
type Page struct {
	ctx    context.Context
	cancel context.CancelFunc
	url    string
}

// idleWatcher signals when the main frame reports networkAlmostIdle. Events
// from other frames are ignored; a new main frame navigation resets it.
type idleWatcher struct {
	frame cdp.FrameID
	idle  chan struct{}
}

func newIdleWatcher(frame cdp.FrameID) *idleWatcher {
	return &idleWatcher{frame: frame, idle: make(chan struct{}, 1)}
}

func (w *idleWatcher) handle(ev interface{}) {
	e, ok := ev.(*page.EventLifecycleEvent)
	if !ok || e.FrameID != w.frame {
		return
	}
	switch e.Name {
	case "init":
		select {
		case <-w.idle:
		default:
		}
	case networkAlmostIdle:
		select {
		case w.idle <- struct{}{}:
		default:
		}
	}
}

func (p *Page) navigate(ctx context.Context) error {
	var mainFrame cdp.FrameID
	err := p.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		tree, err := page.GetFrameTree().Do(ctx)
		if err != nil {
			return err
		}
		mainFrame = tree.Frame.ID
		return nil
	}))
	if err != nil {
		return fmt.Errorf("failed to read frame tree: %w", err)
	}

	w := newIdleWatcher(mainFrame)
	chromedp.ListenTarget(p.ctx, w.handle)

	if err := p.run(ctx, page.SetLifecycleEventsEnabled(true)); err != nil {
		return fmt.Errorf("failed to enable lifecycle events: %w", err)
	}
	if err := p.run(ctx, chromedp.Navigate(p.url)); err != nil {
		return fmt.Errorf("failed to navigate: %w", err)
	}

	select {
	case <-w.idle:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("network never settled: %w", ctx.Err())
	case <-p.ctx.Done():
		return errors.New("tab closed while loading")
	}
}

// run executes actions on the tab, bounded by ctx
func (p *Page) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		defer cancelDeadline()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

// UsedFonts reads the computed font of every element on the page
func (p *Page) UsedFonts(ctx context.Context) ([]fonts.Observation, error) {
	var styles []computedStyle
	if err := p.run(ctx, chromedp.Evaluate(computedFontsJS, &styles)); err != nil {
		return nil, err
	}
	return observationsFromStyles(styles), nil
}

// AnchorURLs returns the absolute href of every anchor in the rendered document
func (p *Page) AnchorURLs(ctx context.Context) ([]string, error) {
	var hrefs []string
	if err := p.run(ctx, chromedp.Evaluate(anchorsJS, &hrefs)); err != nil {
		return nil, err
	}
	return hrefs, nil
}

// StylesheetURLs lists the hrefs of the document's external stylesheets
func (p *Page) StylesheetURLs(ctx context.Context) ([]string, error) {
	var hrefs []string
	if err := p.run(ctx, chromedp.Evaluate(stylesheetsJS, &hrefs)); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(hrefs))
	out := make([]string, 0, len(hrefs))
	for _, h := range hrefs {
		if !seen[h] {
			seen[h] = true
			out = append(out, h)
		}
	}
	return out, nil
}

// PreloadFontURLs returns the absolute hrefs of font preload hints
func (p *Page) PreloadFontURLs(ctx context.Context) ([]string, error) {
	var html, location string
	err := p.run(ctx,
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, err
	}
	return preloadFontLinks(location, html)
}

// Close closes the tab
func (p *Page) Close() error {
	err := chromedp.Cancel(p.ctx)
	p.cancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// observationsFromStyles groups computed styles by normalized family, keeping
// first-seen order of families and weights.
func observationsFromStyles(styles []computedStyle) []fonts.Observation {
	index := make(map[string]int)
	seen := make(map[string]bool)
	var out []fonts.Observation

	for _, s := range styles {
		family := fonts.NormalizeFamily(s.Family)
		weight := fonts.RenderedWeight(s.Weight, s.Style)
		if family == "" || weight == "" {
			continue
		}

		i, ok := index[family]
		if !ok {
			i = len(out)
			index[family] = i
			out = append(out, fonts.Observation{Font: family})
		}
		if key := family + "\x00" + weight; !seen[key] {
			seen[key] = true
			out[i].Weights = append(out[i].Weights, weight)
		}
	}
	return out
}

// preloadFontLinks extracts <link rel="preload" as="font"> hrefs from html,
// resolved against pageURL
func preloadFontLinks(pageURL, html string) ([]string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page HTML: %w", err)
	}

	var links []string
	doc.Find(`link[rel~="preload"][as="font"]`).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		links = append(links, base.ResolveReference(ref).String())
	})
	return links, nil
}

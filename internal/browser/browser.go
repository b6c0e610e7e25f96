package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
)

// ErrChromeNotFound is returned when no Chrome or Chromium binary is available
var ErrChromeNotFound = errors.New("no Chrome or Chromium executable found")

// Binary names probed on PATH, in order
var chromeNames = []string{
	"google-chrome",
	"google-chrome-stable",
	"chromium",
	"chromium-browser",
	"chrome",
	"headless-shell",
}

// Options controls how the browser process is started
type Options struct {
	ExecPath  string
	Headful   bool
	UserAgent string
}

// Browser is a running Chrome instance. Tabs opened with Open share it.
type Browser struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
}

// LocateChrome returns the configured executable if set, otherwise the first
// known Chrome binary on PATH.
func LocateChrome(configured string) (string, error) {
	if configured != "" {
		if _, err := os.Stat(configured); err != nil {
			return "", fmt.Errorf("configured chrome_path unusable: %w", err)
		}
		return configured, nil
	}

	for _, name := range chromeNames {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", ErrChromeNotFound
}

// Launch starts Chrome and waits until it accepts commands
func Launch(opts Options) (*Browser, error) {
	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.Headful {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	ctx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(logrus.Debugf),
		// newer Chrome builds emit events cdproto cannot decode
		chromedp.WithErrorf(logrus.Debugf),
	)

	if err := chromedp.Run(ctx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	logrus.Debugf("Browser started (headful=%v)", opts.Headful)
	return &Browser{ctx: ctx, cancel: cancel, allocCancel: allocCancel}, nil
}

// Close shuts the browser down
func (b *Browser) Close() error {
	err := chromedp.Cancel(b.ctx)
	b.cancel()
	b.allocCancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	return nil
}

// Open creates a new tab, navigates to pageURL and returns once the network
// is almost idle. ctx bounds the whole load.
func (b *Browser) Open(ctx context.Context, pageURL string) (*Page, error) {
	tabCtx, tabCancel := chromedp.NewContext(b.ctx)
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		return nil, fmt.Errorf("failed to open tab: %w", err)
	}

	p := &Page{ctx: tabCtx, cancel: tabCancel, url: pageURL}
	if err := p.navigate(ctx); err != nil {
		_ = p.Close()
		return nil, err
	}
	return p, nil
}

// Anchors loads pageURL in a new tab and returns its rendered anchor hrefs
func (b *Browser) Anchors(ctx context.Context, pageURL string) ([]string, error) {
	p, err := b.Open(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := p.Close(); err != nil {
			logrus.Debugf("Failed to close tab for %s: %v", pageURL, err)
		}
	}()
	return p.AnchorURLs(ctx)
}

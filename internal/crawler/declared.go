package crawler

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/alvmarrod/fontscan/internal/fonts"
)

// collectDeclarations gathers @font-face declarations from the page's
// stylesheets and preload hints. A stylesheet that cannot be loaded is
// logged and skipped; it never fails the page.
func (c *Crawler) collectDeclarations(ctx, pageCtx context.Context, page Page, stats *fonts.Stats) ([]fonts.Declaration, error) {
	sheetURLs, err := page.StylesheetURLs(pageCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stylesheets: %w", err)
	}

	var decls []fonts.Declaration
	var sheetErrs error

	for _, sheetURL := range sheetURLs {
		if cached, ok := c.sheets[sheetURL]; ok {
			decls = append(decls, cached...)
			continue
		}

		body, err := c.fetcher.Fetch(ctx, sheetURL)
		if err != nil {
			sheetErrs = multierr.Append(sheetErrs, fmt.Errorf("could not load stylesheet %s: %w", sheetURL, err))
			c.recorder.IncrementStylesheetsFailed()
			continue
		}
		c.recorder.IncrementStylesheetsFetched()

		parsed := fonts.ParseFontFaces(body)
		c.sheets[sheetURL] = parsed
		decls = append(decls, parsed...)
		logrus.Debugf("Stylesheet %s: %d @font-face declarations", sheetURL, len(parsed))
	}

	for _, err := range multierr.Errors(sheetErrs) {
		logrus.Warn(err)
		stats.StylesheetErrs++
	}

	hrefs, err := page.PreloadFontURLs(pageCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to list preload links: %w", err)
	}

	matched, skipped := 0, 0
	for _, href := range hrefs {
		d, ok := fonts.ParsePreloadHref(href)
		if !ok {
			logrus.Debugf("Preload %s does not follow <family>-latin-<weight>.woff2, skipped", href)
			skipped++
			continue
		}
		matched++
		decls = append(decls, d)
	}
	c.recorder.AddPreloads(matched, skipped)

	return decls, nil
}

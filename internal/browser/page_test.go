package browser

import (
	"testing"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alvmarrod/fontscan/internal/fonts"
)

func TestObservationsFromStyles(t *testing.T) {
	styles := []computedStyle{
		{Family: `"Open Sans", Arial, sans-serif`, Weight: "400", Style: "normal"},
		{Family: "Roboto", Weight: "700", Style: "italic"},
		{Family: `'Open Sans'`, Weight: "700", Style: "normal"},
		{Family: "Open Sans", Weight: "400", Style: "normal"},
		{Family: "", Weight: "400", Style: "normal"},
		{Family: "Roboto", Weight: "700", Style: "oblique"},
	}

	got := observationsFromStyles(styles)

	assert.Equal(t, []fonts.Observation{
		{Font: "Open Sans", Weights: []string{"400", "700"}},
		{Font: "Roboto", Weights: []string{"700 italic", "700 oblique"}},
	}, got)
}

func TestObservationsFromStyles_Empty(t *testing.T) {
	assert.Empty(t, observationsFromStyles(nil))
}

func TestPreloadFontLinks(t *testing.T) {
	html := `<html><head>
		<link rel="preload" as="font" type="font/woff2" href="/wp-content/fonts/open-sans-latin-400.woff2" crossorigin>
		<link rel="preload" as="font" href="https://cdn.example.com/fonts/roboto-latin-700italic.woff2">
		<link rel="preload" as="style" href="/theme.css">
		<link rel="stylesheet" href="/fonts.css">
		<link rel="preload" as="font" href="">
	</head><body></body></html>`

	links, err := preloadFontLinks("https://example.com/blog/", html)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://example.com/wp-content/fonts/open-sans-latin-400.woff2",
		"https://cdn.example.com/fonts/roboto-latin-700italic.woff2",
	}, links)

	for _, l := range links {
		_, ok := fonts.ParsePreloadHref(l)
		assert.True(t, ok, l)
	}
}

func TestPreloadFontLinks_None(t *testing.T) {
	links, err := preloadFontLinks("https://example.com/", "<html><body><p>hi</p></body></html>")
	require.NoError(t, err)
	assert.Empty(t, links)
}

func lifecycle(frame cdp.FrameID, name string) *page.EventLifecycleEvent {
	return &page.EventLifecycleEvent{FrameID: frame, Name: name}
}

func isIdle(w *idleWatcher) bool {
	select {
	case <-w.idle:
		return true
	default:
		return false
	}
}

func TestIdleWatcher_MainFrameOnly(t *testing.T) {
	w := newIdleWatcher("MAIN")

	w.handle(lifecycle("IFRAME", networkAlmostIdle))
	assert.False(t, isIdle(w), "iframe idle must not settle the page")

	w.handle(&page.EventFrameNavigated{})
	w.handle(lifecycle("MAIN", networkAlmostIdle))
	assert.True(t, isIdle(w))
}

func TestIdleWatcher_InitResets(t *testing.T) {
	w := newIdleWatcher("MAIN")

	w.handle(lifecycle("MAIN", networkAlmostIdle))
	w.handle(lifecycle("IFRAME", "init"))
	w.handle(lifecycle("MAIN", networkAlmostIdle))
	assert.True(t, isIdle(w), "iframe init must not clear main frame idle")

	w.handle(lifecycle("MAIN", networkAlmostIdle))
	w.handle(lifecycle("MAIN", "init"))
	assert.False(t, isIdle(w), "main frame navigation restarts the wait")
}

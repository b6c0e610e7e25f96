package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alvmarrod/fontscan/internal/config"
)

func newSite(t *testing.T) *httptest.Server {
	t.Helper()

	pages := map[string]string{
		"/": `<a href="/about">About</a>
			<a href="/about#team">Team</a>
			<a href="/contact">Contact</a>
			<a href="https://elsewhere.example/">Out</a>
			<a href="/menu.pdf">Menu</a>
			<a href="mailto:hi@example.com">Mail</a>
			<a href="/wp-admin/">Admin</a>`,
		"/about":   `<a href="/">Home</a><a href="/deep">Deep</a>`,
		"/contact": `<p>no links</p>`,
		"/deep":    `<a href="/deeper">Deeper</a>`,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, "<html><body>%s</body></html>", body)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestDiscoverer(t *testing.T, depth int, anchors AnchorFunc) *Discoverer {
	t.Helper()
	f, err := NewFilter(nil)
	require.NoError(t, err)
	return NewDiscoverer(&config.Config{
		MaxDepth:         depth,
		RequestTimeoutMs: 5000,
		PageTimeoutMs:    5000,
		UserAgent:        "fontscan-test",
	}, f, anchors)
}

func TestDiscover_StartPageOnly(t *testing.T) {
	srv := newSite(t)

	links, err := newTestDiscoverer(t, 1, nil).Discover(context.Background(), srv.URL+"/")
	require.NoError(t, err)

	assert.Equal(t, []string{srv.URL + "/about", srv.URL + "/contact"}, links)
}

func TestDiscover_FollowsLinksToDepth(t *testing.T) {
	srv := newSite(t)

	links, err := newTestDiscoverer(t, 2, nil).Discover(context.Background(), srv.URL+"/")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		srv.URL + "/about",
		srv.URL + "/contact",
		srv.URL + "/",
		srv.URL + "/deep",
	}, links)
	assert.NotContains(t, links, srv.URL+"/deeper")
}

func TestDiscover_StartPageUnreachable(t *testing.T) {
	srv := newSite(t)

	_, err := newTestDiscoverer(t, 1, nil).Discover(context.Background(), srv.URL+"/gone")
	assert.ErrorContains(t, err, "failed to load start page")
}

// renderedAnchors stands in for the browser: it returns anchors as the
// rendered DOM would, including ones absent from the static HTML
func renderedAnchors(hrefs ...string) AnchorFunc {
	return func(_ context.Context, _ string) ([]string, error) {
		return hrefs, nil
	}
}

func TestDiscover_RenderedStartPage(t *testing.T) {
	srv := newSite(t)

	d := newTestDiscoverer(t, 1, renderedAnchors(
		srv.URL+"/about",
		srv.URL+"/js-menu",
		srv.URL+"/about#team",
		"https://elsewhere.example/",
		srv.URL+"/wp-login.php",
	))

	links, err := d.Discover(context.Background(), srv.URL+"/")
	require.NoError(t, err)

	// /contact is only in the static HTML, /js-menu only in the rendered DOM
	assert.Equal(t, []string{srv.URL + "/about", srv.URL + "/js-menu"}, links)
}

func TestDiscover_RenderedStartPageThenStatic(t *testing.T) {
	srv := newSite(t)

	d := newTestDiscoverer(t, 2, renderedAnchors(srv.URL+"/about", srv.URL+"/js-menu"))

	links, err := d.Discover(context.Background(), srv.URL+"/")
	require.NoError(t, err)

	assert.Equal(t, []string{
		srv.URL + "/about",
		srv.URL + "/js-menu",
		srv.URL + "/",
		srv.URL + "/deep",
	}, links)
}

func TestDiscover_RenderedStartPageFails(t *testing.T) {
	d := newTestDiscoverer(t, 1, func(context.Context, string) ([]string, error) {
		return nil, errors.New("net::ERR_NAME_NOT_RESOLVED")
	})

	_, err := d.Discover(context.Background(), "http://site.test/")
	assert.ErrorContains(t, err, "failed to load start page")
}

package crawler

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Excluded path patterns (non-page resources, WordPress admin endpoints)
var excludedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\.(pdf|jpe?g|png|gif|svg|webp|avif|ico|bmp|tiff?)$`),
	regexp.MustCompile(`(?i)\.(zip|gz|tgz|rar|7z|tar)$`),
	regexp.MustCompile(`(?i)\.(mp3|mp4|m4a|wav|webm|mov|avi|ogg)$`),
	regexp.MustCompile(`(?i)\.(docx?|xlsx?|pptx?|odt|csv|txt|xml|json|css|js|woff2?|ttf|otf|eot)$`),
	regexp.MustCompile(`(?i)/wp-admin(/|$)`),
	regexp.MustCompile(`(?i)/wp-login\.php$`),
	regexp.MustCompile(`(?i)/xmlrpc\.php$`),
	regexp.MustCompile(`(?i)/feed/?$`),
}

// Filter decides which anchor targets are crawlable pages
type Filter struct {
	extra []*regexp.Regexp
}

// NewFilter creates a filter with additional operator supplied URL patterns
func NewFilter(patterns []string) (*Filter, error) {
	f := &Filter{}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
		f.extra = append(f.extra, re)
	}
	return f, nil
}

// Normalize resolves href against the page it was found on and returns the
// canonical page URL. ok is false for links leaving the page's origin or
// pointing at excluded resources. Fragments are dropped.
func (f *Filter) Normalize(page *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || page == nil {
		return "", false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	u := page.ResolveReference(ref)

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	if Origin(u) != Origin(page) {
		return "", false
	}

	u.Fragment = ""
	u.RawFragment = ""
	if u.Path == "" {
		u.Path = "/"
	}

	if f.IsExcluded(u) {
		return "", false
	}
	return u.String(), true
}

// IsExcluded checks the built-in path patterns and the operator patterns
func (f *Filter) IsExcluded(u *url.URL) bool {
	for _, pattern := range excludedPatterns {
		if pattern.MatchString(u.Path) {
			return true
		}
	}
	full := u.String()
	for _, pattern := range f.extra {
		if pattern.MatchString(full) {
			return true
		}
	}
	return false
}

// Origin returns scheme://host[:port] with the host lowercased
func Origin(u *url.URL) string {
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host)
}

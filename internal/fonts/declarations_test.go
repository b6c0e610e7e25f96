package fonts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFontFaces(t *testing.T) {
	tests := []struct {
		name string
		css  string
		want []Declaration
	}{
		{
			name: "compact rule",
			css:  `@font-face{font-family:"Inter";font-weight:400;src:url(inter.woff2)}`,
			want: []Declaration{{Font: "Inter", Weight: "400", Source: SourceFontFace}},
		},
		{
			name: "named weight is not recognized",
			css:  `@font-face { font-family: "Inter"; font-weight: bold; src: url(inter.woff2); }`,
		},
		{
			name: "single quotes and reversed order",
			css: `@font-face {
				font-weight: 700;
				src: url("/fonts/open-sans.woff2") format("woff2");
				font-family: 'Open Sans';
			}`,
			want: []Declaration{{Font: "Open Sans", Weight: "700", Source: SourceFontFace}},
		},
		{
			name: "first family and weight win",
			css:  `@font-face { font-family: "A"; font-weight: 300; font-family: "B"; font-weight: 900; }`,
			want: []Declaration{{Font: "A", Weight: "300", Source: SourceFontFace}},
		},
		{
			name: "weight range takes first value",
			css:  `@font-face { font-family: Inter; font-weight: 100 900; }`,
			want: []Declaration{{Font: "Inter", Weight: "100", Source: SourceFontFace}},
		},
		{
			name: "missing family",
			css:  `@font-face { font-weight: 400; }`,
		},
		{
			name: "regular rules ignored",
			css: `body { font-family: "Inter"; font-weight: 400; }
				@font-face { font-family: "Lora"; font-style: italic; font-weight: 400; }
				@media (min-width: 600px) { @font-face { font-family: "Lora"; font-weight: 700; } }`,
			want: []Declaration{
				{Font: "Lora", Weight: "400", Source: SourceFontFace},
				{Font: "Lora", Weight: "700", Source: SourceFontFace},
			},
		},
		{
			name: "stray brace between rules",
			css:  `@font-face{font-family:"Inter";font-weight:400} } @font-face{font-family:"X";font-weight:900}`,
			want: []Declaration{
				{Font: "Inter", Weight: "400", Source: SourceFontFace},
				{Font: "X", Weight: "900", Source: SourceFontFace},
			},
		},
		{
			name: "broken ruleset before font-face",
			css:  `a{color:red}} @font-face{font-family:"Y";font-weight:300}`,
			want: []Declaration{{Font: "Y", Weight: "300", Source: SourceFontFace}},
		},
		{
			name: "byte order mark",
			css:  "\xef\xbb\xbf@font-face{font-family:\"BOM\";font-weight:400}",
			want: []Declaration{{Font: "BOM", Weight: "400", Source: SourceFontFace}},
		},
		{
			name: "named first weight hides later numeric weight",
			css:  `@font-face { font-family: "Inter"; font-weight: bold; font-weight: 700; }`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseFontFaces([]byte(tt.css)))
		})
	}
}

func TestParsePreloadHref(t *testing.T) {
	tests := []struct {
		href string
		want Declaration
		ok   bool
	}{
		{
			href: "https://example.com/wp-content/fonts/inter-latin-700italic.woff2",
			want: Declaration{Font: "inter", Weight: "700italic", Source: SourcePreload},
			ok:   true,
		},
		{
			href: "https://example.com/fonts/open-sans-latin-400.woff2?ver=1.2",
			want: Declaration{Font: "open sans", Weight: "400", Source: SourcePreload},
			ok:   true,
		},
		{href: "https://example.com/fonts/inter.woff2"},
		{href: "https://example.com/fonts/inter-latin-400.woff"},
		{href: "inter-latin-400.woff2"},
	}

	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			got, ok := ParsePreloadHref(tt.href)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeFamily(t *testing.T) {
	assert.Equal(t, "Open Sans", NormalizeFamily(`"Open Sans", Arial, sans-serif`))
	assert.Equal(t, "Inter", NormalizeFamily(` 'Inter' `))
	assert.Equal(t, "arial", NormalizeFamily("arial"))
	assert.Equal(t, "", NormalizeFamily(""))
}

func TestRenderedWeight(t *testing.T) {
	assert.Equal(t, "400", RenderedWeight("400", "normal"))
	assert.Equal(t, "700 italic", RenderedWeight("700", "italic"))
	assert.Equal(t, "300", RenderedWeight("300", ""))
}

package fonts

import (
	"bytes"
	"io"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

var utf8BOM = []byte("\xef\xbb\xbf")

var (
	// only three digit numeric weights are recognized, named weights are not
	numericWeight = regexp.MustCompile(`^\d{3}$`)

	// <fontname>-latin-<weight>[italic].woff2
	preloadPattern = regexp.MustCompile(`.*/([^/]+)-latin-(\d{3})(italic)?\.woff2`)
)

// ParseFontFaces extracts (family, weight) pairs from every @font-face block
// in a stylesheet. The first font-family and the first font-weight of a block
// are used regardless of their order; blocks without a numeric weight are skipped.
// Syntax errors elsewhere in the sheet do not stop the scan.
func ParseFontFaces(data []byte) []Declaration {
	data = bytes.TrimPrefix(data, utf8BOM)
	p := css.NewParser(parse.NewInputBytes(data), false)

	var decls []Declaration
	for {
		gt, _, tok := p.Next()
		switch gt {
		case css.ErrorGrammar:
			if p.Err() == io.EOF {
				return decls
			}
			logrus.Debugf("Recovering from CSS syntax error: %v", p.Err())
		case css.BeginAtRuleGrammar:
			if strings.EqualFold(string(tok), "@font-face") {
				if d, ok := parseFontFaceBlock(p); ok {
					decls = append(decls, d)
				}
			}
		}
	}
}

func parseFontFaceBlock(p *css.Parser) (Declaration, bool) {
	var family, weight string
	var haveFamily, haveWeight bool

	for {
		gt, _, tok := p.Next()
		switch gt {
		case css.ErrorGrammar, css.EndAtRuleGrammar:
			if gt == css.ErrorGrammar && p.Err() != io.EOF {
				logrus.Debugf("Recovering from CSS syntax error in @font-face: %v", p.Err())
				continue
			}
			if family == "" || weight == "" {
				return Declaration{}, false
			}
			return Declaration{Font: family, Weight: weight, Source: SourceFontFace}, true

		case css.DeclarationGrammar:
			values := p.Values()
			switch strings.ToLower(string(tok)) {
			case "font-family":
				if haveFamily {
					continue
				}
				haveFamily = true
				family = NormalizeFamily(joinTokens(values))
			case "font-weight":
				if haveWeight {
					continue
				}
				haveWeight = true
				if first := firstToken(values); first != nil && first.TokenType == css.NumberToken &&
					numericWeight.Match(first.Data) {
					weight = string(first.Data)
				}
			}
		}
	}
}

// ParsePreloadHref derives a declaration from a preload link following the
// <fontname>-latin-<weight>[italic].woff2 naming convention.
func ParsePreloadHref(href string) (Declaration, bool) {
	m := preloadPattern.FindStringSubmatch(href)
	if m == nil {
		return Declaration{}, false
	}
	return Declaration{
		Font:   strings.ReplaceAll(m[1], "-", " "),
		Weight: m[2] + m[3],
		Source: SourcePreload,
	}, true
}

func joinTokens(tokens []css.Token) string {
	var sb strings.Builder
	for _, t := range tokens {
		if t.TokenType == css.WhitespaceToken {
			sb.WriteByte(' ')
			continue
		}
		sb.Write(t.Data)
	}
	return sb.String()
}

func firstToken(tokens []css.Token) *css.Token {
	for i := range tokens {
		if tokens[i].TokenType != css.WhitespaceToken {
			return &tokens[i]
		}
	}
	return nil
}

// Package report renders a crawl report for the console
package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/alvmarrod/fontscan/internal/fonts"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Write renders r in the given format
func Write(w io.Writer, r *fonts.Report, format string) error {
	switch format {
	case FormatText, "":
		return WriteText(w, r)
	case FormatJSON:
		return WriteJSON(w, r)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// WriteJSON writes r as indented JSON
func WriteJSON(w io.Writer, r *fonts.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// printer keeps the first write error so rendering code can stay linear
type printer struct {
	w   *bufio.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

// WriteText writes the human readable report
func WriteText(w io.Writer, r *fonts.Report) error {
	p := &printer{w: bufio.NewWriter(w)}

	p.printf("🚀 **Used font-weights & styles across the entire site:**\n")
	writeMappings(p, r.Used)

	p.printf("\n🖋 **Loaded fonts and font-weights via @font-face and preload links:**\n")
	writeMappings(p, r.Declared)

	if len(r.Unused) > 0 {
		p.printf("\n❌ **Unused loaded fonts and weights! Consider removing these:**\n")
		for _, o := range r.Unused {
			p.printf("%s (%s)\n", o.Font, strings.Join(o.Weights, ", "))
		}
	} else {
		p.printf("\n✅ **All loaded fonts and weights are in use!**\n")
	}

	if len(r.Missing) > 0 {
		p.printf("\n⚠️ **Fonts rendered without any @font-face or preload declaration:**\n")
		for _, font := range r.Missing {
			p.printf("%s\n", font)
		}
	}

	if len(r.NotationMismatches) > 0 {
		p.printf("\n⚠️ **Weights that differ only in italic notation (not merged):**\n")
		for _, m := range r.NotationMismatches {
			p.printf("%s: declared %q, rendered %q\n", m.Font, m.Declared, m.Used)
		}
	}

	s := r.Stats
	if len(s.PagesFailed) > 0 {
		p.printf("\n⚠️ %d page(s) could not be analyzed:\n", len(s.PagesFailed))
		for _, u := range s.PagesFailed {
			p.printf("%s\n", u)
		}
	}

	if s.Interrupted {
		p.printf("\n⏹ Scan interrupted after %d of %d pages. Results above are partial.\n",
			len(s.PagesAnalyzed), s.PagesFound)
	} else {
		p.printf("\n✅ Scan complete! Check if you are loading unnecessary @font-face fonts.\n")
	}

	if p.err == nil {
		p.err = p.w.Flush()
	}
	if p.err != nil {
		return fmt.Errorf("failed to write report: %w", p.err)
	}
	return nil
}

func writeMappings(p *printer, obs []fonts.Observation) {
	for _, o := range obs {
		p.printf("🎨 %s: %s\n", o.Font, strings.Join(o.Weights, ", "))
	}
}

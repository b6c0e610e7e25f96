package fonts

import (
	"sort"
	"strings"
	"sync"

	"github.com/maruel/natural"
)

// Set maps a FontKey to the set of WeightDescriptors seen for it
type Set map[string]map[string]struct{}

// Observation is one font with the weights recorded for it
type Observation struct {
	Font    string   `json:"font"`
	Weights []string `json:"weights"`
}

// Declaration sources
const (
	SourceFontFace = "font-face"
	SourcePreload  = "preload"
)

// Declaration is a single (font, weight) pair a page declares as loadable
type Declaration struct {
	Font   string `json:"font"`
	Weight string `json:"weight"`
	Source string `json:"source,omitempty"`
}

// NotationMismatch pairs a declared weight with a rendered weight that differ
// only in how the italic qualifier is written ("400italic" vs "400 italic").
type NotationMismatch struct {
	Font     string `json:"font"`
	Declared string `json:"declared"`
	Used     string `json:"used"`
}

// Aggregator accumulates font usage and declarations for a single crawl run.
// Both sets only grow; merging is a set union.
type Aggregator struct {
	mu       sync.RWMutex
	used     Set
	declared Set
}

// NewAggregator creates an empty aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{
		used:     make(Set),
		declared: make(Set),
	}
}

// RecordUsage unions the rendered weights of each observation into the usage set
func (a *Aggregator) RecordUsage(observations []Observation) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, obs := range observations {
		for _, w := range obs.Weights {
			add(a.used, obs.Font, w)
		}
	}
}

// RecordDeclaration adds one declared weight for a font
func (a *Aggregator) RecordDeclaration(font, weight string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	add(a.declared, font, weight)
}

// RecordDeclarations records every declaration in order
func (a *Aggregator) RecordDeclarations(decls []Declaration) {
	for _, d := range decls {
		a.RecordDeclaration(d.Font, d.Weight)
	}
}

// UnusedDeclarations returns, per declared font, the weights that no rendered
// element uses. Matching is exact on both FontKey and WeightDescriptor.
func (a *Aggregator) UnusedDeclarations() []Observation {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var unused []Observation
	for font, weights := range a.declared {
		usedWeights := a.used[font] // nil map reads as empty

		var diff []string
		for w := range weights {
			if _, ok := usedWeights[w]; !ok {
				diff = append(diff, w)
			}
		}
		if len(diff) > 0 {
			sort.Sort(natural.StringSlice(diff))
			unused = append(unused, Observation{Font: font, Weights: diff})
		}
	}

	sortObservations(unused)
	return unused
}

// MissingUsages returns fonts that are rendered but have no declaration at all.
// This is a font-level check; individual weights are not compared.
func (a *Aggregator) MissingUsages() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var missing []string
	for font := range a.used {
		if _, ok := a.declared[font]; !ok {
			missing = append(missing, font)
		}
	}
	sort.Strings(missing)
	return missing
}

// NotationMismatches lists declared weights that would match a rendered weight
// if the italic qualifier were written the same way. They are reported, not merged.
func (a *Aggregator) NotationMismatches() []NotationMismatch {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var out []NotationMismatch
	for font, declared := range a.declared {
		used, ok := a.used[font]
		if !ok {
			continue
		}
		for d := range declared {
			if _, exact := used[d]; exact {
				continue
			}
			alt, ok := alternateItalic(d)
			if !ok {
				continue
			}
			if _, hit := used[alt]; hit {
				out = append(out, NotationMismatch{Font: font, Declared: d, Used: alt})
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Font != out[j].Font {
			return out[i].Font < out[j].Font
		}
		return natural.Less(out[i].Declared, out[j].Declared)
	})
	return out
}

// Used returns a sorted snapshot of the usage set
func (a *Aggregator) Used() []Observation {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return snapshot(a.used)
}

// Declared returns a sorted snapshot of the declaration set
func (a *Aggregator) Declared() []Observation {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return snapshot(a.declared)
}

// Counts returns the number of fonts in the usage and declaration sets
func (a *Aggregator) Counts() (usedFonts, declaredFonts int) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.used), len(a.declared)
}

// Report assembles the final reconciliation report
func (a *Aggregator) Report(stats Stats) *Report {
	return &Report{
		Stats:              stats,
		Used:               a.Used(),
		Declared:           a.Declared(),
		Unused:             a.UnusedDeclarations(),
		Missing:            a.MissingUsages(),
		NotationMismatches: a.NotationMismatches(),
	}
}

func add(set Set, font, weight string) {
	if font == "" || weight == "" {
		return
	}
	weights, ok := set[font]
	if !ok {
		weights = make(map[string]struct{})
		set[font] = weights
	}
	weights[weight] = struct{}{}
}

func snapshot(set Set) []Observation {
	out := make([]Observation, 0, len(set))
	for font, weights := range set {
		ws := make([]string, 0, len(weights))
		for w := range weights {
			ws = append(ws, w)
		}
		sort.Sort(natural.StringSlice(ws))
		out = append(out, Observation{Font: font, Weights: ws})
	}
	sortObservations(out)
	return out
}

func sortObservations(obs []Observation) {
	sort.Slice(obs, func(i, j int) bool { return obs[i].Font < obs[j].Font })
}

// alternateItalic converts between "700italic" and "700 italic"
func alternateItalic(w string) (string, bool) {
	if base, ok := strings.CutSuffix(w, " italic"); ok {
		return base + "italic", true
	}
	if base, ok := strings.CutSuffix(w, "italic"); ok && base != "" && !strings.HasSuffix(base, " ") {
		return base + " italic", true
	}
	return "", false
}

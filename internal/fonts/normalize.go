package fonts

import "strings"

// NormalizeFamily turns a raw font-family value into a FontKey.
// Only the first entry of a font stack is kept, quotes are removed and
// surrounding whitespace is trimmed. Case is preserved.
func NormalizeFamily(raw string) string {
	first, _, _ := strings.Cut(raw, ",")
	first = strings.NewReplacer(`"`, "", `'`, "").Replace(first)
	return strings.TrimSpace(first)
}

// RenderedWeight builds the WeightDescriptor for a computed style pair,
// e.g. ("400", "normal") -> "400" and ("700", "italic") -> "700 italic".
func RenderedWeight(weight, style string) string {
	weight = strings.TrimSpace(weight)
	style = strings.TrimSpace(style)
	if style == "" || style == "normal" {
		return weight
	}
	return weight + " " + style
}

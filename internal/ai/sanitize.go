package ai

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Field caps applied before user text is embedded in a prompt.
const (
	MaxShortField     = 500
	MaxLongField      = 2000
	MaxCellLength     = 200
	MaxPriorArtifact  = 4000
	MaxDatasets       = 10
	MaxSampleRows     = 50
	MaxHeaders        = 50
	MaxDomains        = 10
	MaxListItemLength = 100
)

const strippedBrackets = "<>{}[]"

// Sanitize strips control and format characters (newline and tab survive),
// removes the bracket characters <>{}[], trims, and caps the result at max
// runes. Sanitize(Sanitize(s, n), n) == Sanitize(s, n).
func Sanitize(s string, max int) string {
	if max <= 0 || s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == utf8.RuneError:
		case r == '\n' || r == '\t':
			b.WriteRune(r)
		case unicode.IsControl(r), unicode.Is(unicode.Cf, r):
		case strings.ContainsRune(strippedBrackets, r):
		default:
			b.WriteRune(r)
		}
	}

	out := strings.TrimSpace(b.String())
	if utf8.RuneCountInString(out) > max {
		out = strings.TrimSpace(string([]rune(out)[:max]))
	}
	return out
}

// SanitizeList sanitizes each item, drops items that end up empty, and keeps
// at most maxItems.
func SanitizeList(items []string, maxItems, maxLen int) []string {
	out := make([]string, 0, min(len(items), maxItems))
	for _, item := range items {
		if len(out) == maxItems {
			break
		}
		if clean := Sanitize(item, maxLen); clean != "" {
			out = append(out, clean)
		}
	}
	return out
}

// singleLine collapses whitespace so a value fits one prompt line.
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

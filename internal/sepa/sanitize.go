package sepa

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// The EPC character set allowed in pain.001 text fields.
const allowedPunctuation = "/-?:().,'+ "

var foldTransformer = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// SanitizeText folds a free-text field to the restricted SEPA character set:
// diacritics are decomposed and dropped, anything still outside the set
// becomes a space. The result is trimmed to max runes.
func SanitizeText(s string, max int) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case strings.ContainsRune(allowedPunctuation, r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	out := strings.TrimSpace(b.String())
	if runeCount := len([]rune(out)); runeCount > max {
		out = string([]rune(out)[:max])
	}
	return strings.TrimSpace(out)
}

package extract

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize prepares raw OCR text for snippet extraction: NFKC
// normalization (ligatures, fullwidth forms, compatibility characters)
// followed by control-rune stripping. Newlines and tabs survive because
// layout matters for sentence detection in newspaper columns. Snippet
// offsets always refer to the normalized text.
func Normalize(text string) string {
	t := norm.NFKC.String(text)

	var b strings.Builder
	b.Grow(len(t))
	for _, r := range t {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

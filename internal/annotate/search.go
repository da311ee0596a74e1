package annotate

import (
	"unicode"
)

// Occurrence is one hit of a literal search, as code point offsets.
type Occurrence struct {
	Start int
	End   int
}

// FindAllFold locates every non-overlapping case-insensitive occurrence of
// query in text. Folding is per-rune, so offsets always count positions in
// the original text.
func FindAllFold(text, query string) []Occurrence {
	t := []rune(text)
	q := []rune(query)
	if len(q) == 0 || len(q) > len(t) {
		return nil
	}

	var out []Occurrence
	for i := 0; i+len(q) <= len(t); {
		match := true
		for j := range q {
			if unicode.ToLower(t[i+j]) != unicode.ToLower(q[j]) {
				match = false
				break
			}
		}
		if match {
			out = append(out, Occurrence{Start: i, End: i + len(q)})
			i += len(q)
		} else {
			i++
		}
	}
	return out
}

// Highlight renders a span inside its surrounding context, bracketed by the
// given markers, with up to window code points on each side.
func Highlight(text string, start, end, window int, open, close string) string {
	runes := []rune(text)
	if start < 0 {
		start = 0
	}
	if end > len(runes) {
		end = len(runes)
	}

	ctxStart := start - window
	if ctxStart < 0 {
		ctxStart = 0
	}
	ctxEnd := end + window
	if ctxEnd > len(runes) {
		ctxEnd = len(runes)
	}

	return string(runes[ctxStart:start]) + open + string(runes[start:end]) + close + string(runes[end:ctxEnd])
}

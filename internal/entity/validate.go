package entity

import (
	"fmt"
	"unicode/utf8"
)

// Side identifies which collection a span came from.
type Side string

const (
	SideGold Side = "gold"
	SidePred Side = "pred"
)

// InvalidSpanError reports a structurally invalid span with enough context
// to locate the bad record. Spans are never repaired.
type InvalidSpanError struct {
	DocumentID string
	SnippetID  string
	Side       Side
	Index      int
	Reason     string
}

func (e *InvalidSpanError) Error() string {
	return fmt.Sprintf("invalid %s span %d in %s/%s: %s",
		e.Side, e.Index, e.DocumentID, e.SnippetID, e.Reason)
}

// Validate checks every span structurally and returns an *InvalidSpanError
// for the first invalid one. textLen < 0 skips the upper-bound check for
// callers that do not have the snippet text at hand.
func Validate(docID, snippetID string, side Side, spans []Span, textLen int) error {
	for i, s := range spans {
		if reason := s.check(textLen); reason != "" {
			return &InvalidSpanError{
				DocumentID: docID,
				SnippetID:  snippetID,
				Side:       side,
				Index:      i,
				Reason:     reason,
			}
		}
	}
	return nil
}

func (s Span) check(textLen int) string {
	switch {
	case s.Start < 0:
		return fmt.Sprintf("start %d is negative", s.Start)
	case s.Start >= s.End:
		return fmt.Sprintf("start %d is not before end %d", s.Start, s.End)
	case textLen >= 0 && s.End > textLen:
		return fmt.Sprintf("end %d is past the text length %d", s.End, textLen)
	case !s.Type.Valid():
		return fmt.Sprintf("unknown entity type %q", s.Type)
	}
	return ""
}

// TextLen counts Unicode code points, the unit span offsets are expressed in.
func TextLen(s string) int {
	return utf8.RuneCountInString(s)
}

// Slice cuts [start, end) out of text by code-point offsets. Out-of-range
// offsets are clamped.
func Slice(text string, start, end int) string {
	runes := []rune(text)
	if start < 0 {
		start = 0
	}
	if end > len(runes) {
		end = len(runes)
	}
	if start >= end {
		return ""
	}
	return string(runes[start:end])
}

// Package entity defines the annotation taxonomy and the character-span
// records shared by the extraction, annotation, and evaluation layers.
package entity

import (
	"fmt"
	"strings"
)

// Type labels a span with one of the fixed taxonomy values. The set is
// closed; anything else is a caller error.
type Type string

const (
	LOC  Type = "LOC"
	PER  Type = "PER"
	ORG  Type = "ORG"
	MISC Type = "MISC"
)

// Types returns the taxonomy in canonical report order.
func Types() []Type {
	return []Type{LOC, PER, ORG, MISC}
}

// Description returns the annotation-guide description shown to reviewers.
func (t Type) Description() string {
	switch t {
	case LOC:
		return "Location (places, regions, natural features)"
	case PER:
		return "Person (named individuals)"
	case ORG:
		return "Organization (companies, government bodies)"
	case MISC:
		return "Miscellaneous (indigenous groups, treaties, events)"
	}
	return "Unknown"
}

// Valid reports whether t belongs to the taxonomy.
func (t Type) Valid() bool {
	switch t {
	case LOC, PER, ORG, MISC:
		return true
	}
	return false
}

// ParseType normalizes a raw label to a taxonomy value.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown entity type %q (expected LOC, PER, ORG, or MISC)", s)
	}
	return t, nil
}

// Span is a typed character interval over a snippet's text. Offsets are
// half-open [Start, End) and count Unicode code points, matching the
// annotation files. Text is carried for display and debugging only;
// matching never consults it. The remaining fields are annotation
// provenance passed through untouched by the evaluator.
type Span struct {
	Text         string  `json:"text"`
	Start        int     `json:"start"`
	End          int     `json:"end"`
	Type         Type    `json:"type"`
	Confidence   float64 `json:"confidence,omitempty"`
	Source       string  `json:"source,omitempty"`
	OriginalType string  `json:"original_type,omitempty"`
	Notes        string  `json:"notes,omitempty"`
	Reviewed     bool    `json:"reviewed,omitempty"`
}

// ExactMatch reports whether both spans cover the same interval with the
// same type.
func (s Span) ExactMatch(o Span) bool {
	return s.Start == o.Start && s.End == o.End && s.Type == o.Type
}

// Overlaps reports whether the spans share at least one character. The
// predicate is symmetric.
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// PartialMatch reports whether the spans overlap and carry the same type.
func (s Span) PartialMatch(o Span) bool {
	return s.Type == o.Type && s.Overlaps(o)
}

// SameOffsets reports whether the spans cover exactly the same interval,
// regardless of type.
func (s Span) SameOffsets(o Span) bool {
	return s.Start == o.Start && s.End == o.End
}

func (s Span) String() string {
	return fmt.Sprintf("%q [%d,%d) %s", s.Text, s.Start, s.End, s.Type)
}

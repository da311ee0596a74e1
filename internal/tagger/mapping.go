package tagger

import (
	"fmt"
	"strings"

	"github.com/prairie-archives/nerbench/internal/entity"
)

// DraftConfidence is assigned when a backend reports no confidence of its own.
const DraftConfidence = 0.8

// labelMap folds raw model labels into the annotation taxonomy. spaCy-style
// labels cover the common backends; taxonomy names map to themselves so
// models prompted with our types pass through.
var labelMap = map[string]entity.Type{
	"GPE":    entity.LOC,
	"LOC":    entity.LOC,
	"FAC":    entity.LOC,
	"PERSON": entity.PER,
	"PER":    entity.PER,
	"ORG":    entity.ORG,
	"NORP":   entity.MISC,
	"EVENT":  entity.MISC,
	"LAW":    entity.MISC,
	"MISC":   entity.MISC,
}

// MapLabel folds one raw label. ok is false for labels outside the taxonomy;
// those entities are dropped, not errors.
func MapLabel(raw string) (entity.Type, bool) {
	t, ok := labelMap[strings.ToUpper(strings.TrimSpace(raw))]
	return t, ok
}

// draftSpan builds the span recorded in draft and prediction files: taxonomy
// type, raw label preserved, backend named as the source.
func draftSpan(backend, text string, start, end int, raw string, confidence float64) (entity.Span, bool) {
	typ, ok := MapLabel(raw)
	if !ok {
		return entity.Span{}, false
	}
	if confidence == 0 {
		confidence = DraftConfidence
	}
	return entity.Span{
		Text:         text,
		Start:        start,
		End:          end,
		Type:         typ,
		Confidence:   confidence,
		Source:       backend,
		OriginalType: raw,
		Notes:        fmt.Sprintf("Auto-detected by %s as %s", backend, raw),
	}, true
}

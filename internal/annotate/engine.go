package annotate

import (
	"fmt"
	"sort"
	"time"

	"github.com/prairie-archives/nerbench/internal/entity"
	"github.com/prairie-archives/nerbench/internal/workspace"
)

// SourceHumanAdded marks entities the reviewer added by hand.
const SourceHumanAdded = "human_added"

// State of a review walk.
type State string

const (
	// StateDeciding means a draft entity awaits a decision.
	StateDeciding State = "deciding"
	// StateAdditions means the current snippet's entities are all decided
	// and missed entities may be added before moving on.
	StateAdditions State = "additions"
	// StateDone means every snippet has been reviewed.
	StateDone State = "done"
)

// Action is one review decision.
type Action string

const (
	ActionAccept Action = "accept"
	ActionReject Action = "reject"
	ActionModify Action = "modify"
	// ActionSkip drops the whole snippet from the gold standard.
	ActionSkip Action = "skip"
)

// Decision carries one action plus the modify parameters.
type Decision struct {
	Action Action
	Type   entity.Type // modify: replacement type
	Start  *int        // modify: optional boundary edit, both or neither
	End    *int
	Notes  string // modify: optional notes
}

// Review walks a draft document entity by entity and accumulates the
// reviewed gold standard. It is driven by discrete decision events, so the
// interactive CLI and the review API share it.
type Review struct {
	draft *workspace.AnnotationFile

	si    int
	ei    int
	state State

	kept     []entity.Span
	snippets []workspace.AnnotatedSnippet
}

// NewReview starts a walk over the draft's snippets.
func NewReview(draft *workspace.AnnotationFile) *Review {
	r := &Review{draft: draft}
	r.settle()
	return r
}

func (r *Review) settle() {
	if r.si >= len(r.draft.Snippets) {
		r.state = StateDone
		return
	}
	if r.ei >= len(r.draft.Snippets[r.si].Entities) {
		r.state = StateAdditions
		return
	}
	r.state = StateDeciding
}

func (r *Review) State() State { return r.state }

// DocumentID names the draft under review.
func (r *Review) DocumentID() string { return r.draft.DocumentID }

// Position reports the current snippet and entity cursor.
func (r *Review) Position() (snippet, entity int) { return r.si, r.ei }

// Current returns the snippet and entity awaiting a decision.
func (r *Review) Current() (*workspace.AnnotatedSnippet, *entity.Span, bool) {
	if r.state != StateDeciding {
		return nil, nil, false
	}
	s := &r.draft.Snippets[r.si]
	return s, &s.Entities[r.ei], true
}

// CurrentSnippet returns the snippet being worked on.
func (r *Review) CurrentSnippet() (*workspace.AnnotatedSnippet, bool) {
	if r.state == StateDone {
		return nil, false
	}
	return &r.draft.Snippets[r.si], true
}

// Apply records one decision for the entity awaiting review.
func (r *Review) Apply(d Decision) error {
	if r.state != StateDeciding {
		return fmt.Errorf("no entity awaiting a decision")
	}
	snippet := &r.draft.Snippets[r.si]
	span := snippet.Entities[r.ei]

	switch d.Action {
	case ActionAccept:
		span.Confidence = 1.0
		span.Reviewed = true
		r.kept = append(r.kept, span)

	case ActionReject:
		// dropped

	case ActionModify:
		if !d.Type.Valid() {
			return fmt.Errorf("unknown entity type %q (expected LOC, PER, ORG, or MISC)", string(d.Type))
		}
		span.Type = d.Type
		if d.Start != nil && d.End != nil {
			start, end := *d.Start, *d.End
			if start < 0 || start >= end || end > entity.TextLen(snippet.Text) {
				return fmt.Errorf("boundary [%d, %d) is out of range for the snippet", start, end)
			}
			span.Start = start
			span.End = end
			span.Text = entity.Slice(snippet.Text, start, end)
		} else if d.Start != nil || d.End != nil {
			return fmt.Errorf("boundary edit needs both start and end")
		}
		if d.Notes != "" {
			span.Notes = d.Notes
		}
		span.Confidence = 1.0
		span.Reviewed = true
		r.kept = append(r.kept, span)

	case ActionSkip:
		r.kept = nil
		r.si++
		r.ei = 0
		r.settle()
		return nil

	default:
		return fmt.Errorf("unknown action %q", string(d.Action))
	}

	r.ei++
	r.settle()
	return nil
}

// AddMissed records every case-insensitive occurrence of text in the
// current snippet as a reviewed human addition, returning how many were
// found. Only valid during the additions pass.
func (r *Review) AddMissed(text string, typ entity.Type, notes string) (int, error) {
	if r.state != StateAdditions {
		return 0, fmt.Errorf("no snippet open for additions")
	}
	if !typ.Valid() {
		return 0, fmt.Errorf("unknown entity type %q (expected LOC, PER, ORG, or MISC)", string(typ))
	}
	if notes == "" {
		notes = "Added during review"
	}

	snippet := &r.draft.Snippets[r.si]
	occs := FindAllFold(snippet.Text, text)
	for _, occ := range occs {
		r.kept = append(r.kept, entity.Span{
			Text:       entity.Slice(snippet.Text, occ.Start, occ.End),
			Start:      occ.Start,
			End:        occ.End,
			Type:       typ,
			Confidence: 1.0,
			Source:     SourceHumanAdded,
			Reviewed:   true,
			Notes:      notes,
		})
	}
	return len(occs), nil
}

// Kept returns a copy of the entities accepted so far for the current
// snippet.
func (r *Review) Kept() []entity.Span {
	return append([]entity.Span(nil), r.kept...)
}

// FinishSnippet closes the additions pass and records the snippet's
// reviewed entities, sorted by start offset.
func (r *Review) FinishSnippet() error {
	if r.state != StateAdditions {
		return fmt.Errorf("no snippet open for additions")
	}

	src := r.draft.Snippets[r.si]
	spans := append([]entity.Span(nil), r.kept...)
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })

	r.snippets = append(r.snippets, workspace.AnnotatedSnippet{
		SnippetID:          src.SnippetID,
		Text:               src.Text,
		CharStart:          src.CharStart,
		CharEnd:            src.CharEnd,
		EntityDensityScore: src.EntityDensityScore,
		Entities:           spans,
	})

	r.kept = nil
	r.si++
	r.ei = 0
	r.settle()
	return nil
}

// Gold assembles the reviewed gold standard file once the walk is done.
func (r *Review) Gold() (*workspace.AnnotationFile, error) {
	if r.state != StateDone {
		return nil, fmt.Errorf("review is not finished")
	}

	f := &workspace.AnnotationFile{
		DocumentID:       r.draft.DocumentID,
		Metadata:         r.draft.Metadata,
		AnnotationDate:   today(),
		Annotator:        workspace.AnnotatorReviewed,
		AnnotationMethod: workspace.MethodAIAssisted,
		Model:            r.draft.Model,
		TotalSnippets:    len(r.snippets),
		Snippets:         r.snippets,
	}
	f.TotalEntities = f.CountEntities()
	return f, nil
}

func today() string {
	return time.Now().Format("2006-01-02")
}

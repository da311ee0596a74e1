// Package spanmatch scores one snippet's predicted entity spans against its
// gold spans. It is a pure computation: no I/O, no shared state, and a
// deterministic result for a given input order.
package spanmatch

import (
	"github.com/prairie-archives/nerbench/internal/entity"
)

// Kind classifies one entry of the error list.
type Kind string

const (
	FalsePositive Kind = "false_positive"
	FalseNegative Kind = "false_negative"
	BoundaryError Kind = "boundary_error"
	TypeError     Kind = "type_error"
)

// Counts tallies matches for one scope. Gold() and Pred() recover the
// collection sizes, so sums over any partition stay consistent.
type Counts struct {
	TP int `json:"tp"`
	FP int `json:"fp"`
	FN int `json:"fn"`
}

// Add accumulates o into c.
func (c *Counts) Add(o Counts) {
	c.TP += o.TP
	c.FP += o.FP
	c.FN += o.FN
}

// Gold returns the number of gold spans covered by these counts.
func (c Counts) Gold() int { return c.TP + c.FN }

// Pred returns the number of predicted spans covered by these counts.
func (c Counts) Pred() int { return c.TP + c.FP }

// Input is one snippet's gold and predicted spans, in caller-supplied order.
// The evaluator never sorts either side: pairing is greedy first-fit, so the
// caller's ordering is part of the contract.
type Input struct {
	DocumentID string
	SnippetID  string
	Gold       []entity.Span
	Pred       []entity.Span
}

// Discrepancy is one classified error-list entry. Each gold or predicted
// span appears in at most one entry.
type Discrepancy struct {
	DocumentID string       `json:"document_id"`
	SnippetID  string       `json:"snippet_id"`
	Kind       Kind         `json:"kind"`
	Gold       *entity.Span `json:"gold_span,omitempty"`
	Pred       *entity.Span `json:"pred_span,omitempty"`
}

// Result is the evaluation of one snippet: per-type counts under the exact
// and partial rules, plus the categorized error list. Empty marks a snippet
// with no spans on either side, which yields no counts and N/A metrics.
type Result struct {
	DocumentID string
	SnippetID  string
	Exact      map[entity.Type]Counts
	Partial    map[entity.Type]Counts
	Errors     []Discrepancy
	Empty      bool
}

// Evaluate scores a snippet. Both span collections are validated before any
// matching; the first structurally invalid span aborts the snippet with an
// *entity.InvalidSpanError carrying document, snippet, side, and index.
//
// Matching runs the one-to-one greedy pairing twice: once with the exact
// predicate (same offsets and type) and once with the overlap predicate
// (same type, non-empty intersection). Exact counts come from the first
// pairing, partial counts from the second. The error list then partitions
// the spans left unmatched by the exact pairing:
//
//   - an unmatched prediction whose partial pair is not an exact match is a
//     boundary_error (the paired gold span is attached, and consumed when it
//     was itself unmatched);
//   - an unmatched gold span sharing exact offsets with an unmatched,
//     unconsumed prediction is a type_error consuming both;
//   - whatever remains is a false_positive or false_negative.
func Evaluate(in Input) (*Result, error) {
	if err := entity.Validate(in.DocumentID, in.SnippetID, entity.SideGold, in.Gold, -1); err != nil {
		return nil, err
	}
	if err := entity.Validate(in.DocumentID, in.SnippetID, entity.SidePred, in.Pred, -1); err != nil {
		return nil, err
	}

	res := &Result{
		DocumentID: in.DocumentID,
		SnippetID:  in.SnippetID,
		Exact:      make(map[entity.Type]Counts),
		Partial:    make(map[entity.Type]Counts),
		Empty:      len(in.Gold) == 0 && len(in.Pred) == 0,
	}

	exactPred, exactGold := pair(in.Pred, in.Gold, entity.Span.ExactMatch)
	partialPred, partialGold := pair(in.Pred, in.Gold, entity.Span.PartialMatch)

	for i, p := range in.Pred {
		if exactPred[i] >= 0 {
			bump(res.Exact, p.Type, Counts{TP: 1})
		} else {
			bump(res.Exact, p.Type, Counts{FP: 1})
		}
		if partialPred[i] >= 0 {
			bump(res.Partial, p.Type, Counts{TP: 1})
		} else {
			bump(res.Partial, p.Type, Counts{FP: 1})
		}
	}
	for j, g := range in.Gold {
		if exactGold[j] < 0 {
			bump(res.Exact, g.Type, Counts{FN: 1})
		}
		if partialGold[j] < 0 {
			bump(res.Partial, g.Type, Counts{FN: 1})
		}
	}

	res.Errors = classify(in, exactPred, exactGold, partialPred)
	return res, nil
}

// pair matches predictions to gold spans one-to-one, greedy first-fit in
// input order: each prediction takes the first still-unmatched gold span
// satisfying the predicate. Returned slices map each index to its partner
// or -1.
func pair(pred, gold []entity.Span, match func(p, g entity.Span) bool) (predTo, goldTo []int) {
	predTo = make([]int, len(pred))
	goldTo = make([]int, len(gold))
	for i := range predTo {
		predTo[i] = -1
	}
	for j := range goldTo {
		goldTo[j] = -1
	}
	for i, p := range pred {
		for j, g := range gold {
			if goldTo[j] < 0 && match(p, g) {
				predTo[i] = j
				goldTo[j] = i
				break
			}
		}
	}
	return predTo, goldTo
}

// classify builds the error list. Emission order is fixed: boundary errors
// in prediction order, type errors in gold order, then remaining false
// positives in prediction order and false negatives in gold order.
func classify(in Input, exactPred, exactGold, partialPred []int) []Discrepancy {
	var errs []Discrepancy

	predDone := make([]bool, len(in.Pred))
	goldDone := make([]bool, len(in.Gold))

	for i, p := range in.Pred {
		if exactPred[i] >= 0 {
			continue
		}
		j := partialPred[i]
		if j < 0 || p.ExactMatch(in.Gold[j]) {
			continue
		}
		errs = append(errs, entry(in, BoundaryError, &in.Gold[j], &in.Pred[i]))
		predDone[i] = true
		if exactGold[j] < 0 {
			goldDone[j] = true
		}
	}

	for j := range in.Gold {
		if exactGold[j] >= 0 || goldDone[j] {
			continue
		}
		for i := range in.Pred {
			if exactPred[i] >= 0 || predDone[i] {
				continue
			}
			if in.Gold[j].SameOffsets(in.Pred[i]) {
				errs = append(errs, entry(in, TypeError, &in.Gold[j], &in.Pred[i]))
				goldDone[j] = true
				predDone[i] = true
				break
			}
		}
	}

	for i := range in.Pred {
		if exactPred[i] >= 0 || predDone[i] {
			continue
		}
		errs = append(errs, entry(in, FalsePositive, nil, &in.Pred[i]))
	}
	for j := range in.Gold {
		if exactGold[j] >= 0 || goldDone[j] {
			continue
		}
		errs = append(errs, entry(in, FalseNegative, &in.Gold[j], nil))
	}

	return errs
}

func entry(in Input, kind Kind, gold, pred *entity.Span) Discrepancy {
	d := Discrepancy{
		DocumentID: in.DocumentID,
		SnippetID:  in.SnippetID,
		Kind:       kind,
	}
	if gold != nil {
		g := *gold
		d.Gold = &g
	}
	if pred != nil {
		p := *pred
		d.Pred = &p
	}
	return d
}

func bump(m map[entity.Type]Counts, t entity.Type, c Counts) {
	cur := m[t]
	cur.Add(c)
	m[t] = cur
}

// Totals sums one side's per-type counts.
func Totals(m map[entity.Type]Counts) Counts {
	var total Counts
	for _, c := range m {
		total.Add(c)
	}
	return total
}

package metrics

import (
	"fmt"
	"io"
	"strings"

	"github.com/prairie-archives/nerbench/internal/entity"
	"github.com/prairie-archives/nerbench/internal/eval/spanmatch"
)

type docAccum struct {
	snippets int
	exact    spanmatch.Counts
	partial  spanmatch.Counts
}

// Aggregate rolls per-snippet results into a report. Counts are summed, so
// snippet evaluation order cannot change any score; it only sets the
// sequence of error-list entries and per-document rows. The caller fills
// Model, RunID, and EvaluatedAt. Warnings passed in (missing predictions)
// come first, followed by empty-input warnings in result order.
func Aggregate(results []*spanmatch.Result, warnings []Warning) *Report {
	r := &Report{
		Snippets: len(results),
		Warnings: append([]Warning(nil), warnings...),
	}

	var overallExact, overallPartial spanmatch.Counts
	typeExact := make(map[entity.Type]spanmatch.Counts)
	typePartial := make(map[entity.Type]spanmatch.Counts)
	var docOrder []string
	docs := make(map[string]*docAccum)

	for _, res := range results {
		acc, ok := docs[res.DocumentID]
		if !ok {
			acc = &docAccum{}
			docs[res.DocumentID] = acc
			docOrder = append(docOrder, res.DocumentID)
		}
		acc.snippets++

		for typ, c := range res.Exact {
			cur := typeExact[typ]
			cur.Add(c)
			typeExact[typ] = cur
		}
		for typ, c := range res.Partial {
			cur := typePartial[typ]
			cur.Add(c)
			typePartial[typ] = cur
		}

		exact := spanmatch.Totals(res.Exact)
		partial := spanmatch.Totals(res.Partial)
		acc.exact.Add(exact)
		acc.partial.Add(partial)
		overallExact.Add(exact)
		overallPartial.Add(partial)

		r.Errors = append(r.Errors, res.Errors...)
		if res.Empty {
			r.Warnings = append(r.Warnings, Warning{
				DocumentID: res.DocumentID,
				SnippetID:  res.SnippetID,
				Reason:     WarnEmptyInput,
			})
		}
	}

	r.Documents = len(docOrder)
	r.GoldSpans = overallExact.Gold()
	r.PredSpans = overallExact.Pred()
	r.Overall = Breakdown{
		Exact:   NewMeasure(overallExact),
		Partial: NewMeasure(overallPartial),
	}

	for _, typ := range entity.Types() {
		r.PerType = append(r.PerType, TypeBreakdown{
			Type:    typ,
			Exact:   NewMeasure(typeExact[typ]),
			Partial: NewMeasure(typePartial[typ]),
		})
	}

	for _, docID := range docOrder {
		acc := docs[docID]
		r.PerDocument = append(r.PerDocument, DocumentBreakdown{
			DocumentID: docID,
			Snippets:   acc.snippets,
			Exact:      NewMeasure(acc.exact),
			Partial:    NewMeasure(acc.partial),
		})
	}

	return r
}

// PrintSummary writes the human-readable report.
func PrintSummary(w io.Writer, r *Report) {
	divider := strings.Repeat("=", 80)
	thin := strings.Repeat("-", 80)

	fmt.Fprintf(w, "\n%s\n", divider)
	fmt.Fprintf(w, "NER EVALUATION REPORT: %s\n", r.Model)
	fmt.Fprintf(w, "%s\n\n", divider)

	fmt.Fprintf(w, "Documents: %d   Snippets: %d   Gold spans: %d   Predicted spans: %d\n\n",
		r.Documents, r.Snippets, r.GoldSpans, r.PredSpans)

	printOverall(w, "Exact Match", r.Overall.Exact)
	fmt.Fprintln(w)
	printOverall(w, "Partial Match", r.Overall.Partial)

	fmt.Fprintf(w, "\n%s\n", thin)
	fmt.Fprintf(w, "Per-Entity-Type Performance (Exact Match):\n")
	fmt.Fprintf(w, "%s\n", thin)
	fmt.Fprintf(w, "%-8s %-12s %-12s %-12s %-8s %-8s\n", "Type", "Precision", "Recall", "F1", "Gold", "Pred")
	fmt.Fprintf(w, "%s\n", strings.Repeat("-", 70))
	for _, row := range r.PerType {
		c := row.Exact.Counts()
		fmt.Fprintf(w, "%-8s %-12s %-12s %-12s %-8d %-8d\n",
			row.Type,
			FormatScore(row.Exact.Precision),
			FormatScore(row.Exact.Recall),
			FormatScore(row.Exact.F1),
			c.Gold(), c.Pred())
	}

	fmt.Fprintf(w, "\n%s\n", thin)
	fmt.Fprintf(w, "Per-Document Performance (Exact Match):\n")
	fmt.Fprintf(w, "%s\n", thin)
	fmt.Fprintf(w, "%-35s %-12s %-12s %-12s\n", "Document", "Precision", "Recall", "F1")
	fmt.Fprintf(w, "%s\n", strings.Repeat("-", 70))
	for _, row := range r.PerDocument {
		fmt.Fprintf(w, "%-35s %-12s %-12s %-12s\n",
			row.DocumentID,
			FormatScore(row.Exact.Precision),
			FormatScore(row.Exact.Recall),
			FormatScore(row.Exact.F1))
	}

	tally := r.ErrorTally()
	fmt.Fprintf(w, "\nError Summary:\n")
	for _, kind := range []spanmatch.Kind{
		spanmatch.FalsePositive,
		spanmatch.FalseNegative,
		spanmatch.BoundaryError,
		spanmatch.TypeError,
	} {
		fmt.Fprintf(w, "  %-16s %d\n", string(kind)+":", tally[kind])
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintf(w, "\nWarnings: %d\n", len(r.Warnings))
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  %s\n", warn)
		}
	}

	fmt.Fprintf(w, "\n%s\n", divider)
}

func printOverall(w io.Writer, label string, m Measure) {
	c := m.Counts()
	fmt.Fprintf(w, "Overall Performance (%s):\n", label)
	fmt.Fprintf(w, "  Precision: %s\n", FormatScore(m.Precision))
	fmt.Fprintf(w, "  Recall:    %s\n", FormatScore(m.Recall))
	fmt.Fprintf(w, "  F1 Score:  %s\n", FormatScore(m.F1))
	fmt.Fprintf(w, "\n  True Positives:  %d\n", m.TP)
	fmt.Fprintf(w, "  False Positives: %d\n", m.FP)
	fmt.Fprintf(w, "  False Negatives: %d\n", m.FN)
	fmt.Fprintf(w, "  Total Gold:      %d\n", c.Gold())
	fmt.Fprintf(w, "  Total Predicted: %d\n", c.Pred())
}

package metrics

import (
	"math"
	"testing"

	"github.com/prairie-archives/nerbench/internal/eval/spanmatch"
)

func approx(got, want float64) bool {
	return math.Abs(got-want) < 1e-9
}

func TestNewMeasure(t *testing.T) {
	tests := []struct {
		name      string
		counts    spanmatch.Counts
		precision string
		recall    string
		f1        string
	}{
		{"balanced", spanmatch.Counts{TP: 8, FP: 2, FN: 2}, "0.800", "0.800", "0.800"},
		{"no predictions", spanmatch.Counts{FN: 5}, "n/a", "0.000", "n/a"},
		{"no gold", spanmatch.Counts{FP: 3}, "0.000", "n/a", "n/a"},
		{"nothing at all", spanmatch.Counts{}, "n/a", "n/a", "n/a"},
		{"all wrong", spanmatch.Counts{FP: 4, FN: 3}, "0.000", "0.000", "0.000"},
		{"perfect", spanmatch.Counts{TP: 10}, "1.000", "1.000", "1.000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMeasure(tt.counts)
			if got := FormatScore(m.Precision); got != tt.precision {
				t.Errorf("Precision = %s, want %s", got, tt.precision)
			}
			if got := FormatScore(m.Recall); got != tt.recall {
				t.Errorf("Recall = %s, want %s", got, tt.recall)
			}
			if got := FormatScore(m.F1); got != tt.f1 {
				t.Errorf("F1 = %s, want %s", got, tt.f1)
			}
		})
	}
}

func TestNewMeasureF1Harmonic(t *testing.T) {
	// P = 0.5, R = 1.0 -> F1 = 2*0.5*1.0/1.5 = 2/3.
	m := NewMeasure(spanmatch.Counts{TP: 3, FP: 3, FN: 0})
	if m.F1 == nil {
		t.Fatal("Expected defined F1")
	}
	if !approx(*m.F1, 2.0/3.0) {
		t.Errorf("F1 = %f, want %f", *m.F1, 2.0/3.0)
	}
}

func TestMeasureCountsRoundTrip(t *testing.T) {
	c := spanmatch.Counts{TP: 7, FP: 4, FN: 2}
	if got := NewMeasure(c).Counts(); got != c {
		t.Errorf("Counts round trip = %+v, want %+v", got, c)
	}
}

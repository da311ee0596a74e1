package extract

import (
	"math"
	"regexp"
	"strings"
)

// Density heuristics. Historical prairie documents are rich in place names,
// honorifics, and trading company names; snippets scoring high on these are
// worth an annotator's time.
var (
	// Maximal runs of capitalized words ("North West Mounted Police").
	capitalizedRun = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*`)

	// English and French geographic vocabulary, whole words.
	geographicTerm = regexp.MustCompile(`(?i)\b(?:river|lake|fort|mountain|prairie|settlement|territory|district|creek|hill|bay|island|rivière|lac|montagne|territoire)\b`)

	// Honorifics followed by a capitalized name.
	titlePattern = regexp.MustCompile(`\b(?:Mr|Mrs|Dr|Sir|Lady|Chief|Father|Mgr|Rev)\.?\s+[A-Z]`)

	// Organization markers, case-sensitive: lowercase "company" in running
	// prose is not a name.
	organizationTerms = []string{"Company", "Association", "Department", "Commission", "Police", "Compagnie", "Société"}
)

// DensityScore estimates how entity-rich a passage is, in [0, 1].
func DensityScore(text string) float64 {
	capRuns := len(capitalizedRun.FindAllString(text, -1))
	score := math.Min(float64(capRuns)/50, 0.3)

	geo := len(geographicTerm.FindAllString(text, -1))
	score += math.Min(float64(geo)/10, 0.3)

	titles := len(titlePattern.FindAllString(text, -1))
	score += math.Min(float64(titles)/10, 0.2)

	orgs := 0
	for _, term := range organizationTerms {
		orgs += strings.Count(text, term)
	}
	score += math.Min(float64(orgs)/5, 0.2)

	return math.Min(score, 1.0)
}

// roundScore keeps stored density scores readable.
func roundScore(s float64) float64 {
	return math.Round(s*1000) / 1000
}

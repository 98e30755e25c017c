package synthesis

import (
	"math"
	"strconv"
	"time"

	"github.com/medsearch-ai/medsearch/schema"
)

// ConfidenceScore combines result volume and average relevance. Quantity
// contributes at most 0.7, quality at most 0.3. Zero results is exactly 0.
func ConfidenceScore(records []schema.RetrievalRecord) float64 {
	if len(records) == 0 {
		return 0.0
	}
	base := math.Min(float64(len(records))/10.0, 0.7)

	var sum float64
	for _, r := range records {
		sum += r.Relevance
	}
	quality := (sum / float64(len(records))) * 0.3

	score := math.Min(base+quality, 1.0)
	return math.Round(score*100) / 100
}

// RecencyScore is the mean per-record decay, 0.1 per year of age clamped
// to [0,1]. Ahead-of-print records often carry next-year dates, so the
// upper clamp matters. Records without a parseable date are skipped; if
// none parse, the score defaults to 0.5.
func RecencyScore(records []schema.RetrievalRecord, now time.Time) float64 {
	currentYear := now.Year()
	var sum float64
	var n int
	for _, r := range records {
		year := parseYear(r.Date)
		if year == 0 {
			continue
		}
		decay := math.Max(1.0-0.1*float64(currentYear-year), 0.0)
		sum += math.Min(decay, 1.0)
		n++
	}
	if n == 0 {
		return 0.5
	}
	return sum / float64(n)
}

// Band derives the coarse trust label from confidence, evidence volume
// and recency.
func Band(confidence float64, resultCount int, recency float64) schema.ConfidenceBand {
	weighted := 0.5*confidence + 0.3*math.Min(float64(resultCount)/10.0, 1.0) + 0.2*recency
	switch {
	case weighted >= 0.7:
		return schema.BandHigh
	case weighted >= 0.4:
		return schema.BandMedium
	default:
		return schema.BandLow
	}
}

// syntheticScoreCap bounds confidence when every outcome came from the
// synthetic fallback dataset. Fallback records carry fixed relevance
// scores, so the usual quality signal says nothing about the answer.
const syntheticScoreCap = 0.4

// Assess computes the full assessment minus conflict detection, which is
// an LLM call layered on separately.
func Assess(records []schema.RetrievalRecord, now time.Time) schema.ConfidenceAssessment {
	score := ConfidenceScore(records)
	recency := RecencyScore(records, now)
	return schema.ConfidenceAssessment{
		Score:   score,
		Band:    Band(score, len(records), recency),
		Recency: recency,
	}
}

// AssessOutcomes derives the assessment from agent outcomes, discounting
// the score when no live or cached records contributed.
func AssessOutcomes(outcomes map[schema.SourceType]schema.AgentOutcome, now time.Time) schema.ConfidenceAssessment {
	var records []schema.RetrievalRecord
	allSynthetic := true
	for _, o := range outcomes {
		if o.Empty() {
			continue
		}
		records = append(records, o.Records...)
		if o.Origin != schema.OriginSynthetic {
			allSynthetic = false
		}
	}
	a := Assess(records, now)
	if allSynthetic && a.Score > syntheticScoreCap {
		a.Score = syntheticScoreCap
		a.Band = Band(a.Score, len(records), a.Recency)
	}
	return a
}

func parseYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil || year < 1800 || year > 2200 {
		return 0
	}
	return year
}

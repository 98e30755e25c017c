package synthesis

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/medsearch-ai/medsearch/schema"
)

func recordsWithRelevance(rels ...float64) []schema.RetrievalRecord {
	out := make([]schema.RetrievalRecord, len(rels))
	for i, r := range rels {
		out[i] = schema.RetrievalRecord{ID: fmt.Sprintf("r%d", i), Relevance: r}
	}
	return out
}

func TestConfidenceScore(t *testing.T) {
	tests := []struct {
		name     string
		records  []schema.RetrievalRecord
		expected float64
	}{
		{
			name:     "no results is exactly zero",
			records:  nil,
			expected: 0.0,
		},
		{
			name:     "one weak result",
			records:  recordsWithRelevance(0.5),
			expected: 0.25, // 0.1 quantity + 0.15 quality
		},
		{
			name:     "quantity saturates at ten results",
			records:  recordsWithRelevance(1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1),
			expected: 1.0,
		},
		{
			name:     "five perfect results",
			records:  recordsWithRelevance(1, 1, 1, 1, 1),
			expected: 0.8, // 0.5 quantity + 0.3 quality
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConfidenceScore(tt.records)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("expected %f, got %f", tt.expected, got)
			}
		})
	}
}

func TestConfidenceScore_MonotonicInVolume(t *testing.T) {
	prev := -1.0
	for n := 0; n <= 10; n++ {
		rels := make([]float64, n)
		for i := range rels {
			rels[i] = 0.5
		}
		score := ConfidenceScore(recordsWithRelevance(rels...))
		if score < prev {
			t.Fatalf("confidence decreased at n=%d: %f < %f", n, score, prev)
		}
		prev = score
	}
}

func TestRecencyScore(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		dates    []string
		expected float64
	}{
		{"current year is fresh", []string{"2026-01-15"}, 1.0},
		{"ahead-of-print next-year date clamps to one", []string{"2027-01-15"}, 1.0},
		{"future date does not lift the mean", []string{"2027-01-15", "2024-06-01"}, 0.9},
		{"decade-old evidence decays to zero", []string{"2016-03-01"}, 0.0},
		{"older than a decade floors at zero", []string{"1999"}, 0.0},
		{"unparseable dates default", []string{"", "unknown"}, 0.5},
		{"mixed ages average", []string{"2026", "2024"}, 0.9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := make([]schema.RetrievalRecord, len(tt.dates))
			for i, d := range tt.dates {
				records[i] = schema.RetrievalRecord{ID: fmt.Sprintf("r%d", i), Date: d}
			}
			got := RecencyScore(records, now)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("expected %f, got %f", tt.expected, got)
			}
		})
	}
}

func TestBand(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		count      int
		recency    float64
		expected   schema.ConfidenceBand
	}{
		{"strong evidence", 0.9, 10, 0.9, schema.BandHigh},
		{"moderate evidence", 0.6, 5, 0.5, schema.BandMedium},
		{"thin evidence", 0.3, 2, 0.2, schema.BandLow},
		{"boundary high", 0.8, 10, 0.5, schema.BandHigh}, // 0.4+0.3+0.1 = 0.8
		{"zero everything", 0.0, 0, 0.0, schema.BandLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Band(tt.confidence, tt.count, tt.recency); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestAssess_EmptyRecords(t *testing.T) {
	a := Assess(nil, time.Now())
	if a.Score != 0.0 {
		t.Errorf("expected zero score, got %f", a.Score)
	}
	if a.Band != schema.BandLow {
		t.Errorf("expected low band, got %s", a.Band)
	}
}

func TestAssessOutcomes_AllSyntheticCapped(t *testing.T) {
	records := recordsWithRelevance(0.9, 0.85, 0.8, 0.75, 0.7)
	outcomes := map[schema.SourceType]schema.AgentOutcome{
		schema.SourcePubMed: {Agent: schema.SourcePubMed, Records: records, Origin: schema.OriginSynthetic},
		schema.SourceTrial:  {Agent: schema.SourceTrial, Records: records, Origin: schema.OriginSynthetic},
	}

	a := AssessOutcomes(outcomes, time.Now())
	if a.Score > syntheticScoreCap {
		t.Errorf("synthetic-only evidence must be capped at %f, got %f", syntheticScoreCap, a.Score)
	}
	if a.Band == schema.BandHigh {
		t.Errorf("synthetic-only evidence must not band high, got %s", a.Band)
	}
}

func TestAssessOutcomes_LiveEvidenceUncapped(t *testing.T) {
	records := recordsWithRelevance(0.9, 0.85, 0.8, 0.75, 0.7)
	outcomes := map[schema.SourceType]schema.AgentOutcome{
		schema.SourcePubMed: {Agent: schema.SourcePubMed, Records: records, Origin: schema.OriginLive},
		schema.SourceTrial:  {Agent: schema.SourceTrial, Records: records, Origin: schema.OriginSynthetic},
	}

	a := AssessOutcomes(outcomes, time.Now())
	want := Assess(append(append([]schema.RetrievalRecord{}, records...), records...), time.Now()).Score
	if a.Score != want {
		t.Errorf("mixed-origin evidence must keep the full score %f, got %f", want, a.Score)
	}
}

package router

import (
	"context"
	"regexp"
	"strings"

	"github.com/medsearch-ai/medsearch/schema"
)

// Entity vocabularies matched against the lowercased query.
var diseasePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(diabetes|cancer|hypertension|alzheimer|parkinson|covid|asthma|copd)\b`),
	regexp.MustCompile(`\b(heart disease|stroke|arthritis|depression|anxiety)\b`),
	regexp.MustCompile(`\b(kidney disease|renal disease|chronic kidney disease|ckd|end-stage renal disease|esrd)\b`),
	regexp.MustCompile(`\b(resistant hypertension|high blood pressure|cardiovascular disease)\b`),
}

var drugPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(metformin|insulin|aspirin|statin|warfarin|lisinopril)\b`),
	regexp.MustCompile(`\b(treatment|medication|drug|therapy|prescription)\b`),
}

var trialPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(clinical trials?|trials?|phase \d)\b`),
	regexp.MustCompile(`\b(randomized|placebo|controlled|double-blind)\b`),
}

var researchKeywords = []string{"research", "study", "evidence", "literature", "pubmed", "latest research"}
var drugKeywords = []string{"drug", "medication", "prescription", "side effect"}

// Heuristic is the regex/keyword intent classifier. It never fails, which
// makes it the availability floor for routing.
type Heuristic struct{}

// NewHeuristic creates the heuristic router.
func NewHeuristic() *Heuristic { return &Heuristic{} }

// Route classifies by vocabulary precedence: trial patterns first, then
// research keywords, then drug keywords, default general. The query is
// never rewritten here.
func (h *Heuristic) Route(_ context.Context, query string, _ schema.History) (*schema.Intent, error) {
	kind := detectIntent(query)
	return &schema.Intent{
		Kind:           kind,
		Confidence:     0.6,
		Entities:       extractEntities(query),
		SelectedAgents: selectAgents(kind),
		RewrittenQuery: query,
	}, nil
}

func detectIntent(query string) schema.IntentKind {
	lower := strings.ToLower(query)

	for _, p := range trialPatterns {
		if p.MatchString(lower) {
			return schema.IntentTrial
		}
	}
	// research before drug keywords to avoid false positives on
	// "latest research on drug X" style queries
	for _, kw := range researchKeywords {
		if strings.Contains(lower, kw) {
			return schema.IntentLiterature
		}
	}
	for _, kw := range drugKeywords {
		if strings.Contains(lower, kw) {
			return schema.IntentDrug
		}
	}
	return schema.IntentGeneral
}

func extractEntities(query string) map[string][]string {
	lower := strings.ToLower(query)
	entities := map[string][]string{}
	if diseases := matchAll(diseasePatterns, lower); len(diseases) > 0 {
		entities["diseases"] = diseases
	}
	if drugs := matchAll(drugPatterns, lower); len(drugs) > 0 {
		entities["drugs"] = drugs
	}
	return entities
}

func matchAll(patterns []*regexp.Regexp, text string) []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range patterns {
		for _, m := range p.FindAllString(text, -1) {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out
}

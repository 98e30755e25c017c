package agent

import (
	"strings"

	"github.com/medsearch-ai/medsearch/config"
	"github.com/medsearch-ai/medsearch/fusion"
	"github.com/medsearch-ai/medsearch/schema"
)

// NewTrials builds the trial-registry agent. Keyword weight is higher than
// for literature: registry entries are dense with exact condition and
// intervention names.
func NewTrials(core Core, indices config.IndexNames) *Agent {
	return newAgent(core, profile{
		source:       schema.SourceTrial,
		index:        indices.Trials,
		fields:       []string{"title^2", "brief_summary", "detailed_description", "conditions"},
		lexWeight:    0.4,
		vecWeight:    0.6,
		rerankFields: []string{"title", "abstract", "detailed_description"},
		expand:       expandTrialQuery,
		shape:        shapeTrial,
		post:         filterAndRankTrials,
		synthetic:    syntheticTrials,
	})
}

// expandTrialQuery appends disjunctive recall clauses for detected
// sub-intents. Lexical query only; the vector query is untouched.
func expandTrialQuery(query string) string {
	lower := strings.ToLower(query)
	var extra []string
	if strings.Contains(lower, "recruiting") || strings.Contains(lower, "enroll") {
		extra = append(extra, "recruiting enrollment")
	}
	if strings.Contains(lower, "elderly") || strings.Contains(lower, "older adults") {
		extra = append(extra, "elderly geriatric aged")
	}
	if strings.Contains(lower, "children") || strings.Contains(lower, "pediatric") {
		extra = append(extra, "pediatric children adolescent")
	}
	if len(extra) == 0 {
		return query
	}
	return query + " " + strings.Join(extra, " ")
}

func shapeTrial(c fusion.Candidate) schema.RetrievalRecord {
	h := c.Hit
	return schema.RetrievalRecord{
		ID:        firstNonEmpty(h.ID, h.Str("nct_id")),
		Source:    schema.SourceTrial,
		Title:     h.Str("title"),
		Abstract:  h.Str("brief_summary"),
		Relevance: normalizeRelevance(c),
		Date:      h.Str("start_date"),
		Fields: map[string]string{
			"nct_id":               h.Str("nct_id"),
			"phase":                h.Str("phase"),
			"status":               h.Str("status"),
			"conditions":           strings.Join(h.Strs("conditions"), "; "),
			"interventions":        strings.Join(h.Strs("interventions"), "; "),
			"locations":            strings.Join(h.Strs("locations"), "; "),
			"sponsors":             strings.Join(h.Strs("sponsors"), "; "),
			"completion_date":      h.Str("completion_date"),
			"detailed_description": h.Str("detailed_description"),
		},
		Metadata: map[string]string{
			"phase":  h.Str("phase"),
			"status": h.Str("status"),
		},
	}
}

// filterAndRankTrials applies status/phase/location filters, then boosts
// active and late-phase trials, title matches and recent starts.
func filterAndRankTrials(records []schema.RetrievalRecord, q schema.Query) []schema.RetrievalRecord {
	records = filterTrials(records, q.Filters)

	terms := strings.Fields(strings.ToLower(q.Text))
	for i := range records {
		score := records[i].Relevance
		status := strings.ToLower(records[i].Fields["status"])
		if strings.Contains(status, "recruiting") || strings.Contains(status, "active") {
			score *= 1.3
		} else if strings.Contains(status, "completed") {
			score *= 1.1
		}
		phase := strings.ToLower(records[i].Fields["phase"])
		if strings.Contains(phase, "phase 3") || strings.Contains(phase, "phase iii") {
			score *= 1.2
		} else if strings.Contains(phase, "phase 2") || strings.Contains(phase, "phase ii") {
			score *= 1.1
		}
		title := strings.ToLower(records[i].Title)
		matches := 0
		for _, t := range terms {
			if strings.Contains(title, t) {
				matches++
			}
		}
		if matches > 0 {
			score *= 1 + 0.1*float64(matches)
		}
		if year := parseYear(records[i].Date); year >= 2020 {
			score *= 1.2
		} else if year >= 2015 {
			score *= 1.1
		}
		if score > 1.0 {
			score = 1.0
		}
		records[i].Relevance = score
	}
	sortByRelevance(records)
	return records
}

func filterTrials(records []schema.RetrievalRecord, f schema.Filters) []schema.RetrievalRecord {
	if len(f.Statuses) == 0 && len(f.Phases) == 0 && len(f.Locations) == 0 {
		return records
	}
	out := records[:0]
	for _, r := range records {
		if len(f.Statuses) > 0 && !containsFold(f.Statuses, r.Fields["status"]) {
			continue
		}
		if len(f.Phases) > 0 && !containsFold(f.Phases, r.Fields["phase"]) {
			continue
		}
		if len(f.Locations) > 0 && !anyLocation(f.Locations, r.Fields["locations"]) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func containsFold(haystack []string, needle string) bool {
	for _, h := range haystack {
		if strings.EqualFold(h, needle) {
			return true
		}
	}
	return false
}

func anyLocation(wanted []string, locations string) bool {
	lower := strings.ToLower(locations)
	for _, w := range wanted {
		if strings.Contains(lower, strings.ToLower(w)) {
			return true
		}
	}
	return false
}

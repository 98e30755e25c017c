package agent

import (
	"strconv"
	"strings"

	"github.com/medsearch-ai/medsearch/config"
	"github.com/medsearch-ai/medsearch/fusion"
	"github.com/medsearch-ai/medsearch/schema"
)

// NewLiterature builds the published-research agent. Vector similarity
// carries most of the weight: abstracts are long-form prose where semantic
// matching outperforms term overlap.
func NewLiterature(core Core, indices config.IndexNames) *Agent {
	return newAgent(core, profile{
		source:       schema.SourcePubMed,
		index:        indices.Literature,
		fields:       []string{"title^2", "abstract", "keywords"},
		lexWeight:    0.3,
		vecWeight:    0.7,
		rerankFields: []string{"title", "abstract"},
		shape:        shapeLiterature,
		post:         rankLiterature,
		synthetic:    syntheticLiterature,
	})
}

func shapeLiterature(c fusion.Candidate) schema.RetrievalRecord {
	h := c.Hit
	return schema.RetrievalRecord{
		ID:        firstNonEmpty(h.ID, h.Str("pmid")),
		Source:    schema.SourcePubMed,
		Title:     h.Str("title"),
		Abstract:  h.Str("abstract"),
		Relevance: normalizeRelevance(c),
		Date:      h.Str("publication_date"),
		Fields: map[string]string{
			"authors": strings.Join(h.Strs("authors"), ", "),
			"journal": h.Str("journal"),
			"doi":     h.Str("doi"),
			"pmid":    h.Str("pmid"),
		},
		Metadata: map[string]string{
			"mesh_terms": strings.Join(h.Strs("mesh_terms"), "; "),
			"keywords":   strings.Join(h.Strs("keywords"), "; "),
		},
	}
}

// rankLiterature boosts recent, title-matching and DOI-carrying articles,
// capped at 1.0.
func rankLiterature(records []schema.RetrievalRecord, q schema.Query) []schema.RetrievalRecord {
	terms := strings.Fields(strings.ToLower(q.Text))
	for i := range records {
		score := records[i].Relevance
		if year := parseYear(records[i].Date); year >= 2020 {
			score *= 1.2
		} else if year >= 2015 {
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
		if records[i].Fields["doi"] != "" {
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

func parseYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

package agent

import (
	"strings"

	"github.com/medsearch-ai/medsearch/config"
	"github.com/medsearch-ai/medsearch/fusion"
	"github.com/medsearch-ai/medsearch/schema"
)

// NewFormulary builds the drug-information agent. Lexical and vector
// weights are equal, and safety fields outrank indications: most drug
// queries are about harms, not approved uses.
func NewFormulary(core Core, indices config.IndexNames) *Agent {
	return newAgent(core, profile{
		source:       schema.SourceDrug,
		index:        indices.Drugs,
		fields:       []string{"drug_name^2", "generic_name", "warnings^1.5", "adverse_reactions^1.5", "indications"},
		lexWeight:    0.5,
		vecWeight:    0.5,
		rerankFields: []string{"indications", "warnings", "adverse_reactions"},
		expand:       expandDrugQuery,
		shape:        shapeDrug,
		post:         rankDrugs,
		synthetic:    syntheticDrugs,
	})
}

func expandDrugQuery(query string) string {
	lower := strings.ToLower(query)
	var extra []string
	if strings.Contains(lower, "side effect") || strings.Contains(lower, "adverse") {
		extra = append(extra, "adverse reactions warnings")
	}
	if strings.Contains(lower, "interaction") {
		extra = append(extra, "drug interactions contraindications")
	}
	if strings.Contains(lower, "elderly") {
		extra = append(extra, "geriatric elderly aged")
	}
	if strings.Contains(lower, "pregnan") {
		extra = append(extra, "pregnancy lactation")
	}
	if len(extra) == 0 {
		return query
	}
	return query + " " + strings.Join(extra, " ")
}

func shapeDrug(c fusion.Candidate) schema.RetrievalRecord {
	h := c.Hit
	return schema.RetrievalRecord{
		ID:        firstNonEmpty(h.ID, h.Str("application_number")),
		Source:    schema.SourceDrug,
		Title:     h.Str("drug_name"),
		Abstract:  h.Str("indications"),
		Relevance: normalizeRelevance(c),
		Date:      h.Str("approval_date"),
		Fields: map[string]string{
			"generic_name":       h.Str("generic_name"),
			"brand_names":        strings.Join(h.Strs("brand_names"), ", "),
			"manufacturer":       h.Str("manufacturer"),
			"indications":        h.Str("indications"),
			"warnings":           h.Str("warnings"),
			"adverse_reactions":  h.Str("adverse_reactions"),
			"drug_class":         h.Str("drug_class"),
			"route":              h.Str("route"),
			"application_number": h.Str("application_number"),
		},
		Metadata: map[string]string{
			"drug_class": h.Str("drug_class"),
			"route":      h.Str("route"),
		},
	}
}

// rankDrugs boosts exact name matches, recent approvals and drugs with
// established brand names.
func rankDrugs(records []schema.RetrievalRecord, q schema.Query) []schema.RetrievalRecord {
	lower := strings.ToLower(q.Text)
	for i := range records {
		score := records[i].Relevance
		name := strings.ToLower(records[i].Title)
		generic := strings.ToLower(records[i].Fields["generic_name"])
		if name != "" && (strings.Contains(lower, name) || (generic != "" && strings.Contains(lower, generic))) {
			score *= 1.5
		}
		if year := parseYear(records[i].Date); year >= 2020 {
			score *= 1.2
		} else if year >= 2015 {
			score *= 1.1
		}
		if records[i].Fields["brand_names"] != "" {
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

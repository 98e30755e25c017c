package synthesis

import "github.com/medsearch-ai/medsearch/schema"

// Per-source caps keep the citation list readable. Literature gets the
// most slots since abstracts carry the densest evidence.
var citationCaps = map[schema.SourceType]int{
	schema.SourcePubMed: 5,
	schema.SourceTrial:  3,
	schema.SourceDrug:   3,
}

var citationFields = map[schema.SourceType][]string{
	schema.SourcePubMed: {"journal", "authors", "doi", "pmid"},
	schema.SourceTrial:  {"nct_id", "phase", "status"},
	schema.SourceDrug:   {"generic_name", "manufacturer", "approval_date"},
}

// ExtractCitations builds the ordered citation list: literature first,
// then trials, then drug labels, each capped per source. Records are
// assumed already sorted by relevance within each outcome.
func ExtractCitations(outcomes map[schema.SourceType]schema.AgentOutcome) []schema.Citation {
	var citations []schema.Citation
	for _, src := range []schema.SourceType{schema.SourcePubMed, schema.SourceTrial, schema.SourceDrug} {
		outcome, ok := outcomes[src]
		if !ok {
			continue
		}
		limit := citationCaps[src]
		for i, rec := range outcome.Records {
			if i >= limit {
				break
			}
			citations = append(citations, schema.Citation{
				ID:        rec.ID,
				Source:    src,
				Title:     rec.Title,
				Relevance: rec.Relevance,
				Fields:    pickFields(rec, citationFields[src]),
			})
		}
	}
	return citations
}

func pickFields(rec schema.RetrievalRecord, keys []string) map[string]string {
	fields := map[string]string{}
	for _, k := range keys {
		if v := rec.Fields[k]; v != "" {
			fields[k] = v
		}
	}
	if rec.Date != "" {
		fields["date"] = rec.Date
	}
	return fields
}

package fusion

import "strings"

// abbreviations maps common clinical acronyms to their spelled-out forms.
// Expansion is query-time only and applies solely to the lexical query.
var abbreviations = map[string][]string{
	"mi":   {"myocardial infarction", "heart attack"},
	"htn":  {"hypertension", "high blood pressure"},
	"t2dm": {"type 2 diabetes mellitus", "type 2 diabetes"},
	"t1dm": {"type 1 diabetes mellitus", "type 1 diabetes"},
	"copd": {"chronic obstructive pulmonary disease"},
	"chf":  {"congestive heart failure", "heart failure"},
	"ckd":  {"chronic kidney disease"},
	"ra":   {"rheumatoid arthritis"},
	"afib": {"atrial fibrillation"},
	"cad":  {"coronary artery disease"},
	"uti":  {"urinary tract infection"},
	"gerd": {"gastroesophageal reflux disease"},
}

// ExpandAbbreviations rewrites recognized acronym tokens into a disjunctive
// clause, e.g. "MI" becomes `(MI OR "myocardial infarction" OR "heart attack")`.
func ExpandAbbreviations(query string) string {
	tokens := strings.Fields(query)
	changed := false
	for i, tok := range tokens {
		bare := strings.ToLower(strings.Trim(tok, ".,;:?!()"))
		phrases, ok := abbreviations[bare]
		if !ok {
			continue
		}
		parts := make([]string, 0, len(phrases)+1)
		parts = append(parts, tok)
		for _, p := range phrases {
			parts = append(parts, `"`+p+`"`)
		}
		tokens[i] = "(" + strings.Join(parts, " OR ") + ")"
		changed = true
	}
	if !changed {
		return query
	}
	return strings.Join(tokens, " ")
}

package fusion

import (
	"strings"
	"testing"
)

func TestExpandAbbreviations(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		contains []string
		same     bool
	}{
		{
			name:     "known abbreviation",
			query:    "t2dm treatment options",
			contains: []string{"(t2dm OR", `"type 2 diabetes"`},
		},
		{
			name:     "multiple abbreviations",
			query:    "htn and ckd comorbidity",
			contains: []string{`"hypertension"`, `"chronic kidney disease"`},
		},
		{
			name:  "no abbreviations",
			query: "metformin cardiovascular outcomes",
			same:  true,
		},
		{
			name:  "abbreviation inside a word is left alone",
			query: "michigan study",
			same:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExpandAbbreviations(tt.query)
			if tt.same {
				if got != tt.query {
					t.Errorf("expected query unchanged, got %q", got)
				}
				return
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("expected %q in %q", want, got)
				}
			}
		})
	}
}

package fusion

import "sort"

// fuseWeighted normalizes each side's scores by that side's maximum, then
// combines them with the caller's weights. Normalizing per side avoids
// cross-scale bias between lexical and vector score ranges; an absent side
// contributes 0.
func fuseWeighted(lex, vec map[string]rankEntry, lexWeight, vecWeight float64) []Candidate {
	lexMax := maxScore(lex)
	vecMax := maxScore(vec)

	out := make([]Candidate, 0, len(lex)+len(vec))
	for _, id := range unionIDs(lex, vec) {
		c := Candidate{ID: id}
		if e, ok := lex[id]; ok {
			c.Hit = e.hit
			c.LexScore = e.score
			c.LexRank = e.rank
			if lexMax > 0 {
				c.Score += lexWeight * (e.score / lexMax)
			}
		}
		if e, ok := vec[id]; ok {
			if c.Hit.ID == "" {
				c.Hit = e.hit
			}
			c.VecScore = e.score
			c.VecRank = e.rank
			if vecMax > 0 {
				c.Score += vecWeight * (e.score / vecMax)
			}
		}
		out = append(out, c)
	}
	sortCandidates(out)
	return out
}

// fuseRRF combines by reciprocal rank, 1/(k+rank) per side the document
// appears in. Rank-based, so insensitive to score-scale differences.
func fuseRRF(lex, vec map[string]rankEntry, k int) []Candidate {
	if k <= 0 {
		k = DefaultRRFK
	}
	out := make([]Candidate, 0, len(lex)+len(vec))
	for _, id := range unionIDs(lex, vec) {
		c := Candidate{ID: id}
		if e, ok := lex[id]; ok {
			c.Hit = e.hit
			c.LexScore = e.score
			c.LexRank = e.rank
			c.Score += 1.0 / (float64(k) + float64(e.rank))
		}
		if e, ok := vec[id]; ok {
			if c.Hit.ID == "" {
				c.Hit = e.hit
			}
			c.VecScore = e.score
			c.VecRank = e.rank
			c.Score += 1.0 / (float64(k) + float64(e.rank))
		}
		out = append(out, c)
	}
	sortCandidates(out)
	return out
}

// sortCandidates orders by fused score descending, ties broken by id so
// fusion output is deterministic.
func sortCandidates(cands []Candidate) {
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].Score != cands[j].Score {
			return cands[i].Score > cands[j].Score
		}
		return cands[i].ID < cands[j].ID
	})
}

func maxScore(m map[string]rankEntry) float64 {
	var max float64
	for _, e := range m {
		if e.score > max {
			max = e.score
		}
	}
	return max
}

func unionIDs(lex, vec map[string]rankEntry) []string {
	ids := make([]string, 0, len(lex)+len(vec))
	for id := range lex {
		ids = append(ids, id)
	}
	for id := range vec {
		if _, ok := lex[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

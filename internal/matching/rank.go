package matching

import "sort"

// MaxMatches caps the number of matches returned to the caller.
const MaxMatches = 3

// SkillOverlap counts the required skills present in skills. Comparison is
// exact and case sensitive.
func SkillOverlap(required, skills []string) int {
	have := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		have[s] = struct{}{}
	}

	n := 0
	for _, r := range required {
		if _, ok := have[r]; ok {
			n++
		}
	}
	return n
}

// Rank scores every candidate against skills, sorts by score descending and
// keeps the first MaxMatches. Ties keep their input order. The input slice is
// not modified.
func Rank(candidates []Candidate, skills []string) []Candidate {
	ranked := make([]Candidate, len(candidates))
	copy(ranked, candidates)

	for i := range ranked {
		ranked[i].SkillMatches = SkillOverlap(ranked[i].Job.SkillsRequired, skills)
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].SkillMatches > ranked[b].SkillMatches
	})

	if len(ranked) > MaxMatches {
		ranked = ranked[:MaxMatches]
	}
	return ranked
}

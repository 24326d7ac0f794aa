package scoring

import "sort"

// Rank returns the users sorted by score descending; ties keep input order.
// n > 0 truncates to the top n; otherwise the full ranking is returned. The
// input slice is not modified.
func Rank(scored []ScoredUser, n int) []ScoredUser {
	ranked := make([]ScoredUser, len(scored))
	copy(ranked, scored)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if n > 0 && n < len(ranked) {
		ranked = ranked[:n]
	}

	return ranked
}

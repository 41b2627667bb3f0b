package match

import (
	"slices"
	"strings"
)

// MinSimilarity is the score below which a name is not offered as a
// suggestion.
const MinSimilarity = 0.6

// Suggestion is a candidate name with its similarity to the query.
type Suggestion struct {
	Name  string
	Score float64
}

// Rank scores every candidate against name and returns those at or above
// MinSimilarity, best first. Ties are broken by name so the result is
// stable. Duplicate candidates are reported once.
func Rank(name string, candidates []string) []Suggestion {
	query := Normalize(name)
	seen := make(map[string]bool, len(candidates))

	var out []Suggestion

	for _, c := range candidates {
		if seen[c] || c == name {
			continue
		}

		seen[c] = true

		score := Similarity(query, Normalize(c))
		if score >= MinSimilarity {
			out = append(out, Suggestion{Name: c, Score: score})
		}
	}

	slices.SortFunc(out, func(a, b Suggestion) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return strings.Compare(a.Name, b.Name)
		}
	})

	return out
}

// Suggest returns up to limit names from candidates that look like name.
// A limit of zero or less returns every match.
func Suggest(name string, candidates []string, limit int) []string {
	ranked := Rank(name, candidates)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	names := make([]string, len(ranked))
	for i, s := range ranked {
		names[i] = s.Name
	}

	return names
}

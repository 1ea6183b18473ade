// Package rating holds the pure rating formula. It has no storage or clock
// dependencies, which keeps handler retries trivially idempotent: the same
// stats always produce the same breakdown.
package rating

import "sort"

// Score caps. Submission, solved and contribution activity contribute
// bounded amounts so the top-problem component stays dominant.
const (
	submissionCap   = 100
	solvedCap       = 200
	contributionCap = 250

	solvedWeight       = 2
	contributionWeight = 5
)

// Breakdown is the result of one rating computation.
type Breakdown struct {
	Total        int `json:"totalRating"`
	TopProblem   int `json:"topProblemRating"`
	Submission   int `json:"submissionRating"`
	Solved       int `json:"solvedRating"`
	Contribution int `json:"contributionRating"`
}

// Compute derives a user's rating from the ratings of their best accepted
// problems and their activity counters. topProblemRatings may arrive in any
// order; the highest value becomes the top-problem component.
func Compute(topProblemRatings []int, submissionCount, solvedCount, contributionCount int) Breakdown {
	top := 0
	if len(topProblemRatings) > 0 {
		sorted := make([]int, len(topProblemRatings))
		copy(sorted, topProblemRatings)
		sort.Sort(sort.Reverse(sort.IntSlice(sorted)))
		top = sorted[0]
	}

	b := Breakdown{
		TopProblem:   top,
		Submission:   capped(submissionCount, submissionCap),
		Solved:       capped(solvedCount*solvedWeight, solvedCap),
		Contribution: capped(contributionCount*contributionWeight, contributionCap),
	}
	b.Total = b.TopProblem + b.Submission + b.Solved + b.Contribution
	return b
}

func capped(v, limit int) int {
	if v < 0 {
		return 0
	}
	if v > limit {
		return limit
	}
	return v
}

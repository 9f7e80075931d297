package srs

import (
	"slices"

	"github.com/phrazzld/scry-scheduler/internal/domain"
)

// optimalBatchSize caps a review session to keep its cognitive load bounded.
//
// With the default params:
//   - up to 10 due cards: all of them
//   - up to 50: 15
//   - up to 100: 20
//   - more: 25
func optimalBatchSize(totalDue int, params *Params) int {
	if totalDue <= params.UncappedBatchMax {
		if totalDue < 0 {
			return 0
		}
		return totalDue
	}
	for _, tier := range params.BatchTiers {
		if totalDue <= tier.MaxDue {
			return tier.BatchSize
		}
	}
	return params.OverflowBatchSize
}

// sortReviewQueue returns a stably sorted copy of items: overdue before due
// before upcoming, and within a tier the longest-neglected cards first.
func sortReviewQueue(items []domain.ReviewQueueItem) []domain.ReviewQueueItem {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b domain.ReviewQueueItem) int {
		if ra, rb := a.Priority.Rank(), b.Priority.Rank(); ra != rb {
			return ra - rb
		}
		return b.DaysSinceLastReview - a.DaysSinceLastReview
	})
	return sorted
}

package srs

import (
	"math"
	"time"

	"github.com/phrazzld/scry-scheduler/internal/domain"
)

// calculateNewEasinessFactor applies the SM-2 easiness update for a review of
// the given quality.
//
// Parameters:
//   - currentEF: The easiness factor before the review
//   - quality: The review quality on the 0..5 scale (already validated)
//   - params: Configuration parameters for the SRS algorithm
//
// Returns:
//   - EF + 0.1 - (5-q) * (0.08 + (5-q) * 0.02), floored at params.MinEasinessFactor
//
// Algorithm behavior:
//   - The update applies to lapses and successful reviews alike
//   - Quality 5 raises the factor by 0.1, quality 4 leaves it unchanged
//   - Quality 0 lowers it by 0.8 before the floor is applied
func calculateNewEasinessFactor(currentEF float64, quality int, params *Params) float64 {
	q := float64(5 - quality)
	newEF := currentEF + 0.1 - q*(0.08+q*0.02)

	if newEF < params.MinEasinessFactor {
		newEF = params.MinEasinessFactor
	}

	return newEF
}

// calculateNewInterval determines the number of days until the next review.
//
// Parameters:
//   - currentInterval: The interval in days before the review
//   - newRepetitions: The repetition count after this review has been counted
//   - currentEF: The easiness factor before the review
//   - quality: The review quality on the 0..5 scale
//   - params: Configuration parameters for the SRS algorithm
//
// Algorithm behavior:
//   - Lapse (quality below params.PassingQuality): back to params.FirstInterval
//   - First successful repetition: params.FirstInterval (1 day)
//   - Second successful repetition: params.SecondInterval (6 days)
//   - Later repetitions: round(currentInterval * currentEF), capped at
//     params.MaximumInterval
//
// The growth step deliberately uses the easiness factor from before the
// review, as classic SM-2 does.
func calculateNewInterval(
	currentInterval int,
	newRepetitions int,
	currentEF float64,
	quality int,
	params *Params,
) int {
	if quality < params.PassingQuality {
		return params.FirstInterval
	}

	switch newRepetitions {
	case 1:
		return params.FirstInterval
	case 2:
		return params.SecondInterval
	}

	// Compare as float so the product cannot overflow int before the cap applies.
	grown := math.Round(float64(currentInterval) * currentEF)
	if grown >= float64(params.MaximumInterval) {
		return params.MaximumInterval
	}
	if grown < 1 {
		return 1
	}
	return int(grown)
}

// calculateNextState creates the state that results from reviewing state with
// the given quality at now. The input is never modified.
//
// Algorithm behavior:
//   - Lapses reset Repetitions to 0 and Interval to params.FirstInterval
//   - Successful reviews increment Repetitions and grow the interval
//   - The easiness factor is updated in every case
//   - NextReviewAt is now plus Interval calendar days
//   - IsNew is cleared and never set again
func calculateNextState(
	state *domain.CardScheduleState,
	quality int,
	now time.Time,
	params *Params,
) *domain.CardScheduleState {
	next := state.Clone()

	if quality < params.PassingQuality {
		next.Repetitions = 0
	} else {
		next.Repetitions = state.Repetitions + 1
	}

	next.Interval = calculateNewInterval(
		state.Interval,
		next.Repetitions,
		state.EasinessFactor,
		quality,
		params,
	)
	next.EasinessFactor = calculateNewEasinessFactor(state.EasinessFactor, quality, params)

	reviewedAt := now
	q := quality
	next.NextReviewAt = now.AddDate(0, 0, next.Interval)
	next.LastReviewedAt = &reviewedAt
	next.LastQuality = &q
	next.IsNew = false
	next.UpdatedAt = now

	return next
}

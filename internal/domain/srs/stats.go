package srs

import (
	"time"

	"github.com/phrazzld/scry-scheduler/internal/domain"
)

// calculateLearningStats classifies each state, in this order: new, learning
// (fewer than params.LearningRepetitions repetitions), mastered (interval of at
// least params.MasteredIntervalDays) and review.
func calculateLearningStats(states []*domain.CardScheduleState, params *Params) domain.LearningStats {
	stats := domain.LearningStats{
		AverageEasinessFactor: params.InitialEasinessFactor,
	}
	if len(states) == 0 {
		return stats
	}

	var efSum float64
	var retained int
	for _, s := range states {
		switch {
		case s.IsNew:
			stats.NewCards++
		case s.Repetitions < params.LearningRepetitions:
			stats.LearningCards++
		case s.Interval >= params.MasteredIntervalDays:
			stats.MasteredCards++
		default:
			stats.ReviewCards++
		}

		efSum += s.EasinessFactor
		if s.LastQuality != nil && *s.LastQuality >= params.PassingQuality {
			retained++
		}
	}

	stats.TotalCards = len(states)
	stats.AverageEasinessFactor = efSum / float64(len(states))
	stats.RetentionRate = float64(retained) / float64(len(states))
	return stats
}

// currentStreak counts consecutive calendar days with at least one review,
// starting from the most recent review day and walking backwards until the
// first day without a review. The days may arrive in any order and may
// contain duplicates; they are compared as dates in loc.
func currentStreak(reviewDays []time.Time, loc *time.Location) int {
	if len(reviewDays) == 0 {
		return 0
	}

	const layout = "2006-01-02"
	seen := make(map[string]struct{}, len(reviewDays))
	var latest time.Time
	for _, d := range reviewDays {
		day := calendarDate(d, loc)
		seen[day.Format(layout)] = struct{}{}
		if day.After(latest) {
			latest = day
		}
	}

	streak := 0
	for day := latest; ; day = day.AddDate(0, 0, -1) {
		if _, ok := seen[day.Format(layout)]; !ok {
			break
		}
		streak++
	}
	return streak
}

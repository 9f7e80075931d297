package srs

import (
	"time"

	"github.com/phrazzld/scry-scheduler/internal/domain"
)

// calendarDate truncates t to midnight in loc.
func calendarDate(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// reviewPriority compares calendar dates in now's location, ignoring the time of day.
func reviewPriority(nextReviewAt, now time.Time) domain.ReviewPriority {
	loc := now.Location()
	due := calendarDate(nextReviewAt, loc)
	today := calendarDate(now, loc)

	switch {
	case due.Before(today):
		return domain.PriorityOverdue
	case due.Equal(today):
		return domain.PriorityDue
	default:
		return domain.PriorityUpcoming
	}
}

// daysSinceLastReview returns the whole days elapsed since lastReviewedAt,
// or 0 when the card was never reviewed or the timestamp is in the future.
func daysSinceLastReview(lastReviewedAt *time.Time, now time.Time) int {
	if lastReviewedAt == nil {
		return 0
	}
	elapsed := now.Sub(*lastReviewedAt)
	if elapsed <= 0 {
		return 0
	}
	return int(elapsed / (24 * time.Hour))
}

package srs

import (
	"testing"
	"time"

	"github.com/phrazzld/scry-scheduler/internal/domain"
)

func TestReviewPriority(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		next time.Time
		want domain.ReviewPriority
	}{
		{"yesterday", now.AddDate(0, 0, -1), domain.PriorityOverdue},
		{"last minute of yesterday", time.Date(2025, 3, 9, 23, 59, 59, 0, time.UTC), domain.PriorityOverdue},
		{"last month", now.AddDate(0, -1, 0), domain.PriorityOverdue},
		{"start of today", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), domain.PriorityDue},
		{"exactly now", now, domain.PriorityDue},
		{"later today", time.Date(2025, 3, 10, 23, 59, 0, 0, time.UTC), domain.PriorityDue},
		{"tomorrow", now.AddDate(0, 0, 1), domain.PriorityUpcoming},
		{"start of tomorrow", time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), domain.PriorityUpcoming},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := reviewPriority(tc.next, now); got != tc.want {
				t.Errorf("Expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestReviewPriorityUsesNowLocation(t *testing.T) {
	t.Parallel()
	// 01:00 on March 10 in UTC+5 is still March 9 in UTC.
	plusFive := time.FixedZone("UTC+5", 5*60*60)
	now := time.Date(2025, 3, 10, 1, 0, 0, 0, plusFive)
	next := time.Date(2025, 3, 9, 21, 0, 0, 0, time.UTC) // 02:00 March 10 in UTC+5

	if got := reviewPriority(next, now); got != domain.PriorityDue {
		t.Errorf("Expected due in the learner's zone, got %s", got)
	}
	if got := reviewPriority(next, now.UTC()); got != domain.PriorityDue {
		t.Errorf("Expected due in UTC, got %s", got)
	}
}

func TestDaysSinceLastReview(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		v := now.Add(-d)
		return &v
	}

	tests := []struct {
		name string
		last *time.Time
		want int
	}{
		{"never reviewed", nil, 0},
		{"an hour ago", at(time.Hour), 0},
		{"exactly one day", at(24 * time.Hour), 1},
		{"49 hours", at(49 * time.Hour), 2},
		{"in the future", at(-time.Hour), 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := daysSinceLastReview(tc.last, now); got != tc.want {
				t.Errorf("Expected %d days, got %d", tc.want, got)
			}
		})
	}
}

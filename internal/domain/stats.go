package domain

// LearningStats is the classification of a learner's schedule states.
type LearningStats struct {
	TotalCards            int     `json:"total_cards"`
	NewCards              int     `json:"new_cards"`
	LearningCards         int     `json:"learning_cards"`
	ReviewCards           int     `json:"review_cards"`
	MasteredCards         int     `json:"mastered_cards"`
	AverageEasinessFactor float64 `json:"average_easiness_factor"`
	RetentionRate         float64 `json:"retention_rate"`
}

// UserLearningStats is the dashboard summary for one learner.
type UserLearningStats struct {
	TotalReviews          int     `json:"total_reviews"`
	ReviewsToday          int     `json:"reviews_today"`
	CardsDue              int     `json:"cards_due"`
	NewCards              int     `json:"new_cards"`
	LearningCards         int     `json:"learning_cards"`
	ReviewCards           int     `json:"review_cards"`
	CardsMastered         int     `json:"cards_mastered"`
	RetentionRate         float64 `json:"retention_rate"`
	AverageEasinessFactor float64 `json:"average_easiness_factor"`
	CurrentStreak         int     `json:"current_streak"`
}

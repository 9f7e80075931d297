package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain value fails validation.
	// All more specific validation errors below wrap it, so callers can
	// classify any of them with errors.Is(err, ErrValidation).
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is nil or malformed.
	ErrInvalidID = fmt.Errorf("%w: invalid ID", ErrValidation)

	// ErrInvalidQuality is returned when a quality score is outside 0..5.
	ErrInvalidQuality = fmt.Errorf("%w: quality must be between 0 and 5", ErrValidation)

	// ErrInvalidDifficulty is returned when a review difficulty is neither easy nor hard.
	ErrInvalidDifficulty = fmt.Errorf("%w: difficulty must be easy or hard", ErrValidation)

	// ErrInvalidResponseTime is returned when a negative response time is supplied.
	ErrInvalidResponseTime = fmt.Errorf("%w: response time cannot be negative", ErrValidation)

	// ErrAttemptIDReused is returned when a review attempt ID already belongs
	// to a review of a different flashcard or learner.
	ErrAttemptIDReused = fmt.Errorf("%w: attempt ID already used for another review", ErrValidation)

	// ErrInvalidLimit is returned when a queue limit is negative.
	ErrInvalidLimit = fmt.Errorf("%w: limit cannot be negative", ErrValidation)
)

package review

import (
	"context"
	"errors"
	"fmt"

	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/store"
)

// Common error types for the review services
var (
	// ErrScheduleNotFound indicates that the flashcard has no schedule for the learner.
	ErrScheduleNotFound = errors.New("schedule not found")

	// ErrFlashcardNotFound indicates that the flashcard does not exist.
	ErrFlashcardNotFound = errors.New("flashcard not found")

	// ErrAlreadyInitialized indicates that the flashcard is already scheduled for the learner.
	ErrAlreadyInitialized = errors.New("flashcard already scheduled for user")

	// ErrPersistence indicates that the storage layer failed. Nothing was written.
	ErrPersistence = errors.New("review state could not be persisted")

	// ErrConcurrencyConflict indicates that another review of the same card
	// won a race. Nothing was written and the request may be retried.
	ErrConcurrencyConflict = errors.New("concurrent review of the same card")
)

// Operation names used in ServiceError.
const (
	OpGetQueue            = "get_review_queue"
	OpRecordReview        = "record_review"
	OpInitializeFlashcard = "initialize_flashcard"
	OpGetSchedule         = "get_schedule"
	OpGetStats            = "get_learning_stats"
	OpGetHistory          = "get_review_history"
)

// ServiceError wraps errors from the review services with additional context.
// This allows consumers to differentiate between different types of service errors
// using errors.As instead of string matching.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "record_review")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError returns a new ServiceError for the given operation.
func NewServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// mapError translates store and domain errors into the review error
// vocabulary. Errors that already belong to it pass through unchanged.
func mapError(operation string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, ErrScheduleNotFound),
		errors.Is(err, ErrFlashcardNotFound),
		errors.Is(err, ErrAlreadyInitialized),
		errors.Is(err, ErrConcurrencyConflict),
		errors.Is(err, ErrPersistence):
		return err
	case errors.Is(err, store.ErrFlashcardNotFound):
		return ErrFlashcardNotFound
	case errors.Is(err, store.ErrScheduleNotFound):
		return ErrScheduleNotFound
	case errors.Is(err, store.ErrConcurrencyConflict),
		errors.Is(err, store.ErrScheduleExists),
		errors.Is(err, store.ErrReviewExists):
		return NewServiceError(operation, "concurrent modification",
			fmt.Errorf("%w: %w", ErrConcurrencyConflict, err))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return NewServiceError(operation, "request cancelled", fmt.Errorf("%w: %w", ErrPersistence, err))
	default:
		return NewServiceError(operation, "storage failure", fmt.Errorf("%w: %w", ErrPersistence, err))
	}
}

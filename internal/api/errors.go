package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/scry-scheduler/internal/api/shared"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/service/auth"
	"github.com/phrazzld/scry-scheduler/internal/service/review"
	"github.com/phrazzld/scry-scheduler/internal/store"
)

// Client-facing messages for retryable failures.
const (
	retryWriteMessage = "Review not recorded, please retry"
	retryReadMessage  = "Service temporarily unavailable, please retry"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// exposing the error itself.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrWrongTokenType):
		return http.StatusUnauthorized

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, shared.ErrEmptyBody):
		return http.StatusBadRequest

	case errors.Is(err, review.ErrScheduleNotFound),
		errors.Is(err, review.ErrFlashcardNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, review.ErrAlreadyInitialized),
		errors.Is(err, review.ErrConcurrencyConflict):
		return http.StatusConflict

	case errors.Is(err, review.ErrPersistence):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a user-facing message for err that never
// contains the wrapped cause.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid token"

	case errors.Is(err, domain.ErrInvalidDifficulty):
		return "Invalid difficulty: must be easy or hard"
	case errors.Is(err, domain.ErrInvalidResponseTime):
		return "Invalid response_time_ms: cannot be negative"
	case errors.Is(err, domain.ErrInvalidLimit):
		return "Invalid limit: cannot be negative"
	case errors.Is(err, domain.ErrInvalidQuality):
		return "Invalid quality"
	case errors.Is(err, domain.ErrAttemptIDReused):
		return "Invalid attempt_id: already used for another review"
	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid ID format"
	case errors.Is(err, shared.ErrEmptyBody):
		return "Request body is required"
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return "Validation error"

	case errors.Is(err, review.ErrScheduleNotFound):
		return "Schedule not found"
	case errors.Is(err, review.ErrFlashcardNotFound):
		return "Flashcard not found"
	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	case errors.Is(err, review.ErrAlreadyInitialized):
		return "Flashcard already scheduled"

	case errors.Is(err, review.ErrConcurrencyConflict),
		errors.Is(err, review.ErrPersistence):
		if isWriteOperation(err) {
			return retryWriteMessage
		}
		return retryReadMessage

	default:
		return "An unexpected error occurred"
	}
}

// isWriteOperation reports whether err came from an operation that changes
// schedule state.
func isWriteOperation(err error) bool {
	var serviceErr *review.ServiceError
	if !errors.As(err, &serviceErr) {
		// Conflicts only arise from writes.
		return errors.Is(err, review.ErrConcurrencyConflict)
	}
	switch serviceErr.Operation {
	case review.OpRecordReview, review.OpInitializeFlashcard:
		return true
	default:
		return false
	}
}

// SanitizeValidationError turns validator errors into a message naming the
// first failing field by its JSON name.
func SanitizeValidationError(err error) string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return "Validation error"
	}

	fe := validationErrs[0]
	return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "uuid":
		return "must be a UUID"
	case "number":
		return "must be a non-negative integer"
	case "gte", "min":
		return "too small"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}

// HandleAPIError writes the status and safe message for err and logs the
// redacted cause. fallback replaces the generic message of a 500.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallback != "" {
		message = fallback
	}

	var opts []shared.ResponseOption
	if status == http.StatusConflict {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}

package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/api/shared"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/platform/logger"
	"github.com/phrazzld/scry-scheduler/internal/redact"
	"github.com/phrazzld/scry-scheduler/internal/service/review"
)

// ReviewHandler serves the review queue, schedule and statistics endpoints.
type ReviewHandler struct {
	service review.Service
	logger  *slog.Logger
}

// NewReviewHandler creates a ReviewHandler.
func NewReviewHandler(service review.Service, logger *slog.Logger) *ReviewHandler {
	if service == nil {
		panic("service cannot be nil for ReviewHandler")
	}
	if logger == nil {
		panic("logger cannot be nil for ReviewHandler")
	}

	return &ReviewHandler{
		service: service,
		logger:  logger.With(slog.String("component", "review_handler")),
	}
}

// GetQueue handles GET /api/reviews/queue?note_id=&limit=
func (h *ReviewHandler) GetQueue(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	query := QueueQuery{
		NoteID: r.URL.Query().Get("note_id"),
		Limit:  r.URL.Query().Get("limit"),
	}
	if err := shared.ValidateRequest(query); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	var opts review.QueueOptions
	if query.NoteID != "" {
		noteID := uuid.MustParse(query.NoteID)
		opts.NoteID = &noteID
	}
	if query.Limit != "" {
		limit, err := strconv.Atoi(query.Limit)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid limit: too large")
			return
		}
		opts.Limit = limit
	}

	items, err := h.service.GetReviewQueue(r.Context(), userID, opts)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get review queue")
		return
	}

	log.Debug("review queue served",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(items)))
	shared.RespondWithJSON(w, r, http.StatusOK, QueueResponse{Items: items, Count: len(items)})
}

// InitializeSchedule handles POST /api/flashcards/{id}/schedule
func (h *ReviewHandler) InitializeSchedule(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, flashcardID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	state, err := h.service.InitializeFlashcard(r.Context(), flashcardID, userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to schedule flashcard")
		return
	}

	log.Info("flashcard scheduled",
		slog.String("user_id", userID.String()),
		slog.String("flashcard_id", flashcardID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, scheduleToResponse(state))
}

// GetSchedule handles GET /api/flashcards/{id}/schedule
func (h *ReviewHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, flashcardID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	state, err := h.service.GetSchedule(r.Context(), flashcardID, userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get schedule")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, scheduleToResponse(state))
}

// RecordReview handles POST /api/flashcards/{id}/reviews
func (h *ReviewHandler) RecordReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, flashcardID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req RecordReviewRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format",
			slog.String("error", redact.Error(err)),
			slog.String("flashcard_id", flashcardID.String()))
		message := "Invalid request format"
		if MapErrorToStatusCode(err) == http.StatusBadRequest {
			message = GetSafeErrorMessage(err)
		}
		shared.RespondWithError(w, r, http.StatusBadRequest, message)
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	var attemptID uuid.UUID
	if req.AttemptID != "" {
		attemptID = uuid.MustParse(req.AttemptID)
	}

	state, err := h.service.RecordReview(r.Context(), review.RecordReviewRequest{
		FlashcardID:    flashcardID,
		UserID:         userID,
		Difficulty:     domain.Difficulty(req.Difficulty),
		ResponseTimeMs: req.ResponseTimeMs,
		AttemptID:      attemptID,
	})
	if err != nil {
		HandleAPIError(w, r, err, retryWriteMessage)
		return
	}

	log.Debug("review recorded",
		slog.String("user_id", userID.String()),
		slog.String("flashcard_id", flashcardID.String()),
		slog.Int("interval", state.Interval))
	shared.RespondWithJSON(w, r, http.StatusOK, RecordReviewResponse{
		Success:  true,
		Schedule: scheduleToResponse(state),
	})
}

// GetReviewHistory handles GET /api/flashcards/{id}/reviews?limit=
func (h *ReviewHandler) GetReviewHistory(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, flashcardID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	query := HistoryQuery{Limit: r.URL.Query().Get("limit")}
	if err := shared.ValidateRequest(query); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	var limit int
	if query.Limit != "" {
		n, err := strconv.Atoi(query.Limit)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid limit: too large")
			return
		}
		limit = n
	}

	records, err := h.service.GetReviewHistory(r.Context(), flashcardID, userID, limit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get review history")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, HistoryResponse{Items: records, Count: len(records)})
}

// GetStats handles GET /api/reviews/stats
func (h *ReviewHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	stats, err := h.service.GetLearningStats(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get learning statistics")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}

package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/scry-scheduler/internal/api"
	apiMiddleware "github.com/phrazzld/scry-scheduler/internal/api/middleware"
)

// setupRouter registers the middleware chain and every route.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	reviewHandler := api.NewReviewHandler(app.reviewService, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.verifier)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Get("/reviews/queue", reviewHandler.GetQueue)
		r.Get("/reviews/stats", reviewHandler.GetStats)

		r.Post("/flashcards/{id}/schedule", reviewHandler.InitializeSchedule)
		r.Get("/flashcards/{id}/schedule", reviewHandler.GetSchedule)
		r.Post("/flashcards/{id}/reviews", reviewHandler.RecordReview)
		r.Get("/flashcards/{id}/reviews", reviewHandler.GetReviewHistory)
	})

	r.Method(http.MethodGet, "/health", api.NewHealthHandler(app.db, app.logger))

	return r
}

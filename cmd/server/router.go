package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/ladder-api/internal/api"
	apiMiddleware "github.com/phrazzld/ladder-api/internal/api/middleware"
	"github.com/phrazzld/ladder-api/internal/platform/metrics"
)

// setupRouter creates the router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.TraceMiddleware(app.logger))
	r.Use(middleware.Recoverer)
	r.Use(app.metrics.Middleware)

	progressHandler := api.NewProgressHandler(app.progressService, app.logger)
	leaderboardHandler := api.NewLeaderboardHandler(app.leaderboardService, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Post("/exercises/{id}/submissions", progressHandler.SubmitAnswer)
		r.Post("/lessons/{id}/complete", progressHandler.CompleteLesson)
		r.Get("/lessons/{id}/progress", progressHandler.GetLessonProgress)
		r.Get("/leaderboard", leaderboardHandler.GetLeaderboard)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler(app.registry))

	return r
}

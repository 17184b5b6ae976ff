package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/ladder-api/internal/api/shared"
	"github.com/phrazzld/ladder-api/internal/platform/logger"
	"github.com/phrazzld/ladder-api/internal/service/progress"
)

// ProgressHandler serves answer submission and lesson progress requests.
type ProgressHandler struct {
	progressService progress.Service
	logger          *slog.Logger
}

// NewProgressHandler creates a new ProgressHandler.
func NewProgressHandler(progressService progress.Service, logger *slog.Logger) *ProgressHandler {
	if progressService == nil {
		panic("progressService cannot be nil for ProgressHandler")
	}
	if logger == nil {
		panic("logger cannot be nil for ProgressHandler")
	}
	return &ProgressHandler{
		progressService: progressService,
		logger:          logger.With(slog.String("component", "progress_handler")),
	}
}

// SubmitAnswer handles POST /api/exercises/{id}/submissions.
// An incorrect answer is a 200 response with is_correct false.
func (h *ProgressHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, exerciseID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req SubmitAnswerRequest
	if !parseAndValidateRequest(w, r, &req, log) {
		return
	}

	result, err := h.progressService.SubmitAnswer(r.Context(), userID, exerciseID, req.Answer)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to submit answer")
		return
	}

	log.Debug("answer submitted",
		slog.String("exercise_id", exerciseID.String()),
		slog.Bool("correct", result.IsCorrect),
		slog.Int("xp_awarded", result.XPAwarded))
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// CompleteLesson handles POST /api/lessons/{id}/complete.
func (h *ProgressHandler) CompleteLesson(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, lessonID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	result, err := h.progressService.CompleteLesson(r.Context(), userID, lessonID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to complete lesson")
		return
	}

	log.Debug("lesson completion evaluated",
		slog.String("lesson_id", lessonID.String()),
		slog.Bool("completed", result.IsCompleted))
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// GetLessonProgress handles GET /api/lessons/{id}/progress.
func (h *ProgressHandler) GetLessonProgress(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, lessonID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	result, err := h.progressService.GetLessonProgress(r.Context(), userID, lessonID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load lesson progress")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

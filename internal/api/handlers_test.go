package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/ladder-api/internal/api/shared"
	"github.com/phrazzld/ladder-api/internal/domain"
	"github.com/phrazzld/ladder-api/internal/service/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func newRouter(ps *mockProgressService, ls *mockLeaderboardService) http.Handler {
	r := chi.NewRouter()
	ph := NewProgressHandler(ps, discard)
	lh := NewLeaderboardHandler(ls, discard)
	r.Post("/api/exercises/{id}/submissions", ph.SubmitAnswer)
	r.Post("/api/lessons/{id}/complete", ph.CompleteLesson)
	r.Get("/api/lessons/{id}/progress", ph.GetLessonProgress)
	r.Get("/api/leaderboard", lh.GetLeaderboard)
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string, userID uuid.UUID) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	ctx := shared.SetTraceID(req.Context())
	if userID != uuid.Nil {
		ctx = shared.WithUserID(ctx, userID)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req.WithContext(ctx))
	return rr
}

func errorBody(t *testing.T, rr *httptest.ResponseRecorder) shared.ErrorResponse {
	t.Helper()
	var resp shared.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestSubmitAnswerHandler(t *testing.T) {
	t.Parallel()

	userID, exerciseID := uuid.New(), uuid.New()
	target := "/api/exercises/" + exerciseID.String() + "/submissions"
	answer := "chiamo"

	tests := []struct {
		name       string
		target     string
		body       string
		userID     uuid.UUID
		setup      func(m *mockProgressService)
		wantStatus int
		wantError  string
	}{
		{
			name:   "correct answer",
			target: target,
			body:   `{"answer":"Chiamo"}`,
			userID: userID,
			setup: func(m *mockProgressService) {
				m.On("SubmitAnswer", mock.Anything, userID, exerciseID, "Chiamo").
					Return(&progress.SubmissionResult{IsCorrect: true, PointsEarned: 10, XPAwarded: 10}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "incorrect answer is not an error",
			target: target,
			body:   `{"answer":"xyz"}`,
			userID: userID,
			setup: func(m *mockProgressService) {
				m.On("SubmitAnswer", mock.Anything, userID, exerciseID, "xyz").
					Return(&progress.SubmissionResult{CorrectAnswer: &answer}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing user",
			target:     target,
			body:       `{"answer":"x"}`,
			wantStatus: http.StatusUnauthorized,
			wantError:  "User ID not found or invalid",
		},
		{
			name:       "bad exercise id",
			target:     "/api/exercises/not-a-uuid/submissions",
			body:       `{"answer":"x"}`,
			userID:     userID,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid id: has invalid format",
		},
		{
			name:       "empty answer",
			target:     target,
			body:       `{"answer":""}`,
			userID:     userID,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid answer: required field",
		},
		{
			name:       "blank answer",
			target:     target,
			body:       `{"answer":"   "}`,
			userID:     userID,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid answer: is required",
		},
		{
			name:       "missing body",
			target:     target,
			userID:     userID,
			wantStatus: http.StatusBadRequest,
			wantError:  "Request body is required",
		},
		{
			name:       "malformed body",
			target:     target,
			body:       `{"answer":`,
			userID:     userID,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid request format",
		},
		{
			name:   "unknown exercise",
			target: target,
			body:   `{"answer":"x"}`,
			userID: userID,
			setup: func(m *mockProgressService) {
				m.On("SubmitAnswer", mock.Anything, userID, exerciseID, "x").Return(nil, progress.ErrExerciseNotFound)
			},
			wantStatus: http.StatusNotFound,
			wantError:  "Exercise not found",
		},
		{
			name:   "locked lesson",
			target: target,
			body:   `{"answer":"x"}`,
			userID: userID,
			setup: func(m *mockProgressService) {
				m.On("SubmitAnswer", mock.Anything, userID, exerciseID, "x").Return(nil, progress.ErrLessonLocked)
			},
			wantStatus: http.StatusForbidden,
			wantError:  "Lesson is locked",
		},
		{
			name:   "store failure",
			target: target,
			body:   `{"answer":"x"}`,
			userID: userID,
			setup: func(m *mockProgressService) {
				m.On("SubmitAnswer", mock.Anything, userID, exerciseID, "x").
					Return(nil, progress.NewServiceError("submit_answer", "failed", errors.New("pq: relation users does not exist")))
			},
			wantStatus: http.StatusInternalServerError,
			wantError:  "Failed to submit answer",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ps := &mockProgressService{}
			if tt.setup != nil {
				tt.setup(ps)
			}

			rr := do(t, newRouter(ps, &mockLeaderboardService{}), http.MethodPost, tt.target, tt.body, tt.userID)

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantError != "" {
				resp := errorBody(t, rr)
				assert.Equal(t, tt.wantError, resp.Error)
				assert.NotEmpty(t, resp.TraceID)
				assert.NotContains(t, rr.Body.String(), "relation")
			}
			ps.AssertExpectations(t)
		})
	}
}

func TestSubmitAnswerResponseShape(t *testing.T) {
	t.Parallel()

	userID, exerciseID := uuid.New(), uuid.New()
	answer := "chiamo"
	ps := &mockProgressService{}
	ps.On("SubmitAnswer", mock.Anything, userID, exerciseID, "xyz").Return(&progress.SubmissionResult{
		AlreadyCompleted: true,
		CorrectAnswer:    &answer,
		LessonProgress:   domain.ProgressSummary{CompletedExercises: 1, TotalExercises: 2, EarnedXP: 10, TotalPossibleXP: 20, CompletionPercentage: 0.5},
	}, nil)

	rr := do(t, newRouter(ps, &mockLeaderboardService{}), http.MethodPost,
		"/api/exercises/"+exerciseID.String()+"/submissions", `{"answer":"xyz"}`, userID)
	require.Equal(t, http.StatusOK, rr.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, false, body["is_correct"])
	assert.Equal(t, float64(0), body["points_earned"])
	assert.Equal(t, "chiamo", body["correct_answer"])
	assert.Equal(t, true, body["already_completed"])
	lesson := body["lesson_progress"].(map[string]interface{})
	assert.Equal(t, 0.5, lesson["completion_percentage"])
}

func TestCompleteLessonHandler(t *testing.T) {
	t.Parallel()

	userID, lessonID, nextID := uuid.New(), uuid.New(), uuid.New()
	ps := &mockProgressService{}
	ps.On("CompleteLesson", mock.Anything, userID, lessonID).Return(&progress.CompletionResult{
		CurrentLessonID:      lessonID,
		IsCompleted:          true,
		EarnedXP:             35,
		TotalPossibleXP:      50,
		CompletionPercentage: 0.7,
		RequiredThreshold:    0.7,
		NextLesson:           &progress.UnlockResult{Outcome: progress.OutcomeUnlocked, ID: nextID, Title: "Numeri"},
	}, nil)
	ps.On("CompleteLesson", mock.Anything, userID, mock.Anything).Return(nil, progress.ErrLessonNotFound)

	router := newRouter(ps, &mockLeaderboardService{})

	rr := do(t, router, http.MethodPost, "/api/lessons/"+lessonID.String()+"/complete", "", userID)
	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		IsCompleted bool `json:"is_completed"`
		NextLesson  struct {
			Unlock string    `json:"unlock"`
			ID     uuid.UUID `json:"id"`
		} `json:"next_lesson"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.True(t, body.IsCompleted)
	assert.Equal(t, "unlocked", body.NextLesson.Unlock)
	assert.Equal(t, nextID, body.NextLesson.ID)

	rr = do(t, router, http.MethodPost, "/api/lessons/"+uuid.NewString()+"/complete", "", userID)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Lesson not found", errorBody(t, rr).Error)
}

func TestGetLessonProgressHandler(t *testing.T) {
	t.Parallel()

	userID, lessonID, exerciseID := uuid.New(), uuid.New(), uuid.New()
	ps := &mockProgressService{}
	ps.On("GetLessonProgress", mock.Anything, userID, lessonID).Return(&progress.LessonProgress{
		LessonID:        lessonID,
		ProgressSummary: domain.ProgressSummary{CompletedExercises: 1, TotalExercises: 1, EarnedXP: 10, TotalPossibleXP: 10, CompletionPercentage: 1, MeetsThreshold: true},
		Exercises:       map[uuid.UUID]domain.ExerciseStatus{exerciseID: {ExerciseID: exerciseID, IsCompleted: true, PointsEarned: 10}},
	}, nil)

	rr := do(t, newRouter(ps, &mockLeaderboardService{}), http.MethodGet, "/api/lessons/"+lessonID.String()+"/progress", "", userID)
	require.Equal(t, http.StatusOK, rr.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, float64(1), body["completed_exercises"], "summary fields are inlined")
	exercises := body["exercises"].(map[string]interface{})
	assert.Contains(t, exercises, exerciseID.String())
}

func TestGetLeaderboardHandler(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	board := &domain.Leaderboard{
		TimeFrame: domain.TimeFrameMonthly,
		Entries:   []domain.LeaderboardEntry{{Rank: 1, UserID: userID, TotalXP: 40, Level: 1, IsCurrentUser: true}},
	}
	board.CurrentUserEntry = &board.Entries[0]

	tests := []struct {
		name       string
		query      string
		wantFrame  domain.TimeFrame
		wantStatus int
	}{
		{name: "default is weekly", query: "", wantFrame: domain.TimeFrameWeekly, wantStatus: http.StatusOK},
		{name: "monthly", query: "?timeframe=monthly", wantFrame: domain.TimeFrameMonthly, wantStatus: http.StatusOK},
		{name: "alltime", query: "?timeframe=AllTime", wantFrame: domain.TimeFrameAllTime, wantStatus: http.StatusOK},
		{name: "unknown", query: "?timeframe=daily", wantStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ls := &mockLeaderboardService{}
			if tt.wantFrame != "" {
				ls.On("GetLeaderboard", mock.Anything, tt.wantFrame, userID).Return(board, nil)
			}

			rr := do(t, newRouter(&mockProgressService{}, ls), http.MethodGet, "/api/leaderboard"+tt.query, "", userID)
			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus == http.StatusOK {
				var got domain.Leaderboard
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
				require.Len(t, got.Entries, 1)
				assert.True(t, got.Entries[0].IsCurrentUser)
				require.NotNil(t, got.CurrentUserEntry)
			} else {
				assert.Contains(t, errorBody(t, rr).Error, "Invalid time frame")
			}
			ls.AssertExpectations(t)
		})
	}
}

func TestGetLeaderboardRequiresUser(t *testing.T) {
	t.Parallel()

	rr := do(t, newRouter(&mockProgressService{}, &mockLeaderboardService{}), http.MethodGet, "/api/leaderboard", "", uuid.Nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestHandlersPanicWithoutDependencies(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { NewProgressHandler(nil, discard) })
	assert.Panics(t, func() { NewProgressHandler(&mockProgressService{}, nil) })
	assert.Panics(t, func() { NewLeaderboardHandler(nil, discard) })
}

package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/ladder-api/internal/config"
	"github.com/phrazzld/ladder-api/internal/domain"
	"github.com/phrazzld/ladder-api/internal/events"
	"github.com/phrazzld/ladder-api/internal/platform/metrics"
	"github.com/phrazzld/ladder-api/internal/service/auth"
	"github.com/phrazzld/ladder-api/internal/service/leaderboard"
	"github.com/phrazzld/ladder-api/internal/service/progress"
	"github.com/phrazzld/ladder-api/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "router-test-secret-0123456789abcdef"

type fixture struct {
	handler  http.Handler
	user     domain.User
	lesson   domain.Lesson
	exercise domain.Exercise
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := memory.NewDB()
	f := &fixture{
		user:   domain.User{ID: uuid.New(), DisplayName: "Ada", Role: domain.RoleLearner},
		lesson: domain.Lesson{ID: uuid.New(), CourseID: uuid.New(), Title: "Saluti"},
	}
	f.exercise = domain.Exercise{
		ID:       uuid.New(),
		LessonID: f.lesson.ID,
		Points:   10,
		Variant:  domain.FillInBlank{CorrectAnswer: "ciao", TrimWhitespace: true},
	}
	db.PutUser(f.user)
	db.PutLesson(f.lesson)
	db.PutExercise(f.exercise)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jwtService, err := auth.NewJWTService(config.AuthConfig{JWTSecret: testSecret})
	require.NoError(t, err)

	app := &application{
		config:     &config.Config{},
		logger:     logger,
		registry:   newRegistry(),
		jwtService: jwtService,
	}
	app.metrics = metrics.New(app.registry)
	app.leaderboardService = leaderboard.NewService(db.Leaderboard(), logger, leaderboard.WithMetrics(app.metrics))
	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(leaderboard.NewInvalidationHandler(leaderboard.NopCache{}, logger))
	app.progressService = progress.NewService(db, db.Stores(), logger,
		progress.WithMetrics(app.metrics), progress.WithEmitter(emitter))

	f.handler = app.setupRouter()
	return f
}

func bearer(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func (f *fixture) do(t *testing.T, method, target, body, authz string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func TestRouter_Health(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", rr.Body.String())
}

func TestRouter_RequiresToken(t *testing.T) {
	f := newFixture(t)

	for _, target := range []string{"/api/leaderboard", "/api/lessons/" + f.lesson.ID.String() + "/progress"} {
		rr := f.do(t, http.MethodGet, target, "", "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code, target)
	}

	rr := f.do(t, http.MethodGet, "/api/leaderboard", "", "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRouter_SubmitThenLeaderboard(t *testing.T) {
	f := newFixture(t)
	authz := bearer(t, f.user.ID)

	rr := f.do(t, http.MethodPost, "/api/exercises/"+f.exercise.ID.String()+"/submissions",
		`{"answer":" Ciao "}`, authz)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var result progress.SubmissionResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.True(t, result.IsCorrect)
	assert.Equal(t, 10, result.XPAwarded)

	rr = f.do(t, http.MethodGet, "/api/leaderboard?timeframe=weekly", "", authz)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var lb domain.Leaderboard
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &lb))
	require.Len(t, lb.Entries, 1)
	assert.Equal(t, f.user.ID, lb.Entries[0].UserID)
	assert.Equal(t, 10, lb.Entries[0].TotalXP)
	assert.True(t, lb.Entries[0].IsCurrentUser)
	require.NotNil(t, lb.CurrentUserEntry)
	assert.Equal(t, 1, lb.CurrentUserEntry.Rank)

	rr = f.do(t, http.MethodGet, "/api/leaderboard?timeframe=yearly", "", authz)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRouter_MetricsExposeSubmissions(t *testing.T) {
	f := newFixture(t)
	authz := bearer(t, f.user.ID)

	rr := f.do(t, http.MethodPost, "/api/exercises/"+f.exercise.ID.String()+"/submissions",
		`{"answer":"nope"}`, authz)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = f.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `ladder_submissions_total{result="incorrect"} 1`)
}

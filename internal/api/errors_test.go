package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/phrazzld/ladder-api/internal/api/shared"
	"github.com/phrazzld/ladder-api/internal/domain"
	"github.com/phrazzld/ladder-api/internal/service/auth"
	"github.com/phrazzld/ladder-api/internal/service/leaderboard"
	"github.com/phrazzld/ladder-api/internal/service/progress"
	"github.com/stretchr/testify/assert"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"expired token", auth.ErrExpiredToken, http.StatusUnauthorized},
		{"bad subject", auth.ErrInvalidSubject, http.StatusUnauthorized},
		{"no user in context", domain.ErrUnauthorized, http.StatusUnauthorized},
		{"locked lesson", progress.ErrLessonLocked, http.StatusForbidden},
		{"exercise not found", progress.ErrExerciseNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("loading: %w", progress.ErrUserNotFound), http.StatusNotFound},
		{"invalid time frame", fmt.Errorf("%w: %q", leaderboard.ErrInvalidTimeFrame, "daily"), http.StatusBadRequest},
		{"validation", domain.NewValidationError("id", "has invalid format", domain.ErrInvalidID), http.StatusBadRequest},
		{"empty body", shared.ErrEmptyBody, http.StatusBadRequest},
		{"service failure", progress.NewServiceError("submit_answer", "boom", errors.New("db down")), http.StatusInternalServerError},
		{"unknown", errors.New("anything"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, MapErrorToStatusCode(tt.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "An unexpected error occurred"},
		{"expired", auth.ErrExpiredToken, "Token expired"},
		{"invalid", auth.ErrInvalidToken, "Invalid token"},
		{"locked", progress.ErrLessonLocked, "Lesson is locked"},
		{"lesson", progress.ErrLessonNotFound, "Lesson not found"},
		{"user", progress.ErrUserNotFound, "User not found"},
		{"validation", domain.NewValidationError("answer", "is required", domain.ErrValidation), "Invalid answer: is required"},
		{"internal details hidden", errors.New("SELECT * FROM users failed at /var/lib/pg"), "An unexpected error occurred"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, GetSafeErrorMessage(tt.err))
		})
	}
}

func TestSanitizeValidationError(t *testing.T) {
	t.Parallel()

	err := shared.Validate.Struct(SubmitAnswerRequest{})
	assert.Equal(t, "Invalid answer: required field", SanitizeValidationError(err))
	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("plain")))
}

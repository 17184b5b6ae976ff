package api

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/ladder-api/internal/domain"
	"github.com/phrazzld/ladder-api/internal/service/progress"
	"github.com/stretchr/testify/mock"
)

type mockProgressService struct{ mock.Mock }

func (m *mockProgressService) SubmitAnswer(
	ctx context.Context,
	userID, exerciseID uuid.UUID,
	answer string,
) (*progress.SubmissionResult, error) {
	args := m.Called(ctx, userID, exerciseID, answer)
	res, _ := args.Get(0).(*progress.SubmissionResult)
	return res, args.Error(1)
}

func (m *mockProgressService) CompleteLesson(ctx context.Context, userID, lessonID uuid.UUID) (*progress.CompletionResult, error) {
	args := m.Called(ctx, userID, lessonID)
	res, _ := args.Get(0).(*progress.CompletionResult)
	return res, args.Error(1)
}

func (m *mockProgressService) GetLessonProgress(ctx context.Context, userID, lessonID uuid.UUID) (*progress.LessonProgress, error) {
	args := m.Called(ctx, userID, lessonID)
	res, _ := args.Get(0).(*progress.LessonProgress)
	return res, args.Error(1)
}

type mockLeaderboardService struct{ mock.Mock }

func (m *mockLeaderboardService) GetLeaderboard(
	ctx context.Context,
	tf domain.TimeFrame,
	currentUserID uuid.UUID,
) (*domain.Leaderboard, error) {
	args := m.Called(ctx, tf, currentUserID)
	lb, _ := args.Get(0).(*domain.Leaderboard)
	return lb, args.Error(1)
}

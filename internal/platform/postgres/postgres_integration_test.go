//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/ladder-api/internal/domain"
	"github.com/phrazzld/ladder-api/internal/platform/postgres"
	"github.com/phrazzld/ladder-api/internal/store"
	"github.com/phrazzld/ladder-api/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	user      domain.User
	lesson    domain.Lesson
	exercises []domain.Exercise
}

func seedLesson(t *testing.T, db *sql.DB) fixture {
	t.Helper()

	f := fixture{
		user:   domain.User{ID: uuid.New(), DisplayName: "Ada"},
		lesson: domain.Lesson{ID: uuid.New(), CourseID: uuid.New(), Title: "Saluti"},
	}
	testdb.InsertUser(t, db, f.user)
	testdb.InsertLesson(t, db, f.lesson)
	for i, pts := range []int{10, 15, 20} {
		e := domain.Exercise{
			ID:         uuid.New(),
			LessonID:   f.lesson.ID,
			Title:      "ex",
			Points:     pts,
			OrderIndex: i,
			IsLocked:   i > 0,
			Variant:    domain.FillInBlank{CorrectAnswer: "ciao", TrimWhitespace: true},
		}
		testdb.InsertExercise(t, db, e)
		f.exercises = append(f.exercises, e)
	}
	return f
}

func TestExerciseRoundTrip(t *testing.T) {
	db := testdb.Open(t)
	f := seedLesson(t, db)
	ctx := context.Background()
	stores := postgres.NewStores(db, nil)

	got, err := stores.Exercises.GetByID(ctx, f.exercises[0].ID)
	require.NoError(t, err)
	assert.Equal(t, f.exercises[0].Variant, got.Variant)

	next, err := stores.Exercises.NextInLesson(ctx, f.lesson.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, f.exercises[1].ID, next.ID)

	changed, err := stores.Exercises.Unlock(ctx, next.ID)
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = stores.Exercises.Unlock(ctx, next.ID)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestConcurrentCompletionAwardsOnce(t *testing.T) {
	db := testdb.Open(t)
	f := seedLesson(t, db)
	ctx := context.Background()
	stores := postgres.NewStores(db, nil)
	tx := store.NewSQLTransactor(db, stores)
	ex := f.exercises[0]

	const workers = 8
	var (
		wg      sync.WaitGroup
		awarded atomic.Int32
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := tx.WithinTx(ctx, func(ctx context.Context, s store.Stores) error {
				now := time.Now().UTC()
				p, err := s.Progress.Acquire(ctx, f.user.ID, ex.ID, now)
				if err != nil {
					return err
				}
				gained := p.RecordAttempt(true, ex.Points, now)
				if err := s.Progress.Update(ctx, p); err != nil {
					return err
				}
				if gained > 0 {
					awarded.Add(1)
					return s.Users.AddPoints(ctx, f.user.ID, gained)
				}
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), awarded.Load())

	u, err := stores.Users.GetByID(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, ex.Points, u.TotalPointsEarned)

	p, err := stores.Progress.Get(ctx, f.user.ID, ex.ID)
	require.NoError(t, err)
	assert.True(t, p.IsCompleted)
	assert.Equal(t, workers, p.Attempts)
}

func TestAcquireUnknownUser(t *testing.T) {
	db := testdb.Open(t)
	f := seedLesson(t, db)
	stores := postgres.NewStores(db, nil)

	_, err := stores.Progress.Acquire(context.Background(), uuid.New(), f.exercises[0].ID, time.Now())
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestLeaderboardQueries(t *testing.T) {
	db := testdb.Open(t)
	f := seedLesson(t, db)
	ctx := context.Background()
	stores := postgres.NewStores(db, nil)
	lb := postgres.NewPostgresLeaderboardStore(db, nil)

	other := domain.User{ID: uuid.New(), DisplayName: "Bea"}
	testdb.InsertUser(t, db, other)

	now := time.Now().UTC()
	complete := func(userID uuid.UUID, ex domain.Exercise, at time.Time) {
		p, err := stores.Progress.Acquire(ctx, userID, ex.ID, at)
		require.NoError(t, err)
		gained := p.RecordAttempt(true, ex.Points, at)
		require.NoError(t, stores.Progress.Update(ctx, p))
		require.NoError(t, stores.Users.AddPoints(ctx, userID, gained))
	}
	complete(f.user.ID, f.exercises[0], now.Add(-time.Hour))
	complete(f.user.ID, f.exercises[1], now.Add(-25*time.Hour))
	complete(other.ID, f.exercises[2], now.Add(-10*24*time.Hour))

	weekly, err := lb.Totals(ctx, domain.TimeFrameWeekly.CurrentWindow(now), 50)
	require.NoError(t, err)
	require.Len(t, weekly, 1)
	assert.Equal(t, 25, weekly[0].XP)

	all, err := lb.Totals(ctx, domain.TimeFrameAllTime.CurrentWindow(now), 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, f.user.ID, all[0].UserID)

	prev, err := lb.UserTotal(ctx, other.ID, domain.TimeFrameWeekly.ComparisonWindow(now))
	require.NoError(t, err)
	assert.Equal(t, 20, prev.XP)

	above, err := lb.CountAbove(ctx, domain.TimeFrameAllTime.CurrentWindow(now), 20)
	require.NoError(t, err)
	assert.Equal(t, 1, above)

	days, err := lb.CompletionTimes(ctx, []uuid.UUID{f.user.ID, other.ID})
	require.NoError(t, err)
	assert.Len(t, days[f.user.ID], 2)
	assert.Len(t, days[other.ID], 1)
}

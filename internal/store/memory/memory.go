// Package memory provides in-memory implementations of the store interfaces.
//
// A DB keeps every entity in maps guarded by one mutex. WithinTx holds a
// transaction lock for the whole unit of work and restores a snapshot when
// the work fails, which makes transactions serializable with respect to each
// other. Writes made outside WithinTx are visible immediately, and are lost
// if a transaction running at the same time fails.
package memory

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/ladder-api/internal/domain"
	"github.com/phrazzld/ladder-api/internal/store"
)

type progressKey struct {
	userID     uuid.UUID
	exerciseID uuid.UUID
}

type tables struct {
	users     map[uuid.UUID]domain.User
	lessons   map[uuid.UUID]domain.Lesson
	exercises map[uuid.UUID]domain.Exercise
	progress  map[progressKey]domain.UserExerciseProgress
}

func (t tables) clone() tables {
	c := tables{
		users:     make(map[uuid.UUID]domain.User, len(t.users)),
		lessons:   make(map[uuid.UUID]domain.Lesson, len(t.lessons)),
		exercises: make(map[uuid.UUID]domain.Exercise, len(t.exercises)),
		progress:  make(map[progressKey]domain.UserExerciseProgress, len(t.progress)),
	}
	for k, v := range t.users {
		c.users[k] = v
	}
	for k, v := range t.lessons {
		c.lessons[k] = v
	}
	for k, v := range t.exercises {
		c.exercises[k] = v
	}
	for k, v := range t.progress {
		c.progress[k] = v
	}
	return c
}

// DB is an in-memory database shared by the stores it hands out.
type DB struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data tables
}

// NewDB creates an empty in-memory database.
func NewDB() *DB {
	return &DB{data: tables{}.clone()}
}

// Stores returns the transactional store group backed by db.
func (db *DB) Stores() store.Stores {
	return store.Stores{
		Exercises: &ExerciseStore{db: db},
		Lessons:   &LessonStore{db: db},
		Progress:  &ProgressStore{db: db},
		Users:     &UserStore{db: db},
	}
}

// Leaderboard returns the leaderboard read model backed by db.
func (db *DB) Leaderboard() *LeaderboardStore {
	return &LeaderboardStore{db: db}
}

var _ store.Transactor = (*DB)(nil)

// WithinTx implements store.Transactor.
func (db *DB) WithinTx(ctx context.Context, fn func(ctx context.Context, tx store.Stores) error) (err error) {
	db.txMu.Lock()
	defer db.txMu.Unlock()

	db.mu.RLock()
	snapshot := db.data.clone()
	db.mu.RUnlock()

	defer func() {
		if p := recover(); p != nil {
			db.restore(snapshot)
			panic(p)
		}
		if err != nil {
			db.restore(snapshot)
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx, db.Stores())
}

func (db *DB) restore(snapshot tables) {
	db.mu.Lock()
	db.data = snapshot
	db.mu.Unlock()
}

// PutUser inserts or replaces a user.
func (db *DB) PutUser(u domain.User) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.data.users[u.ID] = u
}

// PutLesson inserts or replaces a lesson.
func (db *DB) PutLesson(l domain.Lesson) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.data.lessons[l.ID] = l
}

// PutExercise inserts or replaces an exercise.
func (db *DB) PutExercise(e domain.Exercise) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.data.exercises[e.ID] = e
}

// PutProgress inserts or replaces a progress row.
func (db *DB) PutProgress(p domain.UserExerciseProgress) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.data.progress[progressKey{p.UserID, p.ExerciseID}] = p
}

// User returns a copy of the stored user.
func (db *DB) User(id uuid.UUID) (domain.User, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	u, ok := db.data.users[id]
	return u, ok
}

// Lesson returns a copy of the stored lesson.
func (db *DB) Lesson(id uuid.UUID) (domain.Lesson, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	l, ok := db.data.lessons[id]
	return l, ok
}

// Exercise returns a copy of the stored exercise.
func (db *DB) Exercise(id uuid.UUID) (domain.Exercise, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	e, ok := db.data.exercises[id]
	return e, ok
}

// CompletedPointsSum returns the sum of points earned over the user's
// completed progress rows.
func (db *DB) CompletedPointsSum(userID uuid.UUID) int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	sum := 0
	for k, p := range db.data.progress {
		if k.userID == userID && p.IsCompleted {
			sum += p.PointsEarned
		}
	}
	return sum
}

// ExerciseStore implements store.ExerciseStore in memory.
type ExerciseStore struct{ db *DB }

var _ store.ExerciseStore = (*ExerciseStore)(nil)

// GetByID implements store.ExerciseStore.GetByID.
func (s *ExerciseStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Exercise, error) {
	e, ok := s.db.Exercise(id)
	if !ok {
		return nil, store.ErrExerciseNotFound
	}
	return &e, nil
}

// NextInLesson implements store.ExerciseStore.NextInLesson.
func (s *ExerciseStore) NextInLesson(ctx context.Context, lessonID uuid.UUID, afterOrder int) (*domain.Exercise, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	var next *domain.Exercise
	for _, e := range s.db.data.exercises {
		if e.LessonID != lessonID || e.OrderIndex <= afterOrder {
			continue
		}
		if next == nil || e.OrderIndex < next.OrderIndex {
			e := e
			next = &e
		}
	}
	if next == nil {
		return nil, store.ErrExerciseNotFound
	}
	return next, nil
}

// Unlock implements store.ExerciseStore.Unlock.
func (s *ExerciseStore) Unlock(ctx context.Context, id uuid.UUID) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	e, ok := s.db.data.exercises[id]
	if !ok {
		return false, store.ErrExerciseNotFound
	}
	if !e.IsLocked {
		return false, nil
	}
	e.IsLocked = false
	s.db.data.exercises[id] = e
	return true, nil
}

// WithTx implements store.ExerciseStore.WithTx. Transactions are managed by
// DB.WithinTx, so the store is returned unchanged.
func (s *ExerciseStore) WithTx(*sql.Tx) store.ExerciseStore { return s }

// LessonStore implements store.LessonStore in memory.
type LessonStore struct{ db *DB }

var _ store.LessonStore = (*LessonStore)(nil)

// GetByID implements store.LessonStore.GetByID.
func (s *LessonStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lesson, error) {
	l, ok := s.db.Lesson(id)
	if !ok {
		return nil, store.ErrLessonNotFound
	}
	return &l, nil
}

// NextInCourse implements store.LessonStore.NextInCourse.
func (s *LessonStore) NextInCourse(ctx context.Context, courseID uuid.UUID, afterOrder int) (*domain.Lesson, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	var next *domain.Lesson
	for _, l := range s.db.data.lessons {
		if l.CourseID != courseID || l.OrderIndex <= afterOrder {
			continue
		}
		if next == nil || l.OrderIndex < next.OrderIndex {
			l := l
			next = &l
		}
	}
	if next == nil {
		return nil, store.ErrLessonNotFound
	}
	return next, nil
}

// Unlock implements store.LessonStore.Unlock.
func (s *LessonStore) Unlock(ctx context.Context, id uuid.UUID) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	l, ok := s.db.data.lessons[id]
	if !ok {
		return false, store.ErrLessonNotFound
	}
	if !l.IsLocked {
		return false, nil
	}
	l.IsLocked = false
	s.db.data.lessons[id] = l
	return true, nil
}

// WithTx implements store.LessonStore.WithTx.
func (s *LessonStore) WithTx(*sql.Tx) store.LessonStore { return s }

// ProgressStore implements store.ProgressStore in memory.
type ProgressStore struct{ db *DB }

var _ store.ProgressStore = (*ProgressStore)(nil)

// Acquire implements store.ProgressStore.Acquire. Row locking is provided
// by DB.WithinTx.
func (s *ProgressStore) Acquire(ctx context.Context, userID, exerciseID uuid.UUID, now time.Time) (*domain.UserExerciseProgress, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.data.users[userID]; !ok {
		return nil, store.ErrUserNotFound
	}
	if _, ok := s.db.data.exercises[exerciseID]; !ok {
		return nil, store.ErrExerciseNotFound
	}

	key := progressKey{userID, exerciseID}
	p, ok := s.db.data.progress[key]
	if !ok {
		p = *domain.NewUserExerciseProgress(userID, exerciseID, now)
		s.db.data.progress[key] = p
	}
	return &p, nil
}

// Get implements store.ProgressStore.Get.
func (s *ProgressStore) Get(ctx context.Context, userID, exerciseID uuid.UUID) (*domain.UserExerciseProgress, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	p, ok := s.db.data.progress[progressKey{userID, exerciseID}]
	if !ok {
		return nil, store.ErrProgressNotFound
	}
	return &p, nil
}

// Update implements store.ProgressStore.Update.
func (s *ProgressStore) Update(ctx context.Context, progress *domain.UserExerciseProgress) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	key := progressKey{progress.UserID, progress.ExerciseID}
	if _, ok := s.db.data.progress[key]; !ok {
		return store.ErrProgressNotFound
	}
	s.db.data.progress[key] = *progress
	return nil
}

// LessonStatus implements store.ProgressStore.LessonStatus.
func (s *ProgressStore) LessonStatus(ctx context.Context, userID, lessonID uuid.UUID) ([]domain.ExerciseStatus, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	rows := make([]domain.ExerciseStatus, 0)
	for _, e := range s.db.data.exercises {
		if e.LessonID != lessonID {
			continue
		}
		row := domain.ExerciseStatus{
			ExerciseID: e.ID,
			OrderIndex: e.OrderIndex,
			Points:     e.Points,
			IsLocked:   e.IsLocked,
		}
		if p, ok := s.db.data.progress[progressKey{userID, e.ID}]; ok {
			row.IsCompleted = p.IsCompleted
			row.PointsEarned = p.PointsEarned
			row.Attempts = p.Attempts
			row.CompletedAt = p.CompletedAt
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].OrderIndex < rows[j].OrderIndex })
	return rows, nil
}

// WithTx implements store.ProgressStore.WithTx.
func (s *ProgressStore) WithTx(*sql.Tx) store.ProgressStore { return s }

// UserStore implements store.UserStore in memory.
type UserStore struct{ db *DB }

var _ store.UserStore = (*UserStore)(nil)

// GetByID implements store.UserStore.GetByID.
func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := s.db.User(id)
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return &u, nil
}

// CanBypassLocks implements store.UserStore.CanBypassLocks.
func (s *UserStore) CanBypassLocks(ctx context.Context, id uuid.UUID) (bool, error) {
	u, ok := s.db.User(id)
	if !ok {
		return false, store.ErrUserNotFound
	}
	return u.Role.CanBypassLocks(), nil
}

// AddPoints implements store.UserStore.AddPoints.
func (s *UserStore) AddPoints(ctx context.Context, id uuid.UUID, points int) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	u, ok := s.db.data.users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	u.TotalPointsEarned += points
	s.db.data.users[id] = u
	return nil
}

// WithTx implements store.UserStore.WithTx.
func (s *UserStore) WithTx(*sql.Tx) store.UserStore { return s }

package testdb

import (
	"context"
	"database/sql"
	"testing"

	"github.com/phrazzld/ladder-api/internal/domain"
	"github.com/stretchr/testify/require"
)

// InsertUser writes a user row.
func InsertUser(t *testing.T, db *sql.DB, u domain.User) {
	t.Helper()
	if u.Role == "" {
		u.Role = domain.RoleLearner
	}
	_, err := db.ExecContext(context.Background(), `
		INSERT INTO users (id, display_name, avatar_url, role, total_points_earned)
		VALUES ($1, $2, $3, $4, $5)
	`, u.ID, u.DisplayName, u.AvatarURL, string(u.Role), u.TotalPointsEarned)
	require.NoError(t, err, "failed to insert user")
}

// InsertLesson writes a lesson row.
func InsertLesson(t *testing.T, db *sql.DB, l domain.Lesson) {
	t.Helper()
	_, err := db.ExecContext(context.Background(), `
		INSERT INTO lessons (id, course_id, title, order_index, is_locked)
		VALUES ($1, $2, $3, $4, $5)
	`, l.ID, l.CourseID, l.Title, l.OrderIndex, l.IsLocked)
	require.NoError(t, err, "failed to insert lesson")
}

// InsertExercise writes an exercise row with its encoded variant.
func InsertExercise(t *testing.T, db *sql.DB, e domain.Exercise) {
	t.Helper()
	variant, err := domain.EncodeVariant(e.Variant)
	require.NoError(t, err, "failed to encode variant")
	_, err = db.ExecContext(context.Background(), `
		INSERT INTO exercises (id, lesson_id, kind, title, points, order_index, is_locked, explanation, variant)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, e.ID, e.LessonID, string(e.Kind()), e.Title, e.Points, e.OrderIndex, e.IsLocked, e.Explanation, variant)
	require.NoError(t, err, "failed to insert exercise")
}

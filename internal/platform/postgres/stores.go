package postgres

import (
	"log/slog"

	"github.com/phrazzld/ladder-api/internal/store"
)

// NewStores builds the transactional store group on db.
func NewStores(db store.DBTX, logger *slog.Logger) store.Stores {
	return store.Stores{
		Exercises: NewPostgresExerciseStore(db, logger),
		Lessons:   NewPostgresLessonStore(db, logger),
		Progress:  NewPostgresProgressStore(db, logger),
		Users:     NewPostgresUserStore(db, logger),
	}
}

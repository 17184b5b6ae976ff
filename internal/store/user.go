package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/ladder-api/internal/domain"
)

// UserStore defines the engine's access to users. Profile and role data are
// owned by the identity provider; the engine only maintains the XP total.
type UserStore interface {
	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// CanBypassLocks reports whether the user's role may submit answers to
	// locked lessons. Returns ErrUserNotFound if the user does not exist.
	CanBypassLocks(ctx context.Context, id uuid.UUID) (bool, error)

	// AddPoints increments the user's running XP total.
	// Returns ErrUserNotFound if the user does not exist.
	AddPoints(ctx context.Context, id uuid.UUID, points int) error

	// WithTx returns a new UserStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) UserStore
}

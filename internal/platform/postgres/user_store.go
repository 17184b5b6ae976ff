package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/ladder-api/internal/domain"
	"github.com/phrazzld/ladder-api/internal/platform/logger"
	"github.com/phrazzld/ladder-api/internal/redact"
	"github.com/phrazzld/ladder-api/internal/store"
)

// PostgresUserStore implements store.UserStore.
type PostgresUserStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresUserStore creates a user store on a pool or transaction.
func NewPostgresUserStore(db store.DBTX, logger *slog.Logger) *PostgresUserStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresUserStore{
		db:     db,
		logger: logger.With(slog.String("component", "user_store")),
	}
}

var _ store.UserStore = (*PostgresUserStore)(nil)

// GetByID implements store.UserStore.GetByID.
func (s *PostgresUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var (
		u    domain.User
		role string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, display_name, avatar_url, role, total_points_earned, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id).Scan(
		&u.ID,
		&u.DisplayName,
		&u.AvatarURL,
		&role,
		&u.TotalPointsEarned,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("user not found", slog.String("user_id", id.String()))
			return nil, store.ErrUserNotFound
		}
		log.Error("failed to get user",
			slog.String("error", redact.Error(err)),
			slog.String("user_id", id.String()))
		return nil, MapError(err)
	}
	u.Role = domain.Role(role)
	if err := u.Validate(); err != nil {
		log.Error("stored user is invalid",
			slog.String("error", err.Error()),
			slog.String("user_id", id.String()))
		return nil, store.NewStoreError("user", "get", "stored user is invalid",
			fmt.Errorf("%w: %w", store.ErrInvalidEntity, err))
	}
	return &u, nil
}

// CanBypassLocks implements store.UserStore.CanBypassLocks.
func (s *PostgresUserStore) CanBypassLocks(ctx context.Context, id uuid.UUID) (bool, error) {
	var role string
	err := s.db.QueryRowContext(ctx, `SELECT role FROM users WHERE id = $1`, id).Scan(&role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, store.ErrUserNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get user role",
			slog.String("error", redact.Error(err)),
			slog.String("user_id", id.String()))
		return false, MapError(err)
	}
	return domain.Role(role).CanBypassLocks(), nil
}

// AddPoints implements store.UserStore.AddPoints.
func (s *PostgresUserStore) AddPoints(ctx context.Context, id uuid.UUID, points int) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET total_points_earned = total_points_earned + $2, updated_at = NOW()
		WHERE id = $1
	`, id, points)
	if err != nil {
		log.Error("failed to add points",
			slog.String("error", redact.Error(err)),
			slog.String("user_id", id.String()),
			slog.Int("points", points))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrUserNotFound)
}

// WithTx implements store.UserStore.WithTx.
func (s *PostgresUserStore) WithTx(tx *sql.Tx) store.UserStore {
	return &PostgresUserStore{db: tx, logger: s.logger}
}

package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/ladder-api/internal/domain"
	"github.com/phrazzld/ladder-api/internal/store"
)

// LeaderboardStore implements store.LeaderboardStore in memory.
type LeaderboardStore struct{ db *DB }

var _ store.LeaderboardStore = (*LeaderboardStore)(nil)

// totalsLocked computes XP per user in the window. Callers hold db.mu.
func (s *LeaderboardStore) totalsLocked(window domain.TimeWindow) map[uuid.UUID]int {
	xp := make(map[uuid.UUID]int)
	if window.AllTime {
		for id, u := range s.db.data.users {
			xp[id] = u.TotalPointsEarned
		}
		return xp
	}
	for k, p := range s.db.data.progress {
		if !p.IsCompleted || p.CompletedAt == nil || !window.Contains(*p.CompletedAt) {
			continue
		}
		xp[k.userID] += p.PointsEarned
	}
	return xp
}

func (s *LeaderboardStore) totalFor(id uuid.UUID, xp int) domain.XPTotal {
	u := s.db.data.users[id]
	return domain.XPTotal{UserID: id, DisplayName: u.DisplayName, AvatarURL: u.AvatarURL, XP: xp}
}

// Totals implements store.LeaderboardStore.Totals.
func (s *LeaderboardStore) Totals(ctx context.Context, window domain.TimeWindow, limit int) ([]domain.XPTotal, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	totals := make([]domain.XPTotal, 0)
	for id, xp := range s.totalsLocked(window) {
		if xp <= 0 {
			continue
		}
		totals = append(totals, s.totalFor(id, xp))
	}
	domain.SortTotals(totals)
	if limit > 0 && len(totals) > limit {
		totals = totals[:limit]
	}
	return totals, nil
}

// UserTotal implements store.LeaderboardStore.UserTotal.
func (s *LeaderboardStore) UserTotal(ctx context.Context, userID uuid.UUID, window domain.TimeWindow) (domain.XPTotal, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	if _, ok := s.db.data.users[userID]; !ok {
		return domain.XPTotal{}, store.ErrUserNotFound
	}
	return s.totalFor(userID, s.totalsLocked(window)[userID]), nil
}

// CountAbove implements store.LeaderboardStore.CountAbove.
func (s *LeaderboardStore) CountAbove(ctx context.Context, window domain.TimeWindow, xp int) (int, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	count := 0
	for _, total := range s.totalsLocked(window) {
		if total > xp && total > 0 {
			count++
		}
	}
	return count, nil
}

// CompletionTimes implements store.LeaderboardStore.CompletionTimes.
func (s *LeaderboardStore) CompletionTimes(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID][]time.Time, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	wanted := make(map[uuid.UUID]struct{}, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = struct{}{}
	}

	times := make(map[uuid.UUID][]time.Time)
	for k, p := range s.db.data.progress {
		if _, ok := wanted[k.userID]; !ok || !p.IsCompleted || p.CompletedAt == nil {
			continue
		}
		times[k.userID] = append(times[k.userID], *p.CompletedAt)
	}
	return times, nil
}

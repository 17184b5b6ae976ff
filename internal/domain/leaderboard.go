package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LeaderboardSize is the number of entries in a leaderboard snapshot.
const LeaderboardSize = 50

// TimeFrame selects which XP a leaderboard ranks.
type TimeFrame string

// Supported time frames.
const (
	TimeFrameWeekly  TimeFrame = "weekly"
	TimeFrameMonthly TimeFrame = "monthly"
	TimeFrameAllTime TimeFrame = "alltime"
)

// TimeFrames lists every supported time frame.
var TimeFrames = []TimeFrame{TimeFrameWeekly, TimeFrameMonthly, TimeFrameAllTime}

// ParseTimeFrame parses a time frame name case-insensitively.
// An empty string selects the weekly board.
func ParseTimeFrame(s string) (TimeFrame, error) {
	switch TimeFrame(strings.ToLower(strings.TrimSpace(s))) {
	case "", TimeFrameWeekly:
		return TimeFrameWeekly, nil
	case TimeFrameMonthly:
		return TimeFrameMonthly, nil
	case TimeFrameAllTime, "all_time":
		return TimeFrameAllTime, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTimeFrame, s)
	}
}

// TimeWindow selects the completions whose completedAt falls in
// [Start, End). A zero End leaves the window open towards the future.
// AllTime windows ignore both bounds and rank users by their running total.
type TimeWindow struct {
	Start   time.Time
	End     time.Time
	AllTime bool
}

// Contains reports whether t falls inside a bounded window.
func (w TimeWindow) Contains(t time.Time) bool {
	if w.AllTime {
		return true
	}
	if t.Before(w.Start) {
		return false
	}
	return w.End.IsZero() || t.Before(w.End)
}

func (tf TimeFrame) period() time.Duration {
	if tf == TimeFrameMonthly {
		return 30 * 24 * time.Hour
	}
	return 7 * 24 * time.Hour
}

// CurrentWindow returns the window whose XP the board ranks.
func (tf TimeFrame) CurrentWindow(now time.Time) TimeWindow {
	if tf == TimeFrameAllTime {
		return TimeWindow{AllTime: true}
	}
	now = now.UTC()
	return TimeWindow{Start: now.Add(-tf.period())}
}

// ComparisonWindow returns the prior window ranks are compared against.
// All-time totals have no prior period, so the all-time board uses the
// weekly comparison window as a momentum signal.
func (tf TimeFrame) ComparisonWindow(now time.Time) TimeWindow {
	now = now.UTC()
	p := tf.period()
	return TimeWindow{Start: now.Add(-2 * p), End: now.Add(-p)}
}

// XPTotal is one user's XP within a window, as read from the store.
type XPTotal struct {
	UserID      uuid.UUID `json:"user_id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	XP          int       `json:"xp"`
}

// RankedTotal pairs a total with its competition rank.
type RankedTotal struct {
	XPTotal
	Rank int
}

// SortTotals orders totals by XP descending, breaking ties by display name
// and then user ID so that output is stable.
func SortTotals(totals []XPTotal) {
	sort.SliceStable(totals, func(i, j int) bool {
		a, b := totals[i], totals[j]
		if a.XP != b.XP {
			return a.XP > b.XP
		}
		if a.DisplayName != b.DisplayName {
			return a.DisplayName < b.DisplayName
		}
		return a.UserID.String() < b.UserID.String()
	})
}

// RankTotals sorts totals and assigns each a rank of 1 plus the number of
// totals with strictly more XP. Tied totals share a rank.
func RankTotals(totals []XPTotal) []RankedTotal {
	sorted := make([]XPTotal, len(totals))
	copy(sorted, totals)
	SortTotals(sorted)

	ranked := make([]RankedTotal, len(sorted))
	for i, t := range sorted {
		rank := i + 1
		if i > 0 && t.XP == sorted[i-1].XP {
			rank = ranked[i-1].Rank
		}
		ranked[i] = RankedTotal{XPTotal: t, Rank: rank}
	}
	return ranked
}

// RankIndex maps user IDs to their rank.
func RankIndex(ranked []RankedTotal) map[uuid.UUID]int {
	idx := make(map[uuid.UUID]int, len(ranked))
	for _, r := range ranked {
		idx[r.UserID] = r.Rank
	}
	return idx
}

// RankChange returns previous minus current rank, so a positive value means
// the user climbed. Users absent from the comparison window get 0.
func RankChange(previous map[uuid.UUID]int, userID uuid.UUID, current int) int {
	prev, ok := previous[userID]
	if !ok {
		return 0
	}
	return prev - current
}

// LeaderboardEntry is one row of a leaderboard.
type LeaderboardEntry struct {
	Rank          int       `json:"rank"`
	UserID        uuid.UUID `json:"user_id"`
	DisplayName   string    `json:"display_name"`
	AvatarURL     string    `json:"avatar_url,omitempty"`
	TotalXP       int       `json:"total_xp"`
	CurrentStreak int       `json:"current_streak"`
	LongestStreak int       `json:"longest_streak"`
	Level         int       `json:"level"`
	Change        int       `json:"change"`
	IsCurrentUser bool      `json:"is_current_user"`
}

// Leaderboard is a ranked snapshot for one time frame.
type Leaderboard struct {
	TimeFrame        TimeFrame          `json:"time_frame"`
	Entries          []LeaderboardEntry `json:"entries"`
	CurrentUserEntry *LeaderboardEntry  `json:"current_user_entry,omitempty"`
	GeneratedAt      time.Time          `json:"generated_at"`
}

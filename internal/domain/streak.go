package domain

import (
	"sort"
	"time"
)

const secondsPerDay = 24 * 60 * 60

// Streak holds the current and longest runs of consecutive active UTC days.
type Streak struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}

// dayNumber returns the number of whole UTC days since the Unix epoch.
func dayNumber(t time.Time) int64 {
	sec := t.Unix()
	day := sec / secondsPerDay
	if sec%secondsPerDay < 0 {
		day--
	}
	return day
}

// ComputeStreak derives the streak from the completion timestamps of a user.
// The current run only counts if its most recent day is today or yesterday
// in UTC.
func ComputeStreak(completions []time.Time, now time.Time) Streak {
	if len(completions) == 0 {
		return Streak{}
	}

	seen := make(map[int64]struct{}, len(completions))
	days := make([]int64, 0, len(completions))
	for _, c := range completions {
		d := dayNumber(c)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] > days[j] })

	var (
		streak   Streak
		run      = 1
		firstRun = 0
	)
	for i := 1; i < len(days); i++ {
		if days[i-1]-days[i] == 1 {
			run++
			continue
		}
		if firstRun == 0 {
			firstRun = run
		}
		streak.Longest = max(streak.Longest, run)
		run = 1
	}
	if firstRun == 0 {
		firstRun = run
	}
	streak.Longest = max(streak.Longest, run)

	today := dayNumber(now)
	if today-days[0] <= 1 {
		streak.Current = firstRun
	}
	return streak
}

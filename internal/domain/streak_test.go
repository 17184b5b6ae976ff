package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeStreak(t *testing.T) {
	t.Parallel()

	d := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	day := func(offset int, hour int) time.Time {
		return d.AddDate(0, 0, offset).Add(time.Duration(hour) * time.Hour)
	}

	tests := []struct {
		name        string
		completions []time.Time
		now         time.Time
		want        Streak
	}{
		{
			name: "no activity",
			now:  day(0, 12),
			want: Streak{},
		},
		{
			name:        "three consecutive days ending today",
			completions: []time.Time{day(0, 8), day(-1, 22), day(-2, 1)},
			now:         day(0, 23),
			want:        Streak{Current: 3, Longest: 3},
		},
		{
			name:        "same history two days later has lapsed",
			completions: []time.Time{day(0, 8), day(-1, 22), day(-2, 1)},
			now:         day(2, 9),
			want:        Streak{Current: 0, Longest: 3},
		},
		{
			name:        "yesterday keeps the streak alive",
			completions: []time.Time{day(-1, 10), day(-2, 10)},
			now:         day(0, 10),
			want:        Streak{Current: 2, Longest: 2},
		},
		{
			name:        "several completions on one day count once",
			completions: []time.Time{day(0, 1), day(0, 2), day(0, 3)},
			now:         day(0, 4),
			want:        Streak{Current: 1, Longest: 1},
		},
		{
			name: "longest run is older than the current run",
			completions: []time.Time{
				day(0, 1),
				day(-5, 1), day(-6, 1), day(-7, 1), day(-8, 1),
			},
			now:  day(0, 2),
			want: Streak{Current: 1, Longest: 4},
		},
		{
			name:        "unsorted input",
			completions: []time.Time{day(-2, 1), day(0, 1), day(-1, 1)},
			now:         day(0, 5),
			want:        Streak{Current: 3, Longest: 3},
		},
		{
			name:        "days are taken in UTC",
			completions: []time.Time{day(0, 1).In(time.FixedZone("UTC-5", -5*3600))},
			now:         day(0, 5),
			want:        Streak{Current: 1, Longest: 1},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ComputeStreak(tt.completions, tt.now))
		})
	}
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelForXP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		xp   int
		want int
	}{
		{xp: -10, want: 1},
		{xp: 0, want: 1},
		{xp: 199, want: 1},
		{xp: 200, want: 2},
		{xp: 599, want: 2},
		{xp: 600, want: 3},
		{xp: 1200, want: 4},
		{xp: 9900, want: 10},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelForXP(tt.xp), "xp=%d", tt.xp)
	}
}

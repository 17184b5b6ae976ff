package domain

import "math"

// LevelForXP converts an XP total into a level using
// floor((1 + sqrt(1 + xp/25)) / 2). Level n starts at 100*n*(n-1) XP and
// the result is never below 1.
func LevelForXP(xp int) int {
	if xp <= 0 {
		return 1
	}
	level := int(math.Floor((1 + math.Sqrt(1+float64(xp)/25)) / 2))
	if level < 1 {
		return 1
	}
	return level
}

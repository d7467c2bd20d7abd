package game

import "math"

// Level derives the display level from xp. Capped at 50.
func Level(xp int) int {
	if xp < 0 {
		xp = 0
	}
	level := int(math.Floor(math.Sqrt(float64(xp)/50))) + 1
	if level > 50 {
		return 50
	}
	return level
}

// QuickGuessWaitTime is how long into the discussion a player must wait
// before quick guess unlocks. Level 1: 150s, level 50: 3s.
func QuickGuessWaitTime(level int) int {
	wait := 150 - (level-1)*3
	if wait < 3 {
		return 3
	}
	return wait
}

// QuickGuessThreshold is the remaining discussion time at which quick guess
// becomes actionable.
func QuickGuessThreshold(level int) int {
	return discussionDuration - QuickGuessWaitTime(level)
}

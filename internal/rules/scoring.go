package rules

import "math"

var lineClearBase = [...]int64{0, 100, 300, 500, 800}

var tSpinBase = [...]int64{400, 800, 1200, 1600}

// CalculateScore returns the points for clearing linesCleared rows at the given
// level and multiplier. Back-to-back applies a 1.5x bonus to four-line clears
// and T-spins.
//
// T-spin detection is not implemented, so the engine always passes false.
func CalculateScore(linesCleared, level int, tSpin, backToBack bool, multiplier int) int64 {
	var base int64
	if tSpin {
		if linesCleared >= 0 && linesCleared < len(tSpinBase) {
			base = tSpinBase[linesCleared]
		}
	} else if linesCleared > 0 && linesCleared < len(lineClearBase) {
		base = lineClearBase[linesCleared]
	}

	score := float64(base) * float64(level) * float64(multiplier)
	if backToBack && (linesCleared == 4 || tSpin) {
		score *= 1.5
	}
	return int64(math.Floor(score))
}

// CalculateDropPoints scales accumulated soft/hard drop points by the multiplier.
func CalculateDropPoints(dropScore int64, multiplier int) int64 {
	return dropScore * int64(multiplier)
}

// gravityTable is the number of ticks per row for levels 1..len.
var gravityTable = [...]int{60, 48, 37, 28, 21, 16, 11, 8, 6, 4, 3, 2}

// GravityInterval returns how many ticks a piece waits before falling one row
// at the given level. Levels beyond the table fall every tick.
func GravityInterval(level int) int {
	if level < 1 {
		level = 1
	}
	if level > len(gravityTable) {
		return 1
	}
	return gravityTable[level-1]
}

package risk

// Level buckets a risk score into the scale surfaced to users.
type Level string

const (
	LevelVeryLow  Level = "very_low"
	LevelLow      Level = "low"
	LevelModerate Level = "moderate"
	LevelHigh     Level = "high"
	LevelVeryHigh Level = "very_high"
	LevelExtreme  Level = "extreme"
)

// LevelForScore maps a [0,1] risk score onto a Level using fixed breakpoints.
func LevelForScore(score float64) Level {
	switch {
	case score < 0.2:
		return LevelVeryLow
	case score < 0.4:
		return LevelLow
	case score < 0.6:
		return LevelModerate
	case score < 0.8:
		return LevelHigh
	case score < 0.9:
		return LevelVeryHigh
	default:
		return LevelExtreme
	}
}

// Rank orders levels from very_low (0) to extreme (5).
func (l Level) Rank() int {
	switch l {
	case LevelVeryLow:
		return 0
	case LevelLow:
		return 1
	case LevelModerate:
		return 2
	case LevelHigh:
		return 3
	case LevelVeryHigh:
		return 4
	case LevelExtreme:
		return 5
	default:
		return 0
	}
}

// AtLeast reports whether l is at or above the given floor.
func (l Level) AtLeast(floor Level) bool {
	return l.Rank() >= floor.Rank()
}

// ParseLevel converts a stored string into a Level, falling back to
// moderate for unrecognized values.
func ParseLevel(s string) Level {
	switch Level(s) {
	case LevelVeryLow, LevelLow, LevelModerate, LevelHigh, LevelVeryHigh, LevelExtreme:
		return Level(s)
	default:
		return LevelModerate
	}
}

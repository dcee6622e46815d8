package core

// Level represents the discrete alert tier of a watch
type Level string

// Alert level constants, ordered none < low < mid < high
const (
	LevelNone Level = "none"
	LevelLow  Level = "low"
	LevelMid  Level = "mid"
	LevelHigh Level = "high"
)

// Rank returns the position of the level in the none < low < mid < high ordering
func (l Level) Rank() int {
	switch l {
	case LevelLow:
		return 1
	case LevelMid:
		return 2
	case LevelHigh:
		return 3
	default:
		return 0
	}
}

// CrossedUp reports whether moving from prev to l is a strict upward
// transition. Lateral and downward moves never trigger a notification.
func (l Level) CrossedUp(prev Level) bool {
	return l.Rank() > prev.Rank()
}

// LevelFor maps a market cap to its alert level for the given thresholds.
// Boundaries are inclusive, so a value equal to a threshold resolves to the
// higher level.
func LevelFor(marketCap, low, mid, high float64) Level {
	switch {
	case marketCap >= high:
		return LevelHigh
	case marketCap >= mid:
		return LevelMid
	case marketCap >= low:
		return LevelLow
	default:
		return LevelNone
	}
}

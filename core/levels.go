package core

// Level is a named tier determined by a points threshold. A user's level is
// derived from their points total and never stored independently.
type Level struct {
	Name      string `json:"name"`
	MinPoints int    `json:"minPoints"`
	Icon      string `json:"icon"`
}

// DefaultLevels returns the standard level ladder, ordered by ascending
// MinPoints.
func DefaultLevels() []Level {
	return []Level{
		{Name: "Explorer", MinPoints: 0, Icon: "🧭"},
		{Name: "Adventurer", MinPoints: 500, Icon: "⛰️"},
		{Name: "Discoverer", MinPoints: 1500, Icon: "🔭"},
		{Name: "Legend", MinPoints: 3000, Icon: "👑"},
	}
}

// LevelFor returns the highest level whose threshold is <= points. The ladder
// must be ordered by ascending MinPoints and contain at least one entry.
func LevelFor(levels []Level, points int) Level {
	current := levels[0]
	for _, l := range levels {
		if points >= l.MinPoints {
			current = l
		}
	}
	return current
}

// NextLevel returns the first level above the current points total, or false
// when the top of the ladder has been reached.
func NextLevel(levels []Level, points int) (Level, bool) {
	for _, l := range levels {
		if points < l.MinPoints {
			return l, true
		}
	}
	return Level{}, false
}

package engine

import (
	"math"

	humanize "github.com/dustin/go-humanize"
	"github.com/samber/lo"

	"tripquest/core"
)

// BadgeStatus is one catalog entry annotated with its unlock state.
type BadgeStatus struct {
	core.Badge
	Unlocked bool `json:"unlocked"`
}

// Summary is the read-only view model pages render from. It is a pure
// projection of the record plus the static tables and may be computed
// arbitrarily often.
type Summary struct {
	Points        int           `json:"points"`
	PointsDisplay string        `json:"pointsDisplay"`
	Level         string        `json:"level"`
	LevelIcon     string        `json:"levelIcon"`
	NextLevel     string        `json:"nextLevel"`
	PointsToNext  int           `json:"pointsToNextLevel"`
	Badges        int           `json:"badges"`
	AllBadges     []BadgeStatus `json:"allBadges"`
	PlacesVisited int           `json:"placesVisited"`
	PlacesList    []string      `json:"placesVisitedList"`
	Exploration   int           `json:"explorationPercentage"`
	TimeSpent     string        `json:"timeSpent"`
	CurrentStreak int           `json:"currentStreak"`
	LongestStreak int           `json:"longestStreak"`
	Multiplier    float64       `json:"streakMultiplier"`
	TotalPlaces   int           `json:"totalDestinations"`
	MemberSince   string        `json:"memberSince,omitempty"`
}

// Summary computes the current progress projection.
func (e *Engine) Summary() Summary {
	e.mu.Lock()
	rec := e.rec.Clone()
	catalog := e.catalog
	levels := e.levels
	total := e.totalDestinations
	e.mu.Unlock()

	current := core.LevelFor(levels, rec.Points)
	s := Summary{
		Points:        rec.Points,
		PointsDisplay: humanize.Comma(int64(rec.Points)),
		Level:         current.Name,
		LevelIcon:     current.Icon,
		NextLevel:     "Max Level",
		Badges:        len(rec.Badges),
		PlacesVisited: len(rec.PlacesVisited),
		PlacesList:    rec.PlacesVisited,
		Exploration:   int(math.Floor(float64(len(rec.PlacesVisited)) / float64(total) * 100)),
		TimeSpent:     core.FormatTimeSpent(rec.TimeSpent),
		CurrentStreak: rec.CurrentStreak,
		LongestStreak: rec.LongestStreak,
		Multiplier:    core.StreakMultiplier(rec.CurrentStreak),
		TotalPlaces:   total,
	}
	if next, ok := core.NextLevel(levels, rec.Points); ok {
		s.NextLevel = next.Name
		s.PointsToNext = next.MinPoints - rec.Points
	}
	s.AllBadges = lo.Map(catalog, func(b core.Badge, _ int) BadgeStatus {
		return BadgeStatus{Badge: b, Unlocked: rec.HasBadge(b.ID)}
	})
	if rec.FirstVisit != nil {
		s.MemberSince = humanize.Time(*rec.FirstVisit)
	}
	return s
}

package core

import (
	"fmt"
	"math"
	"time"
)

// PointsEntry is one row of the append-only award audit log. Amount is the
// value actually credited, after the streak multiplier was applied.
type PointsEntry struct {
	Amount     int       `json:"amount"`
	Reason     string    `json:"reason"`
	Multiplier float64   `json:"multiplier"`
	Timestamp  time.Time `json:"timestamp"`
}

// ProgressRecord is the single persisted aggregate of user advancement state.
// JSON field names match the document written to storage.
type ProgressRecord struct {
	Points          int           `json:"points"`
	Badges          []string      `json:"badges"`
	PlacesVisited   []string      `json:"placesVisited"`
	WildlifeSpotted int           `json:"wildlifeSpotted"`
	ImagesViewed    int           `json:"imagesViewed"`
	CultureRead     bool          `json:"cultureRead"`
	NightVisits     int           `json:"nightVisits"`
	EarlyVisits     int           `json:"earlyVisits"`
	MapUsed         bool          `json:"mapUsed"`
	TimeSpent       int           `json:"timeSpent"` // seconds
	VisitDates      []string      `json:"visitDates"`
	LastVisitDate   *time.Time    `json:"lastVisitDate"`
	CurrentStreak   int           `json:"currentStreak"`
	LongestStreak   int           `json:"longestStreak"`
	FirstVisit      *time.Time    `json:"firstVisit"`
	PointsHistory   []PointsEntry `json:"pointsHistory"`
}

// DefaultRecord returns an all-zero record with empty collections.
func DefaultRecord() ProgressRecord {
	return ProgressRecord{
		Badges:        []string{},
		PlacesVisited: []string{},
		VisitDates:    []string{},
		PointsHistory: []PointsEntry{},
	}
}

// Clone returns a deep copy of the record to uphold immutability at
// package boundaries.
func (r ProgressRecord) Clone() ProgressRecord {
	cp := r
	cp.Badges = append([]string{}, r.Badges...)
	cp.PlacesVisited = append([]string{}, r.PlacesVisited...)
	cp.VisitDates = append([]string{}, r.VisitDates...)
	cp.PointsHistory = append([]PointsEntry{}, r.PointsHistory...)
	if r.LastVisitDate != nil {
		t := *r.LastVisitDate
		cp.LastVisitDate = &t
	}
	if r.FirstVisit != nil {
		t := *r.FirstVisit
		cp.FirstVisit = &t
	}
	return cp
}

// HasBadge reports whether the badge has already been unlocked.
func (r ProgressRecord) HasBadge(id string) bool {
	return contains(r.Badges, id)
}

// HasVisited reports whether the place has already been recorded.
func (r ProgressRecord) HasVisited(place string) bool {
	return contains(r.PlacesVisited, place)
}

// Normalize repairs a record loaded from storage or merged from an import:
// counters are clamped to zero, collections are de-duplicated, and
// longestStreak is lifted to at least currentStreak.
func (r *ProgressRecord) Normalize() {
	r.Points = clampNonNegative(r.Points)
	r.WildlifeSpotted = clampNonNegative(r.WildlifeSpotted)
	r.ImagesViewed = clampNonNegative(r.ImagesViewed)
	r.NightVisits = clampNonNegative(r.NightVisits)
	r.EarlyVisits = clampNonNegative(r.EarlyVisits)
	r.TimeSpent = clampNonNegative(r.TimeSpent)
	r.CurrentStreak = clampNonNegative(r.CurrentStreak)
	if r.LongestStreak < r.CurrentStreak {
		r.LongestStreak = r.CurrentStreak
	}
	r.Badges = dedupe(r.Badges)
	r.PlacesVisited = dedupe(r.PlacesVisited)
	r.VisitDates = dedupe(r.VisitDates)
	if r.PointsHistory == nil {
		r.PointsHistory = []PointsEntry{}
	}
}

// StreakMultiplier is the scalar applied to base point awards, derived solely
// from the current streak length. Monotonic step function, no interpolation.
func StreakMultiplier(streak int) float64 {
	switch {
	case streak >= 7:
		return 2.0
	case streak >= 3:
		return 1.5
	case streak >= 2:
		return 1.2
	default:
		return 1.0
	}
}

// DayKey reduces a timestamp to its local calendar-day identity.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// DaysBetween returns the whole calendar-day gap between a and b, computed on
// local dates so that 23:59 to 00:01 still counts as one day.
func DaysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, a.Location())
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, b.Location())
	return int(math.Round(bd.Sub(ad).Hours() / 24))
}

// FormatTimeSpent renders accumulated seconds as "2h 5m" or "5m".
func FormatTimeSpent(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

func clampNonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func dedupe(list []string) []string {
	out := make([]string, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for _, s := range list {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

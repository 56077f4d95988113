package core

import (
	"testing"
	"time"
)

func TestStreakMultiplierSteps(t *testing.T) {
	cases := map[int]float64{
		0:  1.0,
		1:  1.0,
		2:  1.2,
		3:  1.5,
		6:  1.5,
		7:  2.0,
		10: 2.0,
	}
	for streak, want := range cases {
		if got := StreakMultiplier(streak); got != want {
			t.Fatalf("streak %d: want %v, got %v", streak, want, got)
		}
	}
}

func TestLevelFor(t *testing.T) {
	levels := DefaultLevels()
	cases := []struct {
		points int
		want   string
	}{
		{0, "Explorer"},
		{499, "Explorer"},
		{500, "Adventurer"},
		{1500, "Discoverer"},
		{9999, "Legend"},
	}
	for _, tc := range cases {
		if got := LevelFor(levels, tc.points); got.Name != tc.want {
			t.Fatalf("points %d: want %s, got %s", tc.points, tc.want, got.Name)
		}
	}

	next, ok := NextLevel(levels, 0)
	if !ok || next.Name != "Adventurer" {
		t.Fatalf("next from 0: got %v ok=%v", next, ok)
	}
	if _, ok := NextLevel(levels, 3000); ok {
		t.Fatal("expected no level above Legend")
	}
}

func TestDaysBetween(t *testing.T) {
	base := time.Date(2025, 3, 10, 23, 50, 0, 0, time.Local)
	nextMorning := time.Date(2025, 3, 11, 0, 5, 0, 0, time.Local)
	if got := DaysBetween(base, nextMorning); got != 1 {
		t.Fatalf("midnight crossing: want 1, got %d", got)
	}
	sameDay := time.Date(2025, 3, 10, 8, 0, 0, 0, time.Local)
	if got := DaysBetween(sameDay, base); got != 0 {
		t.Fatalf("same day: want 0, got %d", got)
	}
	skip := time.Date(2025, 3, 13, 12, 0, 0, 0, time.Local)
	if got := DaysBetween(base, skip); got != 3 {
		t.Fatalf("three days: want 3, got %d", got)
	}
}

func TestFormatTimeSpent(t *testing.T) {
	if got := FormatTimeSpent(59); got != "0m" {
		t.Fatalf("59s: got %q", got)
	}
	if got := FormatTimeSpent(300); got != "5m" {
		t.Fatalf("5m: got %q", got)
	}
	if got := FormatTimeSpent(7500); got != "2h 5m" {
		t.Fatalf("2h5m: got %q", got)
	}
}

func TestNormalizeLiftsLongestStreak(t *testing.T) {
	r := DefaultRecord()
	r.CurrentStreak = 5
	r.LongestStreak = 2
	r.Points = -10
	r.Badges = []string{"a", "a", "b"}
	r.Normalize()
	if r.LongestStreak != 5 {
		t.Fatalf("longest streak: want 5, got %d", r.LongestStreak)
	}
	if r.Points != 0 {
		t.Fatalf("points clamped: want 0, got %d", r.Points)
	}
	if len(r.Badges) != 2 {
		t.Fatalf("badges deduped: want 2, got %v", r.Badges)
	}
}

func TestDefaultCatalogConditions(t *testing.T) {
	catalog := DefaultCatalog(15)
	if len(catalog) != 12 {
		t.Fatalf("catalog size: want 12, got %d", len(catalog))
	}
	byID := map[string]Badge{}
	for _, b := range catalog {
		byID[b.ID] = b
	}

	r := DefaultRecord()
	if byID[BadgeFirstSteps].Condition(r) {
		t.Fatal("first_steps should be locked on a fresh record")
	}
	r.PlacesVisited = []string{"beaches"}
	if !byID[BadgeFirstSteps].Condition(r) {
		t.Fatal("first_steps should unlock after one visit")
	}

	r.PlacesVisited = []string{"beaches", "los-roques", "morrocoy"}
	if byID[BadgeBeachExplorer].Condition(r) {
		t.Fatal("beach_explorer needs all four beach pages")
	}
	r.PlacesVisited = append(r.PlacesVisited, "coche")
	if !byID[BadgeBeachExplorer].Condition(r) {
		t.Fatal("beach_explorer should unlock with all beach pages")
	}

	// passport_pro uses the configured destination total.
	small := DefaultCatalog(4)
	var pro Badge
	for _, b := range small {
		if b.ID == BadgePassportPro {
			pro = b
		}
	}
	r2 := DefaultRecord()
	r2.PlacesVisited = []string{"a", "b"}
	if !pro.Condition(r2) {
		t.Fatal("passport_pro should unlock at 50% of 4 destinations")
	}
}

func TestCompletionistRequiresAllOthers(t *testing.T) {
	catalog := DefaultCatalog(15)
	var completionist Badge
	r := DefaultRecord()
	for _, b := range catalog {
		if b.ID == BadgeCompletionist {
			completionist = b
			continue
		}
		r.Badges = append(r.Badges, b.ID)
	}
	if !completionist.Condition(r) {
		t.Fatal("completionist should unlock once every other badge is held")
	}
	r.Badges = r.Badges[:len(r.Badges)-1]
	if completionist.Condition(r) {
		t.Fatal("completionist should stay locked with one badge missing")
	}
}

func TestCloneIsDeep(t *testing.T) {
	r := DefaultRecord()
	r.PlacesVisited = []string{"beaches"}
	now := time.Now()
	r.FirstVisit = &now

	cp := r.Clone()
	cp.PlacesVisited[0] = "changed"
	*cp.FirstVisit = now.Add(time.Hour)

	if r.PlacesVisited[0] != "beaches" {
		t.Fatal("clone shares placesVisited backing array")
	}
	if !r.FirstVisit.Equal(now) {
		t.Fatal("clone shares firstVisit pointer")
	}
}

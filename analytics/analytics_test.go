package analytics

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"tripquest/core"
)

func entry(day string, amount int, reason string) core.PointsEntry {
	ts, _ := time.Parse("2006-01-02", day)
	return core.PointsEntry{Amount: amount, Reason: reason, Multiplier: 1.0, Timestamp: ts}
}

func TestRollupDaily(t *testing.T) {
	history := []core.PointsEntry{
		entry("2026-01-05", 10, "Visited beaches"),
		entry("2026-01-05", 100, "Unlocked badge: First Steps"),
		entry("2026-01-07", 20, "Visited angel-falls"),
	}
	buckets := Rollup(history, PeriodDaily)
	if len(buckets) != 2 {
		t.Fatalf("want 2 daily buckets, got %d", len(buckets))
	}
	if buckets[0].Key != "2026-01-05" || buckets[0].Points != 110 || buckets[0].Awards != 2 {
		t.Fatalf("unexpected first bucket: %+v", buckets[0])
	}
	if buckets[1].Key != "2026-01-07" || buckets[1].Points != 20 {
		t.Fatalf("unexpected second bucket: %+v", buckets[1])
	}
	if buckets[0].ByReason["Visited beaches"] != 10 {
		t.Fatalf("reason breakdown missing: %+v", buckets[0].ByReason)
	}
}

func TestRollupWeeklyGroupsAcrossDays(t *testing.T) {
	// 2026-01-05 is a Monday; the 7th falls in the same ISO week.
	history := []core.PointsEntry{
		entry("2026-01-05", 10, "a"),
		entry("2026-01-07", 20, "b"),
		entry("2026-01-12", 30, "c"), // next Monday
	}
	buckets := Rollup(history, PeriodWeekly)
	if len(buckets) != 2 {
		t.Fatalf("want 2 weekly buckets, got %d", len(buckets))
	}
	if buckets[0].Points != 30 || buckets[1].Points != 30 {
		t.Fatalf("unexpected weekly totals: %+v", buckets)
	}
	if !strings.Contains(buckets[0].Key, "-W") {
		t.Fatalf("weekly key format wrong: %q", buckets[0].Key)
	}
	if buckets[0].StartTime.Weekday() != time.Monday {
		t.Fatalf("weekly bucket should start Monday, got %v", buckets[0].StartTime.Weekday())
	}
}

func TestSummarize(t *testing.T) {
	history := []core.PointsEntry{
		entry("2026-01-05", 10, "a"),
		entry("2026-01-07", 20, "a"),
	}
	totals := Summarize(history)
	if totals.Points != 30 || totals.Awards != 2 || totals.ByReason["a"] != 30 {
		t.Fatalf("unexpected totals: %+v", totals)
	}
	if totals.FirstAward == nil || totals.LastAward == nil {
		t.Fatal("award bounds missing")
	}
	if !totals.FirstAward.Before(*totals.LastAward) {
		t.Fatal("first award should precede last")
	}
}

func TestRankingOrdersByScoreThenReason(t *testing.T) {
	r := NewRanking()
	r.Add("visits", 50)
	r.Add("badges", 200)
	r.Add("aardvark", 50)

	top := r.TopN(3)
	if len(top) != 3 {
		t.Fatalf("want 3 entries, got %d", len(top))
	}
	if top[0].Reason != "badges" {
		t.Fatalf("highest score should rank first, got %+v", top[0])
	}
	// Ties break on reason ascending.
	if top[1].Reason != "aardvark" || top[2].Reason != "visits" {
		t.Fatalf("tie break wrong: %+v", top)
	}
}

func TestRankingAccumulatesAndRepositions(t *testing.T) {
	r := NewRanking()
	r.Add("visits", 50)
	r.Add("badges", 60)
	r.Add("visits", 50) // now 100, should move ahead of badges

	top := r.TopN(2)
	if top[0].Reason != "visits" || top[0].Score != 100 {
		t.Fatalf("accumulated entry should lead: %+v", top)
	}

	r.Remove("visits")
	if _, ok := r.Get("visits"); ok {
		t.Fatal("removed reason still present")
	}
}

func TestRankingLoadFromHistory(t *testing.T) {
	r := NewRanking()
	r.Load([]core.PointsEntry{
		entry("2026-01-05", 10, "Visited beaches"),
		entry("2026-01-06", 15, "Visited beaches"),
	})
	e, ok := r.Get("Visited beaches")
	if !ok || e.Score != 25 {
		t.Fatalf("load did not accumulate: %+v ok=%v", e, ok)
	}
}

func TestMetricsCountEvents(t *testing.T) {
	m := NewMetrics()
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		t.Fatalf("register: %v", err)
	}

	m.OnEvent(core.NewPointsEvent(15, 1.5, "Visited beaches"))
	m.OnEvent(core.NewBadgeEvent(core.Badge{ID: "beach_explorer", Name: "Beach Explorer", Icon: "🏖️"}))
	m.OnEvent(core.NewLevelUpEvent(core.Level{Name: "Adventurer", Icon: "⛺"}))

	if got := testutil.ToFloat64(m.pointsAwarded); got != 15 {
		t.Fatalf("points counter = %v, want 15", got)
	}
	if got := testutil.ToFloat64(m.badgesUnlocked); got != 1 {
		t.Fatalf("badge counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.levelUps); got != 1 {
		t.Fatalf("level counter = %v, want 1", got)
	}
}

func TestCSVExporterWritesHeaderAndRows(t *testing.T) {
	var buf bytes.Buffer
	exp := NewCSVExporter(&buf)
	buckets := Rollup([]core.PointsEntry{entry("2026-01-05", 10, "a")}, PeriodDaily)
	if err := exp.Export(context.Background(), buckets); err != nil {
		t.Fatalf("export: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("want header plus one row, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "period,key,") {
		t.Fatalf("missing header: %q", lines[0])
	}
	if !strings.Contains(lines[1], "2026-01-05") {
		t.Fatalf("row missing bucket key: %q", lines[1])
	}
}

func TestHTTPExporterPostsJSON(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	exp := NewHTTPExporter(server.URL, "secret")
	buckets := Rollup([]core.PointsEntry{entry("2026-01-05", 10, "a")}, PeriodDaily)
	if err := exp.Export(context.Background(), buckets); err != nil {
		t.Fatalf("export: %v", err)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("auth header = %q", gotAuth)
	}
}

func TestHTTPExporterSurfacesServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer server.Close()

	exp := NewHTTPExporter(server.URL, "")
	buckets := Rollup([]core.PointsEntry{entry("2026-01-05", 10, "a")}, PeriodDaily)
	if err := exp.Export(context.Background(), buckets); err == nil {
		t.Fatal("want error on 4xx response")
	}
}

package domain

import (
	"testing"
	"time"
)

func snap(daysAgo int, overall float64, averages map[string]float64) Snapshot {
	return Snapshot{
		TakenAt:  time.Now().UTC().AddDate(0, 0, -daysAgo),
		Overall:  overall,
		Averages: averages,
	}
}

func TestSubjectTrend_SkipsAbsentSubject(t *testing.T) {
	snaps := []Snapshot{
		snap(3, 4.0, map[string]float64{"Math": 4.0}),
		snap(2, 4.2, map[string]float64{"Bio": 4.2}),
		snap(1, 4.5, map[string]float64{"Math": 4.5, "Bio": 4.5}),
	}
	pts := SubjectTrend(snaps, "Math")
	if len(pts) != 2 {
		t.Fatalf("want 2 points, got %d", len(pts))
	}
	if pts[0].Value != 4.0 || pts[1].Value != 4.5 {
		t.Fatalf("unexpected values: %+v", pts)
	}
}

func TestTrendDelta_NeedsTwoPoints(t *testing.T) {
	if _, ok := TrendDelta(nil); ok {
		t.Fatal("no points: expected ok=false")
	}
	if _, ok := TrendDelta([]TrendPoint{{Value: 4}}); ok {
		t.Fatal("one point: expected ok=false")
	}
	delta, ok := TrendDelta([]TrendPoint{{Value: 4}, {Value: 4.5}})
	if !ok || delta != 0.5 {
		t.Fatalf("want 0.5, got %v (ok=%v)", delta, ok)
	}
}

func TestOverallTrend_PreservesOrder(t *testing.T) {
	snaps := []Snapshot{
		snap(2, 3.0, nil),
		snap(1, 3.5, nil),
	}
	pts := OverallTrend(snaps)
	if len(pts) != 2 || pts[0].Value != 3.0 || pts[1].Value != 3.5 {
		t.Fatalf("unexpected points: %+v", pts)
	}
}

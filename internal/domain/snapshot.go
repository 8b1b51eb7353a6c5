package domain

import "time"

// Snapshot is an immutable record of a user's grade state right after one
// ingestion. Snapshots form an append-only, time-ordered sequence per user;
// the store trims the sequence to the retention bound.
type Snapshot struct {
	ID       int64
	ChatID   int64
	TakenAt  time.Time // UTC
	Overall  float64
	Averages map[string]float64
	Counter  Multiset
}

// TrendPoint is one (time, value) observation for trend display.
type TrendPoint struct {
	TakenAt time.Time
	Value   float64
}

// OverallTrend extracts the overall-average series from snapshots.
// Snapshots must already be in chronological order.
func OverallTrend(snaps []Snapshot) []TrendPoint {
	pts := make([]TrendPoint, 0, len(snaps))
	for _, s := range snaps {
		pts = append(pts, TrendPoint{TakenAt: s.TakenAt, Value: s.Overall})
	}
	return pts
}

// SubjectTrend extracts one subject's average series from snapshots,
// skipping snapshots where the subject is absent.
func SubjectTrend(snaps []Snapshot, subject string) []TrendPoint {
	var pts []TrendPoint
	for _, s := range snaps {
		if v, ok := s.Averages[subject]; ok {
			pts = append(pts, TrendPoint{TakenAt: s.TakenAt, Value: v})
		}
	}
	return pts
}

// TrendDelta returns last-first for a series. A delta needs at least two
// points; ok is false otherwise.
func TrendDelta(pts []TrendPoint) (delta float64, ok bool) {
	if len(pts) < 2 {
		return 0, false
	}
	return pts[len(pts)-1].Value - pts[0].Value, true
}

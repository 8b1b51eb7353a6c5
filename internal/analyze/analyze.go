// Package analyze turns extracted grade entries into per-subject and
// overall averages.
package analyze

import (
	"errors"
	"sort"

	"github.com/Ozichk/telegram-grade-bot/internal/domain"
)

// ErrNoGrades is returned when the input holds no entries, i.e. the
// spreadsheet contained no recognizable grades.
var ErrNoGrades = errors.New("no grades to analyze")

// Report is the result of one analysis pass.
type Report struct {
	Overall  float64            // unweighted mean of the per-subject means
	Averages map[string]float64 // subject -> mean
	Best     string             // first maximal subject, by name order
	Worst    string             // first minimal subject, by name order
}

// Analyze groups entries by subject, computes the arithmetic mean per
// subject and the unweighted mean of those means. A subject with one grade
// weighs the same as one with twenty.
func Analyze(entries []domain.GradeEntry) (*Report, error) {
	if len(entries) == 0 {
		return nil, ErrNoGrades
	}

	bySubject := make(map[string][]int)
	for _, e := range entries {
		bySubject[e.Subject] = append(bySubject[e.Subject], e.Grade)
	}

	averages := make(map[string]float64, len(bySubject))
	for subj, grades := range bySubject {
		sum := 0
		for _, g := range grades {
			sum += g
		}
		averages[subj] = float64(sum) / float64(len(grades))
	}

	// Sorted subject order makes best/worst ties deterministic.
	subjects := make([]string, 0, len(averages))
	for s := range averages {
		subjects = append(subjects, s)
	}
	sort.Strings(subjects)

	var total float64
	best, worst := subjects[0], subjects[0]
	for _, s := range subjects {
		avg := averages[s]
		total += avg
		if avg > averages[best] {
			best = s
		}
		if avg < averages[worst] {
			worst = s
		}
	}

	return &Report{
		Overall:  total / float64(len(subjects)),
		Averages: averages,
		Best:     best,
		Worst:    worst,
	}, nil
}

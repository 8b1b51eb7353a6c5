package domain

import "sort"

// GradeEntry is one (subject, grade) pair extracted from a spreadsheet cell.
type GradeEntry struct {
	Subject string
	Grade   int
}

// GradeKey identifies one distinct multiset entry. A compound key avoids
// the separator-collision risk of joining subject and grade into a string.
type GradeKey struct {
	Subject string
	Grade   int
}

// Multiset counts how many times each exact (subject, grade) pair has been
// seen. Counts are always positive; absent keys mean zero.
type Multiset map[GradeKey]int

// NewMultiset builds a multiset from extracted entries.
func NewMultiset(entries []GradeEntry) Multiset {
	ms := make(Multiset, len(entries))
	for _, e := range entries {
		ms[GradeKey{Subject: e.Subject, Grade: e.Grade}]++
	}
	return ms
}

// Clone returns an independent copy of the multiset.
func (ms Multiset) Clone() Multiset {
	out := make(Multiset, len(ms))
	for k, v := range ms {
		out[k] = v
	}
	return out
}

// Total returns the number of grades in the multiset, counting repeats.
func (ms Multiset) Total() int {
	n := 0
	for _, c := range ms {
		n += c
	}
	return n
}

// Added reports one newly appeared grade: the key and how many times it was
// added since the previous ingestion.
type Added struct {
	Subject string
	Grade   int
	Count   int
}

// DiffMultisets returns, for every key of the new multiset whose count
// strictly exceeds the old one, the amount of the increase. Unchanged and
// decreased keys are omitted. Results are sorted by subject, then grade,
// so diffs render deterministically.
func DiffMultisets(old, new Multiset) []Added {
	var added []Added
	for key, newCount := range new {
		if d := newCount - old[key]; d > 0 {
			added = append(added, Added{Subject: key.Subject, Grade: key.Grade, Count: d})
		}
	}
	sort.Slice(added, func(i, j int) bool {
		if added[i].Subject != added[j].Subject {
			return added[i].Subject < added[j].Subject
		}
		return added[i].Grade < added[j].Grade
	})
	return added
}

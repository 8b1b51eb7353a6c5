package domain

import (
	"reflect"
	"testing"
)

func TestDiffMultisets_OnlyIncreasedKeysReported(t *testing.T) {
	old := Multiset{
		{Subject: "Math", Grade: 5}: 1,
		{Subject: "Art", Grade: 4}:  2,
	}
	new := Multiset{
		{Subject: "Math", Grade: 5}: 2,
		{Subject: "Math", Grade: 4}: 1,
		{Subject: "Art", Grade: 4}:  1, // decreased: not reported
	}

	got := DiffMultisets(old, new)
	want := []Added{
		{Subject: "Math", Grade: 4, Count: 1},
		{Subject: "Math", Grade: 5, Count: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("want %v, got %v", want, got)
	}
}

func TestDiffMultisets_FirstIngestion(t *testing.T) {
	new := NewMultiset([]GradeEntry{
		{Subject: "Math", Grade: 5},
		{Subject: "Math", Grade: 5},
		{Subject: "Bio", Grade: 3},
	})

	got := DiffMultisets(Multiset{}, new)
	want := []Added{
		{Subject: "Bio", Grade: 3, Count: 1},
		{Subject: "Math", Grade: 5, Count: 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("want %v, got %v", want, got)
	}
}

func TestDiffMultisets_NoChange(t *testing.T) {
	ms := NewMultiset([]GradeEntry{{Subject: "Math", Grade: 5}})
	if got := DiffMultisets(ms, ms.Clone()); len(got) != 0 {
		t.Fatalf("expected empty diff, got %v", got)
	}
}

func TestDiffMultisets_SortedBySubjectThenGrade(t *testing.T) {
	new := Multiset{
		{Subject: "B", Grade: 2}: 1,
		{Subject: "A", Grade: 5}: 1,
		{Subject: "A", Grade: 2}: 1,
		{Subject: "B", Grade: 1}: 1,
	}
	got := DiffMultisets(Multiset{}, new)
	want := []Added{
		{Subject: "A", Grade: 2, Count: 1},
		{Subject: "A", Grade: 5, Count: 1},
		{Subject: "B", Grade: 1, Count: 1},
		{Subject: "B", Grade: 2, Count: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("want %v, got %v", want, got)
	}
}

func TestMultiset_Total(t *testing.T) {
	ms := NewMultiset([]GradeEntry{
		{Subject: "Math", Grade: 5},
		{Subject: "Math", Grade: 5},
		{Subject: "Bio", Grade: 3},
	})
	if ms.Total() != 3 {
		t.Fatalf("want 3, got %d", ms.Total())
	}
}

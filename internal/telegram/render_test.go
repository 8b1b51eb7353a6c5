package telegram

import (
	"fmt"
	"strings"
	"testing"

	"github.com/Ozichk/telegram-grade-bot/internal/domain"
)

func TestRenderIngestion_NoNewGrades(t *testing.T) {
	got := renderIngestion(nil)
	if !strings.Contains(got, noNewGradesText) {
		t.Fatalf("expected %q in %q", noNewGradesText, got)
	}
}

func TestRenderIngestion_ListsAndCounts(t *testing.T) {
	got := renderIngestion([]domain.Added{
		{Subject: "Bio", Grade: 3, Count: 1},
		{Subject: "Math", Grade: 5, Count: 2},
	})
	if !strings.Contains(got, "• Bio: 3\n") {
		t.Fatalf("missing single entry in %q", got)
	}
	if !strings.Contains(got, "• Math: 5 x2") {
		t.Fatalf("missing repeat suffix in %q", got)
	}
}

func TestRenderIngestion_CapsLongDiffs(t *testing.T) {
	var added []domain.Added
	for i := 0; i < diffRenderLimit+4; i++ {
		added = append(added, domain.Added{Subject: fmt.Sprintf("S%03d", i), Grade: 5, Count: 1})
	}
	got := renderIngestion(added)
	if !strings.Contains(got, "…and 4 more") {
		t.Fatalf("expected overflow note in %q", got)
	}
	if strings.Count(got, "• ") != diffRenderLimit {
		t.Fatalf("want %d rendered lines, got %d", diffRenderLimit, strings.Count(got, "• "))
	}
}

func TestBestWorst_TieTakesFirstByName(t *testing.T) {
	best, worst := bestWorst(map[string]float64{"B": 4, "A": 4, "C": 5})
	if best != "C" || worst != "A" {
		t.Fatalf("want C/A, got %s/%s", best, worst)
	}
}

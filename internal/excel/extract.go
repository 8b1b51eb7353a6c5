// Package excel extracts (subject, grade) pairs from xlsx workbooks.
package excel

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Ozichk/telegram-grade-bot/internal/domain"
)

// Extract reads the first sheet of an xlsx workbook and returns the grade
// entries it contains, in row order.
//
// Row policy: the first cell is the subject label; rows whose first cell is
// empty or numeric are skipped entirely. Every later cell is taken as a
// grade only when it is numeric (decimals are truncated); anything else,
// such as absence markers, is silently ignored. An empty or grade-free
// workbook yields an empty slice, not an error.
func Extract(r io.Reader) ([]domain.GradeEntry, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, nil
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	var entries []domain.GradeEntry
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		subject := strings.TrimSpace(row[0])
		if subject == "" || isNumeric(subject) {
			continue
		}
		for _, cell := range row[1:] {
			if g, ok := parseGrade(cell); ok {
				entries = append(entries, domain.GradeEntry{Subject: subject, Grade: g})
			}
		}
	}
	return entries, nil
}

// parseGrade accepts integer or decimal cells; decimals are truncated.
func parseGrade(cell string) (int, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int(v), true
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

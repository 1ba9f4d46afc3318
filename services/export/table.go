// Package export renders timetables as PDF and XLSX documents.
package export

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/trezcool/ratiba/core/slot"
)

const (
	ContentTypePDF  = "application/pdf"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Table is a titled grid: one row per day, one column per period.
type Table struct {
	Title     string
	Columns   []string
	RowLabels []string
	Rows      [][]string
	// Highlight marks cells to emphasize, indexed like Rows. May be nil.
	Highlight [][]bool
}

// FromSchedule builds the table of a single class.
func FromSchedule(class string, s slot.Schedule) Table {
	t := newWeekTable("Timetable - " + class)
	for i, subj := range s {
		if i.Valid() {
			t.Rows[i.Day()][i.Period()] = subj
		}
	}
	return t
}

// FromGiant builds the merged table of several classes. Slots shared by more than one lesson are highlighted.
func FromGiant(classes []string, g slot.Giant) Table {
	t := newWeekTable(fmt.Sprintf("Giant Timetable - %d Classes", len(classes)))
	t.Highlight = make([][]bool, slot.DaysPerWeek)
	for d := range t.Highlight {
		t.Highlight[d] = make([]bool, slot.PeriodsPerDay)
	}
	for _, i := range g.Slots() {
		if !i.Valid() {
			continue
		}
		t.Rows[i.Day()][i.Period()] = g.CellText(i)
		t.Highlight[i.Day()][i.Period()] = len(g[i]) > 1
	}
	return t
}

func newWeekTable(title string) Table {
	t := Table{
		Title:     title,
		Columns:   slot.PDFPeriodLabels[:],
		RowLabels: slot.ShortDays[:],
		Rows:      make([][]string, slot.DaysPerWeek),
	}
	for d := range t.Rows {
		t.Rows[d] = make([]string, slot.PeriodsPerDay)
	}
	return t
}

// Filename returns a download name derived from the title, e.g. "timetable-cse-a.pdf".
func (t Table) Filename(ext string) string {
	name := strings.Trim(nonAlnum.ReplaceAllString(strings.ToLower(t.Title), "-"), "-")
	if name == "" {
		name = "timetable"
	}
	return name + "." + strings.TrimPrefix(ext, ".")
}

func (t Table) highlighted(row, col int) bool {
	return row < len(t.Highlight) && col < len(t.Highlight[row]) && t.Highlight[row][col]
}

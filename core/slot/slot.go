// Package slot implements the weekly slot-index model shared with the scheduling API.
//
// A week has 5 teaching days of 7 periods each. A (day, period) pair is flattened
// to day*7 + period, giving indices 0 to 34.
package slot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DaysPerWeek   = 5
	PeriodsPerDay = 7
	Count         = DaysPerWeek * PeriodsPerDay

	// firstHour is the clock hour of period 0.
	firstHour = 9
)

var ErrOutOfRange = errors.New("slot out of range")

var (
	Days      = [DaysPerWeek]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}
	ShortDays = [DaysPerWeek]string{"Mon", "Tue", "Wed", "Thu", "Fri"}

	// PeriodLabels are shown by the web viewers; lunch falls between the 4th and 5th period.
	PeriodLabels = [PeriodsPerDay]string{
		"9:00 - 10:00", "10:00 - 11:00", "11:00 - 12:00", "12:00 - 1:00",
		"2:00 - 3:00", "3:00 - 4:00", "4:00 - 5:00",
	}

	// PDFPeriodLabels head the columns of exported documents.
	PDFPeriodLabels = [PeriodsPerDay]string{
		"09:00 - 10:00", "10:00 - 11:00", "11:00 - 12:00", "12:00 - 01:00",
		"01:00 - 02:00", "02:00 - 03:00", "03:00 - 04:00",
	}
)

// Index is a flattened (day, period) position.
type Index int

// FlatIndex returns the slot for the given day (0-4) and period (0-6).
func FlatIndex(day, period int) (Index, error) {
	if day < 0 || day >= DaysPerWeek || period < 0 || period >= PeriodsPerDay {
		return 0, fmt.Errorf("day %d, period %d: %w", day, period, ErrOutOfRange)
	}
	return Index(day*PeriodsPerDay + period), nil
}

// MustFlatIndex is like FlatIndex but panics on invalid input.
func MustFlatIndex(day, period int) Index {
	i, err := FlatIndex(day, period)
	if err != nil {
		panic(err)
	}
	return i
}

// Decode is the inverse of FlatIndex.
func Decode(i Index) (day, period int, err error) {
	if !i.Valid() {
		return 0, 0, fmt.Errorf("index %d: %w", i, ErrOutOfRange)
	}
	return i.Day(), i.Period(), nil
}

// Parse reads a decimal slot index.
func Parse(s string) (Index, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("slot %q: %w", s, err)
	}
	i := Index(n)
	if !i.Valid() {
		return 0, fmt.Errorf("index %d: %w", n, ErrOutOfRange)
	}
	return i, nil
}

func (i Index) Valid() bool { return i >= 0 && i < Count }
func (i Index) Day() int    { return int(i) / PeriodsPerDay }
func (i Index) Period() int { return int(i) % PeriodsPerDay }

func (i Index) String() string {
	if !i.Valid() {
		return "invalid(" + strconv.Itoa(int(i)) + ")"
	}
	return Days[i.Day()] + " " + PeriodLabels[i.Period()]
}

// Grid is a day by period boolean matrix, as drawn by the availability picker.
type Grid [DaysPerWeek][PeriodsPerDay]bool

// FromGrid lists the checked cells in ascending order.
func FromGrid(g Grid) []Index {
	out := make([]Index, 0, Count)
	for d := range g {
		for p, checked := range g[d] {
			if checked {
				out = append(out, Index(d*PeriodsPerDay+p))
			}
		}
	}
	return out
}

// ToGrid checks the cells for the given slots; invalid indices are ignored.
func ToGrid(slots []Index) Grid {
	var g Grid
	for _, i := range slots {
		if i.Valid() {
			g[i.Day()][i.Period()] = true
		}
	}
	return g
}

// ExamSlot returns the slot occupied by an exam starting at `start` (HH:MM) on `date`.
// Weekends and hours outside the teaching day have no slot.
func ExamSlot(date time.Time, start string) (Index, bool) {
	wd := int(date.Weekday()+6) % 7 // Monday = 0
	if wd >= DaysPerWeek {
		return 0, false
	}
	t, err := time.Parse("15:04", start)
	if err != nil {
		return 0, false
	}
	period := t.Hour() - firstHour
	if period < 0 || period >= PeriodsPerDay {
		return 0, false
	}
	return Index(wd*PeriodsPerDay + period), true
}

package slot

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFlatIndexDecode(t *testing.T) {
	for day := 0; day < DaysPerWeek; day++ {
		for period := 0; period < PeriodsPerDay; period++ {
			i, err := FlatIndex(day, period)
			if err != nil {
				t.Fatalf("FlatIndex(%d, %d) unexpected error = %v", day, period, err)
			}
			if int(i) != day*7+period {
				t.Errorf("FlatIndex(%d, %d) = %d, want %d", day, period, i, day*7+period)
			}
			gotDay, gotPeriod, err := Decode(i)
			if err != nil {
				t.Fatalf("Decode(%d) unexpected error = %v", i, err)
			}
			if gotDay != day || gotPeriod != period {
				t.Errorf("Decode(%d) = (%d, %d), want (%d, %d)", i, gotDay, gotPeriod, day, period)
			}
		}
	}
}

func TestFlatIndexOutOfRange(t *testing.T) {
	tests := []struct {
		name        string
		day, period int
	}{
		{name: "negative day", day: -1, period: 0},
		{name: "saturday", day: 5, period: 0},
		{name: "negative period", day: 0, period: -1},
		{name: "8th period", day: 0, period: 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FlatIndex(tt.day, tt.period); !errors.Is(err, ErrOutOfRange) {
				t.Errorf("FlatIndex() error = %v, wantErr %v", err, ErrOutOfRange)
			}
		})
	}

	for _, i := range []Index{-1, 35, 100} {
		if _, _, err := Decode(i); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("Decode(%d) error = %v, wantErr %v", i, err, ErrOutOfRange)
		}
	}
	assert.Panics(t, func() { MustFlatIndex(5, 0) })
}

func TestParse(t *testing.T) {
	i, err := Parse(" 34 ")
	assert.NoError(t, err)
	assert.Equal(t, Index(34), i)

	_, err = Parse("35")
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = Parse("lol")
	assert.Error(t, err)
}

func TestIndexString(t *testing.T) {
	assert.Equal(t, "Monday 9:00 - 10:00", Index(0).String())
	assert.Equal(t, "Friday 4:00 - 5:00", Index(34).String())
	assert.Equal(t, "invalid(40)", Index(40).String())
}

func TestGrid(t *testing.T) {
	var g Grid
	g[0][0] = true
	g[1][3] = true
	g[4][6] = true

	slots := FromGrid(g)
	assert.Equal(t, []Index{0, 10, 34}, slots)
	assert.Equal(t, g, ToGrid(slots))
	assert.Equal(t, g, ToGrid(append(slots, -3, 99)))
	assert.Empty(t, FromGrid(Grid{}))
}

func TestExamSlot(t *testing.T) {
	date := func(s string) time.Time {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			t.Fatalf("time.Parse() failed: %v", err)
		}
		return d
	}

	tests := []struct {
		name   string
		date   string
		start  string
		want   Index
		wantOk bool
	}{
		{name: "monday first period", date: "2024-01-01", start: "09:00", want: 0, wantOk: true},
		{name: "wednesday noon", date: "2024-01-03", start: "12:30", want: 17, wantOk: true},
		{name: "friday last period", date: "2024-01-05", start: "15:00", want: 34, wantOk: true},
		{name: "too early", date: "2024-01-01", start: "08:00"},
		{name: "too late", date: "2024-01-01", start: "16:00"},
		{name: "saturday", date: "2024-01-06", start: "09:00"},
		{name: "sunday", date: "2024-01-07", start: "09:00"},
		{name: "malformed time", date: "2024-01-01", start: "nine"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExamSlot(date(tt.date), tt.start)
			if ok != tt.wantOk {
				t.Fatalf("ExamSlot() ok = %v, want %v", ok, tt.wantOk)
			}
			if ok && got != tt.want {
				t.Errorf("ExamSlot() = %d, want %d", got, tt.want)
			}
		})
	}
}

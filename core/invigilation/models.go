package invigilation

import (
	"math"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/slot"
)

const (
	DefaultTeachersPerDay = 2
	DefaultTimeStart      = "09:00"
	DefaultTimeEnd        = "12:00"

	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusFailed  = "failed"
)

var (
	dateOrderTag  = "dateorder"
	dateOrderText = "end date must be on or after the start date"

	timeOrderTag  = "timeorder"
	timeOrderText = "end time must be after the start time"
)

type (
	// Request is the invigilation form, as posted to /invigilators/assign.
	Request struct {
		ExamDateFrom   string   `json:"exam_date_from" form:"exam_date_from" validate:"required,isodate"`
		ExamDateTo     string   `json:"exam_date_to" form:"exam_date_to" validate:"required,isodate"`
		TeacherNames   []string `json:"teacher_names" form:"-" validate:"required,min=1,dive,required"`
		TeachersPerDay int      `json:"teachers_per_day" form:"teachers_per_day" validate:"gt=0"`
		ExamTimeStart  string   `json:"exam_time_start" form:"exam_time_start" validate:"required,hhmm"`
		ExamTimeEnd    string   `json:"exam_time_end" form:"exam_time_end" validate:"required,hhmm"`
	}

	DayAssignment struct {
		Date      string   `json:"date"`
		DayOfWeek string   `json:"day_of_week"`
		Teachers  []string `json:"teachers"`
		Required  int      `json:"required"`
		Assigned  int      `json:"assigned"`
		ExamTime  string   `json:"exam_time"`
		Status    string   `json:"status"`
	}

	Summary struct {
		TotalDaysProcessed    int     `json:"total_days_processed"`
		SuccessfulDays        int     `json:"successful_days"`
		TotalTeachersRequired int     `json:"total_teachers_required"`
		TotalTeachersAssigned int     `json:"total_teachers_assigned"`
		CoverageRate          float64 `json:"coverage_rate"`
		Error                 string  `json:"error,omitempty"`
	}

	// Result is the answer of /invigilators/assign.
	Result struct {
		Success      bool            `json:"success"`
		AssignmentID string          `json:"assignment_id"`
		Assignments  []DayAssignment `json:"assignments"`
		Summary      Summary         `json:"summary"`
	}

	// Record is a saved assignment, listed by /invigilators/assignments.
	Record struct {
		ExamDateFrom   string          `json:"exam_date_from"`
		ExamDateTo     string          `json:"exam_date_to"`
		TeachersPerDay int             `json:"teachers_per_day"`
		ExamTimeStart  string          `json:"exam_time_start"`
		ExamTimeEnd    string          `json:"exam_time_end"`
		Assignments    []DayAssignment `json:"assignments"`
		CreatedAt      string          `json:"created_at"`
	}
)

// NewRequest returns a form filled with its defaults.
func NewRequest() Request {
	return Request{
		TeachersPerDay: DefaultTeachersPerDay,
		ExamTimeStart:  DefaultTimeStart,
		ExamTimeEnd:    DefaultTimeEnd,
	}
}

// InitValidators registers the struct level rules of Request.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(requestStructValidation, Request{})
	core.RegisterCustomTranslation(validate, translator, dateOrderTag, dateOrderText)
	core.RegisterCustomTranslation(validate, translator, timeOrderTag, timeOrderText)
}

// SetTeachers fills TeacherNames from a newline separated textarea.
func (r *Request) SetTeachers(text string) {
	r.TeacherNames = core.SplitLines(text)
}

func (r *Request) Validate(validate *validator.Validate) error {
	r.ExamDateFrom = core.CleanString(r.ExamDateFrom)
	r.ExamDateTo = core.CleanString(r.ExamDateTo)
	r.ExamTimeStart = core.CleanString(r.ExamTimeStart)
	r.ExamTimeEnd = core.CleanString(r.ExamTimeEnd)
	names := make([]string, 0, len(r.TeacherNames))
	for _, n := range r.TeacherNames {
		if n = core.CleanString(n); n != "" {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		names = nil
	}
	r.TeacherNames = names
	return validate.Struct(r)
}

// Days is the number of calendar days the exam period spans, both ends included.
// It is 0 when the dates are missing or reversed.
func (r Request) Days() int {
	from, to, ok := r.dates()
	if !ok || to.Before(from) {
		return 0
	}
	return int(math.Ceil(to.Sub(from).Hours()/24)) + 1
}

// ExamSlots lists the timetable slot of each exam day that falls inside the teaching week.
func (r Request) ExamSlots() []slot.Index {
	from, to, ok := r.dates()
	if !ok {
		return nil
	}
	out := make([]slot.Index, 0)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if i, ok := slot.ExamSlot(d, r.ExamTimeStart); ok {
			out = append(out, i)
		}
	}
	return out
}

func (r Request) dates() (from, to time.Time, ok bool) {
	from, err := time.Parse(core.DateLayout, r.ExamDateFrom)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	to, err = time.Parse(core.DateLayout, r.ExamDateTo)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func requestStructValidation(sl validator.StructLevel) {
	r := sl.Current().Interface().(Request)

	if from, to, ok := r.dates(); ok && to.Before(from) {
		sl.ReportError(r.ExamDateTo, "exam_date_to", "ExamDateTo", dateOrderTag, "")
	}

	start, err1 := time.Parse(core.TimeLayout, r.ExamTimeStart)
	end, err2 := time.Parse(core.TimeLayout, r.ExamTimeEnd)
	if err1 == nil && err2 == nil && !end.After(start) {
		sl.ReportError(r.ExamTimeEnd, "exam_time_end", "ExamTimeEnd", timeOrderTag, "")
	}
}

// Coverage is the share of required invigilators that got assigned, in percent.
func (res Result) Coverage() float64 {
	if res.Summary.CoverageRate > 0 {
		return res.Summary.CoverageRate
	}
	var required, assigned int
	for _, a := range res.Assignments {
		required += a.Required
		assigned += a.Assigned
	}
	if required == 0 {
		return 0
	}
	return math.Round(float64(assigned)/float64(required)*1000) / 10
}

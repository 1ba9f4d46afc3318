package timetable

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/availability"
	"github.com/trezcool/ratiba/core/slot"
)

const (
	StatusPending = "pending"

	KindTheory = "theory"
	KindLab    = "lab"
)

var (
	uniqueTeachersTag  = "uniqueteachers"
	uniqueTeachersText = "each teacher may appear only once per class"
)

type (
	// Teacher is one roster row of a class.
	Teacher struct {
		ID          string   `json:"id" validate:"required"`
		Name        string   `json:"name" validate:"required"`
		Subject     []string `json:"subject" validate:"required,min=1,dive,required"`
		MobileNo    string   `json:"mobileno"`
		Email       string   `json:"email" validate:"omitempty,email"`
		NoOfClasses int      `json:"no_of_classes" validate:"gte=0"`
		TheoryLab   string   `json:"theory_lab" validate:"omitempty,oneof=theory lab"`
		Status      string   `json:"status"`
	}

	// ClassInput is the roster of one class, as posted to /input/assign.
	ClassInput struct {
		ClassName string    `json:"class_name" validate:"required"`
		Teachers  []Teacher `json:"teachers" validate:"required,min=1,dive"`
	}

	// InputData is everything entered so far.
	InputData struct {
		Classes    []ClassInput `json:"data"`
		ClassNames []string     `json:"classes"`
	}

	// ClassTimetable is a generated timetable: subject → occupied slots.
	ClassTimetable struct {
		ClassID  string                  `json:"class_id"`
		Subjects map[string][]slot.Index `json:"ttable"`
	}

	StudentGroup struct {
		Group    string         `json:"group"`
		Subjects map[string]int `json:"subjects"`
	}

	GenerateTeacher struct {
		Name    string   `json:"name"`
		Subject []string `json:"subject"`
	}

	Unavailability struct {
		Name  string       `json:"name"`
		Slots []slot.Index `json:"slots"`
	}

	// GenerateRequest is the payload of /generate/time-table.
	GenerateRequest struct {
		StudentGroups         []StudentGroup    `json:"studentgroups"`
		Teachers              []GenerateTeacher `json:"teachers"`
		TeacherUnavailability []Unavailability  `json:"teacherunavailability"`
	}

	GenerateResult struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
)

// UnmarshalJSON also accepts `teacher_id` for the id.
func (t *Teacher) UnmarshalJSON(data []byte) error {
	type alias Teacher
	aux := struct {
		*alias
		TeacherID string `json:"teacher_id"`
	}{alias: (*alias)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if t.ID == "" {
		t.ID = aux.TeacherID
	}
	return nil
}

// UnmarshalJSON also accepts `class_name` for the class id.
func (ct *ClassTimetable) UnmarshalJSON(data []byte) error {
	type alias ClassTimetable
	aux := struct {
		*alias
		ClassName string `json:"class_name"`
	}{alias: (*alias)(ct)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if ct.ClassID == "" {
		ct.ClassID = aux.ClassName
	}
	return nil
}

func (ct ClassTimetable) Schedule() slot.Schedule {
	return slot.Invert(ct.Subjects)
}

func (ct ClassTimetable) ClassSchedule() slot.ClassSchedule {
	return slot.ClassSchedule{Class: ct.ClassID, Subjects: ct.Subjects}
}

// InitValidators registers the struct level rules of ClassInput.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(classStructValidation, ClassInput{})
	core.RegisterCustomTranslation(validate, translator, uniqueTeachersTag, uniqueTeachersText)
}

func classStructValidation(sl validator.StructLevel) {
	ci := sl.Current().Interface().(ClassInput)
	seen := make(map[string]bool, len(ci.Teachers))
	for _, t := range ci.Teachers {
		if t.ID == "" {
			continue
		}
		if seen[t.ID] {
			sl.ReportError(ci.Teachers, "teachers", "Teachers", uniqueTeachersTag, "")
			return
		}
		seen[t.ID] = true
	}
}

func (ci *ClassInput) Validate(validate *validator.Validate) error {
	ci.ClassName = core.CleanString(ci.ClassName)
	for i := range ci.Teachers {
		t := &ci.Teachers[i]
		t.ID = core.CleanString(t.ID)
		t.Name = core.CleanString(t.Name)
		t.MobileNo = core.CleanString(t.MobileNo)
		t.Email = core.CleanString(t.Email, true /* lower */)
		t.TheoryLab = core.CleanString(t.TheoryLab, true /* lower */)
		subjects := t.Subject[:0]
		for _, s := range t.Subject {
			if s = core.CleanString(s); s != "" {
				subjects = append(subjects, s)
			}
		}
		if len(subjects) == 0 {
			subjects = nil
		}
		t.Subject = subjects
		if t.Status == "" {
			t.Status = StatusPending
		}
	}
	return validate.Struct(ci)
}

// Names lists the class names, preferring the explicit list sent by the API.
func (d InputData) Names() []string {
	if len(d.ClassNames) > 0 {
		return d.ClassNames
	}
	names := make([]string, 0, len(d.Classes))
	for _, c := range d.Classes {
		names = append(names, c.ClassName)
	}
	return names
}

// Class finds a class roster by name.
func (d InputData) Class(name string) (ClassInput, bool) {
	for _, c := range d.Classes {
		if c.ClassName == name {
			return c, true
		}
	}
	return ClassInput{}, false
}

// BuildGenerateRequest turns a class roster and the teachers' availability into a generation request.
// The class becomes one student group whose subjects sum their teachers' weekly classes.
func BuildGenerateRequest(class ClassInput, avail map[string]availability.Record) GenerateRequest {
	group := StudentGroup{Group: class.ClassName, Subjects: make(map[string]int)}
	req := GenerateRequest{
		StudentGroups:         []StudentGroup{group},
		Teachers:              make([]GenerateTeacher, 0, len(class.Teachers)),
		TeacherUnavailability: make([]Unavailability, 0, len(class.Teachers)),
	}

	for _, t := range class.Teachers {
		for _, subj := range t.Subject {
			group.Subjects[subj] += t.NoOfClasses
		}
		req.Teachers = append(req.Teachers, GenerateTeacher{Name: t.Name, Subject: t.Subject})

		slots := []slot.Index{}
		if rec, ok := avail[t.ID]; ok {
			slots = rec.Unavailable()
		}
		req.TeacherUnavailability = append(req.TeacherUnavailability, Unavailability{Name: t.Name, Slots: slots})
	}
	return req
}

// SubjectSummary renders "Math (3), Physics (2)" for a group, in name order.
func (g StudentGroup) SubjectSummary() string {
	keys := make([]string, 0, len(g.Subjects))
	for k := range g.Subjects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" ("+strconv.Itoa(g.Subjects[k])+")")
	}
	return strings.Join(parts, ", ")
}

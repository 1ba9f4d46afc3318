package availability

import (
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/slot"
)

// Record is what the API stores for one teacher.
type Record struct {
	TeacherID               string       `json:"teacher_id"`
	Slots                   []slot.Index `json:"slots,omitempty"`
	AuthenticUnavailability []slot.Index `json:"authentic_unavailability,omitempty"`
	CurrentUnavailability   []slot.Index `json:"current_unavailability,omitempty"`
	Submitted               bool         `json:"submitted"`
}

// Unavailable returns the slots the teacher asked to be kept free.
func (r Record) Unavailable() []slot.Index {
	switch {
	case r.AuthenticUnavailability != nil:
		return r.AuthenticUnavailability
	case r.CurrentUnavailability != nil:
		return r.CurrentUnavailability
	case r.Slots != nil:
		return r.Slots
	}
	return []slot.Index{}
}

// Submission is sent by a teacher from the availability picker.
type Submission struct {
	TeacherID string       `json:"teacher_id" validate:"required"`
	Slots     []slot.Index `json:"slots" validate:"dive,slotindex"`
	Submitted bool         `json:"submitted"`
}

func (s *Submission) Validate(validate *validator.Validate) error {
	s.TeacherID = core.CleanString(s.TeacherID)
	if err := validate.Struct(s); err != nil {
		return err
	}

	seen := make(map[slot.Index]bool, len(s.Slots))
	slots := make([]slot.Index, 0, len(s.Slots))
	for _, i := range s.Slots {
		if !seen[i] {
			seen[i] = true
			slots = append(slots, i)
		}
	}
	sort.Slice(slots, func(a, b int) bool { return slots[a] < slots[b] })
	s.Slots = slots
	s.Submitted = true
	return nil
}

// LinkRequest asks the API to email a teacher their availability link.
type LinkRequest struct {
	TeacherID    string `json:"teacher_id" form:"teacher_id" validate:"required"`
	TeacherEmail string `json:"teacher_email" form:"teacher_email" validate:"required,email"`
}

func (lr *LinkRequest) Validate(validate *validator.Validate) error {
	lr.TeacherID = core.CleanString(lr.TeacherID)
	lr.TeacherEmail = core.CleanString(lr.TeacherEmail, true /* lower */)
	return validate.Struct(lr)
}

// SyncResult is returned once the API has folded generated timetables into availability.
type SyncResult struct {
	Success         bool     `json:"success"`
	Message         string   `json:"message"`
	UpdatedTeachers []string `json:"updated_teachers"`
}
